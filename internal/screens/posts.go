package screens

import (
	"context"
	"strings"

	"github.com/and161185/blogbox/internal/errs"
	"github.com/and161185/blogbox/internal/model"
	"github.com/and161185/blogbox/internal/navigation"
	"github.com/and161185/blogbox/internal/validate"
	"go.uber.org/zap"
)

// Home offers shortcuts to the post screens.
type Home struct {
	base
}

// AddPost opens the post form.
func (s *Home) AddPost() { s.navigate(navigation.RouteAddPost, nil) }

// ViewPosts opens the post list.
func (s *Home) ViewPosts() { s.navigate(navigation.RouteViewPosts, nil) }

// Menu toggles the side menu.
func (s *Home) Menu() error { return s.d.Nav.ToggleDrawer() }

// PostForm is the "Create New Post" form.
type PostForm struct {
	Title       string
	Description string
	ImageURL    string
}

// AddPost is the post creation screen.
type AddPost struct {
	base
}

// Enter checks that someone is signed in, sending the user to the login
// screen otherwise.
func (s *AddPost) Enter() bool {
	if s.d.Auth.Identity() != nil {
		return true
	}
	s.d.Notify.Notify(Notification{Level: LevelError, Title: "Error", Message: MsgLoginRequired})
	s.navigate(navigation.RouteLogin, nil)
	return false
}

// Submit validates f and inserts it as the current user's post with every
// field trimmed.
func (s *AddPost) Submit(ctx context.Context, f PostForm) error {
	id := s.d.Auth.Identity()
	if id == nil {
		s.Enter()
		return errs.ErrNoSession
	}
	if err := validate.Post(f.Title, f.Description, f.ImageURL); err != nil {
		s.fail(err)
		return err
	}
	p := model.NewPost{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		ImageURL:    strings.TrimSpace(f.ImageURL),
		UserID:      id.ID,
	}
	if err := s.d.Posts.Insert(ctx, p); err != nil {
		s.d.Log.Error("insert post", zap.Error(err))
		s.fail(err)
		return err
	}
	s.d.Notify.Notify(Notification{
		Level:   LevelSuccess,
		Title:   "Success",
		Message: MsgPostAdded,
		Actions: []Action{
			{Label: "View Posts", Do: func() { s.navigate(navigation.RouteViewPosts, nil) }},
			{Label: "Add Another", Reset: true},
		},
	})
	return nil
}

// ViewPosts lists every post.
type ViewPosts struct {
	base
}

// Load returns the displayable posts, newest first. Posts without a title
// are skipped.
func (s *ViewPosts) Load(ctx context.Context) ([]model.Post, error) {
	all, err := s.d.Posts.List(ctx)
	if err != nil {
		s.d.Log.Error("list posts", zap.Error(err))
		s.fail(err)
		return nil, err
	}
	out := make([]model.Post, 0, len(all))
	for _, p := range all {
		if strings.TrimSpace(p.Title) == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Open shows p on the detail screen.
func (s *ViewPosts) Open(p model.Post) { s.navigate(navigation.RouteBlogDetail, p) }

// BlogDetail shows one post.
type BlogDetail struct {
	base
}

// Post extracts the post from the screen's history entry.
func (s *BlogDetail) Post(e navigation.Entry) (model.Post, bool) {
	p, ok := e.Params.(model.Post)
	return p, ok
}

// Back returns to the previous screen.
func (s *BlogDetail) Back() bool { return s.d.Nav.GoBack() }
