// Package screens holds the per-screen behaviour of the blog client: form
// submission, backend calls and the navigation each outcome requests. The
// renderer (TUI or one-shot CLI) owns input and drawing.
package screens

import (
	"context"
	"errors"

	"github.com/and161185/blogbox/internal/errs"
	"github.com/and161185/blogbox/internal/model"
	"github.com/and161185/blogbox/internal/navigation"
	"go.uber.org/zap"
	"google.golang.org/grpc/status"
)

// Auth is the subset of the Auth Session Store the screens use.
type Auth interface {
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	Identity() *model.Identity
}

// Posts is the Post Store.
type Posts interface {
	Insert(ctx context.Context, p model.NewPost) error
	List(ctx context.Context) ([]model.Post, error)
}

// Navigator is implemented by *navigation.Controller.
type Navigator interface {
	Navigate(r navigation.Route, params any) error
	Reset(r navigation.Route, params any) error
	GoBack() bool
	ToggleDrawer() error
}

// Level of a notification.
type Level int

const (
	LevelError Level = iota
	LevelSuccess
)

// Action is a button offered by a notification.
type Action struct {
	Label string
	Do    func() // may be nil
	Reset bool   // the form that raised the notification starts over
}

// Notification is a user-visible alert.
type Notification struct {
	Level   Level
	Title   string
	Message string
	Actions []Action
}

// Notifier shows notifications. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// User-facing texts not covered by validation messages.
const (
	MsgLoginRequired  = "Please log in to add posts"
	MsgSignedUp       = "Registration successful! Please check your email for verification."
	MsgPostAdded      = "Post added successfully"
	MsgSignOutPartial = "You were signed out on this device, but the server could not be reached"
)

// Message renders err for the user.
func Message(err error) string {
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var ae *errs.AuthError
	if errors.As(err, &ae) {
		switch ae.Kind {
		case errs.AuthBadCredentials:
			return "Invalid login credentials"
		case errs.AuthNetwork:
			return "Network error, please try again"
		case errs.AuthWeakPassword:
			return "Password is too weak"
		case errs.AuthAlreadyRegistered:
			return "User already registered"
		case errs.AuthRateLimited:
			return "Too many attempts, please try again later"
		}
		return "Something went wrong, please try again"
	}
	if errors.Is(err, errs.ErrNoSession) {
		return "Your session has ended, please log in again"
	}
	var se *errs.StoreError
	if errors.As(err, &se) {
		return status.Convert(se.Err).Message()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Deps are the collaborators every screen shares.
type Deps struct {
	Auth   Auth
	Posts  Posts
	Nav    Navigator
	Notify Notifier
	Log    *zap.Logger
}

type base struct {
	d Deps
}

func (b base) fail(err error) {
	b.d.Notify.Notify(Notification{Level: LevelError, Title: "Error", Message: Message(err)})
}

// navigate requests a transition. A rejected request only means the graph
// already moved on (for example a sign-in remounted the root).
func (b base) navigate(r navigation.Route, params any) {
	if err := b.d.Nav.Navigate(r, params); err != nil {
		b.d.Log.Debug("navigation request dropped", zap.String("route", string(r)), zap.Error(err))
	}
}

// Set holds one instance of every screen.
type Set struct {
	Login      *Login
	Signup     *Signup
	Home       *Home
	Profile    *Profile
	AddPost    *AddPost
	ViewPosts  *ViewPosts
	BlogDetail *BlogDetail
}

// New wires every screen to d.
func New(d Deps) *Set {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Notify == nil {
		d.Notify = NotifierFunc(func(Notification) {})
	}
	b := base{d: d}
	return &Set{
		Login:      &Login{base: b},
		Signup:     &Signup{base: b},
		Home:       &Home{base: b},
		Profile:    &Profile{base: b},
		AddPost:    &AddPost{base: b},
		ViewPosts:  &ViewPosts{base: b},
		BlogDetail: &BlogDetail{base: b},
	}
}
