// Package convert maps domain models to and from Blog wire messages.
package convert

import (
	"fmt"
	"time"

	"github.com/and161185/blogbox/internal/api"
	"github.com/and161185/blogbox/internal/model"
	u "github.com/gofrs/uuid/v5"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// --- helpers ---

func ts(t time.Time) *timestamppb.Timestamp {
	if t.IsZero() {
		return nil
	}
	return timestamppb.New(t)
}

func fromTS(t *timestamppb.Timestamp) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.AsTime()
}

// --- identity ---

// ToAPIUser converts an identity into its wire form.
func ToAPIUser(id model.Identity) *api.User {
	return &api.User{ID: id.ID.String(), Email: id.Email}
}

// FromAPIUser parses a wire user; nil stays nil.
func FromAPIUser(in *api.User) (*model.Identity, error) {
	if in == nil {
		return nil, nil
	}
	id, err := u.FromString(in.GetID())
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	return &model.Identity{ID: id, Email: in.GetEmail()}, nil
}

// --- posts ---

// ToAPIPost converts a stored post.
func ToAPIPost(p model.Post) *api.Post {
	return &api.Post{
		ID:          p.ID.String(),
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CreatedAt:   ts(p.CreatedAt),
		UserID:      p.UserID.String(),
	}
}

// ToAPIPosts converts a slice of posts.
func ToAPIPosts(ps []model.Post) []*api.Post {
	out := make([]*api.Post, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToAPIPost(p))
	}
	return out
}

// FromAPIPost parses a wire post.
func FromAPIPost(in *api.Post) (model.Post, error) {
	if in == nil {
		return model.Post{}, fmt.Errorf("nil post")
	}
	id, err := u.FromString(in.ID)
	if err != nil {
		return model.Post{}, fmt.Errorf("invalid post id: %w", err)
	}
	uid, err := u.FromString(in.UserID)
	if err != nil {
		return model.Post{}, fmt.Errorf("invalid user id: %w", err)
	}
	return model.Post{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		CreatedAt:   fromTS(in.CreatedAt),
		UserID:      uid,
	}, nil
}

// FromAPIPosts parses all posts, failing on the first malformed one.
func FromAPIPosts(in []*api.Post) ([]model.Post, error) {
	out := make([]model.Post, 0, len(in))
	for i, p := range in {
		mp, err := FromAPIPost(p)
		if err != nil {
			return nil, fmt.Errorf("post[%d]: %w", i, err)
		}
		out = append(out, mp)
	}
	return out, nil
}

// ToAPINewPost builds an insert request.
func ToAPINewPost(p model.NewPost) *api.InsertPostRequest {
	return &api.InsertPostRequest{
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		UserID:      p.UserID.String(),
	}
}

// FromAPINewPost parses an insert request. An empty user_id stays uuid.Nil,
// which the backend reads as the caller.
func FromAPINewPost(in *api.InsertPostRequest) (model.NewPost, error) {
	if in == nil {
		return model.NewPost{}, fmt.Errorf("nil InsertPostRequest")
	}
	var uid u.UUID
	if in.UserID != "" {
		if err := uid.UnmarshalText([]byte(in.UserID)); err != nil {
			return model.NewPost{}, fmt.Errorf("invalid user_id: %w", err)
		}
	}
	return model.NewPost{
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		UserID:      uid,
	}, nil
}

// ToAPISignIn builds the sign-in response.
func ToAPISignIn(tok model.Tokens, id model.Identity) *api.SignInResponse {
	return &api.SignInResponse{
		AccessToken: tok.AccessToken,
		ExpiresAt:   ts(tok.ExpiresAt),
		User:        ToAPIUser(id),
	}
}

// FromAPISignIn unpacks the sign-in response.
func FromAPISignIn(in *api.SignInResponse) (model.Tokens, *model.Identity, error) {
	if in.GetAccessToken() == "" {
		return model.Tokens{}, nil, fmt.Errorf("empty access token")
	}
	id, err := FromAPIUser(in.GetUser())
	if err != nil {
		return model.Tokens{}, nil, err
	}
	if id == nil {
		return model.Tokens{}, nil, fmt.Errorf("missing user")
	}
	return model.Tokens{AccessToken: in.GetAccessToken(), ExpiresAt: fromTS(in.GetExpiresAt())}, id, nil
}
