// Package poststore is the client-side Post Store over the backend's posts table.
package poststore

import (
	"context"
	"sort"

	"github.com/and161185/blogbox/internal/api"
	"github.com/and161185/blogbox/internal/convert"
	"github.com/and161185/blogbox/internal/errs"
	"github.com/and161185/blogbox/internal/model"
	"google.golang.org/grpc"
)

// Authorizer supplies per-call credentials for the signed-in user.
type Authorizer interface {
	Credentials() (grpc.CallOption, error)
}

// Store inserts and lists posts. Every error is an *errs.StoreError.
type Store struct {
	api  api.BlogClient
	auth Authorizer
}

// New constructs a Store.
func New(cli api.BlogClient, auth Authorizer) *Store {
	return &Store{api: cli, auth: auth}
}

// Insert appends a post.
func (s *Store) Insert(ctx context.Context, p model.NewPost) error {
	cred, err := s.auth.Credentials()
	if err != nil {
		return &errs.StoreError{Op: "insert", Err: err}
	}
	if _, err := s.api.InsertPost(ctx, convert.ToAPINewPost(p), cred); err != nil {
		return &errs.StoreError{Op: "insert", Err: err}
	}
	return nil
}

// List returns posts newest first, up to api.MaxListPosts of them.
func (s *Store) List(ctx context.Context) ([]model.Post, error) {
	cred, err := s.auth.Credentials()
	if err != nil {
		return nil, &errs.StoreError{Op: "list", Err: err}
	}
	resp, err := s.api.ListPosts(ctx, &api.ListPostsRequest{Limit: api.MaxListPosts}, cred)
	if err != nil {
		return nil, &errs.StoreError{Op: "list", Err: err}
	}
	posts, err := convert.FromAPIPosts(resp.GetPosts())
	if err != nil {
		return nil, &errs.StoreError{Op: "list", Err: err}
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

