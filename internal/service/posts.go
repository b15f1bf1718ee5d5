package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/blogbox/internal/api"
	"github.com/and161185/blogbox/internal/errs"
	"github.com/and161185/blogbox/internal/model"
	"github.com/and161185/blogbox/internal/repository"
	"github.com/and161185/blogbox/internal/validate"
	"github.com/gofrs/uuid/v5"
)

// Listing bounds.
const (
	DefaultListLimit = 100
	MaxListLimit     = api.MaxListPosts
)

// PostService defines operations on the posts table.
type PostService interface {
	// Create inserts a post owned by caller.
	Create(ctx context.Context, caller uuid.UUID, p model.NewPost) (model.Post, error)
	// List returns posts, newest first unless ascending is set.
	List(ctx context.Context, limit int, ascending bool) ([]model.Post, error)
}

// PostServiceImpl is the production PostService.
type PostServiceImpl struct {
	posts repository.PostRepository
}

// NewPostService constructs PostService.
func NewPostService(posts repository.PostRepository) *PostServiceImpl {
	return &PostServiceImpl{posts: posts}
}

// Create re-validates the payload and forces ownership to the caller.
func (s *PostServiceImpl) Create(ctx context.Context, caller uuid.UUID, p model.NewPost) (model.Post, error) {
	if caller == uuid.Nil {
		return model.Post{}, errs.ErrUnauthorized
	}
	if p.UserID != uuid.Nil && p.UserID != caller {
		return model.Post{}, errs.ErrForbidden
	}
	if err := validate.Post(p.Title, p.Description, p.ImageURL); err != nil {
		return model.Post{}, fmt.Errorf("%w: %w", errs.ErrInvalidInput, err)
	}
	return s.posts.Insert(ctx, model.NewPost{
		Title:       strings.TrimSpace(p.Title),
		Description: strings.TrimSpace(p.Description),
		ImageURL:    strings.TrimSpace(p.ImageURL),
		UserID:      caller,
	})
}

// List clamps limit to (0, MaxListLimit].
func (s *PostServiceImpl) List(ctx context.Context, limit int, ascending bool) ([]model.Post, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.posts.List(ctx, limit, ascending)
}
