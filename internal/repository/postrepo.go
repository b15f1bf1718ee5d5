package repository

import (
	"context"

	"github.com/and161185/blogbox/internal/model"
)

// PostRepository is the append-only posts table.
type PostRepository interface {
	// Insert stores a post and returns it with ID and created_at filled in.
	Insert(ctx context.Context, p model.NewPost) (model.Post, error)
	// List returns up to limit posts ordered by created_at (newest first unless ascending).
	List(ctx context.Context, limit int, ascending bool) ([]model.Post, error)
}
