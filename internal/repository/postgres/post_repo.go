package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/blogbox/internal/errs"
	"github.com/and161185/blogbox/internal/model"
	"github.com/gofrs/uuid/v5"
)

// PostRepo implements repository.PostRepository.
type PostRepo struct{ db *DB }

// NewPostRepo constructs a post repository.
func NewPostRepo(db *DB) *PostRepo { return &PostRepo{db: db} }

// Insert stores a post; the database assigns created_at.
func (r *PostRepo) Insert(ctx context.Context, p model.NewPost) (model.Post, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return model.Post{}, err
	}
	const q = `
INSERT INTO posts (id, title, description, image_url, user_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`
	out := model.Post{
		ID:          id,
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		UserID:      p.UserID,
	}
	if err := r.db.Pool.QueryRow(ctx, q, id, p.Title, p.Description, p.ImageURL, p.UserID).Scan(&out.CreatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return model.Post{}, errs.ErrNotFound
		}
		return model.Post{}, err
	}
	return out, nil
}

// List returns up to limit posts ordered by created_at.
func (r *PostRepo) List(ctx context.Context, limit int, ascending bool) ([]model.Post, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	q := fmt.Sprintf(`
SELECT id, title, description, image_url, created_at, user_id
FROM posts
ORDER BY created_at %s, id %s
LIMIT $1`, order, order)

	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL, &p.CreatedAt, &p.UserID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
