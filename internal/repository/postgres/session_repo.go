package postgres

import (
	"context"

	"github.com/and161185/blogbox/internal/model"
	"github.com/gofrs/uuid/v5"
)

// SessionRepo implements repository.SessionRepository.
type SessionRepo struct{ db *DB }

// NewSessionRepo constructs a session repository.
func NewSessionRepo(db *DB) *SessionRepo { return &SessionRepo{db: db} }

// Create inserts a session row.
func (r *SessionRepo) Create(ctx context.Context, s model.Session) error {
	const q = `
INSERT INTO sessions (id, user_id, expires_at)
VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, s.ID, s.UserID, s.ExpiresAt)
	return err
}

// Get loads a session by ID.
func (r *SessionRepo) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	const q = `
SELECT id, user_id, expires_at, revoked_at
FROM sessions WHERE id=$1`
	var s model.Session
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.RevokedAt); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// Revoke stamps revoked_at once; later calls keep the first timestamp.
func (r *SessionRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	const q = `
UPDATE sessions SET revoked_at = now()
WHERE id=$1 AND revoked_at IS NULL`
	_, err := r.db.Pool.Exec(ctx, q, id)
	return err
}
