package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the part of a pgx pool the limiter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG keeps attempt counters in the login_attempts table.
type PG struct {
	q      Querier
	policy Policy
	now    func() time.Time
}

// NewPG constructs a PostgreSQL-backed limiter.
func NewPG(q Querier, p Policy) *PG {
	return &PG{q: q, policy: p, now: time.Now}
}

// Allow reports whether the key is currently blocked.
func (l *PG) Allow(ctx context.Context, k Key) (Decision, error) {
	const q = `SELECT blocked_until FROM login_attempts WHERE email=$1 AND ip_hash=$2`
	var blockedUntil time.Time
	err := l.q.QueryRow(ctx, q, k.Email, k.IPHash).Scan(&blockedUntil)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Decision{Allowed: true}, nil
	case err != nil:
		return Decision{}, err
	}
	if now := l.now(); blockedUntil.After(now) {
		return Decision{RetryAfter: blockedUntil.Sub(now)}, nil
	}
	return Decision{Allowed: true}, nil
}

// Success resets the counter for the key.
func (l *PG) Success(ctx context.Context, k Key) error {
	const q = `
INSERT INTO login_attempts (email, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 0, 'epoch', now())
ON CONFLICT (email, ip_hash)
DO UPDATE SET fail_count=0, blocked_until='epoch', updated_at=now()`
	_, err := l.q.Exec(ctx, q, k.Email, k.IPHash)
	return err
}

// Failure bumps the counter and blocks the key once MaxFails is reached.
func (l *PG) Failure(ctx context.Context, k Key) (Decision, error) {
	const q = `
INSERT INTO login_attempts (email, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 1, 'epoch', now())
ON CONFLICT (email, ip_hash) DO UPDATE
SET
  fail_count = CASE WHEN now() - login_attempts.updated_at > $3::interval THEN 1 ELSE login_attempts.fail_count + 1 END,
  updated_at = now()
RETURNING fail_count`
	var fails int
	if err := l.q.QueryRow(ctx, q, k.Email, k.IPHash, l.policy.Window).Scan(&fails); err != nil {
		return Decision{}, err
	}
	if fails < l.policy.MaxFails {
		return Decision{Allowed: true}, nil
	}
	const upd = `UPDATE login_attempts SET blocked_until=$3 WHERE email=$1 AND ip_hash=$2`
	if _, err := l.q.Exec(ctx, upd, k.Email, k.IPHash, l.now().Add(l.policy.BlockFor)); err != nil {
		return Decision{}, err
	}
	return Decision{RetryAfter: l.policy.BlockFor}, nil
}
