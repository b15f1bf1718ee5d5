package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, p Policy) (*PG, pgxmock.PgxPoolIface, time.Time) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewPG(mock, p)
	l.now = func() time.Time { return now }
	return l, mock, now
}

func TestNewKey(t *testing.T) {
	a := NewKey(" Alice@Example.com ", "1.2.3.4")
	b := NewKey("alice@example.com", "1.2.3.4")
	c := NewKey("alice@example.com", "5.6.7.8")
	require.Equal(t, "alice@example.com", a.Email)
	require.Equal(t, a.IPHash, b.IPHash)
	require.NotEqual(t, a.IPHash, c.IPHash)
	require.Len(t, a.IPHash, 32)
}

func TestAllow(t *testing.T) {
	l, mock, now := newLimiter(t, DefaultPolicy)
	ctx := context.Background()
	k := NewKey("u@example.com", "ip")
	sel := `SELECT blocked_until FROM login_attempts WHERE email=\$1 AND ip_hash=\$2`

	mock.ExpectQuery(sel).WithArgs(k.Email, k.IPHash).WillReturnError(pgx.ErrNoRows)
	d, err := l.Allow(ctx, k)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	mock.ExpectQuery(sel).WithArgs(k.Email, k.IPHash).
		WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(now.Add(10 * time.Minute)))
	d, err = l.Allow(ctx, k)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 10*time.Minute, d.RetryAfter)

	mock.ExpectQuery(sel).WithArgs(k.Email, k.IPHash).
		WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(now.Add(-time.Minute)))
	d, err = l.Allow(ctx, k)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	boom := errors.New("db boom")
	mock.ExpectQuery(sel).WithArgs(k.Email, k.IPHash).WillReturnError(boom)
	_, err = l.Allow(ctx, k)
	require.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSuccess(t *testing.T) {
	l, mock, _ := newLimiter(t, DefaultPolicy)
	k := NewKey("u@example.com", "ip")

	mock.ExpectExec(`INSERT INTO login_attempts`).WithArgs(k.Email, k.IPHash).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, l.Success(context.Background(), k))

	mock.ExpectExec(`INSERT INTO login_attempts`).WithArgs(k.Email, k.IPHash).
		WillReturnError(errors.New("exec fail"))
	require.Error(t, l.Success(context.Background(), k))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFailure_CountsThenBlocks(t *testing.T) {
	p := Policy{Window: 5 * time.Minute, MaxFails: 3, BlockFor: 10 * time.Minute}
	l, mock, now := newLimiter(t, p)
	ctx := context.Background()
	k := NewKey("u@example.com", "ip")

	mock.ExpectQuery(`RETURNING fail_count`).WithArgs(k.Email, k.IPHash, p.Window).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(2))
	d, err := l.Failure(ctx, k)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	mock.ExpectQuery(`RETURNING fail_count`).WithArgs(k.Email, k.IPHash, p.Window).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(3))
	mock.ExpectExec(`UPDATE login_attempts SET blocked_until=\$3 WHERE email=\$1 AND ip_hash=\$2`).
		WithArgs(k.Email, k.IPHash, now.Add(p.BlockFor)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	d, err = l.Failure(ctx, k)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, p.BlockFor, d.RetryAfter)

	mock.ExpectQuery(`RETURNING fail_count`).WithArgs(k.Email, k.IPHash, p.Window).
		WillReturnError(errors.New("query error"))
	_, err = l.Failure(ctx, k)
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
