// Package limiter throttles repeated failed logins per (email, client address).
package limiter

import (
	"context"
	"crypto/sha256"
	"strings"
	"time"
)

// Key identifies the subject of a login attempt.
type Key struct {
	Email  string
	IPHash []byte
}

// NewKey normalizes email and hashes the client address so raw IPs are never stored.
func NewKey(email, ip string) Key {
	h := sha256.Sum256([]byte(ip))
	return Key{Email: strings.ToLower(strings.TrimSpace(email)), IPHash: h[:]}
}

// Decision is the outcome of a limiter check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Policy configures the failure window and the lockout.
type Policy struct {
	Window   time.Duration // failures older than this start a new count
	MaxFails int           // failures within Window that trigger a lockout
	BlockFor time.Duration
}

// DefaultPolicy allows five failures per fifteen minutes.
var DefaultPolicy = Policy{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute}

// Limiter controls login attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether a login may be attempted now.
	Allow(ctx context.Context, k Key) (Decision, error)
	// Success clears the failure count after a successful login.
	Success(ctx context.Context, k Key) error
	// Failure records a failed attempt; the returned decision is the lockout, if any.
	Failure(ctx context.Context, k Key) (Decision, error)
}
