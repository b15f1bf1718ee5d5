// Package model defines domain entities shared by the client and the backend.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Identity is the client's read-only copy of "a user is authenticated as X".
type Identity struct {
	ID    uuid.UUID
	Email string
}

// SessionState is owned by the session watcher.
type SessionState struct {
	Identity    *Identity // nil when nobody is signed in
	Initialized bool      // flips to true once, never back
}

// Authenticated reports whether an identity is present.
func (s SessionState) Authenticated() bool { return s.Identity != nil }

// EventKind describes why the identity changed.
type EventKind int

const (
	// EventSnapshot is the answer to a one-shot identity query.
	EventSnapshot EventKind = iota
	EventSignedIn
	EventSignedOut
	EventExpired
)

func (k EventKind) String() string {
	switch k {
	case EventSnapshot:
		return "snapshot"
	case EventSignedIn:
		return "signed_in"
	case EventSignedOut:
		return "signed_out"
	case EventExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// IdentityEvent carries an identity (or nil) stamped with the store's logical clock.
type IdentityEvent struct {
	Kind     EventKind
	Identity *Identity
	Seq      uint64 // strictly increasing per change; snapshots carry the seq they observed
}

// Post is a blog entry as stored by the backend.
type Post struct {
	ID          uuid.UUID
	Title       string
	Description string
	ImageURL    string
	CreatedAt   time.Time
	UserID      uuid.UUID
}

// NewPost is the insert payload for a post.
type NewPost struct {
	Title       string
	Description string
	ImageURL    string
	UserID      uuid.UUID
}

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}

// User represents an account stored on the server.
type User struct {
	ID        uuid.UUID // PK
	Email     string    // unique, lower-cased
	PwdHash   []byte    // Argon2id(password, SaltAuth)
	SaltAuth  []byte    // per-user auth salt
	CreatedAt time.Time
}

// Session is a server-side login session referenced by the token's jti.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Active reports whether the session is neither revoked nor expired at now.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
