// Package client holds the blog client's local configuration and transport helpers.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/and161185/blogbox/internal/errs"
	"github.com/gofrs/uuid/v5"
)

// ConfigDir is $XDG_CONFIG_HOME/blogbox, falling back to ~/.config/blogbox.
func ConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "blogbox")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "blogbox")
}

// SessionPath is where the signed-in session is persisted.
func SessionPath() string { return filepath.Join(ConfigDir(), "session.json") }

// LogPath is the client log file; the TUI owns the terminal.
func LogPath() string { return filepath.Join(ConfigDir(), "blog.log") }

// SavedSession is the on-disk form of a signed-in session.
type SavedSession struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
}

// Valid reports whether the session carries a token that has not expired at now.
func (s SavedSession) Valid(now time.Time) bool {
	return s.AccessToken != "" && now.Before(s.ExpiresAt)
}

// SaveSession writes s to path with owner-only permissions.
func SaveSession(path string, s SavedSession) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadSession reads path; a missing file yields errs.ErrNoSession.
func LoadSession(path string) (SavedSession, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return SavedSession{}, errs.ErrNoSession
	}
	if err != nil {
		return SavedSession{}, err
	}
	var s SavedSession
	if err := json.Unmarshal(b, &s); err != nil {
		return SavedSession{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.AccessToken == "" {
		return SavedSession{}, errs.ErrNoSession
	}
	return s, nil
}

// RemoveSession deletes path; a missing file is not an error.
func RemoveSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
