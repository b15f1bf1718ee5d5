package screens

import (
	"context"
	"strings"

	"github.com/and161185/blogbox/internal/navigation"
	"github.com/and161185/blogbox/internal/validate"
	"go.uber.org/zap"
)

// Credentials is the login form.
type Credentials struct {
	Email    string
	Password string
}

// Login is the "Welcome Back!" screen.
type Login struct {
	base
}

// Submit validates c, signs in and resets history to the drawer.
func (s *Login) Submit(ctx context.Context, c Credentials) error {
	if err := validate.Login(c.Email, c.Password); err != nil {
		s.fail(err)
		return err
	}
	if err := s.d.Auth.SignIn(ctx, strings.TrimSpace(c.Email), c.Password); err != nil {
		s.d.Log.Info("sign in failed", zap.Error(err))
		s.fail(err)
		return err
	}
	// The sign-in notification has normally remounted the root already; the
	// reset covers a renderer that is not attached to the watcher.
	if err := s.d.Nav.Reset(navigation.RouteDrawer, nil); err != nil {
		s.d.Log.Debug("reset after sign in", zap.Error(err))
	}
	return nil
}

// GoSignup opens the sign-up screen.
func (s *Login) GoSignup() { s.navigate(navigation.RouteSignup, nil) }

// Registration is the sign-up form.
type Registration struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// Signup is the "Create Account" screen.
type Signup struct {
	base
}

// Submit validates r and registers the account. Success does not sign in; the
// notification's OK button returns to the login screen.
func (s *Signup) Submit(ctx context.Context, r Registration) error {
	if err := validate.Signup(r.Email, r.Password, r.ConfirmPassword); err != nil {
		s.fail(err)
		return err
	}
	if err := s.d.Auth.SignUp(ctx, strings.TrimSpace(r.Email), r.Password); err != nil {
		s.d.Log.Info("sign up failed", zap.Error(err))
		s.fail(err)
		return err
	}
	s.d.Notify.Notify(Notification{
		Level:   LevelSuccess,
		Title:   "Success",
		Message: MsgSignedUp,
		Actions: []Action{{Label: "OK", Do: s.GoLogin, Reset: true}},
	})
	return nil
}

// GoLogin returns to the login screen.
func (s *Signup) GoLogin() { s.navigate(navigation.RouteLogin, nil) }

// Profile shows the signed-in account.
type Profile struct {
	base
}

// Email of the current identity, empty when signed out.
func (s *Profile) Email() string {
	if id := s.d.Auth.Identity(); id != nil {
		return id.Email
	}
	return ""
}

// Logout ends the session. The local session is always dropped, so the
// watcher remounts the login graph even when the revocation fails.
func (s *Profile) Logout(ctx context.Context) error {
	err := s.d.Auth.SignOut(ctx)
	if err != nil {
		s.d.Log.Warn("sign out not confirmed by server", zap.Error(err))
		s.d.Notify.Notify(Notification{Level: LevelError, Title: "Error", Message: MsgSignOutPartial})
	}
	s.navigate(navigation.RouteLogin, nil)
	return err
}
