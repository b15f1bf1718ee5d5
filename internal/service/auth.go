// Package service contains the backend's authentication and posts use cases.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgcrypto "github.com/and161185/blogbox/internal/crypto"
	"github.com/and161185/blogbox/internal/errs"
	"github.com/and161185/blogbox/internal/limiter"
	"github.com/and161185/blogbox/internal/model"
	"github.com/and161185/blogbox/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var credValidate = validator.New()

type credentials struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=6,max=128"`
}

// Principal is the caller behind a verified access token.
type Principal struct {
	Identity  model.Identity
	SessionID uuid.UUID
}

// AuthService defines account and session operations.
type AuthService interface {
	// Register creates a new account.
	Register(ctx context.Context, email, password string) (model.Identity, error)
	// LoginWithIP applies the lockout policy and opens a session.
	LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, model.Identity, error)
	// Authenticate verifies an access token against its live session.
	Authenticate(ctx context.Context, token string) (Principal, error)
	// Logout revokes a session.
	Logout(ctx context.Context, sessionID uuid.UUID) error
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthServiceImpl is the production AuthService.
type AuthServiceImpl struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	lim       limiter.Limiter
	signKey   []byte
	accessTTL time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, lim limiter.Limiter, signKey []byte, accessTTL time.Duration, log *zap.Logger) *AuthServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{
		users:     users,
		sessions:  sessions,
		lim:       lim,
		signKey:   signKey,
		accessTTL: accessTTL,
		log:       log,
		now:       time.Now,
	}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Register validates the credentials and stores a salted Argon2id hash.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password string) (model.Identity, error) {
	c := credentials{Email: normalizeEmail(email), Password: password}
	if err := credValidate.Struct(c); err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.Identity{}, err
	}
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return model.Identity{}, err
	}
	u := &model.User{
		ID:       uid,
		Email:    c.Email,
		PwdHash:  pkgcrypto.HashPassword([]byte(password), salt),
		SaltAuth: salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.Identity{}, err
	}
	return model.Identity{ID: uid, Email: c.Email}, nil
}

// LoginWithIP authenticates with a lockout keyed by (email, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, model.Identity, error) {
	k := limiter.NewKey(email, ip)

	d, err := s.lim.Allow(ctx, k)
	if err != nil {
		return model.Tokens{}, model.Identity{}, err
	}
	if !d.Allowed {
		return model.Tokens{}, model.Identity{}, fmt.Errorf("%w: retry in %s", errs.ErrRateLimited, d.RetryAfter.Round(time.Second))
	}

	u, err := s.users.GetByEmail(ctx, k.Email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, model.Identity{}, err
	}
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		fd, ferr := s.lim.Failure(ctx, k)
		if ferr != nil {
			s.log.Warn("limiter failure not recorded", zap.Error(ferr))
		} else if !fd.Allowed {
			return model.Tokens{}, model.Identity{}, errs.ErrRateLimited
		}
		// unknown email and wrong password are indistinguishable
		return model.Tokens{}, model.Identity{}, errs.ErrUnauthorized
	}

	if err := s.lim.Success(ctx, k); err != nil {
		s.log.Warn("limiter reset failed", zap.Error(err))
	}

	sid, err := uuid.NewV4()
	if err != nil {
		return model.Tokens{}, model.Identity{}, err
	}
	exp := s.now().Add(s.accessTTL).Truncate(time.Second)
	if err := s.sessions.Create(ctx, model.Session{ID: sid, UserID: u.ID, ExpiresAt: exp}); err != nil {
		return model.Tokens{}, model.Identity{}, err
	}
	access, err := s.issueAccessToken(u, sid, exp)
	if err != nil {
		return model.Tokens{}, model.Identity{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, model.Identity{ID: u.ID, Email: u.Email}, nil
}

// issueAccessToken creates a signed HS256 JWT; jti carries the session ID.
func (s *AuthServiceImpl) issueAccessToken(u *model.User, sid uuid.UUID, exp time.Time) (string, error) {
	claims := accessClaims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sid.String(),
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
}

// Authenticate parses the token and checks that its session is still active.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, token string) (Principal, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.signKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}
	uid, err := uuid.FromString(claims.Subject)
	if err != nil {
		return Principal{}, errs.ErrUnauthorized
	}
	sid, err := uuid.FromString(claims.ID)
	if err != nil {
		return Principal{}, errs.ErrUnauthorized
	}

	sess, err := s.sessions.Get(ctx, sid)
	if errors.Is(err, errs.ErrNotFound) {
		return Principal{}, errs.ErrUnauthorized
	}
	if err != nil {
		return Principal{}, err
	}
	if sess.UserID != uid || !sess.Active(s.now()) {
		return Principal{}, errs.ErrUnauthorized
	}
	return Principal{Identity: model.Identity{ID: uid, Email: claims.Email}, SessionID: sid}, nil
}

// Logout revokes the session.
func (s *AuthServiceImpl) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if sessionID == uuid.Nil {
		return errs.ErrNoSession
	}
	return s.sessions.Revoke(ctx, sessionID)
}
