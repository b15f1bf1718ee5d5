// Package authstore is the client-side Auth Session Store: it signs users in
// and out against the backend, persists the session on disk and publishes
// identity changes stamped with a logical clock.
package authstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/and161185/blogbox/internal/api"
	"github.com/and161185/blogbox/internal/client"
	"github.com/and161185/blogbox/internal/convert"
	"github.com/and161185/blogbox/internal/errs"
	"github.com/and161185/blogbox/internal/model"
	"github.com/and161185/blogbox/internal/observe"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store owns the local session. It is safe for concurrent use.
type Store struct {
	api    api.BlogClient
	path   string
	secure bool
	log    *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	sess   client.SavedSession
	seq    uint64
	timer  *time.Timer
	closed bool

	hub *observe.Hub[model.IdentityEvent]
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPlaintext allows bearer tokens over a connection without TLS.
func WithPlaintext() Option { return func(s *Store) { s.secure = false } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// New creates a store backed by cli that persists its session at path.
// A previously saved, unexpired session is restored and its expiry armed.
func New(cli api.BlogClient, path string, opts ...Option) *Store {
	s := &Store{
		api:    cli,
		path:   path,
		secure: true,
		log:    zap.NewNop(),
		now:    time.Now,
		hub:    observe.NewHub[model.IdentityEvent](),
	}
	for _, o := range opts {
		o(s)
	}

	saved, err := client.LoadSession(path)
	switch {
	case errors.Is(err, errs.ErrNoSession):
	case err != nil:
		s.log.Warn("saved session unreadable, discarding", zap.Error(err))
		_ = client.RemoveSession(path)
	case !saved.Valid(s.now()):
		s.log.Info("saved session expired")
		_ = client.RemoveSession(path)
	default:
		s.sess = saved
		s.armLocked(saved)
	}
	return s
}

func (s *Store) bearer(tok string) grpc.CallOption { return client.Bearer(tok, s.secure) }

// Credentials returns the call option authorizing a request as the current user.
func (s *Store) Credentials() (grpc.CallOption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sess.Valid(s.now()) {
		return nil, errs.ErrNoSession
	}
	return s.bearer(s.sess.AccessToken), nil
}

// Identity returns the locally known identity without a network call.
func (s *Store) Identity() *model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sess.Valid(s.now()) {
		return nil
	}
	return &model.Identity{ID: s.sess.UserID, Email: s.sess.Email}
}

// OnIdentityChange registers fn for every later identity change.
func (s *Store) OnIdentityChange(fn func(model.IdentityEvent)) *observe.Subscription {
	return s.hub.Subscribe(fn)
}

// CurrentIdentity asks the backend who the saved token belongs to. The
// snapshot carries the clock value observed before the request, so a change
// that lands while the request is in flight supersedes it.
//
// A token the backend rejects clears the session and reports none. Transport
// failures are returned as *errs.AuthError.
func (s *Store) CurrentIdentity(ctx context.Context) (model.IdentityEvent, error) {
	s.mu.Lock()
	seq := s.seq
	sess := s.sess
	s.mu.Unlock()

	if !sess.Valid(s.now()) {
		return model.IdentityEvent{Kind: model.EventSnapshot, Seq: seq}, nil
	}

	resp, err := s.api.GetUser(ctx, &api.GetUserRequest{}, s.bearer(sess.AccessToken))
	if status.Code(err) == codes.Unauthenticated {
		s.log.Info("backend rejected saved session")
		ev, ok := s.drop(sess.AccessToken, model.EventExpired)
		if ok {
			s.hub.Publish(ev)
			return model.IdentityEvent{Kind: model.EventSnapshot, Seq: ev.Seq}, nil
		}
		return model.IdentityEvent{Kind: model.EventSnapshot, Seq: seq}, nil
	}
	if err != nil {
		return model.IdentityEvent{}, authError(err, errs.AuthUnknown)
	}
	id, err := convert.FromAPIUser(resp.GetUser())
	if err != nil {
		return model.IdentityEvent{}, &errs.AuthError{Kind: errs.AuthUnknown, Err: err}
	}
	return model.IdentityEvent{Kind: model.EventSnapshot, Identity: id, Seq: seq}, nil
}

// SignIn authenticates and, on success, persists the session and publishes
// a signed-in event.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	resp, err := s.api.SignIn(ctx, &api.SignInRequest{Email: email, Password: password})
	if err != nil {
		return authError(err, errs.AuthBadCredentials)
	}
	tok, id, err := convert.FromAPISignIn(resp)
	if err != nil {
		return &errs.AuthError{Kind: errs.AuthUnknown, Err: err}
	}
	saved := client.SavedSession{
		AccessToken: tok.AccessToken,
		ExpiresAt:   tok.ExpiresAt,
		UserID:      id.ID,
		Email:       id.Email,
	}
	if err := client.SaveSession(s.path, saved); err != nil {
		// still signed in for this process
		s.log.Warn("session not persisted", zap.Error(err))
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.sess = saved
	s.seq++
	ev := model.IdentityEvent{Kind: model.EventSignedIn, Identity: id, Seq: s.seq}
	s.armLocked(saved)
	s.mu.Unlock()

	s.log.Info("signed in", zap.String("user", id.ID.String()))
	s.hub.Publish(ev)
	return nil
}

// SignUp registers a new account. It does not sign in.
func (s *Store) SignUp(ctx context.Context, email, password string) error {
	if _, err := s.api.SignUp(ctx, &api.SignUpRequest{Email: email, Password: password}); err != nil {
		return authError(err, errs.AuthWeakPassword)
	}
	return nil
}

// SignOut revokes the session on the backend and always forgets it locally.
// The returned error reports a failed revocation only.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	tok := s.sess.AccessToken
	s.mu.Unlock()

	var rpcErr error
	if tok != "" {
		_, err := s.api.SignOut(ctx, &api.SignOutRequest{}, s.bearer(tok))
		if err != nil && status.Code(err) != codes.Unauthenticated {
			rpcErr = authError(err, errs.AuthUnknown)
			s.log.Warn("sign out not confirmed by backend", zap.Error(err))
		}
	}

	ev, ok := s.drop(tok, model.EventSignedOut)
	if ok {
		s.hub.Publish(ev)
	}
	return rpcErr
}

// drop forgets the session if it still holds tok. It reports the event to
// publish and whether anything changed. An empty tok never matches.
func (s *Store) drop(tok string, kind model.EventKind) (model.IdentityEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || tok == "" || s.sess.AccessToken != tok {
		return model.IdentityEvent{}, false
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if err := client.RemoveSession(s.path); err != nil {
		s.log.Warn("session file not removed", zap.Error(err))
	}
	s.sess = client.SavedSession{}
	s.seq++
	return model.IdentityEvent{Kind: kind, Seq: s.seq}, true
}

// armLocked schedules the expiry of sess. s.mu must be held.
func (s *Store) armLocked(sess client.SavedSession) {
	if s.timer != nil {
		s.timer.Stop()
	}
	d := sess.ExpiresAt.Sub(s.now())
	tok := sess.AccessToken
	s.timer = time.AfterFunc(d, func() {
		if ev, ok := s.drop(tok, model.EventExpired); ok {
			s.log.Info("session expired")
			s.hub.Publish(ev)
		}
	})
}

// Close stops the expiry timer. No events are published afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// authError maps a gRPC failure to an *errs.AuthError. invalid is the kind
// used for InvalidArgument, which depends on the operation.
func authError(err error, invalid errs.AuthKind) error {
	kind := errs.AuthUnknown
	switch status.Code(err) {
	case codes.Unauthenticated:
		kind = errs.AuthBadCredentials
	case codes.InvalidArgument:
		kind = invalid
	case codes.AlreadyExists:
		kind = errs.AuthAlreadyRegistered
	case codes.ResourceExhausted:
		kind = errs.AuthRateLimited
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		kind = errs.AuthNetwork
	}
	if st, ok := status.FromError(err); ok {
		err = errors.New(st.Message())
	}
	return &errs.AuthError{Kind: kind, Err: err}
}
