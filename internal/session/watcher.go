// Package session keeps the client's view of who is signed in.
package session

import (
	"context"
	"sync"

	"github.com/and161185/blogbox/internal/model"
	"github.com/and161185/blogbox/internal/observe"
	"go.uber.org/zap"
)

// Source is the part of the Auth Session Store the watcher depends on.
type Source interface {
	// CurrentIdentity answers the one-shot "who is signed in" query.
	CurrentIdentity(ctx context.Context) (model.IdentityEvent, error)
	// OnIdentityChange registers fn for every later identity change.
	OnIdentityChange(fn func(model.IdentityEvent)) *observe.Subscription
}

// Watcher is the single writer of SessionState.
//
// Updates are applied in arrival order under deliverMu and handed to
// listeners before the next update is applied, so listeners observe a
// monotonic sequence. Listeners must not call Close.
type Watcher struct {
	src Source
	log *zap.Logger

	deliverMu sync.Mutex
	closed    bool

	mu      sync.RWMutex
	state   model.SessionState
	seq     uint64
	applied bool // an event with a seq has been applied

	startOnce sync.Once
	closeOnce sync.Once
	storeSub  *observe.Subscription

	listeners *observe.Hub[model.SessionState]
}

// NewWatcher constructs a watcher over src. A nil logger disables logging.
func NewWatcher(src Source, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{src: src, log: log, listeners: observe.NewHub[model.SessionState]()}
}

// Start subscribes to identity changes and then issues the one-shot query.
func (w *Watcher) Start(ctx context.Context) model.SessionState {
	w.startOnce.Do(func() {
		sub := w.src.OnIdentityChange(w.handle)
		w.deliverMu.Lock()
		if w.closed {
			w.deliverMu.Unlock()
			sub.Release()
			return
		}
		w.storeSub = sub
		w.deliverMu.Unlock()
	})
	return w.Initialize(ctx)
}

// Initialize issues the one-shot identity query. It never fails: a query
// error counts as "no active session". Initialized is true afterwards.
func (w *Watcher) Initialize(ctx context.Context) model.SessionState {
	ev, err := w.src.CurrentIdentity(ctx)

	w.deliverMu.Lock()
	defer w.deliverMu.Unlock()
	if w.closed {
		return w.State()
	}

	w.mu.Lock()
	switch {
	case err != nil:
		w.log.Warn("identity query failed, continuing signed out", zap.Error(err))
		if !w.applied {
			w.state.Identity = nil
		}
	case !w.applied || ev.Seq >= w.seq:
		w.state.Identity = ev.Identity
		w.seq = ev.Seq
		w.applied = true
	default:
		w.log.Debug("stale identity snapshot dropped",
			zap.Uint64("snapshot_seq", ev.Seq),
			zap.Uint64("current_seq", w.seq),
		)
	}
	w.state.Initialized = true
	st := w.state
	w.mu.Unlock()

	w.listeners.Publish(st)
	return st
}

// handle applies one identity-change notification.
func (w *Watcher) handle(ev model.IdentityEvent) {
	w.deliverMu.Lock()
	defer w.deliverMu.Unlock()
	if w.closed {
		return
	}

	w.mu.Lock()
	if w.applied && ev.Seq < w.seq {
		w.mu.Unlock()
		w.log.Debug("out-of-order identity event dropped",
			zap.Stringer("kind", ev.Kind),
			zap.Uint64("seq", ev.Seq),
			zap.Uint64("current_seq", w.seq),
		)
		return
	}
	switch ev.Kind {
	case model.EventSignedOut, model.EventExpired:
		w.state.Identity = nil
	default:
		w.state.Identity = ev.Identity
	}
	w.seq = ev.Seq
	w.applied = true
	st := w.state
	w.mu.Unlock()

	w.log.Debug("identity changed", zap.Stringer("kind", ev.Kind), zap.Bool("authenticated", st.Authenticated()))
	w.listeners.Publish(st)
}

// Subscribe registers onChange for every later SessionState change.
func (w *Watcher) Subscribe(onChange func(model.SessionState)) *observe.Subscription {
	return w.listeners.Subscribe(onChange)
}

// State returns the latest SessionState.
func (w *Watcher) State() model.SessionState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Close releases the store subscription exactly once. After Close returns no
// notification mutates state.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		w.deliverMu.Lock()
		w.closed = true
		sub := w.storeSub
		w.storeSub = nil
		w.deliverMu.Unlock()
		sub.Release()
	})
}
