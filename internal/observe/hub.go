// Package observe provides a typed publish/subscribe hub with release handles.
package observe

import (
	"sync"
	"sync/atomic"
)

// Subscription is a handle returned by Subscribe. Release is safe to call
// any number of times; only the first call has an effect.
type Subscription struct {
	once    sync.Once
	release func()
}

// NewSubscription wraps release so it runs at most once.
func NewSubscription(release func()) *Subscription {
	return &Subscription{release: release}
}

// Release stops delivery to the subscriber.
func (s *Subscription) Release() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
}

type entry[T any] struct {
	fn       func(T)
	released atomic.Bool
}

// Hub fans values out to subscribers in subscription order.
//
// Publish calls subscribers outside the hub lock, so a subscriber may
// Subscribe or Release from inside its callback.
type Hub[T any] struct {
	mu   sync.RWMutex
	subs []*entry[T]
}

// NewHub returns an empty hub.
func NewHub[T any]() *Hub[T] { return &Hub[T]{} }

// Subscribe registers fn for every later Publish.
func (h *Hub[T]) Subscribe(fn func(T)) *Subscription {
	e := &entry[T]{fn: fn}
	h.mu.Lock()
	h.subs = append(h.subs, e)
	h.mu.Unlock()
	return NewSubscription(func() {
		e.released.Store(true)
		h.remove(e)
	})
}

func (h *Hub[T]) remove(e *entry[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subs {
		if s == e {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers v to every live subscriber.
func (h *Hub[T]) Publish(v T) {
	h.mu.RLock()
	subs := make([]*entry[T], len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()

	for _, s := range subs {
		if s.released.Load() {
			continue
		}
		s.fn(v)
	}
}

// Len reports the number of live subscribers.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
