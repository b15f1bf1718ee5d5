package grpcserver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type peerLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// PeerRateLimiter applies a token bucket per client host.
type PeerRateLimiter struct {
	rate  rate.Limit
	burst int
	ttl   time.Duration
	log   *zap.Logger

	mu    sync.Mutex
	peers map[string]*peerLimiter
}

// NewPeerRateLimiter builds a limiter allowing rps requests per second with the given burst.
// Idle peers are forgotten after ttl.
func NewPeerRateLimiter(rps float64, burst int, ttl time.Duration, log *zap.Logger) *PeerRateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &PeerRateLimiter{
		rate:  rate.Limit(rps),
		burst: burst,
		ttl:   ttl,
		log:   log,
		peers: make(map[string]*peerLimiter),
	}
}

// Allow reports whether key may issue one more request now.
func (l *PeerRateLimiter) Allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	pl, ok := l.peers[key]
	if !ok {
		pl = &peerLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.peers[key] = pl
	}
	pl.lastAccess = now
	l.mu.Unlock()
	return pl.limiter.AllowN(now, 1)
}

// Len returns the number of tracked peers.
func (l *PeerRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.peers)
}

// Run evicts idle peers every ttl/2 until ctx is done.
func (l *PeerRateLimiter) Run(ctx context.Context) {
	interval := l.ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.evict(now)
		}
	}
}

func (l *PeerRateLimiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, pl := range l.peers {
		if now.Sub(pl.lastAccess) > l.ttl {
			delete(l.peers, k)
		}
	}
}

// Unary returns the interceptor; requests without a peer share one bucket.
func (l *PeerRateLimiter) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		host := remoteHost(ctx)
		if !l.Allow(host) {
			l.log.Warn("rate limit exceeded", zap.String("peer", host), zap.String("method", info.FullMethod))
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}
		return next(ctx, req)
	}
}
