package grpcserver

import (
	"context"
	"testing"

	"github.com/and161185/blogbox/internal/api"
	"github.com/and161185/blogbox/internal/model"
	"github.com/and161185/blogbox/internal/service"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type fakeAddr string

func (fakeAddr) Network() string  { return "tcp" }
func (a fakeAddr) String() string { return string(a) }

func TestAuthUnary(t *testing.T) {
	t.Parallel()

	auth := &fakeAuth{
		id:        model.Identity{ID: uuid.Must(uuid.NewV4()), Email: "a@example.com"},
		sessionID: uuid.Must(uuid.NewV4()),
		token:     "good",
	}
	ic := AuthUnary(auth)

	tests := []struct {
		name      string
		method    string
		header    string
		wantCode  codes.Code
		wantCalls bool
		wantUser  bool
	}{
		{name: "sign in without token", method: api.MethodSignIn, wantCalls: true},
		{name: "sign up with stale token", method: api.MethodSignUp, header: "Bearer stale", wantCalls: true},
		{name: "list posts without token", method: api.MethodListPosts, wantCode: codes.Unauthenticated},
		{name: "insert with stale token", method: api.MethodInsertPost, header: "Bearer stale", wantCode: codes.Unauthenticated},
		{name: "malformed scheme", method: api.MethodGetUser, header: "Basic good", wantCode: codes.Unauthenticated},
		{name: "valid token", method: api.MethodGetUser, header: "bearer  good ", wantCalls: true, wantUser: true},
		{name: "valid token on public method", method: api.MethodSignIn, header: "Bearer good", wantCalls: true, wantUser: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			if tt.header != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", tt.header))
			}
			called := false
			var got service.Principal
			var hasUser bool
			_, err := ic(ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, func(ctx context.Context, _ any) (any, error) {
				called = true
				got, hasUser = PrincipalFromCtx(ctx)
				return nil, nil
			})
			if status.Code(err) != tt.wantCode {
				t.Fatalf("code = %v, want %v (%v)", status.Code(err), tt.wantCode, err)
			}
			if called != tt.wantCalls || hasUser != tt.wantUser {
				t.Fatalf("called=%v user=%v", called, hasUser)
			}
			if tt.wantUser && (got.Identity.ID != auth.id.ID || got.SessionID != auth.sessionID) {
				t.Fatalf("principal = %+v", got)
			}
		})
	}
}

func TestRecoverUnary(t *testing.T) {
	t.Parallel()

	ic := RecoverUnary(zaptest.NewLogger(t))
	info := &grpc.UnaryServerInfo{FullMethod: api.MethodInsertPost}

	_, err := ic(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("nil post")
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("panic must surface as Internal, got %v", err)
	}

	resp, err := ic(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return &api.InsertPostResponse{}, nil
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, ok := resp.(*api.InsertPostResponse); !ok {
		t.Fatalf("resp mismatch: %T", resp)
	}
}

func TestLoggingUnary_Levels(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	ic := LoggingUnary(zap.New(core))
	info := &grpc.UnaryServerInfo{FullMethod: api.MethodListPosts}

	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr("10.0.0.7:5050")})
	ctx = WithPrincipal(ctx, service.Principal{Identity: model.Identity{ID: uuid.Must(uuid.NewV4())}})
	_, _ = ic(ctx, nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.Internal, "db down")
	})
	_, _ = ic(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.NotFound, "nope")
	})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}
	first := entries[0].ContextMap()
	if entries[0].Level != zap.ErrorLevel || first["user"] == nil || first["peer"] != "10.0.0.7:5050" {
		t.Fatalf("internal errors must be logged at error level with caller: %+v", first)
	}
	if entries[1].Level != zap.InfoLevel || entries[1].ContextMap()["code"] != codes.NotFound.String() {
		t.Fatalf("client errors are info: %+v", entries[1])
	}
}

func Test_remoteHost(t *testing.T) {
	t.Parallel()

	if h := remoteHost(context.Background()); h != "" {
		t.Fatalf("no peer: %q", h)
	}
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr("192.0.2.1:443")})
	if h := remoteHost(ctx); h != "192.0.2.1" {
		t.Fatalf("host: %q", h)
	}
	ctx = peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr("bufconn")})
	if h := remoteHost(ctx); h != "bufconn" {
		t.Fatalf("portless addr: %q", h)
	}
}
