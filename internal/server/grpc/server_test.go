package grpcserver

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/and161185/blogbox/internal/api"
	"github.com/and161185/blogbox/internal/errs"
	"github.com/and161185/blogbox/internal/model"
	"github.com/and161185/blogbox/internal/service"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeAuth struct {
	id        model.Identity
	sessionID uuid.UUID
	token     string

	registerErr error
	loginErr    error
	logoutErr   error

	lastIP    string
	loggedOut []uuid.UUID
}

var _ service.AuthService = (*fakeAuth)(nil)

func (f *fakeAuth) Register(_ context.Context, email, _ string) (model.Identity, error) {
	if f.registerErr != nil {
		return model.Identity{}, f.registerErr
	}
	return model.Identity{ID: f.id.ID, Email: email}, nil
}

func (f *fakeAuth) LoginWithIP(_ context.Context, _, _, ip string) (model.Tokens, model.Identity, error) {
	f.lastIP = ip
	if f.loginErr != nil {
		return model.Tokens{}, model.Identity{}, f.loginErr
	}
	return model.Tokens{AccessToken: f.token, ExpiresAt: time.Now().Add(time.Hour)}, f.id, nil
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (service.Principal, error) {
	if token != f.token {
		return service.Principal{}, errs.ErrUnauthorized
	}
	return service.Principal{Identity: f.id, SessionID: f.sessionID}, nil
}

func (f *fakeAuth) Logout(_ context.Context, sid uuid.UUID) error {
	f.loggedOut = append(f.loggedOut, sid)
	return f.logoutErr
}

type fakePosts struct {
	created []model.NewPost
	caller  uuid.UUID
	list    []model.Post
	err     error
}

var _ service.PostService = (*fakePosts)(nil)

func (f *fakePosts) Create(_ context.Context, caller uuid.UUID, p model.NewPost) (model.Post, error) {
	if f.err != nil {
		return model.Post{}, f.err
	}
	f.caller = caller
	f.created = append(f.created, p)
	return model.Post{ID: uuid.Must(uuid.NewV4()), Title: p.Title, UserID: caller, CreatedAt: time.Now()}, nil
}

func (f *fakePosts) List(context.Context, int, bool) ([]model.Post, error) {
	return f.list, f.err
}

const bufSize = 1 << 20

type countingRecorder struct{ got []string }

func (r *countingRecorder) RecordSignIn(result string) { r.got = append(r.got, result) }

func startBufGRPC(t *testing.T, auth service.AuthService, posts service.PostService) api.BlogClient {
	return startBufGRPCWith(t, New(auth, posts), auth)
}

func startBufGRPCWith(t *testing.T, srv *Server, auth service.AuthService) api.BlogClient {
	t.Helper()
	lis := bufconn.Listen(bufSize)
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoverUnary(zaptest.NewLogger(t)),
		AuthUnary(auth),
	))
	api.RegisterBlogServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close(); gs.Stop(); _ = lis.Close() })
	return api.NewBlogClient(cc)
}

func withToken(ctx context.Context, tok string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok)
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		id:        model.Identity{ID: uuid.Must(uuid.NewV4()), Email: "a@example.com"},
		sessionID: uuid.Must(uuid.NewV4()),
		token:     "good-token",
	}
}

func TestServer_E2E_BasicFlow(t *testing.T) {
	t.Parallel()

	a := newFakeAuth()
	ps := &fakePosts{list: []model.Post{{ID: uuid.Must(uuid.NewV4()), Title: "Hello", UserID: a.id.ID, CreatedAt: time.Now()}}}
	cl := startBufGRPC(t, a, ps)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	su, err := cl.SignUp(ctx, &api.SignUpRequest{Email: "a@example.com", Password: "secret1"})
	if err != nil || su.UserID != a.id.ID.String() {
		t.Fatalf("sign up: %v %+v", err, su)
	}

	si, err := cl.SignIn(ctx, &api.SignInRequest{Email: "a@example.com", Password: "secret1"})
	if err != nil || si.GetAccessToken() != a.token || si.GetUser().GetEmail() != a.id.Email {
		t.Fatalf("sign in: %v %+v", err, si)
	}
	if a.lastIP == "" {
		t.Fatalf("client address must reach the limiter key")
	}

	if _, err := cl.GetUser(ctx, &api.GetUserRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("GetUser without token: %v", err)
	}
	if _, err := cl.GetUser(withToken(ctx, "stale"), &api.GetUserRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("GetUser with bad token: %v", err)
	}

	authed := withToken(ctx, a.token)
	gu, err := cl.GetUser(authed, &api.GetUserRequest{})
	if err != nil || gu.GetUser().GetID() != a.id.ID.String() {
		t.Fatalf("GetUser: %v %+v", err, gu)
	}

	ip, err := cl.InsertPost(authed, &api.InsertPostRequest{Title: "T1tle", Description: "d", ImageURL: "https://x/y"})
	if err != nil || ip.GetPost().Title != "T1tle" {
		t.Fatalf("InsertPost: %v %+v", err, ip)
	}
	if ps.caller != a.id.ID || ps.created[0].UserID != a.id.ID {
		t.Fatalf("insert must be owned by the caller: %+v", ps.created)
	}

	lp, err := cl.ListPosts(authed, &api.ListPostsRequest{})
	if err != nil || len(lp.GetPosts()) != 1 {
		t.Fatalf("ListPosts: %v %+v", err, lp)
	}

	if _, err := cl.SignOut(authed, &api.SignOutRequest{}); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if len(a.loggedOut) != 1 || a.loggedOut[0] != a.sessionID {
		t.Fatalf("sign out must revoke the token's session: %v", a.loggedOut)
	}
}

func TestServer_ErrorMapping(t *testing.T) {
	t.Parallel()

	a := newFakeAuth()
	ps := &fakePosts{}
	rec := &countingRecorder{}
	cl := startBufGRPCWith(t, New(a, ps).WithSignInRecorder(rec), a)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.registerErr = errs.ErrAlreadyExists
	if _, err := cl.SignUp(ctx, &api.SignUpRequest{Email: "a@example.com", Password: "secret1"}); status.Code(err) != codes.AlreadyExists {
		t.Fatalf("duplicate sign up: %v", err)
	}
	a.registerErr = errs.ErrInvalidInput
	if _, err := cl.SignUp(ctx, &api.SignUpRequest{}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("invalid sign up: %v", err)
	}

	if _, err := cl.SignIn(ctx, &api.SignInRequest{}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("empty sign in: %v", err)
	}
	a.loginErr = errs.ErrUnauthorized
	if _, err := cl.SignIn(ctx, &api.SignInRequest{Email: "a@example.com", Password: "x"}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("bad credentials: %v", err)
	}
	a.loginErr = errs.ErrRateLimited
	if _, err := cl.SignIn(ctx, &api.SignInRequest{Email: "a@example.com", Password: "x"}); status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("locked out: %v", err)
	}
	a.loginErr = errors.New("db down")
	if _, err := cl.SignIn(ctx, &api.SignInRequest{Email: "a@example.com", Password: "x"}); status.Code(err) != codes.Internal {
		t.Fatalf("storage failure: %v", err)
	}
	if strings.Join(rec.got, ",") != "denied,locked,error" {
		t.Fatalf("sign-in outcomes: %v", rec.got)
	}

	authed := withToken(ctx, a.token)
	if _, err := cl.InsertPost(authed, &api.InsertPostRequest{UserID: "not-a-uuid"}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("bad user id: %v", err)
	}
	ps.err = errs.ErrForbidden
	if _, err := cl.InsertPost(authed, &api.InsertPostRequest{UserID: uuid.Must(uuid.NewV4()).String()}); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("foreign user id: %v", err)
	}
	if _, err := cl.ListPosts(authed, &api.ListPostsRequest{}); status.Code(err) != codes.PermissionDenied {
		t.Fatalf("list error mapping: %v", err)
	}
	if _, err := cl.ListPosts(ctx, &api.ListPostsRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("list without token: %v", err)
	}
}

func TestServer_HandlersWithoutPrincipal(t *testing.T) {
	t.Parallel()

	s := New(newFakeAuth(), &fakePosts{})
	ctx := context.Background()
	if _, err := s.GetUser(ctx, &api.GetUserRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("GetUser: %v", err)
	}
	if _, err := s.SignOut(ctx, &api.SignOutRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := s.InsertPost(ctx, &api.InsertPostRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("InsertPost: %v", err)
	}
}

func Test_bearerTokenFromMD_OkAndErrors(t *testing.T) {
	t.Parallel()

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer abc.def.ghi"))
	got, err := bearerTokenFromMD(ctx)
	if err != nil || got != "abc.def.ghi" {
		t.Fatalf("ok: got=%q err=%v", got, err)
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic foo"))
	if _, err := bearerTokenFromMD(ctx); err == nil {
		t.Fatalf("want error on non-bearer")
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer   "))
	if _, err := bearerTokenFromMD(ctx); err == nil {
		t.Fatalf("want error on empty token")
	}

	if _, err := bearerTokenFromMD(context.Background()); err == nil {
		t.Fatalf("want error on no metadata")
	}
}

func TestToStatus(t *testing.T) {
	t.Parallel()

	cases := map[error]codes.Code{
		errs.ErrInvalidInput:     codes.InvalidArgument,
		errs.ErrAlreadyExists:    codes.AlreadyExists,
		errs.ErrUnauthorized:     codes.Unauthenticated,
		errs.ErrNoSession:        codes.Unauthenticated,
		errs.ErrForbidden:        codes.PermissionDenied,
		errs.ErrRateLimited:      codes.ResourceExhausted,
		errs.ErrNotFound:         codes.NotFound,
		context.Canceled:         codes.Canceled,
		context.DeadlineExceeded: codes.DeadlineExceeded,
		errors.New("boom"):       codes.Internal,
	}
	for in, want := range cases {
		if got := status.Code(toStatus("op", in)); got != want {
			t.Fatalf("toStatus(%v) = %v, want %v", in, got, want)
		}
	}
}
