// Package grpcserver exposes the blog backend over gRPC.
package grpcserver

import (
	"context"
	"errors"

	"github.com/and161185/blogbox/internal/api"
	"github.com/and161185/blogbox/internal/convert"
	"github.com/and161185/blogbox/internal/errs"
	"github.com/and161185/blogbox/internal/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Server wires services into gRPC handlers.
type Server struct {
	api.UnimplementedBlogServer
	auth    service.AuthService
	posts   service.PostService
	signIns SignInRecorder
}

// SignInRecorder counts sign-in outcomes.
type SignInRecorder interface {
	RecordSignIn(result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordSignIn(string) {}

// New constructs a gRPC server with injected services.
func New(auth service.AuthService, posts service.PostService) *Server {
	return &Server{auth: auth, posts: posts, signIns: nopRecorder{}}
}

// WithSignInRecorder sets where sign-in outcomes are reported.
func (s *Server) WithSignInRecorder(r SignInRecorder) *Server {
	if r != nil {
		s.signIns = r
	}
	return s
}

// toStatus maps domain errors to gRPC status codes.
func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already registered")
	case errors.Is(err, errs.ErrUnauthorized), errors.Is(err, errs.ErrNoSession):
		return status.Error(codes.Unauthenticated, "unauthenticated")
	case errors.Is(err, errs.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, errs.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, op+": canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, op+": deadline exceeded")
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}

func principal(ctx context.Context) (service.Principal, error) {
	p, ok := PrincipalFromCtx(ctx)
	if !ok {
		return service.Principal{}, status.Error(codes.Unauthenticated, "no auth")
	}
	return p, nil
}

// --- Auth ---

// SignUp creates a new account.
func (s *Server) SignUp(ctx context.Context, req *api.SignUpRequest) (*api.SignUpResponse, error) {
	id, err := s.auth.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus("sign up", err)
	}
	return &api.SignUpResponse{UserID: id.ID.String()}, nil
}

// SignIn authenticates and opens a session.
func (s *Server) SignIn(ctx context.Context, req *api.SignInRequest) (*api.SignInResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "empty email/password")
	}
	tok, id, err := s.auth.LoginWithIP(ctx, req.Email, req.Password, remoteHost(ctx))
	switch {
	case err == nil:
		s.signIns.RecordSignIn("ok")
	case errors.Is(err, errs.ErrUnauthorized):
		s.signIns.RecordSignIn("denied")
	case errors.Is(err, errs.ErrRateLimited):
		s.signIns.RecordSignIn("locked")
	default:
		s.signIns.RecordSignIn("error")
	}
	if err != nil {
		return nil, toStatus("sign in", err)
	}
	return convert.ToAPISignIn(tok, id), nil
}

// GetUser returns the caller's identity.
func (s *Server) GetUser(ctx context.Context, _ *api.GetUserRequest) (*api.GetUserResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	return &api.GetUserResponse{User: convert.ToAPIUser(p.Identity)}, nil
}

// SignOut revokes the caller's session.
func (s *Server) SignOut(ctx context.Context, _ *api.SignOutRequest) (*api.SignOutResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Logout(ctx, p.SessionID); err != nil {
		return nil, toStatus("sign out", err)
	}
	return &api.SignOutResponse{}, nil
}

// --- Posts ---

// InsertPost stores a post owned by the caller.
func (s *Server) InsertPost(ctx context.Context, req *api.InsertPostRequest) (*api.InsertPostResponse, error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	np, err := convert.FromAPINewPost(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad post: %v", err)
	}
	post, err := s.posts.Create(ctx, p.Identity.ID, np)
	if err != nil {
		return nil, toStatus("insert post", err)
	}
	return &api.InsertPostResponse{Post: convert.ToAPIPost(post)}, nil
}

// ListPosts returns posts ordered by created_at.
func (s *Server) ListPosts(ctx context.Context, req *api.ListPostsRequest) (*api.ListPostsResponse, error) {
	if _, err := principal(ctx); err != nil {
		return nil, err
	}
	ps, err := s.posts.List(ctx, int(req.Limit), req.Ascending)
	if err != nil {
		return nil, toStatus("list posts", err)
	}
	return &api.ListPostsResponse{Posts: convert.ToAPIPosts(ps)}, nil
}
