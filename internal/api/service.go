package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "blogbox.v1.Blog"

// Full method names.
const (
	MethodSignUp     = "/" + ServiceName + "/SignUp"
	MethodSignIn     = "/" + ServiceName + "/SignIn"
	MethodGetUser    = "/" + ServiceName + "/GetUser"
	MethodSignOut    = "/" + ServiceName + "/SignOut"
	MethodInsertPost = "/" + ServiceName + "/InsertPost"
	MethodListPosts  = "/" + ServiceName + "/ListPosts"
)

// BlogServer is implemented by the backend.
type BlogServer interface {
	SignUp(context.Context, *SignUpRequest) (*SignUpResponse, error)
	SignIn(context.Context, *SignInRequest) (*SignInResponse, error)
	GetUser(context.Context, *GetUserRequest) (*GetUserResponse, error)
	SignOut(context.Context, *SignOutRequest) (*SignOutResponse, error)
	InsertPost(context.Context, *InsertPostRequest) (*InsertPostResponse, error)
	ListPosts(context.Context, *ListPostsRequest) (*ListPostsResponse, error)
}

// UnimplementedBlogServer can be embedded to satisfy BlogServer partially.
type UnimplementedBlogServer struct{}

func (UnimplementedBlogServer) SignUp(context.Context, *SignUpRequest) (*SignUpResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignUp not implemented")
}
func (UnimplementedBlogServer) SignIn(context.Context, *SignInRequest) (*SignInResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignIn not implemented")
}
func (UnimplementedBlogServer) GetUser(context.Context, *GetUserRequest) (*GetUserResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetUser not implemented")
}
func (UnimplementedBlogServer) SignOut(context.Context, *SignOutRequest) (*SignOutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignOut not implemented")
}
func (UnimplementedBlogServer) InsertPost(context.Context, *InsertPostRequest) (*InsertPostResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method InsertPost not implemented")
}
func (UnimplementedBlogServer) ListPosts(context.Context, *ListPostsRequest) (*ListPostsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListPosts not implemented")
}

// unary adapts a typed BlogServer method to grpc.MethodHandler.
func unary[Req, Resp any](fullMethod string, call func(BlogServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BlogServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BlogServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the Blog service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BlogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: unary(MethodSignUp, BlogServer.SignUp)},
		{MethodName: "SignIn", Handler: unary(MethodSignIn, BlogServer.SignIn)},
		{MethodName: "GetUser", Handler: unary(MethodGetUser, BlogServer.GetUser)},
		{MethodName: "SignOut", Handler: unary(MethodSignOut, BlogServer.SignOut)},
		{MethodName: "InsertPost", Handler: unary(MethodInsertPost, BlogServer.InsertPost)},
		{MethodName: "ListPosts", Handler: unary(MethodListPosts, BlogServer.ListPosts)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "blogbox/v1/blog",
}

// RegisterBlogServer registers srv on s.
func RegisterBlogServer(s grpc.ServiceRegistrar, srv BlogServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// BlogClient is the client API for the Blog service.
type BlogClient interface {
	SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*SignUpResponse, error)
	SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*SignInResponse, error)
	GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*GetUserResponse, error)
	SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*SignOutResponse, error)
	InsertPost(ctx context.Context, in *InsertPostRequest, opts ...grpc.CallOption) (*InsertPostResponse, error)
	ListPosts(ctx context.Context, in *ListPostsRequest, opts ...grpc.CallOption) (*ListPostsResponse, error)
}

type blogClient struct {
	cc grpc.ClientConnInterface
}

// NewBlogClient wraps cc; every call uses the JSON codec.
func NewBlogClient(cc grpc.ClientConnInterface) BlogClient {
	return &blogClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *blogClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*SignUpResponse, error) {
	return invoke[SignUpResponse](ctx, c.cc, MethodSignUp, in, opts)
}

func (c *blogClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*SignInResponse, error) {
	return invoke[SignInResponse](ctx, c.cc, MethodSignIn, in, opts)
}

func (c *blogClient) GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*GetUserResponse, error) {
	return invoke[GetUserResponse](ctx, c.cc, MethodGetUser, in, opts)
}

func (c *blogClient) SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*SignOutResponse, error) {
	return invoke[SignOutResponse](ctx, c.cc, MethodSignOut, in, opts)
}

func (c *blogClient) InsertPost(ctx context.Context, in *InsertPostRequest, opts ...grpc.CallOption) (*InsertPostResponse, error) {
	return invoke[InsertPostResponse](ctx, c.cc, MethodInsertPost, in, opts)
}

func (c *blogClient) ListPosts(ctx context.Context, in *ListPostsRequest, opts ...grpc.CallOption) (*ListPostsResponse, error) {
	return invoke[ListPostsResponse](ctx, c.cc, MethodListPosts, in, opts)
}
