package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// The auth API is small enough to be described by hand over the protobuf
// well-known types, so no generated code is needed on either side.
const ServiceName = "taskkeeper.auth.v1.AuthService"

const (
	MethodRegister = "/" + ServiceName + "/Register"
	MethodLogin    = "/" + ServiceName + "/Login"
	MethodRefresh  = "/" + ServiceName + "/Refresh"
	MethodLogout   = "/" + ServiceName + "/Logout"
	MethodMe       = "/" + ServiceName + "/Me"
)

type AuthServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Me(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func unary[In any](fullMethod string, call func(AuthServiceServer, context.Context, *In) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(In)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*In))
		})
	}
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(MethodRegister, func(s AuthServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Register(ctx, in)
		})},
		{MethodName: "Login", Handler: unary(MethodLogin, func(s AuthServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Login(ctx, in)
		})},
		{MethodName: "Refresh", Handler: unary(MethodRefresh, func(s AuthServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Refresh(ctx, in)
		})},
		{MethodName: "Logout", Handler: unary(MethodLogout, func(s AuthServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Logout(ctx, in)
		})},
		{MethodName: "Me", Handler: unary(MethodMe, func(s AuthServiceServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.Me(ctx, in)
		})},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskkeeper/auth/v1/auth.proto",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// AuthServiceClient calls the auth service over an existing connection.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

func (c *AuthServiceClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	return out, c.cc.Invoke(ctx, MethodRegister, in, out, opts...)
}

func (c *AuthServiceClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	return out, c.cc.Invoke(ctx, MethodLogin, in, out, opts...)
}

func (c *AuthServiceClient) Refresh(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	return out, c.cc.Invoke(ctx, MethodRefresh, in, out, opts...)
}

func (c *AuthServiceClient) Logout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	return out, c.cc.Invoke(ctx, MethodLogout, in, out, opts...)
}

func (c *AuthServiceClient) Me(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	return out, c.cc.Invoke(ctx, MethodMe, in, out, opts...)
}
