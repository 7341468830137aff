package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newInterceptorServer() *GRPCServer {
	resolver := gate.ResolverFunc(func(_ context.Context, token string) (int64, error) {
		switch token {
		case "good":
			return 42, nil
		case "expired":
			return 0, common.ErrTokenExpired
		}
		return 0, errors.New("bad signature")
	})
	return NewGRPCServer("", nil, nil, resolver, nil)
}

func TestInterceptor_PublicMethodSkipsToken(t *testing.T) {
	s := newInterceptorServer()
	called := false

	resp, err := s.accessTokenInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: MethodLogin},
		func(ctx context.Context, req any) (any, error) {
			called = true
			_, ok := gate.UserIDFromContext(ctx)
			assert.False(t, ok)
			return "ok", nil
		})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ok", resp)
}

func TestInterceptor_AttachesUserID(t *testing.T) {
	s := newInterceptorServer()
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "bearer good"))

	_, err := s.accessTokenInterceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: MethodMe},
		func(ctx context.Context, req any) (any, error) {
			id, ok := gate.UserIDFromContext(ctx)
			assert.True(t, ok)
			assert.EqualValues(t, 42, id)
			return nil, nil
		})
	require.NoError(t, err)
}

func TestInterceptor_Rejections(t *testing.T) {
	s := newInterceptorServer()

	tests := []struct {
		name string
		md   metadata.MD
		msg  string
	}{
		{name: "missing", md: metadata.MD{}, msg: "authorization header missing"},
		{name: "malformed", md: metadata.Pairs("authorization", "Token good"), msg: "invalid authorization format"},
		{name: "expired", md: metadata.Pairs("authorization", "Bearer expired"), msg: "token expired or invalid"},
		{name: "invalid", md: metadata.Pairs("authorization", "Bearer nope"), msg: "token expired or invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := metadata.NewIncomingContext(context.Background(), tt.md)
			_, err := s.accessTokenInterceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: MethodMe},
				func(context.Context, any) (any, error) {
					t.Fatal("handler must not run")
					return nil, nil
				})
			assert.Equal(t, codes.Unauthenticated, status.Code(err))
			assert.Equal(t, tt.msg, status.Convert(err).Message())
		})
	}
}
