package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const authorizationKey = "authorization"

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	var authorization string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(authorizationKey); len(values) > 0 {
			authorization = values[0]
		}
	}

	ctx, err := s.gate.Check(ctx, "", info.FullMethod, authorization)
	if err != nil {
		s.logger.Debug(ctx, "call rejected", "method", info.FullMethod, "reason", err.Error())
		switch {
		case errors.Is(err, common.ErrMissingAuthHeader):
			return nil, status.Error(codes.Unauthenticated, "authorization header missing")
		case errors.Is(err, common.ErrMalformedAuthHeader):
			return nil, status.Error(codes.Unauthenticated, "invalid authorization format")
		default:
			return nil, status.Error(codes.Unauthenticated, "token expired or invalid")
		}
	}

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Info(ctx, "call", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}
