// Package grpc serves the auth API over gRPC next to the HTTP surface.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/gate"
	"github.com/dmitrijs2005/taskkeeper/internal/server/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// PublicMethods skip the access token check.
var PublicMethods = []string{
	MethodRegister,
	MethodLogin,
	MethodRefresh,
	"/grpc.health.v1.Health/Check",
	"/grpc.health.v1.Health/List",
}

type GRPCServer struct {
	address string
	svc     AuthService
	gate    *gate.Gate
	limiter ratelimit.Limiter
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, svc AuthService, resolver gate.IdentityResolver, limiter ratelimit.Limiter) *GRPCServer {
	if l == nil {
		l = logging.NewNop()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	return &GRPCServer{
		address: a,
		svc:     svc,
		gate:    gate.New(resolver, PublicMethods...),
		limiter: limiter,
		logger:  l.With("module", "grpc_server"),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))

	RegisterAuthServiceServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	return srv.Serve(listen)
}
