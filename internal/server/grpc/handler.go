package grpc

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/gate"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// AuthService is satisfied by *services.AuthService.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*services.Session, error)
	Logout(ctx context.Context, refreshToken string) error
	CurrentUser(ctx context.Context, userID int64) (*models.User, error)
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	session, err := s.svc.Register(ctx, field(req, "email"), field(req, "password"))
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "Registered", "user_id", session.User.ID)
	return sessionStruct(session)
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ok, err := s.limiter.Allow(ctx, "login:"+peerHost(ctx))
	if err != nil {
		s.logger.Warn(ctx, "rate limiter unavailable", "error", err)
	} else if !ok {
		return nil, toStatus(common.ErrTooManyRequests)
	}

	session, err := s.svc.Login(ctx, field(req, "email"), field(req, "password"))
	if err != nil {
		return nil, toStatus(err)
	}
	return sessionStruct(session)
}

func (s *GRPCServer) Refresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	session, err := s.svc.Refresh(ctx, field(req, "refresh_token"))
	if err != nil {
		return nil, toStatus(err)
	}
	return sessionStruct(session)
}

func (s *GRPCServer) Logout(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	_ = s.svc.Logout(ctx, field(req, "refresh_token"))
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	userID, ok := gate.UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authorization header missing")
	}
	user, err := s.svc.CurrentUser(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(userMap(user))
}

func field(req *structpb.Struct, name string) string {
	if req == nil {
		return ""
	}
	return req.GetFields()[name].GetStringValue()
}

func userMap(u *models.User) map[string]any {
	return map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"created_at": u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func sessionStruct(s *services.Session) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{
		"access_token":  s.AccessToken,
		"token_type":    strings.ToLower(common.BearerScheme),
		"expires_in":    int64(s.ExpiresIn / time.Second),
		"refresh_token": s.RefreshToken,
		"user":          userMap(s.User),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func peerHost(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return p.Addr.String()
	}
	return host
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidEmail),
		errors.Is(err, common.ErrPasswordLength),
		errors.Is(err, common.ErrMissingRefreshToken):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrEmailAlreadyExists):
		return status.Error(codes.AlreadyExists, "email already registered")
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid email or password")
	case errors.Is(err, common.ErrInvalidRefreshToken), errors.Is(err, common.ErrExpiredRefreshToken):
		return status.Error(codes.Unauthenticated, "invalid or expired refresh token")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "user not found")
	case errors.Is(err, common.ErrTooManyRequests):
		return status.Error(codes.ResourceExhausted, "too many login attempts, try again later")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
