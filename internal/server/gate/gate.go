// Package gate decides whether an inbound call may proceed and, for
// protected calls, who is making it. Transport adapters (HTTP middleware,
// gRPC interceptor) translate its errors into their own status codes.
package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

// DefaultPublicPaths are the HTTP routes reachable without a token.
var DefaultPublicPaths = []string{
	"/",
	"/health",
	"/api/auth/register",
	"/api/auth/login",
	"/api/auth/refresh",
}

// IdentityResolver turns an access token into a user id.
type IdentityResolver interface {
	Authenticate(ctx context.Context, accessToken string) (int64, error)
}

type ResolverFunc func(ctx context.Context, accessToken string) (int64, error)

func (f ResolverFunc) Authenticate(ctx context.Context, accessToken string) (int64, error) {
	return f(ctx, accessToken)
}

type Gate struct {
	resolver IdentityResolver
	public   map[string]struct{}
}

// New builds a gate whose allow-list is publicPaths, or DefaultPublicPaths
// when none are given. The list is fixed for the gate's lifetime.
func New(resolver IdentityResolver, publicPaths ...string) *Gate {
	if len(publicPaths) == 0 {
		publicPaths = DefaultPublicPaths
	}
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[normalize(p)] = struct{}{}
	}
	return &Gate{resolver: resolver, public: public}
}

// IsPublic reports whether a call skips authentication. Preflight requests
// always do.
func (g *Gate) IsPublic(method, path string) bool {
	if method == http.MethodOptions {
		return true
	}
	_, ok := g.public[normalize(path)]
	return ok
}

// Check returns ctx carrying the caller's user id, or one of
// common.ErrMissingAuthHeader, common.ErrMalformedAuthHeader and
// common.ErrInvalidToken. Public calls get ctx back untouched.
func (g *Gate) Check(ctx context.Context, method, path, authorization string) (context.Context, error) {
	if g.IsPublic(method, path) {
		return ctx, nil
	}

	token, err := ParseBearer(authorization)
	if err != nil {
		return ctx, err
	}

	userID, err := g.resolver.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			return ctx, err
		}
		return ctx, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	return WithUserID(ctx, userID), nil
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>"
// value. The scheme is case-insensitive; anything other than exactly two
// fields is malformed.
func ParseBearer(authorization string) (string, error) {
	if strings.TrimSpace(authorization) == "" {
		return "", common.ErrMissingAuthHeader
	}
	parts := strings.Fields(authorization)
	if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
		return "", common.ErrMalformedAuthHeader
	}
	return parts[1], nil
}

func normalize(path string) string {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}

type ctxKey struct{}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserIDFromContext returns the id attached by Check.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}
