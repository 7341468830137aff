package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/gate"
	"github.com/go-chi/chi/v5/middleware"
)

// Authenticate runs every request through the gate. Protected routes
// without a valid bearer token get a 401 and never reach the handler.
func Authenticate(g *gate.Gate, l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := g.Check(r.Context(), r.Method, r.URL.Path, r.Header.Get(common.AuthorizationHeaderName))
			if err == nil {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			l.Debug(r.Context(), "request rejected", "path", r.URL.Path, "reason", err.Error())

			switch {
			case errors.Is(err, common.ErrMissingAuthHeader):
				writeError(w, http.StatusUnauthorized, "unauthorized", "authorization header missing")
			case errors.Is(err, common.ErrMalformedAuthHeader):
				writeError(w, http.StatusUnauthorized, "invalid_token", "invalid authorization format")
			default:
				writeError(w, http.StatusUnauthorized, "invalid_token", "token expired or invalid")
			}
		})
	}
}

func requestLogger(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
