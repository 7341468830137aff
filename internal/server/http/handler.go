package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/gate"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
)

// AuthService is satisfied by *services.AuthService.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*services.Session, error)
	Logout(ctx context.Context, refreshToken string) error
	CurrentUser(ctx context.Context, userID int64) (*models.User, error)
}

const RefreshTokenHeader = common.RefreshTokenHeaderName

const maxBodyBytes = 1 << 20

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type Handler struct {
	svc     AuthService
	limiter ratelimit.Limiter
	logger  logging.Logger
}

func NewHandler(svc AuthService, limiter ratelimit.Limiter, l logging.Logger) *Handler {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	return &Handler{svc: svc, limiter: limiter, logger: l}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Task App API"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newLoginResponse(s))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ok, err := h.limiter.Allow(r.Context(), "login:"+clientIP(r))
	if err != nil {
		// a broken limiter backend must not lock everybody out
		h.logger.Warn(r.Context(), "rate limiter unavailable", "error", err)
	} else if !ok {
		writeServiceError(w, common.ErrTooManyRequests)
		return
	}

	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoginResponse(s))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(RefreshTokenHeader)
	if token == "" {
		var req refreshRequest
		if !h.decode(w, r, &req) {
			return
		}
		token = req.RefreshToken
	}

	s, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoginResponse(s))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(RefreshTokenHeader)
	if token == "" {
		var req refreshRequest
		// logout works without a body
		_ = json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
		token = req.RefreshToken
	}

	_ = h.svc.Logout(r.Context(), token)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := gate.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authorization header missing")
		return
	}

	user, err := h.svc.CurrentUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return false
	}
	return true
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func newLoginResponse(s *services.Session) LoginResponse {
	return LoginResponse{
		AccessToken:  s.AccessToken,
		TokenType:    strings.ToLower(common.BearerScheme),
		ExpiresIn:    int64(s.ExpiresIn / time.Second),
		RefreshToken: s.RefreshToken,
		User:         newUserResponse(s.User),
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
