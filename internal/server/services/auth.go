// Package services contains the server-side business logic. AuthService
// drives the session lifecycle: register, login, refresh, identity
// resolution and logout.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// PasswordHasher is satisfied by *auth.PasswordHasher.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
	VerifyDummy(ctx context.Context, password string) error
}

// TokenCodec is satisfied by *auth.TokenCodec.
type TokenCodec interface {
	Issue(userID int64, email string) (string, time.Time, error)
	Decode(token string) (*auth.Identity, error)
	TTL() time.Duration
}

// Session is what a client holds after register, login or refresh.
type Session struct {
	User             *models.User
	AccessToken      string
	ExpiresIn        time.Duration
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type AuthService struct {
	repos    repomanager.RepositoryManager
	hasher   PasswordHasher
	codec    TokenCodec
	tokens   *RefreshTokenManager
	validate *validator.Validate
	hooks    []RegistrationHook
	logger   logging.Logger
}

func NewAuthService(
	m repomanager.RepositoryManager,
	hasher PasswordHasher,
	codec TokenCodec,
	tokens *RefreshTokenManager,
	logger logging.Logger,
	hooks ...RegistrationHook,
) *AuthService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AuthService{
		repos:    m,
		hasher:   hasher,
		codec:    codec,
		tokens:   tokens,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		hooks:    hooks,
		logger:   logger.With("module", "auth"),
	}
}

// Register creates an account and starts a session for it.
func (s *AuthService) Register(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if err := s.validate.Var(email, "required,email,max=255"); err != nil {
		return nil, common.ErrInvalidEmail
	}
	if n := utf8.RuneCountInString(password); n < MinPasswordLength || n > MaxPasswordLength {
		return nil, common.ErrPasswordLength
	}

	_, err := s.repos.Users(s.repos.Conn()).GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrEmailAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, s.internal(ctx, "lookup email", err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, s.internal(ctx, "hash password", err)
	}

	var session *Session
	err = s.repos.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repos.Users(tx).Create(ctx, &models.User{Email: email, PasswordHash: hash})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrEmailAlreadyExists
			}
			return err
		}
		session, err = s.newSession(ctx, tx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, s.internal(ctx, "create user", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", session.User.ID)
	s.runHooks(ctx, session.User)
	return session, nil
}

// Login checks credentials. Unknown email and wrong password produce the
// same error and take comparable time.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)

	user, err := s.repos.Users(s.repos.Conn()).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			if err := s.hasher.VerifyDummy(ctx, password); err != nil {
				return nil, err
			}
			s.logger.Debug(ctx, "login failed", "reason", "unknown email")
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "lookup user", err)
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Debug(ctx, "login failed", "reason", "password mismatch", "user_id", user.ID)
		return nil, common.ErrInvalidCredentials
	}

	session, err := s.newSession(ctx, s.repos.Conn(), user)
	if err != nil {
		return nil, s.internal(ctx, "start session", err)
	}
	return session, nil
}

// Refresh spends refreshToken and returns a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, common.ErrMissingRefreshToken
	}

	rot, err := s.tokens.Consume(ctx, refreshToken)
	switch {
	case errors.Is(err, common.ErrRefreshTokenExpired):
		s.logger.Debug(ctx, "refresh rejected", "reason", "expired")
		return nil, common.ErrExpiredRefreshToken
	case errors.Is(err, common.ErrRefreshTokenNotFound):
		s.logger.Debug(ctx, "refresh rejected", "reason", "not found")
		return nil, common.ErrInvalidRefreshToken
	case err != nil:
		return nil, s.internal(ctx, "consume refresh token", err)
	}

	user, err := s.repos.Users(s.repos.Conn()).GetUserByID(ctx, rot.UserID)
	if err != nil {
		if revokeErr := s.tokens.Revoke(ctx, rot.Next.Token); revokeErr != nil {
			s.logger.Warn(ctx, "revoke orphaned refresh token", "error", revokeErr)
		}
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, s.internal(ctx, "lookup token owner", err)
	}

	access, _, err := s.codec.Issue(user.ID, user.Email)
	if err != nil {
		return nil, s.internal(ctx, "issue access token", err)
	}

	return &Session{
		User:             user,
		AccessToken:      access,
		ExpiresIn:        s.codec.TTL(),
		RefreshToken:     rot.Next.Token,
		RefreshExpiresAt: rot.Next.ExpiresAt,
	}, nil
}

// Authenticate resolves the user id behind an access token without touching
// storage. Failures wrap common.ErrInvalidToken.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (int64, error) {
	ident, err := s.codec.Decode(accessToken)
	if err != nil {
		return 0, err
	}
	return ident.UserID, nil
}

// CurrentUser returns the account for userID.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repos.Users(s.repos.Conn()).GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "lookup user", err)
	}
	return user, nil
}

// Logout revokes refreshToken if given. It always succeeds from the
// caller's point of view; the access token stays valid until it expires.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		s.logger.Warn(ctx, "logout: revoke failed", "error", err)
	}
	return nil
}

func (s *AuthService) newSession(ctx context.Context, db dbx.DBTX, user *models.User) (*Session, error) {
	access, _, err := s.codec.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	rt, err := s.tokens.IssueFor(ctx, db, user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &Session{
		User:             user,
		AccessToken:      access,
		ExpiresIn:        s.codec.TTL(),
		RefreshToken:     rt.Token,
		RefreshExpiresAt: rt.ExpiresAt,
	}, nil
}

func (s *AuthService) runHooks(ctx context.Context, user *models.User) {
	for _, h := range s.hooks {
		if err := h.OnUserRegistered(ctx, user); err != nil {
			s.logger.Error(ctx, "registration hook failed", "user_id", user.ID, "hook", fmt.Sprintf("%T", h), "error", err)
		}
	}
}

func (s *AuthService) internal(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, op, "error", err)
	return common.ErrorInternal
}
