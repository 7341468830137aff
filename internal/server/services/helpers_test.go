package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type fixture struct {
	store  *memory.Store
	codec  *auth.TokenCodec
	hasher *auth.PasswordHasher
	tokens *RefreshTokenManager
	svc    *AuthService
}

func newFixture(t *testing.T, hooks ...RegistrationHook) *fixture {
	t.Helper()
	store := memory.NewStore()
	return newFixtureWith(t, store, store, hooks...)
}

func newFixtureWith(t *testing.T, store *memory.Store, m repomanager.RepositoryManager, hooks ...RegistrationHook) *fixture {
	t.Helper()
	codec, err := auth.NewTokenCodec([]byte(testSecret), "HS256", time.Hour)
	require.NoError(t, err)
	hasher := auth.NewPasswordHasher(bcrypt.MinCost, 4)
	tokens := NewRefreshTokenManager(m, DefaultRefreshTokenValidity)

	return &fixture{
		store:  store,
		codec:  codec,
		hasher: hasher,
		tokens: tokens,
		svc:    NewAuthService(m, hasher, codec, tokens, logging.NewNop(), hooks...),
	}
}

// brokenUsers fails every lookup with err.
type brokenUsers struct {
	users.Repository
	err error
}

func (b brokenUsers) GetUserByEmail(context.Context, string) (*models.User, error) { return nil, b.err }
func (b brokenUsers) GetUserByID(context.Context, int64) (*models.User, error)     { return nil, b.err }

// racingUsers reports every email as free but refuses to insert it, as when
// a concurrent registration wins the unique index.
type racingUsers struct {
	users.Repository
	createErr error
}

func (r racingUsers) Create(context.Context, *models.User) (*models.User, error) {
	return nil, r.createErr
}

// storeWithUsers swaps the users table of a memory store.
type storeWithUsers struct {
	*memory.Store
	users users.Repository
}

func (s *storeWithUsers) Users(dbx.DBTX) users.Repository { return s.users }
