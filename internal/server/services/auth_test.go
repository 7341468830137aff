package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.svc.Register(ctx, "  a@x.com ", "longenough1")
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", s.User.Email)
	assert.NotZero(t, s.User.ID)
	assert.NotEmpty(t, s.AccessToken)
	assert.Len(t, s.RefreshToken, common.RefreshTokenBytes*2)
	assert.Equal(t, time.Hour, s.ExpiresIn)
	assert.WithinDuration(t, time.Now().Add(DefaultRefreshTokenValidity), s.RefreshExpiresAt, 5*time.Second)

	stored, err := f.store.Users(nil).GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "longenough1", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2a$"))
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "empty email", email: "", password: "longenough1", wantErr: common.ErrInvalidEmail},
		{name: "no at sign", email: "nobody.example.com", password: "longenough1", wantErr: common.ErrInvalidEmail},
		{name: "only spaces", email: "   ", password: "longenough1", wantErr: common.ErrInvalidEmail},
		{name: "too long email", email: strings.Repeat("a", 250) + "@x.com", password: "longenough1", wantErr: common.ErrInvalidEmail},
		{name: "7 chars", email: "a@x.com", password: "1234567", wantErr: common.ErrPasswordLength},
		{name: "8 chars", email: "a@x.com", password: "12345678"},
		{name: "72 chars", email: "a@x.com", password: strings.Repeat("p", 72)},
		{name: "73 chars", email: "a@x.com", password: strings.Repeat("p", 73), wantErr: common.ErrPasswordLength},
		{name: "72 multibyte runes", email: "a@x.com", password: strings.Repeat("ж", 72)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Register(context.Background(), tt.email, tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Register(ctx, "dup@x.com", "firstpassword")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "dup@x.com", "secondpassword")
	assert.ErrorIs(t, err, common.ErrEmailAlreadyExists)

	s, err := f.svc.Login(ctx, "dup@x.com", "firstpassword")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, s.User.ID)

	_, err = f.svc.Login(ctx, "dup@x.com", "secondpassword")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestRegister_UniqueIndexRace(t *testing.T) {
	store := memory.NewStore()
	m := &storeWithUsers{Store: store, users: racingUsers{Repository: store.Users(nil), createErr: common.ErrorAlreadyExists}}
	f := newFixtureWith(t, store, m)

	_, err := f.svc.Register(context.Background(), "race@x.com", "longenough1")
	assert.ErrorIs(t, err, common.ErrEmailAlreadyExists)
}

func TestRegister_StorageFailure(t *testing.T) {
	store := memory.NewStore()
	m := &storeWithUsers{Store: store, users: brokenUsers{err: errors.New("connection refused")}}
	f := newFixtureWith(t, store, m)

	_, err := f.svc.Register(context.Background(), "a@x.com", "longenough1")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestRegister_Hooks(t *testing.T) {
	var seen []int64
	recorder := RegistrationHookFunc(func(_ context.Context, u *models.User) error {
		seen = append(seen, u.ID)
		return nil
	})
	failing := RegistrationHookFunc(func(context.Context, *models.User) error {
		return errors.New("broker down")
	})

	store := memory.NewStore()
	f := newFixtureWith(t, store, store, failing, NewWelcomeTaskHook(store), recorder)

	s, err := f.svc.Register(context.Background(), "hooks@x.com", "longenough1")
	require.NoError(t, err, "hook failure must not fail registration")
	assert.Equal(t, []int64{s.User.ID}, seen)

	tasks, err := store.Tasks(nil).ListByUser(context.Background(), s.User.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, WelcomeTaskTitle, tasks[0].Title)
	assert.Equal(t, "Congratulations hooks@x.com, you've successfully signed up! This is your first task.", tasks[0].Description)
}

func TestRegister_HooksNotRunOnFailure(t *testing.T) {
	called := false
	hook := RegistrationHookFunc(func(context.Context, *models.User) error {
		called = true
		return nil
	})
	f := newFixture(t, hook)

	_, err := f.svc.Register(context.Background(), "bad", "longenough1")
	require.Error(t, err)
	assert.False(t, called)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "user@x.com", "correct-password")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		s, err := f.svc.Login(ctx, " user@x.com", "correct-password")
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, s.User.ID)
		assert.NotEqual(t, reg.RefreshToken, s.RefreshToken)

		id, err := f.svc.Authenticate(ctx, s.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, id)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, errWrong := f.svc.Login(ctx, "user@x.com", "wrong-password")
		_, errUnknown := f.svc.Login(ctx, "ghost@x.com", "correct-password")

		require.Error(t, errWrong)
		require.Error(t, errUnknown)
		assert.Equal(t, errWrong, errUnknown)
		assert.ErrorIs(t, errWrong, common.ErrInvalidCredentials)
	})

	t.Run("email is case sensitive", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "USER@x.com", "correct-password")
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	})
}

func TestLogin_StorageFailure(t *testing.T) {
	store := memory.NewStore()
	m := &storeWithUsers{Store: store, users: brokenUsers{err: errors.New("timeout")}}
	f := newFixtureWith(t, store, m)

	_, err := f.svc.Login(context.Background(), "a@x.com", "longenough1")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "r@x.com", "longenough1")
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, err := f.svc.Refresh(ctx, "  ")
		assert.ErrorIs(t, err, common.ErrMissingRefreshToken)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := f.svc.Refresh(ctx, "feedface")
		assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
	})

	t.Run("expired", func(t *testing.T) {
		require.NoError(t, f.store.RefreshTokens(nil).Create(ctx, &models.RefreshToken{
			UserID: reg.User.ID, Token: "expired-token", ExpiresAt: time.Now().Add(-time.Second),
		}))
		_, err := f.svc.Refresh(ctx, "expired-token")
		assert.ErrorIs(t, err, common.ErrExpiredRefreshToken)

		_, err = f.svc.Refresh(ctx, "expired-token")
		assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
	})

	t.Run("rotates", func(t *testing.T) {
		s, err := f.svc.Refresh(ctx, reg.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, reg.RefreshToken, s.RefreshToken)
		assert.Equal(t, reg.User.ID, s.User.ID)
		assert.Equal(t, "r@x.com", s.User.Email)

		ident, err := f.codec.Decode(s.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "r@x.com", ident.Email)

		_, err = f.svc.Refresh(ctx, reg.RefreshToken)
		assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
	})

	t.Run("owner gone", func(t *testing.T) {
		rt, err := f.tokens.IssueFor(ctx, nil, 9999)
		require.NoError(t, err)

		_, err = f.svc.Refresh(ctx, rt.Token)
		assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
	})
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expired, _, err := f.codec.IssueWithTTL(1, "a@x.com", -time.Second)
	require.NoError(t, err)

	for _, tok := range []string{"", "garbage", expired} {
		_, err := f.svc.Authenticate(ctx, tok)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.svc.Register(ctx, "out@x.com", "longenough1")
	require.NoError(t, err)

	assert.NoError(t, f.svc.Logout(ctx, ""))
	assert.NoError(t, f.svc.Logout(ctx, "unknown"))
	require.NoError(t, f.svc.Logout(ctx, s.RefreshToken))

	_, err = f.svc.Refresh(ctx, s.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

	// access tokens are stateless and outlive logout
	id, err := f.svc.Authenticate(ctx, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, id)
}

func TestCurrentUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.svc.Register(ctx, "me@x.com", "longenough1")
	require.NoError(t, err)

	u, err := f.svc.CurrentUser(ctx, s.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@x.com", u.Email)

	_, err = f.svc.CurrentUser(ctx, 12345)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, "a@x.com", "longenough1")
	require.NoError(t, err)

	id, err := f.svc.Authenticate(ctx, reg.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, id)

	next, err := f.svc.Refresh(ctx, reg.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)
	assert.NotEqual(t, reg.RefreshToken, next.RefreshToken)

	// rotation does not invalidate the old access token
	id, err = f.svc.Authenticate(ctx, reg.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, id)

	_, err = f.tokens.Consume(ctx, reg.RefreshToken)
	assert.ErrorIs(t, err, common.ErrRefreshTokenNotFound)
}
