package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

const DefaultRefreshTokenValidity = 30 * 24 * time.Hour

// Rotation is the outcome of a successful Consume: the owner of the
// presented token and its single replacement.
type Rotation struct {
	UserID int64
	Next   *models.RefreshToken
}

// RefreshTokenManager issues, rotates and revokes opaque refresh tokens.
type RefreshTokenManager struct {
	repos    repomanager.RepositoryManager
	validity time.Duration
	now      func() time.Time
}

func NewRefreshTokenManager(m repomanager.RepositoryManager, validity time.Duration) *RefreshTokenManager {
	if validity <= 0 {
		validity = DefaultRefreshTokenValidity
	}
	return &RefreshTokenManager{repos: m, validity: validity, now: time.Now}
}

func (m *RefreshTokenManager) Validity() time.Duration { return m.validity }

// IssueFor creates a token for userID through db, which may be a
// transaction owned by the caller.
func (m *RefreshTokenManager) IssueFor(ctx context.Context, db dbx.DBTX, userID int64) (*models.RefreshToken, error) {
	value, err := common.MakeRandHexString(common.RefreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	rt := &models.RefreshToken{
		UserID:    userID,
		Token:     value,
		ExpiresAt: m.now().Add(m.validity),
	}
	if err := m.repos.RefreshTokens(db).Create(ctx, rt); err != nil {
		return nil, err
	}
	return rt, nil
}

// Consume spends token and issues its replacement in one transaction.
// An unknown, revoked or already spent token yields
// common.ErrRefreshTokenNotFound. An expired token is deleted and yields
// common.ErrRefreshTokenExpired.
func (m *RefreshTokenManager) Consume(ctx context.Context, token string) (*Rotation, error) {
	var (
		rot     *Rotation
		expired bool
	)

	err := m.repos.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		row, err := m.repos.RefreshTokens(tx).Consume(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrRefreshTokenNotFound
			}
			return err
		}

		// returning nil commits the delete of the expired row
		if row.Expired(m.now()) {
			expired = true
			return nil
		}

		next, err := m.IssueFor(ctx, tx, row.UserID)
		if err != nil {
			return err
		}
		rot = &Rotation{UserID: row.UserID, Next: next}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, common.ErrRefreshTokenExpired
	}
	return rot, nil
}

// Revoke deletes token. Unknown tokens are not an error.
func (m *RefreshTokenManager) Revoke(ctx context.Context, token string) error {
	return m.repos.RefreshTokens(m.repos.Conn()).Delete(ctx, token)
}

// PurgeExpired removes tokens nobody presented before they expired.
func (m *RefreshTokenManager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.repos.RefreshTokens(m.repos.Conn()).DeleteExpired(ctx, m.now())
}
