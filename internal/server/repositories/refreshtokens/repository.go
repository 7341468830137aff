// Package refreshtokens declares storage for opaque refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// Repository stores refresh tokens. Implementations must make Consume
// atomic: of two concurrent calls for one token at most one gets the row.
type Repository interface {
	// Create persists token and fills in ID and CreatedAt.
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find returns the row for token or common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Consume removes the non-revoked row for token and returns it, or
	// returns common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes token. Deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes every token that expired at or before now and
	// reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
