// Package tasks declares the minimal task storage the server needs: it
// creates tasks on behalf of registration hooks.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Task, error)
}
