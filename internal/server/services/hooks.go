package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// RegistrationHook runs after a user has been registered and committed.
// A failing hook is logged; it never undoes the registration.
type RegistrationHook interface {
	OnUserRegistered(ctx context.Context, user *models.User) error
}

type RegistrationHookFunc func(ctx context.Context, user *models.User) error

func (f RegistrationHookFunc) OnUserRegistered(ctx context.Context, user *models.User) error {
	return f(ctx, user)
}

const WelcomeTaskTitle = "Welcome to the Task App!"

func WelcomeTaskDescription(email string) string {
	return fmt.Sprintf("Congratulations %s, you've successfully signed up! This is your first task.", email)
}

// NewWelcomeTaskHook gives every new user a first task.
func NewWelcomeTaskHook(m repomanager.RepositoryManager) RegistrationHook {
	return RegistrationHookFunc(func(ctx context.Context, user *models.User) error {
		_, err := m.Tasks(m.Conn()).Create(ctx, &models.Task{
			UserID:      user.ID,
			Title:       WelcomeTaskTitle,
			Description: WelcomeTaskDescription(user.Email),
		})
		if err != nil {
			return fmt.Errorf("create welcome task: %w", err)
		}
		return nil
	})
}
