// Package events announces account lifecycle changes on NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/nats-io/nats.go"
)

const SubjectUserRegistered = "users.registered"

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

type UserRegistered struct {
	UserID       int64     `json:"user_id"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Publisher emits a UserRegistered message for every new account. It
// satisfies services.RegistrationHook.
type Publisher struct {
	conn    Conn
	subject string
}

func NewPublisher(conn Conn, subject string) *Publisher {
	if subject == "" {
		subject = SubjectUserRegistered
	}
	return &Publisher{conn: conn, subject: subject}
}

func (p *Publisher) OnUserRegistered(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(UserRegistered{
		UserID:       user.ID,
		Email:        user.Email,
		RegisteredAt: user.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

// Connect dials NATS with reconnects enabled for the lifetime of the server.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("taskkeeper-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}
