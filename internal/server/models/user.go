// Package models defines the rows persisted by the server.
package models

import "time"

// User is an account. PasswordHash is a bcrypt string and never leaves the
// server.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
