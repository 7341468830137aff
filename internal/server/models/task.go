package models

import "time"

// Task is a to-do item. The auth subsystem only ever creates the welcome
// task; everything else about tasks lives elsewhere.
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Completed   bool
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
