package storage

import "time"

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	IsDone      bool
	Position    int
	CreatedAt   time.Time
}

// TaskPatch is a partial task update; nil fields are left untouched.
type TaskPatch struct {
	ID          int64
	Title       *string
	Description *string
	IsDone      *bool
}
