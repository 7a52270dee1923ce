package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("storage: not found")
	ErrUsernameTaken = errors.New("storage: username already taken")
)

// Repository is the persistence boundary. All task operations are scoped
// to a user id; a task belonging to another user behaves as not found.
type Repository interface {
	CreateUser(ctx context.Context, username, passwordHash string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)

	CreateTask(ctx context.Context, userID int64, title, description string) (Task, error)
	GetTask(ctx context.Context, userID, id int64) (Task, error)
	UpdateTask(ctx context.Context, userID int64, patch TaskPatch) (Task, error)
	DeleteTask(ctx context.Context, userID, id int64) error
	ListTasks(ctx context.Context, userID int64) ([]Task, error)
	ReorderTasks(ctx context.Context, userID int64, ids []int64) error
}
