package domain

import (
	"context"
	"time"
)

// Todo is a task owned by exactly one user. CreatorID is set once at
// creation and never changes.
type Todo struct {
	ID          string
	Text        string
	Completed   bool
	CompletedAt *time.Time
	CreatorID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TodoRepository defines persistence operations for todos. Every lookup and
// mutation is scoped to a creator; an id that exists but belongs to someone
// else must be indistinguishable from an id that does not exist.
type TodoRepository interface {
	Create(ctx context.Context, todo *Todo) error
	GetForUser(ctx context.Context, id, creatorID string) (*Todo, error)
	ListByUser(ctx context.Context, creatorID string) ([]Todo, error)
	Update(ctx context.Context, todo *Todo) error
	DeleteForUser(ctx context.Context, id, creatorID string) error
}
