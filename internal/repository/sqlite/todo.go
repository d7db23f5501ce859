package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/todo-api/internal/domain"
)

// TodoRepository implements domain.TodoRepository using SQLite. Every query
// that targets a single todo also constrains on creator_id, so a todo owned
// by someone else answers exactly like a missing one.
type TodoRepository struct {
	db *sql.DB
}

// NewTodoRepository creates a new SQLite-backed TodoRepository.
func NewTodoRepository(db *DB) *TodoRepository {
	return &TodoRepository{db: db.SqlDB}
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if todo.ID == "" {
		todo.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (id, text, completed, completed_at, creator_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		todo.ID, todo.Text, todo.Completed, nullableTime(todo.CompletedAt), todo.CreatorID, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}

	todo.CreatedAt = now
	todo.UpdatedAt = now
	return nil
}

func (r *TodoRepository) GetForUser(ctx context.Context, id, creatorID string) (*domain.Todo, error) {
	todo := &domain.Todo{}
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, text, completed, completed_at, creator_id, created_at, updated_at
		 FROM todos WHERE id = ? AND creator_id = ?`, id, creatorID,
	).Scan(&todo.ID, &todo.Text, &todo.Completed, &completedAt, &todo.CreatorID, &todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query todo: %w", err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		todo.CompletedAt = &t
	}
	return todo, nil
}

func (r *TodoRepository) ListByUser(ctx context.Context, creatorID string) ([]domain.Todo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, text, completed, completed_at, creator_id, created_at, updated_at
		 FROM todos WHERE creator_id = ? ORDER BY created_at, id`, creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	var todos []domain.Todo
	for rows.Next() {
		var todo domain.Todo
		var completedAt sql.NullTime
		if err := rows.Scan(&todo.ID, &todo.Text, &todo.Completed, &completedAt,
			&todo.CreatorID, &todo.CreatedAt, &todo.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			todo.CompletedAt = &t
		}
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}

func (r *TodoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE todos SET text = ?, completed = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND creator_id = ?`,
		todo.Text, todo.Completed, nullableTime(todo.CompletedAt), now, todo.ID, todo.CreatorID,
	)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	todo.UpdatedAt = now
	return nil
}

func (r *TodoRepository) DeleteForUser(ctx context.Context, id, creatorID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = ? AND creator_id = ?`, id, creatorID,
	)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
