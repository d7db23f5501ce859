package service

import (
	"context"
	"fmt"
	"time"

	"github.com/msomdec/todo-api/internal/domain"
)

// TodoService handles todo CRUD. Every operation takes the acting user's ID
// and scopes the underlying query to it; a todo the user does not own is
// reported as not found, never as forbidden.
type TodoService struct {
	todos domain.TodoRepository
}

// NewTodoService creates a new TodoService.
func NewTodoService(todos domain.TodoRepository) *TodoService {
	return &TodoService{todos: todos}
}

// Create creates a todo owned by creatorID. The owner always comes from the
// authenticated session, whatever the request body claimed.
func (s *TodoService) Create(ctx context.Context, creatorID, text string, completed bool) (*domain.Todo, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}

	todo := &domain.Todo{
		Text:      text,
		CreatorID: creatorID,
	}
	normalizeCompleted(todo, completed)

	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	return todo, nil
}

// List returns all todos owned by the user.
func (s *TodoService) List(ctx context.Context, userID string) ([]domain.Todo, error) {
	return s.todos.ListByUser(ctx, userID)
}

// Get returns one todo owned by the user.
func (s *TodoService) Get(ctx context.Context, userID, id string) (*domain.Todo, error) {
	return s.todos.GetForUser(ctx, id, userID)
}

// Update applies a partial update to a todo owned by the user. Text changes
// only when supplied; the completed flag is normalized unconditionally: true
// stamps completedAt with the current time, anything else forces completed
// to false and clears completedAt.
func (s *TodoService) Update(ctx context.Context, userID, id string, text *string, completed bool) (*domain.Todo, error) {
	todo, err := s.todos.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if text != nil {
		if *text == "" {
			return nil, fmt.Errorf("%w: text cannot be empty", domain.ErrInvalidInput)
		}
		todo.Text = *text
	}
	normalizeCompleted(todo, completed)

	if err := s.todos.Update(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

// Delete removes a todo owned by the user and returns the removed item.
func (s *TodoService) Delete(ctx context.Context, userID, id string) (*domain.Todo, error) {
	todo, err := s.todos.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.todos.DeleteForUser(ctx, id, userID); err != nil {
		return nil, err
	}
	return todo, nil
}

func normalizeCompleted(todo *domain.Todo, completed bool) {
	if completed {
		now := time.Now().UTC()
		todo.Completed = true
		todo.CompletedAt = &now
		return
	}
	todo.Completed = false
	todo.CompletedAt = nil
}
