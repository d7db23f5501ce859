package handler

import (
	"time"

	"github.com/msomdec/todo-api/internal/domain"
)

// UserDTO is the JSON representation of a user. The password hash and the
// session token collection are never part of it.
type UserDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

// TodoDTO is the JSON representation of a todo.
type TodoDTO struct {
	ID          string  `json:"id"`
	Text        string  `json:"text"`
	Completed   bool    `json:"completed"`
	CompletedAt *string `json:"completedAt"`
	CreatorID   string  `json:"creatorId"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func toTodoDTO(t *domain.Todo) TodoDTO {
	dto := TodoDTO{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		CreatorID: t.CreatorID,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.Format(time.RFC3339),
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.Format(time.RFC3339)
		dto.CompletedAt = &s
	}
	return dto
}

func toTodoDTOs(todos []domain.Todo) []TodoDTO {
	dtos := make([]TodoDTO, len(todos))
	for i := range todos {
		dtos[i] = toTodoDTO(&todos[i])
	}
	return dtos
}
