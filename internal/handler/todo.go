package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/msomdec/todo-api/internal/domain"
	"github.com/msomdec/todo-api/internal/service"
)

// TodoHandler handles todo HTTP requests. All routes sit behind RequireAuth,
// and every operation is scoped to the session's user; a todo owned by
// another user answers 404 exactly like a missing one.
type TodoHandler struct {
	todos *service.TodoService
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(todos *service.TodoService) *TodoHandler {
	return &TodoHandler{todos: todos}
}

// HandleCreate creates a todo owned by the authenticated user. Any
// creator-like field in the body is ignored.
// POST /todos
// Request:  {"text":"...","completed":false}
// Response: {"todo": {...}}
func (h *TodoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	var req struct {
		Text      string `json:"text"`
		Completed bool   `json:"completed"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	todo, err := h.todos.Create(r.Context(), sess.User.ID, req.Text, req.Completed)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("create todo", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"todo": toTodoDTO(todo)})
}

// HandleList returns all todos owned by the authenticated user.
// GET /todos
// Response: {"todos": [...]}
func (h *TodoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	todos, err := h.todos.List(r.Context(), sess.User.ID)
	if err != nil {
		slog.Error("list todos", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"todos": toTodoDTOs(todos)})
}

// HandleGet returns one todo owned by the authenticated user.
// GET /todos/{id}
// Response: {"todo": {...}}
func (h *TodoHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")

	todo, err := h.todos.Get(r.Context(), sess.User.ID, id)
	if err != nil {
		h.respondTodoError(w, "get todo", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"todo": toTodoDTO(todo)})
}

// HandleUpdate applies a partial update. Text changes only when supplied;
// completed is normalized on every update: boolean true stamps completedAt,
// any other value (missing, false, or not a boolean at all) clears it.
// PATCH /todos/{id}
// Request:  {"text":"...","completed":true}
// Response: {"todo": {...}}
func (h *TodoHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req struct {
		Text      *string `json:"text"`
		Completed any     `json:"completed"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	// A non-boolean completed is not an error; it normalizes to false.
	completed := req.Completed == true

	todo, err := h.todos.Update(r.Context(), sess.User.ID, id, req.Text, completed)
	if err != nil {
		h.respondTodoError(w, "update todo", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"todo": toTodoDTO(todo)})
}

// HandleDelete removes a todo owned by the authenticated user and returns
// the removed item.
// DELETE /todos/{id}
// Response: {"todo": {...}}
func (h *TodoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	id := chi.URLParam(r, "id")

	todo, err := h.todos.Delete(r.Context(), sess.User.ID, id)
	if err != nil {
		h.respondTodoError(w, "delete todo", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"todo": toTodoDTO(todo)})
}

func (h *TodoHandler) respondTodoError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Todo not found.")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
