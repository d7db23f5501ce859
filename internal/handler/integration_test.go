package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/msomdec/todo-api/internal/handler"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	auth, todos := newTestServices(t)
	return handler.NewRouter(auth, todos)
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(handler.AuthHeader, token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func signup(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/users", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("signup %s: expected 200, got %d: %s", email, w.Code, w.Body.String())
	}
	token := w.Header().Get(handler.AuthHeader)
	if token == "" {
		t.Fatal("expected session token in x-auth response header")
	}
	return token
}

func TestSignup_ReturnsUserWithoutSecrets(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/users", "", map[string]string{
		"email":    "a@x.com",
		"password": "pw12345",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user object, got %v", body)
	}
	if user["email"] != "a@x.com" {
		t.Fatalf("expected email a@x.com, got %v", user["email"])
	}
	for _, forbidden := range []string{"passwordHash", "password", "tokens"} {
		if _, present := user[forbidden]; present {
			t.Fatalf("user representation must not contain %q", forbidden)
		}
	}
}

func TestSignup_Failures(t *testing.T) {
	router := newTestRouter(t)
	signup(t, router, "taken@x.com", "pw12345")

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"duplicate email", "taken@x.com", "pw12345"},
		{"malformed email", "not-an-email", "pw12345"},
		{"empty password", "fresh@x.com", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/users", "", map[string]string{
				"email":    tc.email,
				"password": tc.password,
			})
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestLogin_HeaderAndFailures(t *testing.T) {
	router := newTestRouter(t)
	signup(t, router, "login@x.com", "pw12345")

	w := doJSON(t, router, http.MethodPost, "/users/login", "", map[string]string{
		"email":    "login@x.com",
		"password": "pw12345",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get(handler.AuthHeader) == "" {
		t.Fatal("expected session token in x-auth response header")
	}

	// Wrong password and unknown email answer identically.
	for _, creds := range []map[string]string{
		{"email": "login@x.com", "password": "wrongpass"},
		{"email": "nobody@x.com", "password": "pw12345"},
	} {
		w := doJSON(t, router, http.MethodPost, "/users/login", "", creds)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d", creds, w.Code)
		}
	}
}

func TestUserDetails(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "me@x.com", "pw12345")

	w := doJSON(t, router, http.MethodGet, "/users/details", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	user := body["user"].(map[string]any)
	if user["email"] != "me@x.com" {
		t.Fatalf("expected email me@x.com, got %v", user["email"])
	}

	w = doJSON(t, router, http.MethodGet, "/users/details", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestTodo_CompletedNormalizationOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "patch@x.com", "pw12345")

	w := doJSON(t, router, http.MethodPost, "/todos", token, map[string]any{"text": "task"})
	if w.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	todo := decodeBody(t, w)["todo"].(map[string]any)
	id := todo["id"].(string)
	if todo["completedAt"] != nil {
		t.Fatalf("expected null completedAt, got %v", todo["completedAt"])
	}

	// completed:true stamps completedAt.
	w = doJSON(t, router, http.MethodPatch, "/todos/"+id, token, map[string]any{"completed": true})
	if w.Code != http.StatusOK {
		t.Fatalf("patch true: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	todo = decodeBody(t, w)["todo"].(map[string]any)
	if todo["completed"] != true || todo["completedAt"] == nil {
		t.Fatalf("expected completed with timestamp, got %v", todo)
	}

	// A later update without completed:true clears it back to null.
	w = doJSON(t, router, http.MethodPatch, "/todos/"+id, token, map[string]any{"text": "renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch text: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	todo = decodeBody(t, w)["todo"].(map[string]any)
	if todo["completed"] != false || todo["completedAt"] != nil {
		t.Fatalf("expected completed cleared, got %v", todo)
	}
	if todo["text"] != "renamed" {
		t.Fatalf("expected text renamed, got %v", todo["text"])
	}
}

func TestTodo_NonBooleanCompletedNormalizesToFalse(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "loose@x.com", "pw12345")

	w := doJSON(t, router, http.MethodPost, "/todos", token, map[string]any{"text": "task"})
	if w.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	id := decodeBody(t, w)["todo"].(map[string]any)["id"].(string)

	// Mark it done first so the clearing below is observable.
	w = doJSON(t, router, http.MethodPatch, "/todos/"+id, token, map[string]any{"completed": true})
	if w.Code != http.StatusOK {
		t.Fatalf("patch true: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Only boolean true counts as done; any other JSON value is accepted
	// and normalized to incomplete rather than rejected.
	for _, completed := range []any{"yes", 1, []any{true}, map[string]any{"v": true}} {
		w = doJSON(t, router, http.MethodPatch, "/todos/"+id, token, map[string]any{"completed": completed})
		if w.Code != http.StatusOK {
			t.Fatalf("patch %v: expected 200, got %d: %s", completed, w.Code, w.Body.String())
		}
		todo := decodeBody(t, w)["todo"].(map[string]any)
		if todo["completed"] != false || todo["completedAt"] != nil {
			t.Fatalf("patch %v: expected completed cleared, got %v", completed, todo)
		}

		w = doJSON(t, router, http.MethodPatch, "/todos/"+id, token, map[string]any{"completed": true})
		if w.Code != http.StatusOK {
			t.Fatalf("re-complete: expected 200, got %d: %s", w.Code, w.Body.String())
		}
	}
}

func TestTodo_CreatorComesFromSession(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "creator@x.com", "pw12345")

	w := doJSON(t, router, http.MethodGet, "/users/details", token, nil)
	userID := decodeBody(t, w)["user"].(map[string]any)["id"].(string)

	// creatorId in the body is ignored; ownership comes from the session.
	w = doJSON(t, router, http.MethodPost, "/todos", token, map[string]any{
		"text": "task",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	todo := decodeBody(t, w)["todo"].(map[string]any)
	if todo["creatorId"] != userID {
		t.Fatalf("expected creator %s, got %v", userID, todo["creatorId"])
	}
}

// TestFullScenario walks the complete multi-user flow: signup, cross-user
// isolation, and logout making a previously valid token useless.
func TestFullScenario(t *testing.T) {
	router := newTestRouter(t)

	tokenA := signup(t, router, "a@x.com", "pw12345")

	w := doJSON(t, router, http.MethodPost, "/todos", tokenA, map[string]any{"text": "buy milk"})
	if w.Code != http.StatusOK {
		t.Fatalf("create todo: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	todoID := decodeBody(t, w)["todo"].(map[string]any)["id"].(string)

	tokenB := signup(t, router, "b@x.com", "pw67890")

	// User B cannot see A's todo; the response is indistinguishable from a
	// missing id.
	w = doJSON(t, router, http.MethodGet, "/todos/"+todoID, tokenB, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("cross-user get: expected 404, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/todos/"+todoID, tokenA, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("owner get: expected 200, got %d", w.Code)
	}
	todo := decodeBody(t, w)["todo"].(map[string]any)
	if todo["text"] != "buy milk" {
		t.Fatalf("expected text 'buy milk', got %v", todo["text"])
	}

	// B's list is empty, A's has one entry.
	w = doJSON(t, router, http.MethodGet, "/todos", tokenB, nil)
	if got := decodeBody(t, w)["todos"].([]any); len(got) != 0 {
		t.Fatalf("expected empty list for B, got %d", len(got))
	}
	w = doJSON(t, router, http.MethodGet, "/todos", tokenA, nil)
	if got := decodeBody(t, w)["todos"].([]any); len(got) != 1 {
		t.Fatalf("expected 1 todo for A, got %d", len(got))
	}

	// Logout A, then the same token is rejected everywhere.
	w = doJSON(t, router, http.MethodDelete, "/users/details/token", tokenA, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/todos", tokenA, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("after logout: expected 401, got %d", w.Code)
	}

	// B is unaffected.
	w = doJSON(t, router, http.MethodGet, "/users/details", tokenB, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("B after A's logout: expected 200, got %d", w.Code)
	}
}

func TestChangePassword_OverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "pwchange@x.com", "oldpass1")

	w := doJSON(t, router, http.MethodPut, "/users/details/password", token, map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "newpass1",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong current: expected 400, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPut, "/users/details/password", token, map[string]string{
		"currentPassword": "oldpass1",
		"newPassword":     "newpass1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("change: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// The session used for the change stays valid.
	w = doJSON(t, router, http.MethodGet, "/users/details", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("session after change: expected 200, got %d", w.Code)
	}

	// Only the new password logs in.
	w = doJSON(t, router, http.MethodPost, "/users/login", "", map[string]string{
		"email": "pwchange@x.com", "password": "oldpass1",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("old password: expected 400, got %d", w.Code)
	}
	w = doJSON(t, router, http.MethodPost, "/users/login", "", map[string]string{
		"email": "pwchange@x.com", "password": "newpass1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("new password: expected 200, got %d", w.Code)
	}
}

func TestTodo_DeleteReturnsRemovedDoc(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "del@x.com", "pw12345")

	w := doJSON(t, router, http.MethodPost, "/todos", token, map[string]any{"text": "ephemeral"})
	todoID := decodeBody(t, w)["todo"].(map[string]any)["id"].(string)

	w = doJSON(t, router, http.MethodDelete, "/todos/"+todoID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	removed := decodeBody(t, w)["todo"].(map[string]any)
	if removed["text"] != "ephemeral" {
		t.Fatalf("expected removed doc in response, got %v", removed)
	}

	// Deleting again, or any malformed id, is the same 404.
	for _, id := range []string{todoID, "not-a-valid-id"} {
		w = doJSON(t, router, http.MethodDelete, "/todos/"+id, token, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for id %q, got %d", id, w.Code)
		}
	}
}
