package domain

import (
	"context"
	"time"
)

// ScopeAuth is the access scope attached to every session token. The system
// issues a single scope today; the field exists so tokens remain
// self-describing if more scopes are ever added.
const ScopeAuth = "auth"

// User represents a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionToken is one active session held by a user. A user may hold any
// number of concurrent sessions (multi-device); they are ordered by issuance
// and only ever removed by explicit revocation.
type SessionToken struct {
	Scope     string
	Token     string
	CreatedAt time.Time
}

// UserRepository defines persistence operations for users and their session
// tokens. AppendToken and RemoveToken must each be a single atomic store
// operation so concurrent logins for the same user never lose a session.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	AppendToken(ctx context.Context, userID, scope, token string) error
	RemoveToken(ctx context.Context, userID, token string) error
	HasToken(ctx context.Context, userID, scope, token string) (bool, error)
	ListTokens(ctx context.Context, userID string) ([]SessionToken, error)
}
