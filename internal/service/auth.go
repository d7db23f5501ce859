package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/msomdec/todo-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// AuthService owns credentials and sessions: it registers users, verifies
// passwords, and maintains each user's registry of active session tokens.
type AuthService struct {
	users      domain.UserRepository
	codec      *TokenCodec
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, codec *TokenCodec, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		codec:      codec,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new user account and issues its first session token.
// The password is hashed here, once, with a per-call random salt; nothing
// downstream ever re-hashes a stored hash.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, string, error) {
	if err := validateEmail(email); err != nil {
		return nil, "", err
	}
	if err := validatePassword(password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, "", domain.ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.IssueSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and issues a new session token. Unknown email
// and wrong password fail identically so accounts cannot be enumerated.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.verifyCredentials(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	token, err := s.IssueSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) verifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// IssueSession creates a signed token and appends it to the user's session
// registry. The append is a single atomic store operation.
func (s *AuthService) IssueSession(ctx context.Context, user *domain.User) (string, error) {
	token, err := s.codec.Issue(user.ID, domain.ScopeAuth)
	if err != nil {
		return "", err
	}
	if err := s.users.AppendToken(ctx, user.ID, domain.ScopeAuth, token); err != nil {
		return "", fmt.Errorf("append token: %w", err)
	}
	return token, nil
}

// Authenticate resolves a token to its user. The token must both carry a
// valid signature and still be present in the user's session registry; a
// correctly signed token that has been revoked is rejected. Every failure
// mode collapses to ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	userID, scope, err := s.codec.Verify(token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := s.users.HasToken(ctx, user.ID, scope, token)
	if err != nil {
		return nil, fmt.Errorf("check token: %w", err)
	}
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	return user, nil
}

// RevokeSession removes one token from the user's session registry. Revoking
// a token that is already gone is a no-op.
func (s *AuthService) RevokeSession(ctx context.Context, user *domain.User, token string) error {
	if err := s.users.RemoveToken(ctx, user.ID, token); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// ChangePassword verifies the current password and stores a hash of the new
// one. Existing sessions remain valid; revocation is the only way tokens
// leave the registry.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, current, newPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return domain.ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}
	return nil
}
