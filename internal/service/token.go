package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/msomdec/todo-api/internal/domain"
)

// TokenCodec issues and verifies signed session tokens. A token binds a user
// ID and an access scope under an HMAC-SHA256 signature; it carries no expiry
// and stays valid until the session registry drops it.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec creates a TokenCodec signing with the given secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// Issue produces a signed token for the user and scope. The random token ID
// keeps two sessions issued in the same instant distinct.
func (c *TokenCodec) Issue(userID, scope string) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
			ID:       uuid.NewString(),
		},
		Scope: scope,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and payload of a token and returns the user ID
// and scope it binds. It does not consult the session registry; a verified
// token may still have been revoked.
func (c *TokenCodec) Verify(tokenString string) (userID, scope string, err error) {
	claims := &sessionClaims{}
	// Strict decoding rejects tokens whose base64 segments differ from the
	// canonical encoding, so any altered byte invalidates the token.
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithStrictDecoding())
	if err != nil || !token.Valid {
		return "", "", domain.ErrInvalidToken
	}

	if claims.Subject == "" || claims.Scope == "" {
		return "", "", domain.ErrInvalidToken
	}

	return claims.Subject, claims.Scope, nil
}
