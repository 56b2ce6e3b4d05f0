// Package auth supplies the credential attached to every wiki API request.
package auth

import (
	"context"
	"errors"
	"strings"
)

// Static errors for err113 compliance.
var (
	ErrEmptyToken = errors.New("access token is empty")
)

// TokenManager provides the access token for a request.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
}

// StaticTokenManager returns the same token for every request. The wiki API
// has no refresh flow; an expired token is reported by the server as 401/403.
type StaticTokenManager struct {
	token string
}

// NewStaticTokenManager creates a token manager for a fixed token.
func NewStaticTokenManager(token string) *StaticTokenManager {
	return &StaticTokenManager{token: strings.TrimSpace(token)}
}

// GetToken implements TokenManager.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	if m.token == "" {
		return "", ErrEmptyToken
	}

	return m.token, nil
}

// Redact masks all but the last four characters of a token for logging.
func Redact(token string) string {
	const visible = 4

	if len(token) <= visible {
		return strings.Repeat("*", len(token))
	}

	return strings.Repeat("*", len(token)-visible) + token[len(token)-visible:]
}
