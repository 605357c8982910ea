package domain

import (
	"strings"
	"time"
)

// Identity is the authenticated caller, taken from a verified token.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
}

// Name returns the display name, falling back to the email local part.
func (i Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	local, _, _ := strings.Cut(i.Email, "@")
	return local
}

// TokenIssuer issues tokens (e.g. JWT) for an identity.
type TokenIssuer interface {
	Issue(id Identity, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the identity it carries.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}
