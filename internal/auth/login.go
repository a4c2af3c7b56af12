package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nuclear-hardware/hms/internal/model"
)

// UserLookup finds an active account by username. It returns nil, nil when
// there is no such account.
type UserLookup func(ctx context.Context, username string) (*model.User, error)

// Login checks a username and password and issues a session token for the
// account. Blank, unknown and wrong credentials all give ErrBadCredentials.
func Login(ctx context.Context, secret string, lookup UserLookup, username, password string) (*model.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", ErrBadCredentials
	}

	user, err := lookup(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("looking up %q: %w", username, err)
	}
	if user == nil {
		return nil, "", ErrBadCredentials
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return nil, "", err
	}

	token, err := GenerateToken(secret, user.ID, user.Username, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ReplacePassword returns the hash for next once current matches hash.
func ReplacePassword(hash, current, next string) (string, error) {
	if err := CheckPassword(hash, current); err != nil {
		return "", err
	}
	if err := model.ValidatePassword(next); err != nil {
		return "", err
	}
	return HashPassword(next)
}

// Expiry returns when the token stops being accepted. Revocations are kept
// until then.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Now().Add(TokenExpiry)
	}
	return c.ExpiresAt.Time
}
