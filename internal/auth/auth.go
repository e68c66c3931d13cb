package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTokenLifetime applies when the service does not say how long a
// session token lasts.
const DefaultTokenLifetime = 12 * time.Hour

// ErrMissingCredentials is returned when a username or password is empty.
var ErrMissingCredentials = errors.New("username and password are required")

// Token is a session token issued by the market data service.
type Token struct {
	AccessToken string
	ExpiresAt   int64
	// Endpoint is the host:port that issued the token.
	Endpoint string
	Username string
}

// Credentials identify a user of the market data service.
type Credentials struct {
	Username string
	Password string
}

// Validate reports ErrMissingCredentials when either field is blank.
func (c Credentials) Validate() error {
	if c.Username == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Authenticator exchanges credentials for a session token. The remote
// client implements it.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*Token, error)
	Register(ctx context.Context, username, password string) error
}

// Login validates creds and exchanges them for a token.
func Login(ctx context.Context, a Authenticator, creds Credentials) (*Token, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	token, err := a.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to log in as %s: %w", creds.Username, err)
	}
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}
	if token.Username == "" {
		token.Username = creds.Username
	}
	return token, nil
}

// Register creates the account and then logs in with it.
func Register(ctx context.Context, a Authenticator, creds Credentials) (*Token, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if err := a.Register(ctx, creds.Username, creds.Password); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", creds.Username, err)
	}
	return Login(ctx, a, creds)
}

// ExpiryFrom converts a lifetime in seconds into an absolute expiry.
// Non-positive lifetimes fall back to DefaultTokenLifetime.
func ExpiryFrom(now time.Time, expiresIn int64) int64 {
	if expiresIn <= 0 {
		return now.Add(DefaultTokenLifetime).Unix()
	}
	return now.Unix() + expiresIn
}
