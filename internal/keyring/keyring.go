package keyring

import (
	"errors"
	"fmt"
	"os"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/chiro2001/financial-frontend/internal/auth"
)

const (
	// ServiceName is the keyring service name for storing secrets.
	// Uses reverse domain notation for proper namespacing.
	ServiceName = "work.chiro.stockview"

	KeyUsername = "username"
	KeyPassword = "password"

	// EnvUsername and EnvPassword override keyring lookups for CI and
	// headless environments.
	EnvUsername = "STOCKVIEW_USERNAME"
	EnvPassword = "STOCKVIEW_PASSWORD"
)

// ErrNotFound is returned when a secret is not found in the keyring.
var ErrNotFound = errors.New("secret not found")

// Store provides an interface for secure secret storage.
type Store interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// SystemStore implements Store using the system keyring.
type SystemStore struct{}

// NewSystemStore creates a new system keyring store.
func NewSystemStore() *SystemStore {
	return &SystemStore{}
}

// Get retrieves a secret from the system keyring.
func (s *SystemStore) Get(service, key string) (string, error) {
	secret, err := gokeyring.Get(service, key)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return secret, nil
}

// Set stores a secret in the system keyring.
func (s *SystemStore) Set(service, key, value string) error {
	return gokeyring.Set(service, key, value)
}

// Delete removes a secret from the system keyring.
func (s *SystemStore) Delete(service, key string) error {
	err := gokeyring.Delete(service, key)
	if err != nil && errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}
	return err
}

var envKeys = map[string]string{
	KeyUsername: EnvUsername,
	KeyPassword: EnvPassword,
}

// EnvStore wraps another Store and checks environment variables first.
type EnvStore struct {
	underlying Store
}

// NewEnvStore creates a new EnvStore wrapping the given store.
func NewEnvStore(underlying Store) *EnvStore {
	return &EnvStore{underlying: underlying}
}

// Get returns the matching environment variable when it is set, otherwise
// the underlying store's value.
func (e *EnvStore) Get(service, key string) (string, error) {
	if name, ok := envKeys[key]; ok {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}
	return e.underlying.Get(service, key)
}

// Set stores a secret in the underlying store.
func (e *EnvStore) Set(service, key, value string) error {
	return e.underlying.Set(service, key, value)
}

// Delete removes a secret from the underlying store.
func (e *EnvStore) Delete(service, key string) error {
	return e.underlying.Delete(service, key)
}

// LoadCredentials reads the remembered username and password.
func LoadCredentials(store Store) (auth.Credentials, error) {
	username, err := store.Get(ServiceName, KeyUsername)
	if err != nil {
		return auth.Credentials{}, fmt.Errorf("failed to read username: %w", err)
	}
	password, err := store.Get(ServiceName, KeyPassword)
	if err != nil {
		return auth.Credentials{}, fmt.Errorf("failed to read password: %w", err)
	}
	return auth.Credentials{Username: username, Password: password}, nil
}

// SaveCredentials remembers creds for later sessions.
func SaveCredentials(store Store, creds auth.Credentials) error {
	if err := store.Set(ServiceName, KeyUsername, creds.Username); err != nil {
		return fmt.Errorf("failed to store username: %w", err)
	}
	if err := store.Set(ServiceName, KeyPassword, creds.Password); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	return nil
}

// ForgetCredentials removes remembered credentials.
func ForgetCredentials(store Store) error {
	if err := store.Delete(ServiceName, KeyUsername); err != nil {
		return err
	}
	return store.Delete(ServiceName, KeyPassword)
}
