// Package storage is the durable, single-device key-value area drafts are
// persisted to. Every backend reports failures as *UnavailableError so the
// form can treat lost durability as recoverable.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/kingrea/albaform/internal/config"
)

// Storage is a text key-value store scoped to one project profile.
type Storage interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set overwrites the value for key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// UnavailableError reports that durable storage could not be used: the
// backing file or database is unreadable, full or disabled.
type UnavailableError struct {
	Op  string
	Key string
	Err error
}

func (e *UnavailableError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err is an *UnavailableError.
func IsUnavailable(err error) bool {
	var unavailable *UnavailableError
	return errors.As(err, &unavailable)
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ErrInvalidKey is returned for keys that cannot be stored.
var ErrInvalidKey = errors.New("storage: invalid key")

func checkKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Open returns the backend selected by cfg.
func Open(cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver() {
	case config.DriverFile:
		return NewFileStore(cfg.StoragePath())
	case config.DriverSQLite:
		return OpenSQLite(cfg.StoragePath())
	case config.DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.StorageDriver())
	}
}
