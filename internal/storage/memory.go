package storage

import (
	"context"
	"errors"
	"sync"
)

// errDisabled mimics a browser profile with storage turned off.
var errDisabled = errors.New("storage disabled")

// MemoryStore is an in-process Storage. It does not survive restarts and
// exists for tests and the memory driver.
type MemoryStore struct {
	mu       sync.Mutex
	values   map[string]string
	disabled bool
	writes   int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

// SetUnavailable makes every operation fail with *UnavailableError.
func (s *MemoryStore) SetUnavailable(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = disabled
}

// Writes returns how many successful Set calls were made.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return "", false, &UnavailableError{Op: "get", Key: key, Err: errDisabled}
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return &UnavailableError{Op: "set", Key: key, Err: errDisabled}
	}
	s.values[key] = value
	s.writes++
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return &UnavailableError{Op: "delete", Key: key, Err: errDisabled}
	}
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
