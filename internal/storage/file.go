package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one file per key inside a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage: directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, &UnavailableError{Op: "open", Err: err}
	}
	return &FileStore{dir: filepath.Clean(dir)}, nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get reads the file for key.
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, &UnavailableError{Op: "get", Key: key, Err: err}
	}
	return string(data), true, nil
}

// Set writes value through a temp file and rename so readers never see a
// half-written draft.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return &UnavailableError{Op: "set", Key: key, Err: err}
	}
	tmp, err := os.CreateTemp(s.dir, key+".json.tmp-*")
	if err != nil {
		return &UnavailableError{Op: "set", Key: key, Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &UnavailableError{Op: "set", Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &UnavailableError{Op: "set", Key: key, Err: err}
	}
	if err := os.Rename(tmpPath, s.path(key)); err != nil {
		_ = os.Remove(tmpPath)
		return &UnavailableError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Delete removes the file for key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &UnavailableError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }
