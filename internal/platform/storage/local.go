// Package storage persists uploaded blobs on the local filesystem.
package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore writes uploads below a base directory and serves them under a URL prefix.
type LocalStore struct {
	baseDir   string
	urlPrefix string
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(baseDir, urlPrefix string) (*LocalStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("storage: base directory required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create base dir: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	return &LocalStore{baseDir: baseDir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Save stores the content under a generated unique name derived from the
// original filename's extension and returns the public URL path.
func (s *LocalStore) Save(originalName string, content io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := fmt.Sprintf("logo-%s%s", uuid.NewString(), ext)

	f, err := os.Create(filepath.Join(s.baseDir, name))
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}

	return path.Join(s.urlPrefix, name), nil
}

// Dir returns the base directory, for mounting a file server.
func (s *LocalStore) Dir() string {
	return s.baseDir
}
