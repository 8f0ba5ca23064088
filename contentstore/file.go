package contentstore

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/veridoc/document-registry-backend/interfaces"
)

// FileStore stores document blobs on the local file system, keyed by their
// hex SHA-256 digest. Intended for development and tests.
type FileStore struct {
	baseDir string
	log     *slog.Logger
}

// NewFileStore creates a file-backed content store under baseDir, creating
// the directory if needed.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileStore{baseDir: baseDir, log: log}, nil
}

// Put writes data under its SHA-256 digest and returns the digest as the
// content identifier.
func (s *FileStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	digest := fmt.Sprintf("%x", sha256.Sum256(data))
	filePath := filepath.Join(s.baseDir, digest)

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", &interfaces.ContentStoreError{Backend: s.Name(), Err: err}
	}

	s.log.Debug("Stored content in file store",
		slog.String("path", filePath),
		slog.String("name", name),
		slog.Int("size", len(data)))

	return digest, nil
}

// Available checks whether the base directory is accessible.
func (s *FileStore) Available(ctx context.Context) bool {
	_, err := os.Stat(s.baseDir)
	return err == nil
}

// Name returns a unique identifier for this backend.
func (s *FileStore) Name() string {
	return fmt.Sprintf("file-%s", s.baseDir)
}
