package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore keeps large artifacts on the filesystem. Writes are
// best-effort from the orchestrator's perspective.
type BlobStore struct {
	dir    string
	logger *slog.Logger
}

// NewBlobStore creates the blob directory if needed.
func NewBlobStore(dir string, logger *slog.Logger) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &BlobStore{dir: dir, logger: logger}, nil
}

// Put writes a blob under name. Failures are logged and swallowed.
func (b *BlobStore) Put(name string, data []byte) {
	path := filepath.Join(b.dir, sanitizeBlobName(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		b.logger.Warn("blob write failed", "name", name, "error", err)
	}
}

// Get reads a blob, returning false when absent.
func (b *BlobStore) Get(name string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(b.dir, sanitizeBlobName(name)))
	if err != nil {
		return nil, false
	}
	return data, true
}

func sanitizeBlobName(name string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", "..", "-", " ", "_")
	return replacer.Replace(name)
}
