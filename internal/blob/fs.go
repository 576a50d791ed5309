// ABOUTME: Filesystem-backed ObjectStore for local runs and tests.
// ABOUTME: Blobs land under a root directory using the same key scheme as S3.

package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FSStore implements ObjectStore on the local filesystem.
type FSStore struct {
	root string
}

// NewFSStore creates the root directory if needed.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &FSStore{root: root}, nil
}

// Put writes the blob under a freshly generated key.
func (s *FSStore) Put(ctx context.Context, data []byte, filename, contentType string) (*Object, error) {
	key := objectKey(filename)
	path := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("writing blob: %w", err)
	}

	return &Object{
		Key:  key,
		URL:  "file://" + path,
		Size: int64(len(data)),
	}, nil
}

// Delete removes the blob file. A missing file is not an error; delete
// is idempotent like the S3 counterpart.
func (s *FSStore) Delete(ctx context.Context, key string) error {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting blob: %w", err)
	}
	return nil
}
