// ABOUTME: Object storage contract for uploaded binary blobs.
// ABOUTME: Keys are uploads/<uuid>.<ext>; implementations are S3 and local filesystem.

package blob

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Object describes a stored blob.
type Object struct {
	Key  string
	URL  string
	Size int64
}

// ObjectStore stores and deletes binary blobs. Put generates a unique
// key derived from the original filename's extension.
type ObjectStore interface {
	Put(ctx context.Context, data []byte, filename, contentType string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// objectKey builds a collision-free storage key, preserving the
// original file extension when present.
func objectKey(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx >= 0 && idx < len(filename)-1 {
		return fmt.Sprintf("uploads/%s.%s", uuid.NewString(), filename[idx+1:])
	}
	return fmt.Sprintf("uploads/%s", uuid.NewString())
}
