// ABOUTME: Store interface and data types for voxmesh-gateway persistence
// ABOUTME: Defines Item, FileUpload structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Item is a generic persisted record exposed through the CRUD API
type Item struct {
	ID          int64
	Title       string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FileUpload is the metadata row for a blob stored in object storage
type FileUpload struct {
	ID          int64
	Filename    string
	Key         string
	URL         string
	ContentType string
	FileSize    int64
	CreatedAt   time.Time
}

// Store defines the interface for item and file-upload persistence
type Store interface {
	// Items
	CreateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id int64) (*Item, error)
	ListItems(ctx context.Context, offset, limit int) ([]*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id int64) error

	// File uploads
	CreateFileUpload(ctx context.Context, f *FileUpload) error
	GetFileUpload(ctx context.Context, id int64) (*FileUpload, error)
	ListFileUploads(ctx context.Context, offset, limit int) ([]*FileUpload, error)
	ListFileUploadsOlderThan(ctx context.Context, cutoff time.Time) ([]*FileUpload, error)
	DeleteFileUpload(ctx context.Context, id int64) error

	Close() error
}
