// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides item and file-upload persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_items_title ON items(title);

		CREATE TABLE IF NOT EXISTS file_uploads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT NOT NULL,
			key TEXT NOT NULL,
			url TEXT NOT NULL,
			content_type TEXT,
			file_size INTEGER,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_file_uploads_created
			ON file_uploads(created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// CreateItem inserts a new item and fills in its generated ID and timestamps.
func (s *SQLiteStore) CreateItem(ctx context.Context, item *Item) error {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO items (title, description, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		item.Title, item.Description, item.IsActive, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading item id: %w", err)
	}
	item.ID = id
	return nil
}

// GetItem retrieves an item by ID, returning ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetItem(ctx context.Context, id int64) (*Item, error) {
	var item Item
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, is_active, created_at, updated_at
		 FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Title, &item.Description, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying item: %w", err)
	}
	return &item, nil
}

// ListItems returns items ordered by ID with offset/limit pagination.
func (s *SQLiteStore) ListItems(ctx context.Context, offset, limit int) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, is_active, created_at, updated_at
		 FROM items ORDER BY id LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.IsActive, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// UpdateItem updates an existing item, returning ErrNotFound if it doesn't exist.
func (s *SQLiteStore) UpdateItem(ctx context.Context, item *Item) error {
	item.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET title = ?, description = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		item.Title, item.Description, item.IsActive, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem removes an item, returning ErrNotFound if it doesn't exist.
func (s *SQLiteStore) DeleteItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateFileUpload inserts a file-upload metadata row.
func (s *SQLiteStore) CreateFileUpload(ctx context.Context, f *FileUpload) error {
	f.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO file_uploads (filename, key, url, content_type, file_size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.Filename, f.Key, f.URL, f.ContentType, f.FileSize, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting file upload: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading file upload id: %w", err)
	}
	f.ID = id
	return nil
}

// GetFileUpload retrieves a file-upload row by ID.
func (s *SQLiteStore) GetFileUpload(ctx context.Context, id int64) (*FileUpload, error) {
	var f FileUpload
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, key, url, content_type, file_size, created_at
		 FROM file_uploads WHERE id = ?`, id,
	).Scan(&f.ID, &f.Filename, &f.Key, &f.URL, &f.ContentType, &f.FileSize, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying file upload: %w", err)
	}
	return &f, nil
}

// ListFileUploads returns file uploads ordered by ID with pagination.
func (s *SQLiteStore) ListFileUploads(ctx context.Context, offset, limit int) ([]*FileUpload, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, key, url, content_type, file_size, created_at
		 FROM file_uploads ORDER BY id LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying file uploads: %w", err)
	}
	defer rows.Close()

	return scanFileUploads(rows)
}

// ListFileUploadsOlderThan returns uploads created before the cutoff,
// used by the periodic cleanup job.
func (s *SQLiteStore) ListFileUploadsOlderThan(ctx context.Context, cutoff time.Time) ([]*FileUpload, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, key, url, content_type, file_size, created_at
		 FROM file_uploads WHERE created_at < ? ORDER BY created_at`, cutoff.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying old file uploads: %w", err)
	}
	defer rows.Close()

	return scanFileUploads(rows)
}

// DeleteFileUpload removes a file-upload row.
func (s *SQLiteStore) DeleteFileUpload(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM file_uploads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting file upload: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanFileUploads(rows *sql.Rows) ([]*FileUpload, error) {
	var uploads []*FileUpload
	for rows.Next() {
		var f FileUpload
		if err := rows.Scan(&f.ID, &f.Filename, &f.Key, &f.URL, &f.ContentType, &f.FileSize, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning file upload: %w", err)
		}
		uploads = append(uploads, &f)
	}
	return uploads, rows.Err()
}
