// ABOUTME: Tests for the SQLite store covering item CRUD and file-upload metadata.
// ABOUTME: Runs against a real on-disk database in a temp directory.

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestItemCRUD(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	t.Run("create fills id and timestamps", func(t *testing.T) {
		item := &Item{Title: "first", Description: "a thing", IsActive: true}
		require.NoError(t, s.CreateItem(ctx, item))

		assert.NotZero(t, item.ID)
		assert.False(t, item.CreatedAt.IsZero())
		assert.Equal(t, item.CreatedAt, item.UpdatedAt)
	})

	t.Run("get returns what was stored", func(t *testing.T) {
		item := &Item{Title: "second", Description: "another", IsActive: false}
		require.NoError(t, s.CreateItem(ctx, item))

		got, err := s.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "second", got.Title)
		assert.Equal(t, "another", got.Description)
		assert.False(t, got.IsActive)
	})

	t.Run("get unknown id returns ErrNotFound", func(t *testing.T) {
		_, err := s.GetItem(ctx, 999999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update persists changes and bumps updated_at", func(t *testing.T) {
		item := &Item{Title: "before", IsActive: true}
		require.NoError(t, s.CreateItem(ctx, item))
		created := item.CreatedAt

		time.Sleep(5 * time.Millisecond)
		item.Title = "after"
		item.IsActive = false
		require.NoError(t, s.UpdateItem(ctx, item))

		got, err := s.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", got.Title)
		assert.False(t, got.IsActive)
		assert.True(t, got.UpdatedAt.After(created))
	})

	t.Run("update unknown id returns ErrNotFound", func(t *testing.T) {
		err := s.UpdateItem(ctx, &Item{ID: 999999, Title: "ghost"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete removes the row", func(t *testing.T) {
		item := &Item{Title: "doomed", IsActive: true}
		require.NoError(t, s.CreateItem(ctx, item))

		require.NoError(t, s.DeleteItem(ctx, item.ID))
		_, err := s.GetItem(ctx, item.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete unknown id returns ErrNotFound", func(t *testing.T) {
		assert.ErrorIs(t, s.DeleteItem(ctx, 999999), ErrNotFound)
	})
}

func TestListItems(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateItem(ctx, &Item{Title: "item", IsActive: true}))
	}

	t.Run("respects limit and offset", func(t *testing.T) {
		page, err := s.ListItems(ctx, 0, 2)
		require.NoError(t, err)
		assert.Len(t, page, 2)

		rest, err := s.ListItems(ctx, 2, 10)
		require.NoError(t, err)
		assert.Len(t, rest, 3)
		assert.Greater(t, rest[0].ID, page[1].ID)
	})

	t.Run("offset past the end yields empty", func(t *testing.T) {
		page, err := s.ListItems(ctx, 100, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
	})
}

func TestFileUploads(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	t.Run("create and get round-trip", func(t *testing.T) {
		f := &FileUpload{
			Filename:    "recording.webm",
			Key:         "uploads/abc123.webm",
			URL:         "https://bucket.s3.us-east-1.amazonaws.com/uploads/abc123.webm",
			ContentType: "audio/webm",
			FileSize:    2048,
		}
		require.NoError(t, s.CreateFileUpload(ctx, f))
		assert.NotZero(t, f.ID)

		got, err := s.GetFileUpload(ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, f.Key, got.Key)
		assert.Equal(t, f.URL, got.URL)
		assert.Equal(t, int64(2048), got.FileSize)
	})

	t.Run("get unknown id returns ErrNotFound", func(t *testing.T) {
		_, err := s.GetFileUpload(ctx, 999999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list paginates", func(t *testing.T) {
		fresh := createTestStore(t)
		for i := 0; i < 3; i++ {
			require.NoError(t, fresh.CreateFileUpload(ctx, &FileUpload{
				Filename: "f.bin", Key: "k", URL: "u",
			}))
		}

		page, err := fresh.ListFileUploads(ctx, 1, 10)
		require.NoError(t, err)
		assert.Len(t, page, 2)
	})

	t.Run("delete removes the row", func(t *testing.T) {
		f := &FileUpload{Filename: "x", Key: "k", URL: "u"}
		require.NoError(t, s.CreateFileUpload(ctx, f))

		require.NoError(t, s.DeleteFileUpload(ctx, f.ID))
		assert.ErrorIs(t, s.DeleteFileUpload(ctx, f.ID), ErrNotFound)
	})
}

func TestListFileUploadsOlderThan(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	old := &FileUpload{Filename: "old.bin", Key: "old", URL: "u"}
	require.NoError(t, s.CreateFileUpload(ctx, old))

	cutoff := time.Now().UTC().Add(time.Minute)

	recent := &FileUpload{Filename: "recent.bin", Key: "recent", URL: "u"}
	require.NoError(t, s.CreateFileUpload(ctx, recent))
	// Push the recent row's created_at past the cutoff.
	_, err := s.db.ExecContext(ctx,
		"UPDATE file_uploads SET created_at = ? WHERE id = ?",
		time.Now().UTC().Add(time.Hour), recent.ID,
	)
	require.NoError(t, err)

	uploads, err := s.ListFileUploadsOlderThan(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, old.ID, uploads[0].ID)
}
