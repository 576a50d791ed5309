// ABOUTME: HTTP API handlers: presence/session projections, items CRUD, file uploads.
// ABOUTME: Item reads go through the cache-aside layer; writes invalidate it.

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/voxmesh/voxmesh-gateway/internal/jobs"
	"github.com/voxmesh/voxmesh-gateway/internal/protocol"
	"github.com/voxmesh/voxmesh-gateway/internal/store"
)

// maxUploadBytes bounds multipart file uploads.
const maxUploadBytes = 32 << 20

// AgentStatusResponse is one row of GET /api/agents.
type AgentStatusResponse struct {
	AgentID      string `json:"agent_id"`
	Status       string `json:"status"`
	LastActivity string `json:"last_activity"`
}

// SessionResponse is one row of GET /api/sessions.
type SessionResponse struct {
	SessionID   string `json:"session_id"`
	InitiatorID string `json:"initiator_id"`
	TargetID    string `json:"target_id"`
	Status      string `json:"status"`
	StartedAt   string `json:"started_at"`
}

// CreateItemRequest is the JSON body for POST /api/items.
type CreateItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// UpdateItemRequest is the JSON body for PUT /api/items/{id}. Unset
// fields are left unchanged.
type UpdateItemRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// ItemResponse is the JSON shape of a persisted item.
type ItemResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// FileUploadResponse is the JSON shape of an upload's metadata.
type FileUploadResponse struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	FileSize    int64  `json:"file_size"`
	CreatedAt   string `json:"created_at"`
}

// handleListAgents handles GET /api/agents. A pure projection of the
// registry snapshot; takes no locks beyond the snapshot read.
func (g *Gateway) handleListAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snapshot := g.agents.Snapshot()
	response := make([]AgentStatusResponse, 0, len(snapshot))
	for _, a := range snapshot {
		response = append(response, AgentStatusResponse{
			AgentID:      a.ID,
			Status:       string(a.Status),
			LastActivity: protocol.Timestamp(a.LastActivity),
		})
	}

	g.writeJSON(w, http.StatusOK, response)
}

// handleListSessions handles GET /api/sessions.
func (g *Gateway) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	active := g.sessions.Active()
	response := make([]SessionResponse, 0, len(active))
	for _, s := range active {
		response = append(response, SessionResponse{
			SessionID:   s.ID,
			InitiatorID: s.InitiatorID,
			TargetID:    s.TargetID,
			Status:      s.Status,
			StartedAt:   protocol.Timestamp(s.StartedAt),
		})
	}

	g.writeJSON(w, http.StatusOK, response)
}

// handleItems handles GET (list) and POST (create) on /api/items.
func (g *Gateway) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		g.listItems(w, r)
	case http.MethodPost:
		g.createItem(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (g *Gateway) listItems(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	cacheKey := fmt.Sprintf("items:%d:%d", offset, limit)
	if cached, ok := g.cache.Get(cacheKey); ok {
		writeCachedJSON(w, cached)
		return
	}

	items, err := g.store.ListItems(r.Context(), offset, limit)
	if err != nil {
		g.logger.Error("listing items failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, itemResponse(item))
	}

	body, err := json.Marshal(response)
	if err != nil {
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	g.cache.Set(cacheKey, body)
	writeCachedJSON(w, body)
}

func (g *Gateway) createItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == "" {
		g.sendJSONError(w, http.StatusBadRequest, "title is required")
		return
	}

	item := &store.Item{
		Title:       req.Title,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := g.store.CreateItem(r.Context(), item); err != nil {
		g.logger.Error("creating item failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	g.cache.InvalidatePrefix("items:")
	g.writeJSON(w, http.StatusCreated, itemResponse(item))
}

// handleItemByID handles GET/PUT/DELETE on /api/items/{id}.
func (g *Gateway) handleItemByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/items/")
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		g.getItem(w, r, id)
	case http.MethodPut:
		g.updateItem(w, r, id)
	case http.MethodDelete:
		g.deleteItem(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (g *Gateway) getItem(w http.ResponseWriter, r *http.Request, id int64) {
	cacheKey := fmt.Sprintf("item:%d", id)
	if cached, ok := g.cache.Get(cacheKey); ok {
		writeCachedJSON(w, cached)
		return
	}

	item, err := g.store.GetItem(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		g.logger.Error("getting item failed", "item_id", id, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	body, err := json.Marshal(itemResponse(item))
	if err != nil {
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	g.cache.Set(cacheKey, body)
	writeCachedJSON(w, body)
}

func (g *Gateway) updateItem(w http.ResponseWriter, r *http.Request, id int64) {
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	item, err := g.store.GetItem(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		g.logger.Error("getting item failed", "item_id", id, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := g.store.UpdateItem(r.Context(), item); err != nil {
		g.logger.Error("updating item failed", "item_id", id, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	g.cache.Delete(fmt.Sprintf("item:%d", id))
	g.cache.InvalidatePrefix("items:")
	g.writeJSON(w, http.StatusOK, itemResponse(item))
}

func (g *Gateway) deleteItem(w http.ResponseWriter, r *http.Request, id int64) {
	err := g.store.DeleteItem(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		g.logger.Error("deleting item failed", "item_id", id, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	g.cache.Delete(fmt.Sprintf("item:%d", id))
	g.cache.InvalidatePrefix("items:")
	g.writeJSON(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// handleFiles handles GET (list) and POST (multipart upload) on /api/files.
func (g *Gateway) handleFiles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		g.listFiles(w, r)
	case http.MethodPost:
		g.uploadFile(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (g *Gateway) listFiles(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	files, err := g.store.ListFileUploads(r.Context(), offset, limit)
	if err != nil {
		g.logger.Error("listing files failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := make([]FileUploadResponse, 0, len(files))
	for _, f := range files {
		response = append(response, fileResponse(f))
	}
	g.writeJSON(w, http.StatusOK, response)
}

// uploadFile stores the blob, persists its metadata, and enqueues
// post-processing.
func (g *Gateway) uploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "reading upload failed")
		return
	}

	contentType := header.Header.Get("Content-Type")
	obj, err := g.blobs.Put(r.Context(), data, header.Filename, contentType)
	if err != nil {
		g.logger.Error("blob upload failed", "filename", header.Filename, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	upload := &store.FileUpload{
		Filename:    header.Filename,
		Key:         obj.Key,
		URL:         obj.URL,
		ContentType: contentType,
		FileSize:    obj.Size,
	}
	if err := g.store.CreateFileUpload(r.Context(), upload); err != nil {
		g.logger.Error("saving upload metadata failed", "filename", header.Filename, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	g.jobs.Enqueue(jobs.Job{Kind: jobs.KindProcessUpload, FileID: upload.ID})
	g.writeJSON(w, http.StatusCreated, fileResponse(upload))
}

// handleFileByID handles GET/DELETE on /api/files/{id}.
func (g *Gateway) handleFileByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/files/")
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		g.getFile(w, r, id)
	case http.MethodDelete:
		g.deleteFile(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (g *Gateway) getFile(w http.ResponseWriter, r *http.Request, id int64) {
	f, err := g.store.GetFileUpload(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		g.logger.Error("getting file failed", "file_id", id, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	g.writeJSON(w, http.StatusOK, fileResponse(f))
}

// deleteFile removes the blob first, then the metadata row.
func (g *Gateway) deleteFile(w http.ResponseWriter, r *http.Request, id int64) {
	f, err := g.store.GetFileUpload(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		g.logger.Error("getting file failed", "file_id", id, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := g.blobs.Delete(r.Context(), f.Key); err != nil {
		g.logger.Error("blob delete failed", "key", f.Key, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "failed to delete file")
		return
	}

	if err := g.store.DeleteFileUpload(r.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
		g.logger.Error("deleting upload metadata failed", "file_id", id, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	g.writeJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
}

// handleHealth handles GET /health.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	g.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "voxmesh-gateway",
	})
}

// handleReady handles GET /health/ready: healthy only when the store
// answers a cheap read.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := g.store.ListItems(r.Context(), 0, 1); err != nil {
		g.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	g.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// --- helpers ---

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.writeJSON(w, status, map[string]string{"error": message})
}

func writeCachedJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func itemResponse(item *store.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		IsActive:    item.IsActive,
		CreatedAt:   item.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   item.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func fileResponse(f *store.FileUpload) FileUploadResponse {
	return FileUploadResponse{
		ID:          f.ID,
		Filename:    f.Filename,
		Key:         f.Key,
		URL:         f.URL,
		ContentType: f.ContentType,
		FileSize:    f.FileSize,
		CreatedAt:   f.CreatedAt.Format(time.RFC3339Nano),
	}
}

func pathID(path, prefix string) (int64, error) {
	raw := strings.TrimPrefix(path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return 0, fmt.Errorf("missing id")
	}
	return strconv.ParseInt(raw, 10, 64)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
