package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/spacetime/internal/auth"
	"github.com/sakif/spacetime/internal/service"
)

// MemoryHandler exposes CRUD over memories. All routes sit behind
// RequireAuth, so the caller's subject is always in the context; the
// service applies the ownership/visibility rules against it.
type MemoryHandler struct {
	memories *service.MemoryService
	logger   *slog.Logger
}

// NewMemoryHandler creates a MemoryHandler.
func NewMemoryHandler(memories *service.MemoryService, logger *slog.Logger) *MemoryHandler {
	return &MemoryHandler{
		memories: memories,
		logger:   logger,
	}
}

// memoryRequest is the create/update body. IsPublic is a pointer so an
// omitted field is distinguishable from an explicit false — omitted
// defaults to private.
type memoryRequest struct {
	Content  string `json:"content"`
	CoverURL string `json:"coverUrl"`
	IsPublic *bool  `json:"isPublic"`
}

func (req *memoryRequest) isPublic() bool {
	return req.IsPublic != nil && *req.IsPublic
}

// HandleList returns excerpts of everything the caller may read,
// creation order ascending.
//
// HTTP: GET /api/memories
func (h *MemoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sub, _ := auth.SubjectFromContext(r.Context())

	excerpts, err := h.memories.List(r.Context(), sub)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, excerpts)
}

// HandleGet returns one full memory, or 401 when it's private and the
// caller isn't the owner.
//
// HTTP: GET /api/memories/{id}
func (h *MemoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sub, _ := auth.SubjectFromContext(r.Context())
	id := r.PathValue("id")

	memory, err := h.memories.Get(r.Context(), sub, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, memory)
}

// HandleCreate stores a new memory owned by the caller.
//
// HTTP: POST /api/memories
// Body: {"content": "...", "coverUrl": "...", "isPublic": false}
func (h *MemoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sub, _ := auth.SubjectFromContext(r.Context())

	var req memoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("create memory: invalid JSON body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	memory, err := h.memories.Create(r.Context(), sub, req.Content, req.CoverURL, req.isPublic())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, memory)
}

// HandleUpdate overwrites a memory's content, cover, and visibility.
// 401 when the caller doesn't own it.
//
// HTTP: PUT /api/memories/{id}
func (h *MemoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	sub, _ := auth.SubjectFromContext(r.Context())
	id := r.PathValue("id")

	var req memoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("update memory: invalid JSON body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	memory, err := h.memories.Update(r.Context(), sub, id, req.Content, req.CoverURL, req.isPublic())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, memory)
}

// HandleDelete removes a memory. 401 when the caller doesn't own it.
//
// HTTP: DELETE /api/memories/{id}
func (h *MemoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sub, _ := auth.SubjectFromContext(r.Context())
	id := r.PathValue("id")

	if err := h.memories.Delete(r.Context(), sub, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
