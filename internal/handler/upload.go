package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rs/xid"
)

// maxUploadBytes caps a single cover upload at 5 MB.
const maxUploadBytes = 5 << 20

// Only image and video covers are accepted. The check is on the
// client-declared mimetype, same as the frontend's own filter — the
// stored bytes are served back verbatim either way.
var allowedMimeType = regexp.MustCompile(`^(image|video)/[a-zA-Z0-9.+-]+$`)

// UploadHandler receives cover assets and stores them on local disk.
// The returned URL goes into a memory's coverUrl field; the core treats
// it as opaque from then on.
type UploadHandler struct {
	dir    string
	logger *slog.Logger
}

// NewUploadHandler creates an UploadHandler storing files under dir,
// creating it if needed.
func NewUploadHandler(dir string, logger *slog.Logger) (*UploadHandler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("handler: creating upload dir %s: %w", dir, err)
	}
	return &UploadHandler{dir: dir, logger: logger}, nil
}

// HandleUpload stores one multipart file and responds with its public URL.
//
// HTTP: POST /api/upload (behind RequireAuth)
// Form field: "file"
// Response: {"fileUrl": "http://host/uploads/<xid><ext>"}
//
// The stored name is a fresh xid plus the original extension — never the
// client's filename, which could contain path separators.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "a file field is required and must be 5MB or less",
		})
		return
	}
	defer file.Close()

	if !allowedMimeType.MatchString(header.Header.Get("Content-Type")) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "only image and video uploads are accepted",
		})
		return
	}

	fileName := xid.New().String() + filepath.Ext(header.Filename)
	dst, err := os.Create(filepath.Join(h.dir, fileName))
	if err != nil {
		h.logger.Error("upload: creating file", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		h.logger.Error("upload: writing file", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	fileURL := fmt.Sprintf("%s://%s/uploads/%s", scheme, r.Host, fileName)

	h.logger.Info("file uploaded",
		slog.String("file", fileName),
		slog.Int64("bytes", header.Size),
	)

	writeJSON(w, http.StatusOK, map[string]string{"fileUrl": fileURL})
}
