package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"kennelcore/internal/backups"
	"kennelcore/internal/blob"
	"kennelcore/internal/core"
)

const presignExpiry = 15 * time.Minute

// UploadDocumentContent handles PUT /api/documents/{id}/content. The file
// name comes from the X-File-Name header or the name query parameter.
func (h *Handler) UploadDocumentContent(w http.ResponseWriter, r *http.Request) {
	name := r.Header.Get("X-File-Name")
	if name == "" {
		name = r.URL.Query().Get("name")
	}
	body := http.MaxBytesReader(w, r.Body, core.MaxDocumentSize+1)
	doc, err := h.svc.AttachDocumentContent(r.Context(), chi.URLParam(r, "id"), name, r.Header.Get("Content-Type"), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DownloadDocumentContent handles GET /api/documents/{id}/content. With
// ?redirect=1 it answers with a pre-signed URL when the driver supports one.
func (h *Handler) DownloadDocumentContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if redirect, _ := strconv.ParseBool(r.URL.Query().Get("redirect")); redirect {
		url, err := h.svc.DocumentContentURL(r.Context(), id, presignExpiry)
		if err == nil {
			http.Redirect(w, r, url, http.StatusTemporaryRedirect)
			return
		}
		if !errors.Is(err, blob.ErrUnsupported) {
			writeError(w, r, err)
			return
		}
	}
	doc, rc, err := h.svc.OpenDocumentContent(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.Header().Set("ETag", strconv.Quote(doc.Checksum))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("document download interrupted", slog.String("document_id", id), slog.String("error", err.Error()))
	}
}

// Export handles GET /api/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportDatabase(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("kennel-%s.json", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import handles POST /api/import. The body is a snapshot as produced by
// Export; it replaces all stored data.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("read body: %v", err)))
		return
	}
	migrated, err := h.svc.ImportDatabase(r.Context(), data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	counts, err := h.svc.DatasetCounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"migrated": migrated, "counts": counts})
}

const maxImportBytes = 256 << 20

// ListBackups handles GET /api/backups.
func (h *Handler) ListBackups(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.backups.List())
}

// CreateBackup handles POST /api/backups. The job runs in the background;
// poll GET /api/backups/{id} for its status.
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	var req backups.Request
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if req.RequestedBy == "" {
		req.RequestedBy = "api"
	}
	job, err := h.backups.Enqueue(r.Context(), req)
	if errors.Is(err, backups.ErrQueueFull) {
		writeJSON(w, http.StatusTooManyRequests, errorBody(err.Error()))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// GetBackup handles GET /api/backups/{id}.
func (h *Handler) GetBackup(w http.ResponseWriter, r *http.Request) {
	job, ok := h.backups.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, job)
}
