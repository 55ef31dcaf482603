package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/productlister/lister/internal/images"
	"github.com/productlister/lister/internal/session"
)

// HandleUpload picks the session image from a multipart file or a JSON
// {"source": "<path or URL>"} body
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.handleSourceUpload(w, r)
		return
	}
	h.handleFileUpload(w, r)
}

func (h *Handler) handleSourceUpload(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Source string `json:"source"`
	}
	if err := decodeJSON(w, r, &request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.Source == "" {
		h.writeError(w, "source is required", http.StatusBadRequest)
		return
	}

	if err := h.editor.PickImage(r.Context(), session.Source{Ref: request.Source}); err != nil {
		h.writeErr(w, err, http.StatusBadRequest)
		return
	}
	h.writeJSON(w, h.editor.Snapshot())
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(fileData) > maxUploadBytes {
		h.writeError(w, "File too large (max 10MB)", http.StatusBadRequest)
		return
	}
	if _, err := images.Inspect(fileData); err != nil {
		h.writeError(w, "Invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.editor.PickImage(r.Context(), session.Source{Data: fileData}); err != nil {
		h.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, h.editor.Snapshot())
}
