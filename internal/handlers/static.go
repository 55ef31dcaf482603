package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/productlister/lister/internal/artifacts"
	"github.com/productlister/lister/internal/images"
	"github.com/productlister/lister/internal/models"
)

// HandleArtifact serves stored image bytes
func (h *Handler) HandleArtifact(w http.ResponseWriter, r *http.Request) {
	artifactPath := artifacts.Join(chi.URLParam(r, "productID"), chi.URLParam(r, "filename"))
	if _, _, err := artifacts.Split(artifactPath); err != nil {
		h.writeError(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	data, err := h.artifacts.Get(r.Context(), artifactPath)
	if err != nil {
		if errors.Is(err, models.ErrArtifactNotFound) {
			h.writeError(w, "Artifact not found", http.StatusNotFound)
			return
		}
		h.writeErr(w, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", images.MIMEType(data))
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(data); err != nil {
		slog.Error("Unable to write artifact", "path", artifactPath, "err", err)
	}
}
