// Package handlers serves the local JSON API over the editing session, the
// listing workflow, the catalog and artifact bytes.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/productlister/lister/internal/artifacts"
	"github.com/productlister/lister/internal/listing"
	"github.com/productlister/lister/internal/models"
	"github.com/productlister/lister/internal/session"
	"github.com/productlister/lister/internal/storage"
)

// maxUploadBytes caps uploaded image size
const maxUploadBytes = 10 * 1024 * 1024

type Handler struct {
	editor    *session.Editor
	listings  *listing.Service
	catalog   *storage.CatalogStore
	artifacts artifacts.Store
}

func New(editor *session.Editor, listings *listing.Service, catalog *storage.CatalogStore, store artifacts.Store) *Handler {
	return &Handler{
		editor:    editor,
		listings:  listings,
		catalog:   catalog,
		artifacts: store,
	}
}

// Router mounts every route on a chi router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthcheck", h.HandleHealthcheck)
	r.Get("/artifacts/{productID}/{filename}", h.HandleArtifact)

	r.Route("/api/session", func(r chi.Router) {
		r.Get("/", h.HandleGetSession)
		r.Delete("/", h.HandleResetSession)
		r.Post("/image", h.HandleUpload)
		r.Post("/generate", h.HandleGenerateImage)
		r.Post("/messages", h.HandleSendMessage)
		r.Post("/remove-background", h.HandleRemoveBackground)
		r.Post("/variations", h.HandleGenerateVariations)
		r.Post("/variations/{index}/select", h.HandleSelectVariation)
		r.Post("/save", h.HandleSaveProduct)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.HandleListProducts)
		r.Get("/stats", h.HandleStats)
		r.Route("/{productID}", func(r chi.Router) {
			r.Get("/", h.HandleGetProduct)
			r.Delete("/", h.HandleDeleteProduct)
			r.Put("/primary", h.HandleSetPrimary)
			r.Get("/copy-text", h.HandleCopyText)
			r.Post("/listing", h.HandleGenerateListing)
			r.Put("/listing", h.HandleSaveListing)
			r.Post("/seo", h.HandleAnalyzeSEO)
			r.Post("/keywords", h.HandleAddKeyword)
		})
	})

	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", h.HandleGetSettings)
		r.Put("/", h.HandleUpdateSettings)
		r.Delete("/", h.HandleResetSettings)
	})

	return r
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

type errorResponse struct {
	Error string      `json:"error"`
	Kind  models.Kind `json:"kind,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "status", code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: message}); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

// writeErr reports err with the status its kind maps to. Errors outside the
// taxonomy use fallback.
func (h *Handler) writeErr(w http.ResponseWriter, err error, fallback int) {
	code := statusFor(err, fallback)
	resp := errorResponse{Error: err.Error()}
	var e *models.Error
	if errors.As(err, &e) {
		resp.Kind = e.Kind
	}

	slog.Error("Request failed", "status", code, "kind", resp.Kind, "err", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, models.ErrInvalidImageIndex):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrDuplicateProduct):
		return http.StatusConflict
	}

	var e *models.Error
	if !errors.As(err, &e) {
		return fallback
	}
	switch e.Kind {
	case models.KindPreconditionFailed, models.KindNoActiveSession:
		return http.StatusPreconditionFailed
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindBusy:
		return http.StatusConflict
	case models.KindRetryable:
		return http.StatusServiceUnavailable
	case models.KindMalformedResponse, models.KindFatal:
		return http.StatusBadGateway
	}
	return fallback
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(v)
}
