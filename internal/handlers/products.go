package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/productlister/lister/internal/listing"
	"github.com/productlister/lister/internal/models"
)

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.catalog.ListProducts())
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.catalog.Stats())
}

// getProductOrError loads the product named in the route
func (h *Handler) getProductOrError(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	product, exists := h.catalog.GetProduct(chi.URLParam(r, "productID"))
	if !exists {
		h.writeError(w, "Product not found", http.StatusNotFound)
		return nil, false
	}
	return product, true
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.getProductOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, product)
}

func (h *Handler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.DeleteProduct(r.Context(), chi.URLParam(r, "productID")); err != nil {
		h.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSetPrimary(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Index *int `json:"index"`
	}
	if err := decodeJSON(w, r, &request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.Index == nil {
		h.writeError(w, "index is required", http.StatusBadRequest)
		return
	}

	product, err := h.listings.SetPrimaryImage(chi.URLParam(r, "productID"), *request.Index)
	if err != nil {
		h.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, product)
}

func (h *Handler) HandleCopyText(w http.ResponseWriter, r *http.Request) {
	product, ok := h.getProductOrError(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(listing.CopyText(*product))); err != nil {
		slog.Error("Unable to write copy text", "err", err)
	}
}

func (h *Handler) HandleGenerateListing(w http.ResponseWriter, r *http.Request) {
	draft, err := h.listings.GenerateListing(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.writeErr(w, err, http.StatusBadGateway)
		return
	}
	h.writeJSON(w, draft)
}

type saveListingRequest struct {
	Listing   models.Listing    `json:"listing"`
	Selection listing.Selection `json:"selection"`
}

func (h *Handler) HandleSaveListing(w http.ResponseWriter, r *http.Request) {
	var request saveListingRequest
	if err := decodeJSON(w, r, &request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	product, err := h.listings.SaveListing(chi.URLParam(r, "productID"), request.Listing, request.Selection)
	if err != nil {
		h.writeErr(w, err, http.StatusBadRequest)
		return
	}
	h.writeJSON(w, product)
}

func (h *Handler) HandleAnalyzeSEO(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.listings.AnalyzeSEO(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.writeErr(w, err, http.StatusBadGateway)
		return
	}
	h.writeJSON(w, analysis)
}

func (h *Handler) HandleAddKeyword(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Keyword string `json:"keyword"`
	}
	if err := decodeJSON(w, r, &request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(request.Keyword) == "" {
		h.writeError(w, "keyword is required", http.StatusBadRequest)
		return
	}

	product, err := h.listings.AddKeyword(chi.URLParam(r, "productID"), request.Keyword)
	if err != nil {
		h.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, product)
}
