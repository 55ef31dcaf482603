package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.editor.Snapshot())
}

func (h *Handler) HandleResetSession(w http.ResponseWriter, r *http.Request) {
	if err := h.editor.Reset(); err != nil {
		h.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, h.editor.Snapshot())
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

func (h *Handler) HandleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var request promptRequest
	if err := decodeJSON(w, r, &request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(request.Prompt) == "" {
		h.writeError(w, "prompt is required", http.StatusBadRequest)
		return
	}

	if err := h.editor.GenerateImage(r.Context(), request.Prompt); err != nil {
		h.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, h.editor.Snapshot())
}

func (h *Handler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(request.Text) == "" {
		h.writeError(w, "text is required", http.StatusBadRequest)
		return
	}

	reply, err := h.editor.SendMessage(r.Context(), request.Text)
	if err != nil {
		h.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]any{
		"reply":   reply,
		"session": h.editor.Snapshot(),
	})
}

func (h *Handler) HandleRemoveBackground(w http.ResponseWriter, r *http.Request) {
	reply, err := h.editor.RemoveBackground(r.Context())
	if err != nil {
		h.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]any{
		"reply":   reply,
		"session": h.editor.Snapshot(),
	})
}

func (h *Handler) HandleGenerateVariations(w http.ResponseWriter, r *http.Request) {
	report, err := h.editor.GenerateVariations(r.Context())
	if err != nil {
		h.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, report)
}

func (h *Handler) HandleSelectVariation(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeError(w, "Invalid variation index", http.StatusBadRequest)
		return
	}
	if err := h.editor.SelectVariation(index); err != nil {
		h.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, h.editor.Snapshot())
}

func (h *Handler) HandleSaveProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.editor.SaveProduct(r.Context())
	if err != nil {
		h.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, product)
}
