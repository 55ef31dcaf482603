package handlers

import (
	"net/http"

	"github.com/productlister/lister/internal/models"
)

// settingsResponse never echoes the API key back
type settingsResponse struct {
	HasAPIKey     bool        `json:"has_api_key"`
	BrandName     string      `json:"brand_name"`
	BrandColors   []string    `json:"brand_colors"`
	DefaultTone   models.Tone `json:"default_tone"`
	PreferQuality bool        `json:"prefer_quality"`
}

func toSettingsResponse(s models.Settings) settingsResponse {
	return settingsResponse{
		HasAPIKey:     s.GeminiAPIKey != "",
		BrandName:     s.BrandName,
		BrandColors:   s.BrandColors,
		DefaultTone:   s.DefaultTone,
		PreferQuality: s.PreferQuality,
	}
}

func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, toSettingsResponse(h.catalog.Settings()))
}

func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var update models.SettingsUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if update.DefaultTone != nil && !update.DefaultTone.Valid() {
		h.writeError(w, "Invalid default_tone. Must be 'professional', 'casual', 'luxury', or 'edgy'", http.StatusBadRequest)
		return
	}

	settings, err := h.catalog.UpdateSettings(update)
	if err != nil {
		h.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, toSettingsResponse(settings))
}

func (h *Handler) HandleResetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.catalog.ResetSettings()
	if err != nil {
		h.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, toSettingsResponse(settings))
}
