package handlers

import (
	"github.com/go-chi/chi/v5"
)

func RegisterPresetRoutes(r chi.Router) {
	r.Get("/presets", getPresets)
	r.Post("/presets", createPreset)

	r.Get("/presets/{presetID}", getPresetByIDHandler)
	r.Delete("/presets/{presetID}", deletePresetHandler)
	r.Post("/presets/{presetID}/insert", insertPreset)
}
