package handlers

import (
	"github.com/go-chi/chi/v5"
)

func RegisterCaptureRoutes(r chi.Router) {
	r.Get("/capture", getCaptureEntries)
	r.Post("/capture/{entryID}/to-cell", captureToCell)
}
