package handlers

import (
	"github.com/go-chi/chi/v5"
)

func RegisterCellRoutes(r chi.Router) {
	r.Get("/cells/{cellID}", getCellByIDHandler)
	r.Put("/cells/{cellID}", updateCell)
	r.Delete("/cells/{cellID}", deleteCell)

	r.Post("/cells/{cellID}/run", runCell)
	r.Get("/cells/{cellID}/runs", getRuns)
	r.Get("/cells/{cellID}/runs/latest", getLatestRun)
	r.Get("/cells/{cellID}/rendered", getRenderedCell)

	r.Get("/compare", compareCells)
}
