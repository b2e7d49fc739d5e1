package handlers

import (
	"github.com/go-chi/chi/v5"
)

func RegisterOpenAPIRoutes(r chi.Router) {
	r.Post("/openapi/load", loadOpenAPIDocument)
	r.Post("/openapi/to-cell", openAPIToCell)
}
