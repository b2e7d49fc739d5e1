package handlers

import (
	"github.com/go-chi/chi/v5"
)

func RegisterNotebookRoutes(r chi.Router) {
	r.Get("/notebooks", getNotebooks)
	r.Post("/notebooks", createNotebook)

	// Static routes first so chi never treats "active" as a notebook ID.
	r.Get("/notebooks/active", getActiveNotebook)
	r.Put("/notebooks/active", setActiveNotebook)

	r.Get("/notebooks/{notebookID}", getNotebookByIDHandler)
	r.Put("/notebooks/{notebookID}", renameNotebook)
	r.Delete("/notebooks/{notebookID}", deleteNotebook)

	r.Get("/notebooks/{notebookID}/cells", getNotebookCells)
	r.Post("/notebooks/{notebookID}/cells", createCellInNotebook)
	r.Post("/notebooks/{notebookID}/cells/reorder", reorderCells)
}
