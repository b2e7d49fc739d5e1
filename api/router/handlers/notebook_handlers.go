package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"reqbook/database"
	"reqbook/logger"
	"reqbook/models"
)

// cellPayload is the wire shape for creating and updating cells. Plain
// strings here; empty means unset and maps to NULL in storage.
type cellPayload struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	HeadersJSON string `json:"headers_json"`
	BodyText    string `json:"body_text"`
	Markdown    string `json:"markdown"`
}

// createNotebook handles the creation of a new notebook.
func createNotebook(w http.ResponseWriter, r *http.Request) {
	var nb models.Notebook
	if err := json.NewDecoder(r.Body).Decode(&nb); err != nil {
		logger.Error("createNotebook: Error decoding request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	nb.Name = strings.TrimSpace(nb.Name)
	if nb.Name == "" {
		writeError(w, http.StatusBadRequest, "Notebook name is required")
		return
	}

	id, err := database.CreateNotebook(nb.Name)
	if err != nil {
		logger.Error("createNotebook: Error inserting notebook '%s': %v", nb.Name, err)
		writeError(w, http.StatusInternalServerError, "Internal server error while creating notebook")
		return
	}

	created, err := database.GetNotebookByID(id)
	if err != nil {
		logger.Error("createNotebook: Error reloading notebook %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("Notebook created: ID %d, Name '%s'", created.ID, created.Name)
	writeJSON(w, http.StatusCreated, created)
}

// getNotebooks lists all notebooks, most recently touched first.
func getNotebooks(w http.ResponseWriter, r *http.Request) {
	notebooks, err := database.GetAllNotebooks()
	if err != nil {
		logger.Error("getNotebooks: Error querying notebooks: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if notebooks == nil {
		notebooks = []models.Notebook{}
	}
	writeJSON(w, http.StatusOK, notebooks)
}

func getNotebookByIDHandler(w http.ResponseWriter, r *http.Request) {
	notebookID, ok := parseIDParam(w, r, "notebookID")
	if !ok {
		return
	}
	nb, err := database.GetNotebookByID(notebookID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Notebook with ID %d not found", notebookID))
		} else {
			logger.Error("getNotebookByIDHandler: Error querying notebook %d: %v", notebookID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, nb)
}

// renameNotebook updates the notebook's name.
func renameNotebook(w http.ResponseWriter, r *http.Request) {
	notebookID, ok := parseIDParam(w, r, "notebookID")
	if !ok {
		return
	}

	var nb models.Notebook
	if err := json.NewDecoder(r.Body).Decode(&nb); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	nb.Name = strings.TrimSpace(nb.Name)
	if nb.Name == "" {
		writeError(w, http.StatusBadRequest, "Notebook name is required")
		return
	}

	if _, err := database.GetNotebookByID(notebookID); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Notebook with ID %d not found", notebookID))
		} else {
			logger.Error("renameNotebook: Error querying notebook %d: %v", notebookID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	if err := database.RenameNotebook(notebookID, nb.Name); err != nil {
		logger.Error("renameNotebook: Error renaming notebook %d: %v", notebookID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error while renaming notebook")
		return
	}

	updated, err := database.GetNotebookByID(notebookID)
	if err != nil {
		logger.Error("renameNotebook: Error reloading notebook %d: %v", notebookID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	logger.Info("Notebook renamed: ID %d, New Name '%s'", notebookID, nb.Name)
	writeJSON(w, http.StatusOK, updated)
}

// deleteNotebook removes a notebook and its cells. Runs of those cells
// stay in storage but never surface again.
func deleteNotebook(w http.ResponseWriter, r *http.Request) {
	notebookID, ok := parseIDParam(w, r, "notebookID")
	if !ok {
		return
	}

	if _, err := database.GetNotebookByID(notebookID); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Notebook with ID %d not found", notebookID))
		} else {
			logger.Error("deleteNotebook: Error querying notebook %d: %v", notebookID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	if err := database.DeleteNotebook(notebookID); err != nil {
		logger.Error("deleteNotebook: Error deleting notebook %d: %v", notebookID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error during delete")
		return
	}

	logger.Info("Notebook deleted: ID %d", notebookID)
	w.WriteHeader(http.StatusNoContent)
}

// getNotebookCells lists the notebook's cells in display order.
func getNotebookCells(w http.ResponseWriter, r *http.Request) {
	notebookID, ok := parseIDParam(w, r, "notebookID")
	if !ok {
		return
	}
	if _, err := database.GetNotebookByID(notebookID); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Notebook with ID %d not found", notebookID))
		} else {
			logger.Error("getNotebookCells: Error querying notebook %d: %v", notebookID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	cells, err := database.GetCellsByNotebookID(notebookID)
	if err != nil {
		logger.Error("getNotebookCells: Error querying cells for notebook %d: %v", notebookID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if cells == nil {
		cells = []models.Cell{}
	}
	writeJSON(w, http.StatusOK, cells)
}

// createCellInNotebook appends a new cell to the notebook. Request
// cells default to GET /health, markdown cells to a notes heading, so
// a freshly created cell is immediately usable.
func createCellInNotebook(w http.ResponseWriter, r *http.Request) {
	notebookID, ok := parseIDParam(w, r, "notebookID")
	if !ok {
		return
	}
	if _, err := database.GetNotebookByID(notebookID); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Notebook with ID %d not found", notebookID))
		} else {
			logger.Error("createCellInNotebook: Error querying notebook %d: %v", notebookID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	var payload cellPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	if payload.Type != models.CellTypeRequest && payload.Type != models.CellTypeMarkdown {
		writeError(w, http.StatusBadRequest, "Cell type must be 'request' or 'markdown'")
		return
	}

	switch payload.Type {
	case models.CellTypeRequest:
		if payload.Method == "" {
			payload.Method = "GET"
		}
		if payload.Path == "" {
			payload.Path = "/health"
		}
	case models.CellTypeMarkdown:
		if payload.Markdown == "" {
			payload.Markdown = "## Notes"
		}
	}

	orderIndex, err := database.NextOrderIndex(notebookID)
	if err != nil {
		logger.Error("createCellInNotebook: Error computing order index for notebook %d: %v", notebookID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	cell := models.Cell{
		NotebookID:  sql.NullInt64{Int64: notebookID, Valid: true},
		Type:        payload.Type,
		Title:       models.NullString(payload.Title),
		OrderIndex:  orderIndex,
		Method:      models.NullString(payload.Method),
		Path:        models.NullString(payload.Path),
		HeadersJSON: models.NullString(payload.HeadersJSON),
		BodyText:    models.NullString(payload.BodyText),
		Markdown:    models.NullString(payload.Markdown),
	}

	id, err := database.CreateCell(cell)
	if err != nil {
		logger.Error("createCellInNotebook: Error inserting cell in notebook %d: %v", notebookID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error while creating cell")
		return
	}
	if err := database.TouchNotebook(notebookID); err != nil {
		logger.Error("createCellInNotebook: Error touching notebook %d: %v", notebookID, err)
	}

	created, err := database.GetCellByID(id)
	if err != nil {
		logger.Error("createCellInNotebook: Error reloading cell %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	logger.Info("Cell created: ID %d, Type '%s', Notebook %d, OrderIndex %d", created.ID, created.Type, notebookID, created.OrderIndex)
	writeJSON(w, http.StatusCreated, created)
}

// reorderCells swaps the order_index values of two cells in the
// notebook.
func reorderCells(w http.ResponseWriter, r *http.Request) {
	notebookID, ok := parseIDParam(w, r, "notebookID")
	if !ok {
		return
	}

	var req struct {
		DraggedID int64 `json:"dragged_id"`
		TargetID  int64 `json:"target_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	if req.DraggedID == 0 || req.TargetID == 0 {
		writeError(w, http.StatusBadRequest, "dragged_id and target_id are required")
		return
	}
	if req.DraggedID == req.TargetID {
		writeError(w, http.StatusBadRequest, "dragged_id and target_id must differ")
		return
	}

	for _, cellID := range []int64{req.DraggedID, req.TargetID} {
		cell, err := database.GetCellByID(cellID)
		if err != nil {
			if isNotFound(err) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("Cell with ID %d not found", cellID))
			} else {
				logger.Error("reorderCells: Error querying cell %d: %v", cellID, err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}
		if !cell.NotebookID.Valid || cell.NotebookID.Int64 != notebookID {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Cell %d does not belong to notebook %d", cellID, notebookID))
			return
		}
	}

	if err := database.SwapCellOrder(req.DraggedID, req.TargetID); err != nil {
		logger.Error("reorderCells: Error swapping cells %d and %d: %v", req.DraggedID, req.TargetID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error while reordering cells")
		return
	}
	if err := database.TouchNotebook(notebookID); err != nil {
		logger.Error("reorderCells: Error touching notebook %d: %v", notebookID, err)
	}

	cells, err := database.GetCellsByNotebookID(notebookID)
	if err != nil {
		logger.Error("reorderCells: Error reloading cells for notebook %d: %v", notebookID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	logger.Info("Cells reordered in notebook %d: swapped %d and %d", notebookID, req.DraggedID, req.TargetID)
	writeJSON(w, http.StatusOK, cells)
}

// getActiveNotebook returns the persisted active notebook selection.
func getActiveNotebook(w http.ResponseWriter, r *http.Request) {
	id, err := database.GetActiveNotebookID()
	if err != nil {
		logger.Error("getActiveNotebook: Error reading active notebook setting: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve active notebook")
		return
	}

	var response struct {
		NotebookID *int64 `json:"notebook_id"`
	}
	if id != 0 {
		response.NotebookID = &id
	}
	writeJSON(w, http.StatusOK, response)
}

// setActiveNotebook persists the active notebook selection.
func setActiveNotebook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NotebookID int64 `json:"notebook_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	if _, err := database.GetNotebookByID(req.NotebookID); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Notebook with ID %d not found", req.NotebookID))
		} else {
			logger.Error("setActiveNotebook: Error querying notebook %d: %v", req.NotebookID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	if err := database.SetActiveNotebookID(req.NotebookID); err != nil {
		logger.Error("setActiveNotebook: Error saving active notebook setting: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save active notebook")
		return
	}
	logger.Info("Active notebook set to %d", req.NotebookID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Active notebook updated successfully."})
}
