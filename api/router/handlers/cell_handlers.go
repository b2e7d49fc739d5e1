package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reqbook/core"
	"reqbook/database"
	"reqbook/logger"
	"reqbook/markdown"
	"reqbook/models"
)

// forwardClient is shared by all request executions. The timeout caps
// a single upstream round trip; there are no retries.
var forwardClient = &http.Client{Timeout: 60 * time.Second}

func getCellByIDHandler(w http.ResponseWriter, r *http.Request) {
	cellID, ok := parseIDParam(w, r, "cellID")
	if !ok {
		return
	}
	cell, err := database.GetCellByID(cellID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Cell with ID %d not found", cellID))
		} else {
			logger.Error("getCellByIDHandler: Error querying cell %d: %v", cellID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, cell)
}

// updateCell replaces the cell's editable fields. The cell type is
// fixed at creation; a payload naming a different type is rejected.
func updateCell(w http.ResponseWriter, r *http.Request) {
	cellID, ok := parseIDParam(w, r, "cellID")
	if !ok {
		return
	}

	cell, err := database.GetCellByID(cellID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Cell with ID %d not found", cellID))
		} else {
			logger.Error("updateCell: Error querying cell %d: %v", cellID, err)
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

	if payload.Type != "" && payload.Type != cell.Type {
		writeError(w, http.StatusBadRequest, "Cell type cannot be changed")
		return
	}

	cell.Title = models.NullString(payload.Title)
	cell.Method = models.NullString(payload.Method)
	cell.Path = models.NullString(payload.Path)
	cell.HeadersJSON = models.NullString(payload.HeadersJSON)
	cell.BodyText = models.NullString(payload.BodyText)
	cell.Markdown = models.NullString(payload.Markdown)

	if err := database.UpdateCell(cell); err != nil {
		logger.Error("updateCell: Error updating cell %d: %v", cellID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error while updating cell")
		return
	}

	updated, err := database.GetCellByID(cellID)
	if err != nil {
		logger.Error("updateCell: Error reloading cell %d: %v", cellID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	logger.Info("Cell updated: ID %d", cellID)
	writeJSON(w, http.StatusOK, updated)
}

// deleteCell removes the cell. Its run history stays in storage but is
// unreachable afterwards.
func deleteCell(w http.ResponseWriter, r *http.Request) {
	cellID, ok := parseIDParam(w, r, "cellID")
	if !ok {
		return
	}

	cell, err := database.GetCellByID(cellID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Cell with ID %d not found", cellID))
		} else {
			logger.Error("deleteCell: Error querying cell %d: %v", cellID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	if err := database.DeleteCell(cellID); err != nil {
		logger.Error("deleteCell: Error deleting cell %d: %v", cellID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error during delete")
		return
	}
	if cell.NotebookID.Valid {
		if err := database.TouchNotebook(cell.NotebookID.Int64); err != nil {
			logger.Error("deleteCell: Error touching notebook %d: %v", cell.NotebookID.Int64, err)
		}
	}

	logger.Info("Cell deleted: ID %d", cellID)
	w.WriteHeader(http.StatusNoContent)
}

// runCell executes a request cell and returns the persisted run.
// Failed attempts are runs too: missing base URL records a 400 run,
// transport failure records a status-0 run.
// @Summary Execute a request cell
// @Router /cells/{cellID}/run [post]
func runCell(w http.ResponseWriter, r *http.Request) {
	cellID, ok := parseIDParam(w, r, "cellID")
	if !ok {
		return
	}

	run, err := core.ExecuteCell(r.Context(), forwardClient, cellID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Cell with ID %d not found", cellID))
		} else if errors.Is(err, core.ErrNotRequestCell) {
			writeError(w, http.StatusBadRequest, "Only request cells can be run")
		} else {
			logger.Error("runCell: Error executing cell %d: %v", cellID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error while executing cell")
		}
		return
	}

	logger.Info("Cell %d executed: run %d, status %d", cellID, run.ID, run.Status)
	writeJSON(w, http.StatusCreated, run)
}

// getLatestRun returns the chronologically last run for the cell.
func getLatestRun(w http.ResponseWriter, r *http.Request) {
	cellID, ok := parseIDParam(w, r, "cellID")
	if !ok {
		return
	}

	if _, err := database.GetCellByID(cellID); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Cell with ID %d not found", cellID))
		} else {
			logger.Error("getLatestRun: Error querying cell %d: %v", cellID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	run, err := database.GetLatestRunForCell(cellID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Cell %d has never been run", cellID))
		} else {
			logger.Error("getLatestRun: Error querying latest run for cell %d: %v", cellID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// getRuns returns the cell's run history, newest first. Optional
// ?limit= caps the page size.
func getRuns(w http.ResponseWriter, r *http.Request) {
	cellID, ok := parseIDParam(w, r, "cellID")
	if !ok {
		return
	}

	if _, err := database.GetCellByID(cellID); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Cell with ID %d not found", cellID))
		} else {
			logger.Error("getRuns: Error querying cell %d: %v", cellID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	runs, err := database.GetRunsByCellID(cellID, limit)
	if err != nil {
		logger.Error("getRuns: Error querying runs for cell %d: %v", cellID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if runs == nil {
		runs = []models.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// getRenderedCell returns the HTML rendering of a markdown cell.
func getRenderedCell(w http.ResponseWriter, r *http.Request) {
	cellID, ok := parseIDParam(w, r, "cellID")
	if !ok {
		return
	}

	cell, err := database.GetCellByID(cellID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Cell with ID %d not found", cellID))
		} else {
			logger.Error("getRenderedCell: Error querying cell %d: %v", cellID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	if cell.Type != models.CellTypeMarkdown {
		writeError(w, http.StatusBadRequest, "Only markdown cells can be rendered")
		return
	}

	html, err := markdown.Render(cell.Markdown.String)
	if err != nil {
		logger.Error("getRenderedCell: Error rendering cell %d: %v", cellID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error while rendering markdown")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": html})
}

// compareEntry pairs a cell id with its latest run, nil when the cell
// is missing, not a request cell, or has never run.
type compareEntry struct {
	CellID int64       `json:"cell_id"`
	Run    *models.Run `json:"run"`
}

// compareCells returns the latest run for each requested cell id so a
// client can diff responses side by side. Read-only.
func compareCells(w http.ResponseWriter, r *http.Request) {
	rawCells := r.URL.Query().Get("cells")
	if strings.TrimSpace(rawCells) == "" {
		writeError(w, http.StatusBadRequest, "Query parameter 'cells' is required, e.g. ?cells=1,2,3")
		return
	}

	var entries []compareEntry
	for _, rawID := range strings.Split(rawCells, ",") {
		cellID, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid cell id '%s'", rawID))
			return
		}

		entry := compareEntry{CellID: cellID}
		cell, err := database.GetCellByID(cellID)
		if err == nil && cell.Type == models.CellTypeRequest {
			if run, err := database.GetLatestRunForCell(cellID); err == nil {
				entry.Run = &run
			}
		}
		entries = append(entries, entry)
	}

	writeJSON(w, http.StatusOK, entries)
}
