package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"reqbook/database"
	"reqbook/logger"
	"reqbook/models"
)

// getCaptureEntries lists recent exchanges recorded by the capture
// relay, newest first. Optional ?limit= caps the page size.
func getCaptureEntries(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	entries, err := database.GetCaptureEntries(limit)
	if err != nil {
		logger.Error("getCaptureEntries: Error querying capture log: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if entries == nil {
		entries = []models.CaptureEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// captureToCell replays a captured exchange as a request cell: the
// full captured URL goes into the path field (absolute URLs bypass the
// base URL), and the captured request headers are flattened into the
// cell's headers text.
func captureToCell(w http.ResponseWriter, r *http.Request) {
	entryID, ok := parseIDParam(w, r, "entryID")
	if !ok {
		return
	}

	entry, err := database.GetCaptureEntryByID(entryID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Capture entry with ID %d not found", entryID))
		} else {
			logger.Error("captureToCell: Error querying capture entry %d: %v", entryID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	var req struct {
		NotebookID int64 `json:"notebook_id"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
		r.Body.Close()
	}

	notebookID := req.NotebookID
	if notebookID == 0 {
		notebookID, err = database.GetActiveNotebookID()
		if err != nil {
			logger.Error("captureToCell: Error reading active notebook setting: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if notebookID == 0 {
			writeError(w, http.StatusBadRequest, "No notebook_id given and no active notebook is set")
			return
		}
	}
	if _, err := database.GetNotebookByID(notebookID); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Notebook with ID %d not found", notebookID))
		} else {
			logger.Error("captureToCell: Error querying notebook %d: %v", notebookID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	orderIndex, err := database.NextOrderIndex(notebookID)
	if err != nil {
		logger.Error("captureToCell: Error computing order index for notebook %d: %v", notebookID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	cell := models.Cell{
		NotebookID:  sql.NullInt64{Int64: notebookID, Valid: true},
		Type:        models.CellTypeRequest,
		Title:       models.NullString(entry.Method + " " + entry.URL),
		OrderIndex:  orderIndex,
		Method:      models.NullString(entry.Method),
		Path:        models.NullString(entry.URL),
		HeadersJSON: models.NullString(flattenCapturedHeaders(entry.RequestHeaders)),
	}

	id, err := database.CreateCell(cell)
	if err != nil {
		logger.Error("captureToCell: Error inserting cell from capture entry %d: %v", entryID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error while creating cell")
		return
	}
	if err := database.TouchNotebook(notebookID); err != nil {
		logger.Error("captureToCell: Error touching notebook %d: %v", notebookID, err)
	}

	created, err := database.GetCellByID(id)
	if err != nil {
		logger.Error("captureToCell: Error reloading cell %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	logger.Info("Capture entry %d materialized as cell %d in notebook %d", entryID, created.ID, notebookID)
	writeJSON(w, http.StatusCreated, created)
}

// flattenCapturedHeaders converts the stored multi-valued header JSON
// into the flat {name: value} text cells use. Unparseable input yields
// empty text.
func flattenCapturedHeaders(stored sql.NullString) string {
	if !stored.Valid || strings.TrimSpace(stored.String) == "" {
		return ""
	}
	var multi map[string][]string
	if err := json.Unmarshal([]byte(stored.String), &multi); err != nil {
		return ""
	}
	flat := make(map[string]string, len(multi))
	for name, values := range multi {
		flat[name] = strings.Join(values, ", ")
	}
	encoded, err := json.Marshal(flat)
	if err != nil {
		return ""
	}
	return string(encoded)
}
