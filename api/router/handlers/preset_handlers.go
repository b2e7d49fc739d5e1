package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"reqbook/database"
	"reqbook/logger"
	"reqbook/models"
)

// presetPayload is the wire shape for creating presets.
type presetPayload struct {
	Name        string `json:"name"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	QueryValues string `json:"query_values"`
	HeadersJSON string `json:"headers_json"`
	BodyText    string `json:"body_text"`
}

func createPreset(w http.ResponseWriter, r *http.Request) {
	var payload presetPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		writeError(w, http.StatusBadRequest, "Preset name is required")
		return
	}
	if payload.Method == "" {
		payload.Method = "GET"
	}
	if payload.Path == "" {
		writeError(w, http.StatusBadRequest, "Preset path is required")
		return
	}

	preset := models.Preset{
		Name:        payload.Name,
		Method:      strings.ToUpper(payload.Method),
		Path:        payload.Path,
		QueryValues: models.NullString(payload.QueryValues),
		HeadersJSON: models.NullString(payload.HeadersJSON),
		BodyText:    models.NullString(payload.BodyText),
	}

	id, err := database.CreatePreset(preset)
	if err != nil {
		logger.Error("createPreset: Error inserting preset '%s': %v", preset.Name, err)
		writeError(w, http.StatusInternalServerError, "Internal server error while creating preset")
		return
	}

	created, err := database.GetPresetByID(id)
	if err != nil {
		logger.Error("createPreset: Error reloading preset %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	logger.Info("Preset created: ID %d, Name '%s'", created.ID, created.Name)
	writeJSON(w, http.StatusCreated, created)
}

func getPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := database.GetAllPresets()
	if err != nil {
		logger.Error("getPresets: Error querying presets: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if presets == nil {
		presets = []models.Preset{}
	}
	writeJSON(w, http.StatusOK, presets)
}

func getPresetByIDHandler(w http.ResponseWriter, r *http.Request) {
	presetID, ok := parseIDParam(w, r, "presetID")
	if !ok {
		return
	}
	preset, err := database.GetPresetByID(presetID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Preset with ID %d not found", presetID))
		} else {
			logger.Error("getPresetByIDHandler: Error querying preset %d: %v", presetID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, preset)
}

func deletePresetHandler(w http.ResponseWriter, r *http.Request) {
	presetID, ok := parseIDParam(w, r, "presetID")
	if !ok {
		return
	}
	if _, err := database.GetPresetByID(presetID); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Preset with ID %d not found", presetID))
		} else {
			logger.Error("deletePresetHandler: Error querying preset %d: %v", presetID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	if err := database.DeletePreset(presetID); err != nil {
		logger.Error("deletePresetHandler: Error deleting preset %d: %v", presetID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error during delete")
		return
	}
	logger.Info("Preset deleted: ID %d", presetID)
	w.WriteHeader(http.StatusNoContent)
}

// insertPreset materializes a preset into a new request cell. The
// preset's query values are rendered into the cell path's query
// string; empty values are skipped. The target notebook is taken from
// the request body, falling back to the active notebook.
func insertPreset(w http.ResponseWriter, r *http.Request) {
	presetID, ok := parseIDParam(w, r, "presetID")
	if !ok {
		return
	}

	preset, err := database.GetPresetByID(presetID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Preset with ID %d not found", presetID))
		} else {
			logger.Error("insertPreset: Error querying preset %d: %v", presetID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	var req struct {
		NotebookID int64 `json:"notebook_id"`
	}
	if r.Body != nil {
		// Body is optional; decode errors on an empty body are fine.
		json.NewDecoder(r.Body).Decode(&req)
		r.Body.Close()
	}

	notebookID := req.NotebookID
	if notebookID == 0 {
		notebookID, err = database.GetActiveNotebookID()
		if err != nil {
			logger.Error("insertPreset: Error reading active notebook setting: %v", err)
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
			logger.Error("insertPreset: Error querying notebook %d: %v", notebookID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	orderIndex, err := database.NextOrderIndex(notebookID)
	if err != nil {
		logger.Error("insertPreset: Error computing order index for notebook %d: %v", notebookID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	cell := models.Cell{
		NotebookID:  sql.NullInt64{Int64: notebookID, Valid: true},
		Type:        models.CellTypeRequest,
		Title:       models.NullString(preset.Name),
		OrderIndex:  orderIndex,
		Method:      models.NullString(preset.Method),
		Path:        models.NullString(renderPresetPath(preset)),
		HeadersJSON: preset.HeadersJSON,
		BodyText:    preset.BodyText,
	}

	id, err := database.CreateCell(cell)
	if err != nil {
		logger.Error("insertPreset: Error inserting cell from preset %d: %v", presetID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error while inserting preset")
		return
	}
	if err := database.TouchNotebook(notebookID); err != nil {
		logger.Error("insertPreset: Error touching notebook %d: %v", notebookID, err)
	}

	created, err := database.GetCellByID(id)
	if err != nil {
		logger.Error("insertPreset: Error reloading cell %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	logger.Info("Preset %d inserted as cell %d in notebook %d", presetID, created.ID, notebookID)
	writeJSON(w, http.StatusCreated, created)
}

// renderPresetPath appends the preset's stored query values to its
// path. Empty and null values are skipped so an optional parameter
// left blank never shows up in the cell.
func renderPresetPath(preset models.Preset) string {
	if !preset.QueryValues.Valid || strings.TrimSpace(preset.QueryValues.String) == "" {
		return preset.Path
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(preset.QueryValues.String), &raw); err != nil {
		logger.Debug("renderPresetPath: preset %d has unparseable query_values, using bare path", preset.ID)
		return preset.Path
	}

	query := url.Values{}
	for name, value := range raw {
		if value == nil {
			continue
		}
		text := fmt.Sprintf("%v", value)
		if text == "" {
			continue
		}
		query.Set(name, text)
	}
	encoded := query.Encode()
	if encoded == "" {
		return preset.Path
	}
	separator := "?"
	if strings.Contains(preset.Path, "?") {
		separator = "&"
	}
	return preset.Path + separator + encoded
}
