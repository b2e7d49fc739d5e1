package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"reqbook/core"
	"reqbook/database"
	"reqbook/logger"
	"reqbook/models"
	"reqbook/openapi"
)

// loadOpenAPIDocument fetches an OpenAPI/Swagger document and returns
// the narrow operations view. The target is addressed the same way as
// the forwarding endpoint: {url} or {baseUrl, path}.
// @Summary Load an OpenAPI document
// @Router /openapi/load [post]
func loadOpenAPIDocument(w http.ResponseWriter, r *http.Request) {
	var req core.ProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	targetURL, err := core.ComposeTargetURL(req)
	if err != nil {
		var validation *core.ValidationError
		if errors.As(err, &validation) {
			writeError(w, http.StatusBadRequest, validation.Message)
			return
		}
		logger.Error("loadOpenAPIDocument: Error composing document URL: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	outbound, err := http.NewRequestWithContext(r.Context(), http.MethodGet, targetURL, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document URL: "+err.Error())
		return
	}
	response, err := forwardClient.Do(outbound)
	if err != nil {
		logger.Error("loadOpenAPIDocument: Error fetching document from %s: %v", targetURL, err)
		writeError(w, http.StatusBadGateway, "Failed to fetch OpenAPI document: "+err.Error())
		return
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("OpenAPI document fetch returned status %d", response.StatusCode))
		return
	}

	document, err := io.ReadAll(response.Body)
	if err != nil {
		logger.Error("loadOpenAPIDocument: Error reading document body from %s: %v", targetURL, err)
		writeError(w, http.StatusBadGateway, "Failed to read OpenAPI document")
		return
	}

	operations, err := openapi.ExtractOperations(document)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Not an OpenAPI document: "+err.Error())
		return
	}
	if operations == nil {
		operations = []openapi.Operation{}
	}

	logger.Info("Loaded OpenAPI document from %s: %d operations", targetURL, len(operations))
	writeJSON(w, http.StatusOK, map[string]any{
		"source":     targetURL,
		"operations": operations,
	})
}

// openAPIToCellRequest describes the operation to materialize and the
// user-filled parameter values.
type openAPIToCellRequest struct {
	NotebookID  int64             `json:"notebook_id"`
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	PathValues  map[string]string `json:"path_values"`
	QueryValues map[string]string `json:"query_values"`
	HeadersJSON string            `json:"headers_json"`
	BodyText    string            `json:"body_text"`
}

// openAPIToCell builds a request cell from an OpenAPI operation: path
// template segments are substituted with escaped values, query values
// rendered into the query string, and the cell titled
// "METHOD /built/path".
// @Summary Materialize an OpenAPI operation as a request cell
// @Router /openapi/to-cell [post]
func openAPIToCell(w http.ResponseWriter, r *http.Request) {
	var req openAPIToCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	req.Method = strings.ToUpper(strings.TrimSpace(req.Method))
	if req.Method == "" || req.Path == "" {
		writeError(w, http.StatusBadRequest, "method and path are required")
		return
	}

	notebookID := req.NotebookID
	if notebookID == 0 {
		activeID, err := database.GetActiveNotebookID()
		if err != nil {
			logger.Error("openAPIToCell: Error reading active notebook setting: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if activeID == 0 {
			writeError(w, http.StatusBadRequest, "No notebook_id given and no active notebook is set")
			return
		}
		notebookID = activeID
	}
	if _, err := database.GetNotebookByID(notebookID); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Notebook with ID %d not found", notebookID))
		} else {
			logger.Error("openAPIToCell: Error querying notebook %d: %v", notebookID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	builtPath := openapi.BuildPath(req.Path, req.PathValues, req.QueryValues)

	orderIndex, err := database.NextOrderIndex(notebookID)
	if err != nil {
		logger.Error("openAPIToCell: Error computing order index for notebook %d: %v", notebookID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	title := req.Method + " " + builtPath

	cell := models.Cell{
		NotebookID:  sql.NullInt64{Int64: notebookID, Valid: true},
		Type:        models.CellTypeRequest,
		Title:       models.NullString(title),
		OrderIndex:  orderIndex,
		Method:      models.NullString(req.Method),
		Path:        models.NullString(builtPath),
		HeadersJSON: models.NullString(req.HeadersJSON),
		BodyText:    models.NullString(req.BodyText),
	}

	id, err := database.CreateCell(cell)
	if err != nil {
		logger.Error("openAPIToCell: Error inserting cell in notebook %d: %v", notebookID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error while creating cell")
		return
	}
	if err := database.TouchNotebook(notebookID); err != nil {
		logger.Error("openAPIToCell: Error touching notebook %d: %v", notebookID, err)
	}

	created, err := database.GetCellByID(id)
	if err != nil {
		logger.Error("openAPIToCell: Error reloading cell %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	logger.Info("OpenAPI operation %s %s materialized as cell %d", req.Method, builtPath, created.ID)
	writeJSON(w, http.StatusCreated, created)
}
