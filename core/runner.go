package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"reqbook/composer"
	"reqbook/config"
	"reqbook/database"
	"reqbook/logger"
	"reqbook/models"
)

// ErrNotRequestCell is returned when execution is requested for a
// markdown cell.
var ErrNotRequestCell = errors.New("cell is not a request cell")

// EffectiveBaseURL resolves the backend base URL the runner should
// use: the stored preference wins, the configured default fills in
// behind it. An empty result means relative paths cannot be composed.
func EffectiveBaseURL() (string, error) {
	stored, err := database.GetSetting(models.BackendBaseURLKey)
	if err != nil {
		return "", err
	}
	if stored != "" {
		return stored, nil
	}
	return config.AppConfig.Backend.DefaultBaseURL, nil
}

// ExecuteCell runs a request cell against the backend and records
// exactly one run per attempt. Failures that never reach the network
// are recorded too: a missing base URL becomes a synthesized 400 run,
// a transport failure becomes a status-0 run. The returned run is the
// persisted record.
func ExecuteCell(ctx context.Context, client *http.Client, cellID int64) (models.Run, error) {
	cell, err := database.GetCellByID(cellID)
	if err != nil {
		return models.Run{}, err
	}
	if cell.Type != models.CellTypeRequest {
		return models.Run{}, ErrNotRequestCell
	}

	baseURL, err := EffectiveBaseURL()
	if err != nil {
		return models.Run{}, err
	}

	run := models.Run{
		CellID:             cell.ID,
		RequestMethod:      cell.Method,
		RequestPath:        cell.Path,
		RequestHeadersJSON: cell.HeadersJSON,
		RequestBodyText:    cell.BodyText,
	}

	plan, err := composer.Compose(cell.Method.String, cell.Path.String,
		cell.HeadersJSON.String, cell.BodyText.String, baseURL)
	if err != nil {
		if errors.Is(err, composer.ErrNoBaseURL) {
			logger.Debug("Cell %d has a relative path and no base URL; recording synthesized 400 run", cell.ID)
			run.Status = http.StatusBadRequest
			run.ResponseData = models.NullString(errorPayload(composer.NoBaseURLMessage))
			return persistRun(run)
		}
		return models.Run{}, fmt.Errorf("composing request for cell %d: %w", cell.ID, err)
	}
	run.RequestURL = models.NullString(plan.URL)

	result, err := Forward(ctx, client, ProxyRequest{
		URL:     plan.URL,
		Method:  plan.Method,
		Headers: plan.Headers,
		Body:    plan.Body,
	})
	if err != nil {
		var validation *ValidationError
		if errors.As(err, &validation) {
			run.Status = http.StatusBadRequest
			run.ResponseData = models.NullString(errorPayload(validation.Message))
			return persistRun(run)
		}
		// transport failure: no HTTP status was ever received
		run.Status = 0
		run.ResponseData = models.NullString(errorPayload(err.Error()))
		return persistRun(run)
	}

	run.Status = result.Status
	if encoded, err := json.Marshal(result.Headers); err == nil {
		run.ResponseHeaders = models.NullString(string(encoded))
	}
	if encoded, err := json.Marshal(result.Data); err == nil {
		run.ResponseData = models.NullString(string(encoded))
	}
	return persistRun(run)
}

func persistRun(run models.Run) (models.Run, error) {
	id, err := database.CreateRun(run)
	if err != nil {
		return models.Run{}, fmt.Errorf("recording run for cell %d: %w", run.CellID, err)
	}
	saved, err := database.GetLatestRunForCell(run.CellID)
	if err != nil {
		return models.Run{}, fmt.Errorf("reloading run %d: %w", id, err)
	}
	return saved, nil
}

func errorPayload(message string) string {
	encoded, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return `{"error":"unknown"}`
	}
	return string(encoded)
}
