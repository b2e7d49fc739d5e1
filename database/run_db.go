package database

import (
	"database/sql"
	"fmt"

	"reqbook/models"
)

// CreateRun inserts a run record. Runs are immutable: there is no
// corresponding update function.
func CreateRun(run models.Run) (int64, error) {
	stmt, err := DB.Prepare(`
		INSERT INTO runs (cell_id, status, response_headers, response_data, created_at,
		                  request_method, request_path, request_url, request_headers_json, request_body_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing create run statement: %w", err)
	}
	defer stmt.Close()

	createdAt := run.CreatedAt
	if createdAt == 0 {
		createdAt = nowMillis()
	}
	result, err := stmt.Exec(run.CellID, run.Status, run.ResponseHeaders, run.ResponseData, createdAt,
		run.RequestMethod, run.RequestPath, run.RequestURL, run.RequestHeadersJSON, run.RequestBodyText)
	if err != nil {
		return 0, fmt.Errorf("executing create run statement for cell %d: %w", run.CellID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert ID for run: %w", err)
	}
	return id, nil
}

// GetLatestRunForCell returns the chronologically last run for the
// cell, insertion order breaking created_at ties. sql.ErrNoRows is
// wrapped when the cell has never run.
func GetLatestRunForCell(cellID int64) (models.Run, error) {
	var run models.Run
	err := DB.QueryRow(`
		SELECT id, cell_id, status, response_headers, response_data, created_at,
		       request_method, request_path, request_url, request_headers_json, request_body_text
		FROM runs
		WHERE cell_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, cellID).Scan(&run.ID, &run.CellID, &run.Status, &run.ResponseHeaders, &run.ResponseData, &run.CreatedAt,
		&run.RequestMethod, &run.RequestPath, &run.RequestURL, &run.RequestHeadersJSON, &run.RequestBodyText)

	if err != nil {
		if err == sql.ErrNoRows {
			return run, fmt.Errorf("no runs for cell %d: %w", cellID, err)
		}
		return run, fmt.Errorf("querying latest run for cell %d: %w", cellID, err)
	}
	return run, nil
}

// GetRunsByCellID returns the cell's run history, newest first.
func GetRunsByCellID(cellID int64, limit int) ([]models.Run, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := DB.Query(`
		SELECT id, cell_id, status, response_headers, response_data, created_at,
		       request_method, request_path, request_url, request_headers_json, request_body_text
		FROM runs
		WHERE cell_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, cellID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs for cell %d: %w", cellID, err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		if err := rows.Scan(&run.ID, &run.CellID, &run.Status, &run.ResponseHeaders, &run.ResponseData, &run.CreatedAt,
			&run.RequestMethod, &run.RequestPath, &run.RequestURL, &run.RequestHeadersJSON, &run.RequestBodyText); err != nil {
			return nil, fmt.Errorf("scanning run row for cell %d: %w", cellID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
