package database

import (
	"database/sql"
	"fmt"

	"reqbook/models"
)

func InsertCaptureEntry(entry models.CaptureEntry) (int64, error) {
	stmt, err := DB.Prepare(`
		INSERT INTO capture_log (exchange_id, method, url, status, request_headers, response_headers, response_content_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert capture entry statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(entry.ExchangeID, entry.Method, entry.URL, entry.Status,
		entry.RequestHeaders, entry.ResponseHeaders, entry.ResponseContentType, nowMillis())
	if err != nil {
		return 0, fmt.Errorf("executing insert capture entry statement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert ID for capture entry: %w", err)
	}
	return id, nil
}

func GetCaptureEntryByID(entryID int64) (models.CaptureEntry, error) {
	var entry models.CaptureEntry
	err := DB.QueryRow(`
		SELECT id, exchange_id, method, url, status, request_headers, response_headers, response_content_type, created_at
		FROM capture_log
		WHERE id = ?
	`, entryID).Scan(&entry.ID, &entry.ExchangeID, &entry.Method, &entry.URL, &entry.Status,
		&entry.RequestHeaders, &entry.ResponseHeaders, &entry.ResponseContentType, &entry.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return entry, fmt.Errorf("capture entry with ID %d not found: %w", entryID, err)
		}
		return entry, fmt.Errorf("querying capture entry %d: %w", entryID, err)
	}
	return entry, nil
}

// GetCaptureEntries returns the most recent capture log entries.
func GetCaptureEntries(limit int) ([]models.CaptureEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := DB.Query(`
		SELECT id, exchange_id, method, url, status, request_headers, response_headers, response_content_type, created_at
		FROM capture_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying capture log: %w", err)
	}
	defer rows.Close()

	var entries []models.CaptureEntry
	for rows.Next() {
		var entry models.CaptureEntry
		if err := rows.Scan(&entry.ID, &entry.ExchangeID, &entry.Method, &entry.URL, &entry.Status,
			&entry.RequestHeaders, &entry.ResponseHeaders, &entry.ResponseContentType, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning capture log row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
