package database

import (
	"database/sql"
	"fmt"

	"reqbook/models"
)

func CreatePreset(preset models.Preset) (int64, error) {
	stmt, err := DB.Prepare(`
		INSERT INTO presets (name, method, path, query_values, headers_json, body_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing create preset statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(preset.Name, preset.Method, preset.Path,
		preset.QueryValues, preset.HeadersJSON, preset.BodyText, nowMillis())
	if err != nil {
		return 0, fmt.Errorf("executing create preset statement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert ID for preset: %w", err)
	}
	return id, nil
}

func GetPresetByID(presetID int64) (models.Preset, error) {
	var preset models.Preset
	err := DB.QueryRow(`
		SELECT id, name, method, path, query_values, headers_json, body_text, created_at
		FROM presets
		WHERE id = ?
	`, presetID).Scan(&preset.ID, &preset.Name, &preset.Method, &preset.Path,
		&preset.QueryValues, &preset.HeadersJSON, &preset.BodyText, &preset.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return preset, fmt.Errorf("preset with ID %d not found: %w", presetID, err)
		}
		return preset, fmt.Errorf("querying preset %d: %w", presetID, err)
	}
	return preset, nil
}

// GetAllPresets returns presets newest first.
func GetAllPresets() ([]models.Preset, error) {
	rows, err := DB.Query(`
		SELECT id, name, method, path, query_values, headers_json, body_text, created_at
		FROM presets
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying presets: %w", err)
	}
	defer rows.Close()

	var presets []models.Preset
	for rows.Next() {
		var preset models.Preset
		if err := rows.Scan(&preset.ID, &preset.Name, &preset.Method, &preset.Path,
			&preset.QueryValues, &preset.HeadersJSON, &preset.BodyText, &preset.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning preset row: %w", err)
		}
		presets = append(presets, preset)
	}
	return presets, rows.Err()
}

func DeletePreset(presetID int64) error {
	_, err := DB.Exec("DELETE FROM presets WHERE id = ?", presetID)
	if err != nil {
		return fmt.Errorf("deleting preset %d: %w", presetID, err)
	}
	return nil
}
