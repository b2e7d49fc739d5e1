package database

import (
	"database/sql"
	"fmt"
	"strconv"

	"reqbook/models"
)

// GetSetting retrieves a specific setting value from the app_settings table.
func GetSetting(key string) (string, error) {
	var value string
	err := DB.QueryRow("SELECT value FROM app_settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil // Return empty string if not found, not an error
		}
		return "", fmt.Errorf("failed to get setting '%s': %w", key, err)
	}
	return value, nil
}

// SetSetting saves or updates a specific setting value in the app_settings table.
func SetSetting(key, value string) error {
	stmt, err := DB.Prepare("INSERT OR REPLACE INTO app_settings (key, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare set setting statement for key '%s': %w", key, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(key, value)
	if err != nil {
		return fmt.Errorf("failed to execute set setting for key '%s': %w", key, err)
	}
	return nil
}

// GetActiveNotebookID returns the remembered active notebook id, or 0
// when none has been stored yet.
func GetActiveNotebookID() (int64, error) {
	raw, err := GetSetting(models.ActiveNotebookIDKey)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("stored active notebook id '%s' is not an integer: %w", raw, err)
	}
	return id, nil
}

func SetActiveNotebookID(notebookID int64) error {
	return SetSetting(models.ActiveNotebookIDKey, strconv.FormatInt(notebookID, 10))
}

// GetBoolSetting interprets a stored setting as a boolean, returning
// the provided default when the key is unset.
func GetBoolSetting(key string, def bool) (bool, error) {
	raw, err := GetSetting(key)
	if err != nil {
		return def, err
	}
	if raw == "" {
		return def, nil
	}
	return raw == "true", nil
}
