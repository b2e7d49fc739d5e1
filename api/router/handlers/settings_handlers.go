package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"reqbook/database"
	"reqbook/logger"
	"reqbook/models"
)

// preferences is the full preference document served and accepted by
// the settings endpoints. Pointer fields distinguish "leave unchanged"
// from an explicit new value on PUT.
type preferences struct {
	BaseURL     *string `json:"base_url,omitempty"`
	UseProxy    *bool   `json:"use_proxy,omitempty"`
	Theme       *string `json:"theme,omitempty"`
	SidebarOpen *bool   `json:"sidebar_open,omitempty"`
}

// GetPreferencesHandler returns the stored UI and execution
// preferences. Unset keys are omitted; clients fall back to their own
// defaults.
func GetPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	var prefs preferences

	baseURL, err := database.GetSetting(models.BackendBaseURLKey)
	if err != nil {
		logger.Error("GetPreferencesHandler: Error reading base URL setting: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve settings")
		return
	}
	if baseURL != "" {
		prefs.BaseURL = &baseURL
	}

	for key, target := range map[string]**bool{
		models.UseProxyKey:    &prefs.UseProxy,
		models.SidebarOpenKey: &prefs.SidebarOpen,
	} {
		raw, err := database.GetSetting(key)
		if err != nil {
			logger.Error("GetPreferencesHandler: Error reading setting '%s': %v", key, err)
			writeError(w, http.StatusInternalServerError, "Failed to retrieve settings")
			return
		}
		if raw != "" {
			value := raw == "true"
			*target = &value
		}
	}

	theme, err := database.GetSetting(models.ThemeKey)
	if err != nil {
		logger.Error("GetPreferencesHandler: Error reading theme setting: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve settings")
		return
	}
	if theme != "" {
		prefs.Theme = &theme
	}

	writeJSON(w, http.StatusOK, prefs)
}

// SavePreferencesHandler updates the preference keys present in the
// payload. Omitted keys keep their stored values; last write wins.
func SavePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	var prefs preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if prefs.BaseURL != nil {
		trimmed := strings.TrimSpace(*prefs.BaseURL)
		if err := database.SetSetting(models.BackendBaseURLKey, trimmed); err != nil {
			logger.Error("SavePreferencesHandler: Error saving base URL: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}
	if prefs.UseProxy != nil {
		if err := database.SetSetting(models.UseProxyKey, strconv.FormatBool(*prefs.UseProxy)); err != nil {
			logger.Error("SavePreferencesHandler: Error saving use_proxy: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}
	if prefs.Theme != nil {
		if err := database.SetSetting(models.ThemeKey, *prefs.Theme); err != nil {
			logger.Error("SavePreferencesHandler: Error saving theme: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}
	if prefs.SidebarOpen != nil {
		if err := database.SetSetting(models.SidebarOpenKey, strconv.FormatBool(*prefs.SidebarOpen)); err != nil {
			logger.Error("SavePreferencesHandler: Error saving sidebar_open: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}

	logger.Info("Preferences updated")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Settings updated successfully."})
}
