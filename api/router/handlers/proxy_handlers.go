package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"reqbook/core"
	"reqbook/logger"

	"github.com/go-chi/chi/v5"
)

// RegisterProxyRoutes registers the forwarding endpoint. It is bound
// with HandleFunc so non-POST methods get an explicit 405 with an
// Allow header instead of chi's default response.
func RegisterProxyRoutes(r chi.Router) {
	r.HandleFunc("/proxy", forwardRequestHandler)
}

// forwardRequestHandler performs one upstream HTTP call on the
// caller's behalf and returns the normalized envelope.
// @Summary Forward an HTTP request to the backend
// @Description Accepts {baseUrl, path} or {url}, plus optional method, headers, query, body.
// @Tags Proxy
// @Accept json
// @Produce json
// @Router /proxy [post]
func forwardRequestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		logger.Error("forwardRequestHandler: MethodNotAllowed: %s", r.Method)
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed. Use POST."})
		return
	}

	var req core.ProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request payload: " + err.Error()})
		return
	}
	defer r.Body.Close()

	result, err := core.Forward(r.Context(), forwardClient, req)
	if err != nil {
		var validation *core.ValidationError
		if errors.As(err, &validation) {
			payload := map[string]string{"error": validation.Message}
			if validation.Composed != "" {
				payload["composed"] = validation.Composed
			}
			writeJSON(w, http.StatusBadRequest, payload)
			return
		}
		// Transport failure: the upstream never answered.
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// The envelope rides on the upstream's own status so clients see
	// backend failures without unwrapping the body first.
	writeJSON(w, result.Status, result)
}
