package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"reqbook/composer"
	"reqbook/logger"
)

// ProxyRequest is the wire contract of the forwarding endpoint.
// Either url, or baseUrl plus path, identifies the target.
type ProxyRequest struct {
	BaseURL string            `json:"baseUrl,omitempty"`
	URL     string            `json:"url,omitempty"`
	Path    string            `json:"path,omitempty"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Query   map[string]any    `json:"query,omitempty"`
	Body    any               `json:"body,omitempty"`
}

// ProxyResult is the normalized upstream response: the upstream
// status, all upstream response headers as a flat lower-cased
// mapping, and the decoded (or raw text) payload.
type ProxyResult struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Data    any               `json:"data"`
}

// ValidationError rejects a proxy request before any network call.
// Composed carries the assembled URL string when composition itself
// failed, for debuggability.
type ValidationError struct {
	Message  string
	Composed string
}

func (e *ValidationError) Error() string { return e.Message }

// headers that would corrupt the outbound request if forwarded
// verbatim
var strippedHeaders = map[string]bool{
	"host":           true,
	"connection":     true,
	"content-length": true,
}

// SanitizeHeaders lower-cases header names and strips hop-by-hop and
// unsafe entries.
func SanitizeHeaders(headers map[string]string) map[string]string {
	safe := make(map[string]string, len(headers))
	for name, value := range headers {
		lower := strings.ToLower(name)
		if strippedHeaders[lower] {
			continue
		}
		safe[lower] = value
	}
	return safe
}

// ComposeTargetURL validates the request and assembles the outbound
// URL, including stringified query parameters. A *ValidationError is
// returned for caller mistakes.
func ComposeTargetURL(req ProxyRequest) (string, error) {
	if req.URL == "" && (req.BaseURL == "" || req.Path == "") {
		return "", &ValidationError{Message: "Provide either 'url' or both 'baseUrl' and 'path'"}
	}
	if req.BaseURL != "" && !composer.IsAbsoluteURL(req.BaseURL) {
		return "", &ValidationError{Message: "baseUrl must start with http:// or https://"}
	}

	composed := req.URL
	if composed == "" {
		composed = composer.JoinURL(req.BaseURL, req.Path)
	}

	target, err := url.Parse(composed)
	if err != nil || target.Host == "" {
		msg := "Unknown"
		if err != nil {
			msg = err.Error()
		}
		return "", &ValidationError{Message: fmt.Sprintf("Invalid URL: %s", msg), Composed: composed}
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return "", &ValidationError{Message: fmt.Sprintf("Invalid URL: unsupported scheme '%s'", target.Scheme), Composed: composed}
	}

	if len(req.Query) > 0 {
		values := target.Query()
		for key, value := range req.Query {
			if value == nil {
				continue
			}
			values.Set(key, stringifyQueryValue(value))
		}
		target.RawQuery = values.Encode()
	}
	return target.String(), nil
}

func stringifyQueryValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; render integers without a
		// trailing ".0"
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Forward performs one outbound HTTP call on behalf of the caller and
// normalizes the response. It never retries; every failure surfaces
// in this single round trip. A *ValidationError means the request was
// rejected before the network; any other error is a transport
// failure.
func Forward(ctx context.Context, client *http.Client, req ProxyRequest) (ProxyResult, error) {
	targetURL, err := ComposeTargetURL(req)
	if err != nil {
		return ProxyResult{}, err
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = "GET"
	}

	safeHeaders := SanitizeHeaders(req.Headers)

	var bodyReader io.Reader
	if req.Body != nil && method != "GET" {
		if text, isString := req.Body.(string); isString {
			bodyReader = strings.NewReader(text)
			if safeHeaders["content-type"] == "" {
				safeHeaders["content-type"] = "text/plain"
			}
		} else {
			encoded, err := json.Marshal(req.Body)
			if err != nil {
				return ProxyResult{}, &ValidationError{Message: fmt.Sprintf("Unserializable body: %v", err)}
			}
			bodyReader = bytes.NewReader(encoded)
			if safeHeaders["content-type"] == "" {
				safeHeaders["content-type"] = "application/json"
			}
		}
	}

	outbound, err := http.NewRequestWithContext(ctx, method, targetURL, bodyReader)
	if err != nil {
		return ProxyResult{}, &ValidationError{Message: fmt.Sprintf("Invalid URL: %v", err), Composed: targetURL}
	}
	for name, value := range safeHeaders {
		outbound.Header.Set(name, value)
	}

	logger.ProxyDebug("Forwarding %s %s", method, targetURL)
	response, err := client.Do(outbound)
	if err != nil {
		logger.ProxyError("Forward %s %s failed: %v", method, targetURL, err)
		return ProxyResult{}, err
	}
	defer response.Body.Close()

	return normalizeResponse(response)
}

// normalizeResponse reads the upstream body exactly once. JSON
// content types are decoded, falling back to {"raw": text} when the
// payload is not actually JSON; everything else passes through as
// text.
func normalizeResponse(response *http.Response) (ProxyResult, error) {
	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return ProxyResult{}, fmt.Errorf("reading upstream response body: %w", err)
	}

	headers := make(map[string]string, len(response.Header))
	for name, values := range response.Header {
		headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}

	result := ProxyResult{Status: response.StatusCode, Headers: headers}

	contentType := response.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var data any
		if err := json.Unmarshal(raw, &data); err != nil {
			result.Data = map[string]any{"raw": string(raw)}
		} else {
			result.Data = data
		}
		return result, nil
	}

	result.Data = string(raw)
	return result, nil
}
