// Package composer turns user-entered cell fields (method, path,
// headers-as-JSON-text, body-as-text) into a well-formed outbound
// request description. Everything here is pure; no I/O.
package composer

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoBaseURL is returned when the path is relative and no backend
// base URL is configured. Callers convert it into a synthesized
// 400 run without touching the network.
var ErrNoBaseURL = errors.New("missing backend base URL for relative path")

// NoBaseURLMessage is the human-readable message stored on the
// synthesized run.
const NoBaseURLMessage = "Missing backend base URL. Set the Base URL in settings, or paste a full URL into the Path field."

var absoluteURLPattern = regexp.MustCompile(`(?i)^https?://`)

// RequestPlan is a composed outbound request description.
type RequestPlan struct {
	Method  string
	URL     string
	Headers map[string]string
	// Body is nil, a decoded JSON value, or the raw string when the
	// body text is not valid JSON.
	Body any
}

// ParseHeaders decodes a JSON-object-shaped text blob into a header
// map. Any parse failure, or a decoded value that is not an object,
// yields nil. This silent fallback is deliberate: malformed header
// text means "no headers", not an error.
func ParseHeaders(headersJSON string) map[string]string {
	if strings.TrimSpace(headersJSON) == "" {
		return nil
	}
	var headers map[string]string
	if err := json.Unmarshal([]byte(headersJSON), &headers); err != nil {
		return nil
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}

// ParseBody decodes body text as JSON when possible and passes the
// original text through as a raw string otherwise. Empty text means
// no body.
func ParseBody(bodyText string) any {
	if bodyText == "" {
		return nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(bodyText), &decoded); err != nil {
		return bodyText
	}
	return decoded
}

// IsAbsoluteURL reports whether path carries its own http(s) scheme
// and should bypass the configured base URL entirely.
func IsAbsoluteURL(path string) bool {
	return absoluteURLPattern.MatchString(path)
}

// JoinURL concatenates a base URL and a path: trailing slash stripped
// from the base, leading slash enforced on the path, empty path
// defaulting to "/".
func JoinURL(baseURL, path string) string {
	base := strings.TrimSuffix(baseURL, "/")
	if path == "" {
		return base + "/"
	}
	if !strings.HasPrefix(path, "/") {
		return base + "/" + path
	}
	return base + path
}

// Compose builds a RequestPlan from cell fields and the configured
// base URL. An absolute path is used verbatim; a relative path
// requires a base URL or ErrNoBaseURL is returned. GET and HEAD
// requests never carry a body regardless of stored body text.
func Compose(method, path, headersJSON, bodyText, baseURL string) (RequestPlan, error) {
	if method == "" {
		method = "GET"
	}
	method = strings.ToUpper(method)

	var target string
	switch {
	case IsAbsoluteURL(path):
		target = path
	case baseURL == "":
		return RequestPlan{}, ErrNoBaseURL
	default:
		target = JoinURL(baseURL, path)
	}

	plan := RequestPlan{
		Method:  method,
		URL:     target,
		Headers: ParseHeaders(headersJSON),
	}
	if method != "GET" && method != "HEAD" {
		plan.Body = ParseBody(bodyText)
	}
	return plan, nil
}
