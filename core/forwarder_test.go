package core

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestComposeTargetURL(t *testing.T) {
	t.Run("requires url or baseUrl plus path", func(t *testing.T) {
		for _, req := range []ProxyRequest{
			{},
			{BaseURL: "http://h"},
			{Path: "/x"},
		} {
			_, err := ComposeTargetURL(req)
			var validation *ValidationError
			if !errors.As(err, &validation) {
				t.Errorf("ComposeTargetURL(%+v) error = %v, want ValidationError", req, err)
			}
		}
	})

	t.Run("rejects non-http base url", func(t *testing.T) {
		_, err := ComposeTargetURL(ProxyRequest{BaseURL: "ftp://h", Path: "/x"})
		var validation *ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("error = %v, want ValidationError", err)
		}
	})

	t.Run("rejects non-http scheme in direct url", func(t *testing.T) {
		_, err := ComposeTargetURL(ProxyRequest{URL: "ftp://h/x"})
		var validation *ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("error = %v, want ValidationError", err)
		}
		if validation.Composed != "ftp://h/x" {
			t.Errorf("Composed = %q, want the assembled URL echoed back", validation.Composed)
		}
	})

	t.Run("joins base and path", func(t *testing.T) {
		got, err := ComposeTargetURL(ProxyRequest{BaseURL: "http://h/", Path: "x"})
		if err != nil {
			t.Fatalf("ComposeTargetURL() error = %v", err)
		}
		if got != "http://h/x" {
			t.Errorf("got %q, want http://h/x", got)
		}
	})

	t.Run("appends query values skipping nulls", func(t *testing.T) {
		got, err := ComposeTargetURL(ProxyRequest{
			URL: "http://h/x",
			Query: map[string]any{
				"a":       "1",
				"skipped": nil,
				"n":       float64(500),
				"flag":    true,
			},
		})
		if err != nil {
			t.Fatalf("ComposeTargetURL() error = %v", err)
		}
		parsed, err := url.Parse(got)
		if err != nil {
			t.Fatalf("parsing composed URL: %v", err)
		}
		q := parsed.Query()
		if q.Get("a") != "1" || q.Get("n") != "500" || q.Get("flag") != "true" {
			t.Errorf("query = %v, want a=1 n=500 flag=true", q)
		}
		if q.Has("skipped") {
			t.Error("null query value was not skipped")
		}
	})
}

func TestSanitizeHeaders(t *testing.T) {
	got := SanitizeHeaders(map[string]string{
		"Host":           "evil.example",
		"Connection":     "keep-alive",
		"Content-Length": "999",
		"X-A":            "1",
		"Authorization":  "Bearer token",
	})
	want := map[string]string{
		"x-a":           "1",
		"authorization": "Bearer token",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("header %q = %q, want %q", k, got[k], v)
		}
	}
}

func TestForwardHeadersAndBody(t *testing.T) {
	var seenHeaders http.Header
	var seenBody []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHeaders = r.Header.Clone()
		seenBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok": true}`))
	}))
	defer upstream.Close()

	result, err := Forward(context.Background(), upstream.Client(), ProxyRequest{
		URL:    upstream.URL + "/x",
		Method: "post",
		Headers: map[string]string{
			"Host":           "evil.example",
			"Content-Length": "999",
			"X-A":            "1",
		},
		Body: map[string]any{"n": 1},
	})
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	if seenHeaders.Get("X-A") != "1" {
		t.Error("caller header X-A did not reach the upstream")
	}
	if seenHeaders.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q, want application/json default for JSON bodies", seenHeaders.Get("Content-Type"))
	}
	var decoded map[string]any
	if err := json.Unmarshal(seenBody, &decoded); err != nil || decoded["n"] != float64(1) {
		t.Errorf("upstream body = %q, want the JSON-encoded body", seenBody)
	}

	if result.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", result.Status)
	}
	if result.Headers["x-upstream"] != "yes" {
		t.Errorf("Headers = %v, want lower-cased x-upstream: yes", result.Headers)
	}
	data, ok := result.Data.(map[string]any)
	if !ok || data["ok"] != true {
		t.Errorf("Data = %#v, want decoded JSON object", result.Data)
	}
}

func TestForwardStringBodyDefaultsToTextPlain(t *testing.T) {
	var seenContentType string
	var seenBody []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenContentType = r.Header.Get("Content-Type")
		seenBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	_, err := Forward(context.Background(), upstream.Client(), ProxyRequest{
		URL:    upstream.URL,
		Method: "POST",
		Body:   "raw payload",
	})
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if seenContentType != "text/plain" {
		t.Errorf("Content-Type = %q, want text/plain default for string bodies", seenContentType)
	}
	if string(seenBody) != "raw payload" {
		t.Errorf("body = %q, want the string verbatim", seenBody)
	}
}

func TestForwardCallerContentTypeWins(t *testing.T) {
	var seenContentType string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	_, err := Forward(context.Background(), upstream.Client(), ProxyRequest{
		URL:     upstream.URL,
		Method:  "POST",
		Headers: map[string]string{"Content-Type": "application/xml"},
		Body:    "<x/>",
	})
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if seenContentType != "application/xml" {
		t.Errorf("Content-Type = %q, want the caller's value preserved", seenContentType)
	}
}

func TestForwardGETNeverCarriesBody(t *testing.T) {
	var seenBody []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	_, err := Forward(context.Background(), upstream.Client(), ProxyRequest{
		URL:  upstream.URL,
		Body: map[string]any{"dropped": true},
	})
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if len(seenBody) != 0 {
		t.Errorf("GET carried a body: %q", seenBody)
	}
}

func TestForwardNormalizesNonJSONAndBadJSON(t *testing.T) {
	t.Run("plain text passes through", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("hello"))
		}))
		defer upstream.Close()

		result, err := Forward(context.Background(), upstream.Client(), ProxyRequest{URL: upstream.URL})
		if err != nil {
			t.Fatalf("Forward() error = %v", err)
		}
		if result.Data != "hello" {
			t.Errorf("Data = %#v, want the raw text", result.Data)
		}
	})

	t.Run("json content type with invalid payload wraps raw text", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte("not json"))
		}))
		defer upstream.Close()

		result, err := Forward(context.Background(), upstream.Client(), ProxyRequest{URL: upstream.URL})
		if err != nil {
			t.Fatalf("Forward() error = %v", err)
		}
		data, ok := result.Data.(map[string]any)
		if !ok || data["raw"] != "not json" {
			t.Errorf("Data = %#v, want {raw: \"not json\"}", result.Data)
		}
	})
}

func TestForwardTransportError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := upstream.URL
	upstream.Close()

	_, err := Forward(context.Background(), http.DefaultClient, ProxyRequest{URL: target})
	if err == nil {
		t.Fatal("Forward() against a closed upstream succeeded, want transport error")
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		t.Errorf("transport failure surfaced as ValidationError: %v", err)
	}
}
