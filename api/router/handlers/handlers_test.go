package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"reqbook/config"
	"reqbook/database"
	"reqbook/models"

	"github.com/go-chi/chi/v5"
)

// newTestAPI initializes a fresh database and returns a router with
// every route registered, mirroring api.NewRouter.
func newTestAPI(t *testing.T) *chi.Mux {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "handlers_test.db")
	if err := database.InitDB(dbPath); err != nil {
		t.Fatalf("InitDB(%q) failed: %v", dbPath, err)
	}
	t.Cleanup(func() {
		database.DB.Close()
	})
	config.AppConfig.Backend.DefaultBaseURL = ""

	router := chi.NewRouter()
	RegisterHealthRoutes(router)
	RegisterVersionRoutes(router)
	RegisterNotebookRoutes(router)
	RegisterCellRoutes(router)
	RegisterPresetRoutes(router)
	RegisterProxyRoutes(router)
	RegisterSettingsRoutes(router)
	RegisterOpenAPIRoutes(router)
	RegisterCaptureRoutes(router)
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", recorder.Body.String(), err)
	}
}

func TestHealthAndVersion(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "true") {
		t.Errorf("GET /health = %d %q", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/version", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "version") {
		t.Errorf("GET /version = %d %q", rec.Code, rec.Body.String())
	}
}

func TestNotebookAndCellLifecycle(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/notebooks", map[string]string{"name": "API Exploration"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /notebooks = %d %q", rec.Code, rec.Body.String())
	}
	var notebook models.Notebook
	decodeBody(t, rec, &notebook)

	// Creating a request cell with no fields picks the defaults.
	rec = doJSON(t, router, http.MethodPost,
		"/notebooks/"+itoa(notebook.ID)+"/cells", map[string]string{"type": "request"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST cells = %d %q", rec.Code, rec.Body.String())
	}
	var first struct {
		ID         int64  `json:"id"`
		Method     string `json:"method"`
		Path       string `json:"path"`
		OrderIndex int64  `json:"order_index"`
	}
	decodeBody(t, rec, &first)
	if first.Method != "GET" || first.Path != "/health" {
		t.Errorf("request cell defaults = %s %s, want GET /health", first.Method, first.Path)
	}
	if first.OrderIndex != 1 {
		t.Errorf("first cell order_index = %d, want 1", first.OrderIndex)
	}

	rec = doJSON(t, router, http.MethodPost,
		"/notebooks/"+itoa(notebook.ID)+"/cells", map[string]string{"type": "markdown"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST markdown cell = %d %q", rec.Code, rec.Body.String())
	}
	var second struct {
		ID         int64  `json:"id"`
		Markdown   string `json:"markdown"`
		OrderIndex int64  `json:"order_index"`
	}
	decodeBody(t, rec, &second)
	if second.Markdown != "## Notes" {
		t.Errorf("markdown default = %q, want '## Notes'", second.Markdown)
	}
	if second.OrderIndex != 2 {
		t.Errorf("second cell order_index = %d, want 2", second.OrderIndex)
	}

	// Reorder swaps the two cells.
	rec = doJSON(t, router, http.MethodPost,
		"/notebooks/"+itoa(notebook.ID)+"/cells/reorder",
		map[string]int64{"dragged_id": first.ID, "target_id": second.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST reorder = %d %q", rec.Code, rec.Body.String())
	}
	var cells []struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, rec, &cells)
	if len(cells) != 2 || cells[0].ID != second.ID {
		t.Errorf("after reorder, first cell = %+v, want the markdown cell first", cells)
	}

	// Markdown rendering.
	rec = doJSON(t, router, http.MethodGet, "/cells/"+itoa(second.ID)+"/rendered", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "h2") {
		t.Errorf("GET rendered = %d %q", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodGet, "/cells/"+itoa(first.ID)+"/rendered", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET rendered on request cell = %d, want 400", rec.Code)
	}

	// Delete the notebook; its cells disappear.
	rec = doJSON(t, router, http.MethodDelete, "/notebooks/"+itoa(notebook.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE notebook = %d %q", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodGet, "/cells/"+itoa(first.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted cell = %d, want 404", rec.Code)
	}
}

func TestRunCellEndpoint(t *testing.T) {
	router := newTestAPI(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pong": true}`))
	}))
	defer upstream.Close()

	rec := doJSON(t, router, http.MethodPut, "/settings", map[string]string{"base_url": upstream.URL})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /settings = %d %q", rec.Code, rec.Body.String())
	}

	notebooks, err := database.GetAllNotebooks()
	if err != nil || len(notebooks) == 0 {
		t.Fatalf("expected default notebook: %v", err)
	}
	rec = doJSON(t, router, http.MethodPost,
		"/notebooks/"+itoa(notebooks[0].ID)+"/cells",
		map[string]string{"type": "request", "path": "/ping"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST cell = %d %q", rec.Code, rec.Body.String())
	}
	var cell struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, rec, &cell)

	rec = doJSON(t, router, http.MethodPost, "/cells/"+itoa(cell.ID)+"/run", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST run = %d %q", rec.Code, rec.Body.String())
	}
	var run struct {
		Status       int    `json:"status"`
		ResponseData string `json:"response_data"`
	}
	decodeBody(t, rec, &run)
	if run.Status != http.StatusOK || !strings.Contains(run.ResponseData, "pong") {
		t.Errorf("run = %+v, want status 200 with the upstream payload", run)
	}

	rec = doJSON(t, router, http.MethodGet, "/cells/"+itoa(cell.ID)+"/runs/latest", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET runs/latest = %d %q", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/compare?cells="+itoa(cell.ID)+",99999", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /compare = %d %q", rec.Code, rec.Body.String())
	}
	var entries []struct {
		CellID int64            `json:"cell_id"`
		Run    *json.RawMessage `json:"run"`
	}
	decodeBody(t, rec, &entries)
	if len(entries) != 2 || entries[0].Run == nil || entries[1].Run != nil {
		t.Errorf("compare entries = %+v, want a run for the first id and null for the unknown id", entries)
	}
}

func TestProxyEndpoint(t *testing.T) {
	router := newTestAPI(t)

	t.Run("non-POST gets 405 with Allow header", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/proxy", nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("GET /proxy = %d, want 405", rec.Code)
		}
		if rec.Header().Get("Allow") != http.MethodPost {
			t.Errorf("Allow header = %q, want POST", rec.Header().Get("Allow"))
		}
	})

	t.Run("validation failure is a 400 with error payload", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/proxy", map[string]string{"path": "/x"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("POST /proxy = %d %q, want 400", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "error") {
			t.Errorf("body = %q, want an error payload", rec.Body.String())
		}
	})

	t.Run("forwards and rides on the upstream status", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"missing": true}`))
		}))
		defer upstream.Close()

		rec := doJSON(t, router, http.MethodPost, "/proxy", map[string]any{
			"baseUrl": upstream.URL,
			"path":    "/nothing",
		})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("POST /proxy = %d, want the upstream 404", rec.Code)
		}
		var envelope struct {
			Status  int               `json:"status"`
			Headers map[string]string `json:"headers"`
			Data    map[string]any    `json:"data"`
		}
		decodeBody(t, rec, &envelope)
		if envelope.Status != http.StatusNotFound || envelope.Data["missing"] != true {
			t.Errorf("envelope = %+v", envelope)
		}
		if envelope.Headers["content-type"] == "" {
			t.Error("upstream headers missing from the envelope")
		}
	})
}

func TestSettingsRoundTrip(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPut, "/settings", map[string]any{
		"base_url":     "http://localhost:8080",
		"theme":        "dark",
		"sidebar_open": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /settings = %d %q", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /settings = %d %q", rec.Code, rec.Body.String())
	}
	var prefs struct {
		BaseURL     *string `json:"base_url"`
		Theme       *string `json:"theme"`
		SidebarOpen *bool   `json:"sidebar_open"`
		UseProxy    *bool   `json:"use_proxy"`
	}
	decodeBody(t, rec, &prefs)
	if prefs.BaseURL == nil || *prefs.BaseURL != "http://localhost:8080" {
		t.Errorf("base_url = %v", prefs.BaseURL)
	}
	if prefs.Theme == nil || *prefs.Theme != "dark" {
		t.Errorf("theme = %v", prefs.Theme)
	}
	if prefs.SidebarOpen == nil || *prefs.SidebarOpen != false {
		t.Errorf("sidebar_open = %v", prefs.SidebarOpen)
	}
	if prefs.UseProxy != nil {
		t.Errorf("use_proxy = %v, want omitted when never set", prefs.UseProxy)
	}
}

func TestPresetInsert(t *testing.T) {
	router := newTestAPI(t)

	notebooks, err := database.GetAllNotebooks()
	if err != nil || len(notebooks) == 0 {
		t.Fatalf("expected default notebook: %v", err)
	}
	rec := doJSON(t, router, http.MethodPut, "/notebooks/active",
		map[string]int64{"notebook_id": notebooks[0].ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /notebooks/active = %d %q", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/presets", map[string]string{
		"name":         "Industry insights",
		"method":       "get",
		"path":         "/insights/industry",
		"query_values": `{"region": "emea", "blank": ""}`,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /presets = %d %q", rec.Code, rec.Body.String())
	}
	var preset models.Preset
	decodeBody(t, rec, &preset)
	if preset.Method != "GET" {
		t.Errorf("preset method = %q, want upper-cased GET", preset.Method)
	}

	rec = doJSON(t, router, http.MethodPost, "/presets/"+itoa(preset.ID)+"/insert", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST insert = %d %q", rec.Code, rec.Body.String())
	}
	var cell struct {
		Title string `json:"title"`
		Path  string `json:"path"`
	}
	decodeBody(t, rec, &cell)
	if cell.Title != "Industry insights" {
		t.Errorf("cell title = %q, want the preset name", cell.Title)
	}
	if cell.Path != "/insights/industry?region=emea" {
		t.Errorf("cell path = %q, want query values rendered with blanks skipped", cell.Path)
	}
}

func TestCaptureToCell(t *testing.T) {
	router := newTestAPI(t)

	notebooks, err := database.GetAllNotebooks()
	if err != nil || len(notebooks) == 0 {
		t.Fatalf("expected default notebook: %v", err)
	}
	entryID, err := database.InsertCaptureEntry(models.CaptureEntry{
		ExchangeID:     "exchange-7",
		Method:         "GET",
		URL:            "http://backend.local/widgets?limit=5",
		Status:         200,
		RequestHeaders: models.NullString(`{"Accept": ["application/json"]}`),
	})
	if err != nil {
		t.Fatalf("InsertCaptureEntry() failed: %v", err)
	}

	rec := doJSON(t, router, http.MethodGet, "/capture", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "exchange-7") {
		t.Errorf("GET /capture = %d %q", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/capture/"+itoa(entryID)+"/to-cell",
		map[string]int64{"notebook_id": notebooks[0].ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST to-cell = %d %q", rec.Code, rec.Body.String())
	}
	var cell struct {
		Method      string `json:"method"`
		Path        string `json:"path"`
		HeadersJSON string `json:"headers_json"`
	}
	decodeBody(t, rec, &cell)
	if cell.Method != "GET" || cell.Path != "http://backend.local/widgets?limit=5" {
		t.Errorf("cell = %+v, want the captured method and full URL", cell)
	}
	if !strings.Contains(cell.HeadersJSON, "application/json") {
		t.Errorf("headers_json = %q, want flattened captured headers", cell.HeadersJSON)
	}
}

func TestOpenAPILoadAndToCell(t *testing.T) {
	router := newTestAPI(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"openapi": "3.0.0", "paths": {"/widgets/{id}": {"get": {"summary": "One widget"}}}}`))
	}))
	defer upstream.Close()

	rec := doJSON(t, router, http.MethodPost, "/openapi/load", map[string]string{"url": upstream.URL + "/openapi.json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /openapi/load = %d %q", rec.Code, rec.Body.String())
	}
	var loaded struct {
		Operations []struct {
			Method string `json:"method"`
			Path   string `json:"path"`
		} `json:"operations"`
	}
	decodeBody(t, rec, &loaded)
	if len(loaded.Operations) != 1 || loaded.Operations[0].Method != "GET" {
		t.Errorf("operations = %+v", loaded.Operations)
	}

	notebooks, err := database.GetAllNotebooks()
	if err != nil || len(notebooks) == 0 {
		t.Fatalf("expected default notebook: %v", err)
	}
	rec = doJSON(t, router, http.MethodPost, "/openapi/to-cell", map[string]any{
		"notebook_id":  notebooks[0].ID,
		"method":       "GET",
		"path":         "/widgets/{id}",
		"path_values":  map[string]string{"id": "42"},
		"query_values": map[string]string{"verbose": "yes"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /openapi/to-cell = %d %q", rec.Code, rec.Body.String())
	}
	var cell struct {
		Path  string `json:"path"`
		Title string `json:"title"`
	}
	decodeBody(t, rec, &cell)
	if cell.Path != "/widgets/42?verbose=yes" {
		t.Errorf("cell path = %q", cell.Path)
	}
	if cell.Title != "GET /widgets/42?verbose=yes" {
		t.Errorf("cell title = %q", cell.Title)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
