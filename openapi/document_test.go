package openapi

import (
	"strings"
	"testing"
)

const sampleV3Doc = `{
  "openapi": "3.0.0",
  "paths": {
    "/widgets/{id}": {
      "parameters": [
        {"name": "id", "in": "path", "required": true, "schema": {"format": "int64"}}
      ],
      "get": {
        "summary": "Get one widget",
        "parameters": [
          {"name": "verbose", "in": "query", "schema": {"enum": ["yes", "no"], "default": "no"}}
        ]
      },
      "delete": {}
    },
    "/widgets": {
      "post": {
        "summary": "Create a widget",
        "requestBody": {"content": {"application/json": {}}}
      }
    }
  }
}`

func TestExtractOperations(t *testing.T) {
	operations, err := ExtractOperations([]byte(sampleV3Doc))
	if err != nil {
		t.Fatalf("ExtractOperations() error = %v", err)
	}
	if len(operations) != 3 {
		t.Fatalf("got %d operations, want 3", len(operations))
	}

	// Sorted by path, then method.
	if operations[0].Method != "POST" || operations[0].Path != "/widgets" {
		t.Errorf("operations[0] = %s %s, want POST /widgets", operations[0].Method, operations[0].Path)
	}
	if !operations[0].HasRequestBody {
		t.Error("POST /widgets should report hasRequestBody")
	}

	get := operations[2]
	if get.Method != "GET" || get.Path != "/widgets/{id}" {
		t.Fatalf("operations[2] = %s %s, want GET /widgets/{id}", get.Method, get.Path)
	}
	if get.Summary != "Get one widget" {
		t.Errorf("summary = %q", get.Summary)
	}
	if len(get.Parameters) != 2 {
		t.Fatalf("got %d parameters, want path-level id merged with verbose", len(get.Parameters))
	}
	id := get.Parameters[0]
	if id.Name != "id" || id.In != "path" || !id.Required || id.Format != "int64" {
		t.Errorf("id parameter = %+v", id)
	}
	verbose := get.Parameters[1]
	if verbose.Name != "verbose" || verbose.Default != "no" || len(verbose.Enum) != 2 {
		t.Errorf("verbose parameter = %+v", verbose)
	}
}

func TestExtractOperationsSwagger2Body(t *testing.T) {
	doc := `{
	  "swagger": "2.0",
	  "paths": {
	    "/things": {
	      "post": {
	        "parameters": [
	          {"name": "payload", "in": "body", "required": true},
	          {"name": "kind", "in": "query", "enum": ["a", "b"], "default": "a"}
	        ]
	      }
	    }
	  }
	}`
	operations, err := ExtractOperations([]byte(doc))
	if err != nil {
		t.Fatalf("ExtractOperations() error = %v", err)
	}
	if len(operations) != 1 {
		t.Fatalf("got %d operations, want 1", len(operations))
	}
	if !operations[0].HasRequestBody {
		t.Error("in=body parameter should imply hasRequestBody")
	}
	var kind *Parameter
	for i := range operations[0].Parameters {
		if operations[0].Parameters[i].Name == "kind" {
			kind = &operations[0].Parameters[i]
		}
	}
	if kind == nil || len(kind.Enum) != 2 || kind.Default != "a" {
		t.Errorf("kind parameter = %+v, want inline enum and default picked up", kind)
	}
}

func TestExtractOperationsRejectsNonDocuments(t *testing.T) {
	for _, doc := range []string{`{}`, `[]`, `{"paths": 3}`, `not json`} {
		if _, err := ExtractOperations([]byte(doc)); err == nil {
			t.Errorf("ExtractOperations(%q) succeeded, want error", doc)
		}
	}
}

func TestBuildPath(t *testing.T) {
	tests := []struct {
		name     string
		template string
		path     map[string]string
		query    map[string]string
		want     string
	}{
		{
			name:     "substitutes and escapes path values",
			template: "/widgets/{id}/parts/{part}",
			path:     map[string]string{"id": "42", "part": "a b"},
			want:     "/widgets/42/parts/a%20b",
		},
		{
			name:     "skips empty query values",
			template: "/widgets",
			query:    map[string]string{"verbose": "yes", "empty": ""},
			want:     "/widgets?verbose=yes",
		},
		{
			name:     "leaves unfilled segments visible",
			template: "/widgets/{id}",
			want:     "/widgets/{id}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPath(tt.template, tt.path, tt.query)
			if got != tt.want {
				t.Errorf("BuildPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildPathMultipleQueryValuesSorted(t *testing.T) {
	got := BuildPath("/w", nil, map[string]string{"b": "2", "a": "1"})
	if !strings.HasPrefix(got, "/w?") || got != "/w?a=1&b=2" {
		t.Errorf("BuildPath() = %q, want deterministic encoded query", got)
	}
}
