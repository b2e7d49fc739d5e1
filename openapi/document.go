// Package openapi extracts a narrow, duck-typed view of an OpenAPI
// or Swagger document: just enough to list operations and build
// request cells from them. No schema validation is attempted; the
// document is traversed with gjson and anything missing is simply
// omitted.
package openapi

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Parameter is the slimmed-down description of one operation
// parameter.
type Parameter struct {
	Name     string   `json:"name"`
	In       string   `json:"in"`
	Required bool     `json:"required"`
	Enum     []string `json:"enum,omitempty"`
	Default  string   `json:"default,omitempty"`
	Format   string   `json:"format,omitempty"`
}

// Operation is one method+path pair from the document's paths object.
type Operation struct {
	Method         string      `json:"method"`
	Path           string      `json:"path"`
	Summary        string      `json:"summary,omitempty"`
	Parameters     []Parameter `json:"parameters"`
	HasRequestBody bool        `json:"hasRequestBody"`
}

var httpMethods = map[string]bool{
	"get":     true,
	"put":     true,
	"post":    true,
	"delete":  true,
	"patch":   true,
	"head":    true,
	"options": true,
}

// ExtractOperations walks the document's paths object and returns
// every operation, sorted by path then method. Path-level parameters
// are merged into each operation. Both OpenAPI 3 (schema.enum,
// requestBody) and Swagger 2 (inline enum, in=body) shapes are
// understood.
func ExtractOperations(document []byte) ([]Operation, error) {
	paths := gjson.GetBytes(document, "paths")
	if !paths.Exists() || !paths.IsObject() {
		return nil, fmt.Errorf("document has no 'paths' object")
	}

	var operations []Operation
	paths.ForEach(func(pathKey, pathItem gjson.Result) bool {
		pathLevelParams := extractParameters(pathItem.Get("parameters"))

		pathItem.ForEach(func(methodKey, op gjson.Result) bool {
			method := strings.ToLower(methodKey.String())
			if !httpMethods[method] {
				return true
			}

			params := append([]Parameter{}, pathLevelParams...)
			params = append(params, extractParameters(op.Get("parameters"))...)

			hasBody := op.Get("requestBody").Exists()
			for _, p := range params {
				if p.In == "body" {
					hasBody = true
				}
			}

			operations = append(operations, Operation{
				Method:         strings.ToUpper(method),
				Path:           pathKey.String(),
				Summary:        op.Get("summary").String(),
				Parameters:     params,
				HasRequestBody: hasBody,
			})
			return true
		})
		return true
	})

	sort.Slice(operations, func(i, j int) bool {
		if operations[i].Path != operations[j].Path {
			return operations[i].Path < operations[j].Path
		}
		return operations[i].Method < operations[j].Method
	})
	return operations, nil
}

func extractParameters(list gjson.Result) []Parameter {
	if !list.IsArray() {
		return nil
	}
	var params []Parameter
	list.ForEach(func(_, raw gjson.Result) bool {
		param := Parameter{
			Name:     raw.Get("name").String(),
			In:       raw.Get("in").String(),
			Required: raw.Get("required").Bool(),
		}
		if param.Name == "" {
			return true
		}

		// OpenAPI 3 nests these under schema; Swagger 2 puts them
		// directly on the parameter.
		schema := raw.Get("schema")
		enumSource := schema.Get("enum")
		if !enumSource.Exists() {
			enumSource = raw.Get("enum")
		}
		enumSource.ForEach(func(_, v gjson.Result) bool {
			param.Enum = append(param.Enum, v.String())
			return true
		})

		if def := schema.Get("default"); def.Exists() {
			param.Default = def.String()
		} else if def := raw.Get("default"); def.Exists() {
			param.Default = def.String()
		}

		if format := schema.Get("format"); format.Exists() {
			param.Format = format.String()
		} else if format := raw.Get("format"); format.Exists() {
			param.Format = format.String()
		}

		params = append(params, param)
		return true
	})
	return params
}

// BuildPath substitutes {name} path template segments with escaped
// values and renders non-empty query values into the query string.
// Unfilled template segments are left as-is so the gap is visible in
// the resulting cell.
func BuildPath(pathTemplate string, pathValues, queryValues map[string]string) string {
	built := pathTemplate
	for name, value := range pathValues {
		if value == "" {
			continue
		}
		built = strings.ReplaceAll(built, "{"+name+"}", url.PathEscape(value))
	}

	query := url.Values{}
	for name, value := range queryValues {
		if value == "" {
			continue
		}
		query.Set(name, value)
	}
	if encoded := query.Encode(); encoded != "" {
		built += "?" + encoded
	}
	return built
}
