package models

import (
	"database/sql"
)

// NullString is a helper function to create a sql.NullString from a string.
// If the input string is empty, it returns a NullString with Valid set to false.
// Otherwise, it returns a NullString with the given string and Valid set to true.
func NullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{String: "", Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// Cell types. A request cell holds an executable HTTP request
// definition; a markdown cell holds free-form notes.
const (
	CellTypeRequest  = "request"
	CellTypeMarkdown = "markdown"
)

// Notebook is a named, ordered collection of cells.
type Notebook struct {
	ID        int64  `json:"id" readOnly:"true"`
	Name      string `json:"name" binding:"required"`
	CreatedAt int64  `json:"created_at" readOnly:"true"` // Unix milliseconds
	UpdatedAt int64  `json:"updated_at" readOnly:"true"`
}

// Cell is a single notebook entry. notebook_id is nullable only for
// records written before notebooks existed; the v3 migration
// back-fills it.
type Cell struct {
	ID         int64          `json:"id" readOnly:"true"`
	NotebookID sql.NullInt64  `json:"notebook_id,omitempty" swaggertype:"integer"`
	Type       string         `json:"type" enum:"request,markdown" binding:"required"`
	Title      sql.NullString `json:"title,omitempty" swaggertype:"string"`
	OrderIndex int64          `json:"order_index"`
	// request specific
	Method      sql.NullString `json:"method,omitempty" example:"GET" swaggertype:"string"`
	Path        sql.NullString `json:"path,omitempty" example:"/health" swaggertype:"string"`
	HeadersJSON sql.NullString `json:"headers_json,omitempty" swaggertype:"string"`
	BodyText    sql.NullString `json:"body_text,omitempty" swaggertype:"string"`
	// markdown specific
	Markdown  sql.NullString `json:"markdown,omitempty" swaggertype:"string"`
	CreatedAt int64          `json:"created_at" readOnly:"true"`
	UpdatedAt int64          `json:"updated_at" readOnly:"true"`
}

// Run is one immutable record of a request execution. Inserted, never
// updated. Status 0 means the transport failed before any HTTP status
// was received.
type Run struct {
	ID              int64          `json:"id" readOnly:"true"`
	CellID          int64          `json:"cell_id"`
	Status          int            `json:"status"`
	ResponseHeaders sql.NullString `json:"response_headers,omitempty" swaggertype:"string"` // JSON object text
	ResponseData    sql.NullString `json:"response_data,omitempty" swaggertype:"string"`    // JSON text
	CreatedAt       int64          `json:"created_at" readOnly:"true"`
	// originating request context, captured so comparisons do not
	// re-derive from a possibly mutated cell
	RequestMethod      sql.NullString `json:"request_method,omitempty" swaggertype:"string"`
	RequestPath        sql.NullString `json:"request_path,omitempty" swaggertype:"string"`
	RequestURL         sql.NullString `json:"request_url,omitempty" swaggertype:"string"`
	RequestHeadersJSON sql.NullString `json:"request_headers_json,omitempty" swaggertype:"string"`
	RequestBodyText    sql.NullString `json:"request_body_text,omitempty" swaggertype:"string"`
}

// Preset is a reusable request template independent of any notebook.
type Preset struct {
	ID          int64          `json:"id" readOnly:"true"`
	Name        string         `json:"name" binding:"required"`
	Method      string         `json:"method" example:"GET"`
	Path        string         `json:"path" example:"/insights/industry"`
	QueryValues sql.NullString `json:"query_values,omitempty" swaggertype:"string"` // JSON object text
	HeadersJSON sql.NullString `json:"headers_json,omitempty" swaggertype:"string"`
	BodyText    sql.NullString `json:"body_text,omitempty" swaggertype:"string"`
	CreatedAt   int64          `json:"created_at" readOnly:"true"`
}

// CaptureEntry is one request/response exchange observed by the
// capture relay.
type CaptureEntry struct {
	ID                  int64          `json:"id" readOnly:"true"`
	ExchangeID          string         `json:"exchange_id"`
	Method              string         `json:"method"`
	URL                 string         `json:"url"`
	Status              int            `json:"status"`
	RequestHeaders      sql.NullString `json:"request_headers,omitempty" swaggertype:"string"`
	ResponseHeaders     sql.NullString `json:"response_headers,omitempty" swaggertype:"string"`
	ResponseContentType sql.NullString `json:"response_content_type,omitempty" swaggertype:"string"`
	CreatedAt           int64          `json:"created_at" readOnly:"true"`
}
