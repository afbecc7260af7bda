package models

import (
	"strings"
	"time"
)

// Parameter locations
const (
	InPath   = "path"
	InQuery  = "query"
	InHeader = "header"
	InCookie = "cookie"
)

// Endpoint is the canonical, format-agnostic representation of one API
// operation. Every spec parser (OpenAPI, Postman, cURL) produces this shape,
// and the reconciliation engine operates on nothing else.
type Endpoint struct {
	ID          string    `json:"id"`
	SpecID      string    `json:"specId"`
	Method      string    `json:"method"` // Uppercase HTTP verb
	Path        string    `json:"path"`   // May contain {param} templates
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OperationID string    `json:"operationId"`
	Tags        []string  `json:"tags"`
	Request     Request   `json:"request"`
	Responses   Responses `json:"responses"`
	Auth        *Auth     `json:"auth,omitempty"`
	Deprecated  bool      `json:"deprecated"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Key returns the natural identity of an endpoint within a spec:
// uppercase method plus case-sensitive path.
func (e *Endpoint) Key() string {
	return strings.ToUpper(e.Method) + " " + e.Path
}

// Request describes the request side of an endpoint.
type Request struct {
	ContentType string      `json:"contentType,omitempty"`
	Parameters  []Parameter `json:"parameters,omitempty"`
	Body        []*Field    `json:"body,omitempty"` // Body schema fields, nil if no body
}

// Responses groups the success response and the error responses of an endpoint.
type Responses struct {
	Success *Response  `json:"success,omitempty"`
	Errors  []Response `json:"errors,omitempty"`
}

// Response describes one response variant.
type Response struct {
	Status      int      `json:"status"`
	ContentType string   `json:"contentType,omitempty"`
	Description string   `json:"description,omitempty"`
	Example     string   `json:"example,omitempty"`
	Fields      []*Field `json:"fields,omitempty"`
}

// Parameter is a canonical request parameter.
// Parameters with In == InPath are always required.
type Parameter struct {
	Name        string        `json:"name"`
	In          string        `json:"in"` // path, query, header, cookie
	Type        string        `json:"type"`
	Required    bool          `json:"required"`
	Description string        `json:"description,omitempty"`
	Example     interface{}   `json:"example,omitempty"`
	Enum        []interface{} `json:"enum,omitempty"`
	Pattern     string        `json:"pattern,omitempty"`
	Min         *float64      `json:"min,omitempty"`
	Max         *float64      `json:"max,omitempty"`
	Default     interface{}   `json:"default,omitempty"`
	Format      string        `json:"format,omitempty"`
	Items       *Field        `json:"items,omitempty"` // Element schema when Type == "array"
}

// Field is a body or response schema field. Properties and Items may link
// back into the graph (resolved self-referential $ref chains), so every
// traversal must carry a visited set.
type Field struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Required    bool        `json:"required"`
	Description string      `json:"description,omitempty"`
	Format      string      `json:"format,omitempty"`
	Example     interface{} `json:"example,omitempty"`
	Properties  []*Field    `json:"properties,omitempty"` // When Type == "object"
	Items       *Field      `json:"items,omitempty"`      // When Type == "array"
}

// Auth describes the authentication scheme of an endpoint.
type Auth struct {
	Type   string `json:"type"`             // apiKey, http, oauth2, openIdConnect
	Scheme string `json:"scheme,omitempty"` // bearer, basic (for type http)
	In     string `json:"in,omitempty"`     // header, query, cookie (for type apiKey)
	Name   string `json:"name,omitempty"`   // Header/query name (for type apiKey)
}
