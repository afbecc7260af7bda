package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/tandt53/apilot/internal/models"
)

// Supported source document formats
const (
	FormatOpenAPI = "openapi"
	FormatPostman = "postman"
	FormatCurl    = "curl"
)

// ParseResult contains the parsed spec and its endpoints
type ParseResult struct {
	Spec      *models.Spec
	Endpoints []*models.Endpoint
}

// Parser detects the format of an uploaded document and delegates to the
// format-specific parser.
type Parser struct {
	openapi *OpenAPIParser
	postman *PostmanParser
	curl    *CurlParser
}

// New creates a parser covering all supported formats
func New() *Parser {
	return &Parser{
		openapi: NewOpenAPIParser(),
		postman: NewPostmanParser(),
		curl:    NewCurlParser(),
	}
}

// Parse converts a source document into the canonical spec + endpoint model.
// The filename is only a hint for format detection and may be empty.
func (p *Parser) Parse(content, filename string) (*ParseResult, error) {
	switch DetectFormat(content, filename) {
	case FormatOpenAPI:
		return p.openapi.Parse(content)
	case FormatPostman:
		return p.postman.Parse(content)
	case FormatCurl:
		return p.curl.Parse(content)
	default:
		return nil, fmt.Errorf("unrecognized document format (file %q)", filename)
	}
}

// DetectFormat sniffs the document content, falling back to the filename
// extension. An empty string means the format could not be determined.
func DetectFormat(content, filename string) string {
	trimmed := strings.TrimSpace(content)

	if strings.HasPrefix(trimmed, "curl ") || strings.HasPrefix(trimmed, "curl\t") || trimmed == "curl" {
		return FormatCurl
	}

	if gjson.Valid(trimmed) {
		doc := gjson.Parse(trimmed)
		if doc.Get("info._postman_id").Exists() ||
			strings.Contains(doc.Get("info.schema").String(), "getpostman.com") {
			return FormatPostman
		}
		if doc.Get("openapi").Exists() || doc.Get("swagger").Exists() {
			return FormatOpenAPI
		}
		return ""
	}

	// YAML OpenAPI documents carry a top-level openapi or swagger key
	for _, line := range strings.Split(trimmed, "\n") {
		if strings.HasPrefix(line, "openapi:") || strings.HasPrefix(line, "swagger:") {
			return FormatOpenAPI
		}
	}

	if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return FormatOpenAPI
	}
	return ""
}

// newSpec builds the spec row shared by all format parsers. A fresh spec
// starts its own version group.
func newSpec(format, content string) *models.Spec {
	now := time.Now()
	id := uuid.New().String()
	return &models.Spec{
		ID:           id,
		Format:       format,
		RawSpec:      content,
		VersionGroup: id,
		IsLatest:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// fieldsFromJSON derives a field schema from a concrete JSON object, keeping
// the values as examples. Non-object documents produce no schema.
func fieldsFromJSON(value gjson.Result) []*models.Field {
	if !value.IsObject() {
		return nil
	}
	fields := make([]*models.Field, 0)
	value.ForEach(func(key, v gjson.Result) bool {
		fields = append(fields, jsonField(key.String(), v))
		return true
	})
	return fields
}

func jsonField(name string, v gjson.Result) *models.Field {
	f := &models.Field{Name: name}

	switch {
	case v.IsObject():
		f.Type = "object"
		f.Properties = fieldsFromJSON(v)
	case v.IsArray():
		f.Type = "array"
		if arr := v.Array(); len(arr) > 0 {
			f.Items = jsonField(name, arr[0])
		}
	case v.Type == gjson.String:
		f.Type = "string"
		f.Example = v.String()
	case v.Type == gjson.Number:
		num := v.Float()
		if num == float64(int64(num)) {
			f.Type = "integer"
		} else {
			f.Type = "number"
		}
		f.Example = num
	case v.Type == gjson.True || v.Type == gjson.False:
		f.Type = "boolean"
		f.Example = v.Bool()
	}
	// JSON null carries no type information

	return f
}

// sanitizePath converts a path template to a valid identifier
func sanitizePath(pathPattern string) string {
	result := strings.ReplaceAll(pathPattern, "{", "")
	result = strings.ReplaceAll(result, "}", "")
	result = strings.ReplaceAll(result, "/", "_")
	result = strings.TrimPrefix(result, "_")
	result = strings.TrimSuffix(result, "_")
	return result
}
