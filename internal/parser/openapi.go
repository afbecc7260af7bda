package parser

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"

	"github.com/tandt53/apilot/internal/models"
)

// OpenAPIParser converts OpenAPI 3 documents into the canonical endpoint
// model. References are resolved by the loader, so recursive schemas arrive
// here as cyclic schema graphs; the converter preserves them as cyclic field
// graphs instead of unrolling.
type OpenAPIParser struct{}

// NewOpenAPIParser creates a new OpenAPI parser
func NewOpenAPIParser() *OpenAPIParser {
	return &OpenAPIParser{}
}

var methodOrder = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

// Parse parses and validates an OpenAPI 3 document
func (p *OpenAPIParser) Parse(content string) (*ParseResult, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromData([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	spec := newSpec(FormatOpenAPI, content)
	if doc.Info != nil {
		spec.Name = doc.Info.Title
		spec.Version = doc.Info.Version
		spec.Description = doc.Info.Description
	}

	return &ParseResult{
		Spec:      spec,
		Endpoints: p.extractEndpoints(doc, spec.ID),
	}, nil
}

// extractEndpoints walks every path/method pair in deterministic order
func (p *OpenAPIParser) extractEndpoints(doc *openapi3.T, specID string) []*models.Endpoint {
	endpoints := make([]*models.Endpoint, 0)
	if doc.Paths == nil {
		return endpoints
	}

	paths := doc.Paths.Map()
	patterns := make([]string, 0, len(paths))
	for pattern := range paths {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	for _, pattern := range patterns {
		pathItem := paths[pattern]
		if pathItem == nil {
			continue
		}

		ops := map[string]*openapi3.Operation{
			"GET":     pathItem.Get,
			"POST":    pathItem.Post,
			"PUT":     pathItem.Put,
			"PATCH":   pathItem.Patch,
			"DELETE":  pathItem.Delete,
			"HEAD":    pathItem.Head,
			"OPTIONS": pathItem.Options,
		}
		for _, method := range methodOrder {
			op := ops[method]
			if op == nil {
				continue
			}
			endpoints = append(endpoints, buildEndpoint(doc, specID, method, pattern, pathItem, op))
		}
	}

	return endpoints
}

func buildEndpoint(doc *openapi3.T, specID, method, pattern string, pathItem *openapi3.PathItem, op *openapi3.Operation) *models.Endpoint {
	now := time.Now()

	operationID := op.OperationID
	if operationID == "" {
		operationID = fmt.Sprintf("%s_%s", strings.ToLower(method), sanitizePath(pattern))
	}

	e := &models.Endpoint{
		ID:          uuid.New().String(),
		SpecID:      specID,
		Method:      method,
		Path:        pattern,
		Name:        op.Summary,
		Description: op.Description,
		OperationID: operationID,
		Tags:        op.Tags,
		Deprecated:  op.Deprecated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	e.Request.Parameters = extractParameters(pathItem.Parameters, op.Parameters)
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		e.Request.ContentType, e.Request.Body = extractBody(op.RequestBody.Value.Content)
	}
	e.Responses = extractResponses(op.Responses)
	e.Auth = extractAuth(doc, op)

	return e
}

// extractParameters merges path-item parameters with operation parameters.
// An operation-level parameter overrides a path-level one with the same
// name and location.
func extractParameters(shared, own openapi3.Parameters) []models.Parameter {
	overridden := make(map[string]bool, len(own))
	for _, ref := range own {
		if ref != nil && ref.Value != nil {
			overridden[ref.Value.Name+"|"+ref.Value.In] = true
		}
	}

	params := make([]models.Parameter, 0, len(shared)+len(own))
	for _, ref := range shared {
		if ref == nil || ref.Value == nil || overridden[ref.Value.Name+"|"+ref.Value.In] {
			continue
		}
		params = append(params, convertParameter(ref.Value))
	}
	for _, ref := range own {
		if ref == nil || ref.Value == nil {
			continue
		}
		params = append(params, convertParameter(ref.Value))
	}
	return params
}

func convertParameter(p *openapi3.Parameter) models.Parameter {
	out := models.Parameter{
		Name:        p.Name,
		In:          p.In,
		Required:    p.Required || p.In == models.InPath,
		Description: p.Description,
		Example:     p.Example,
	}

	if p.Schema != nil && p.Schema.Value != nil {
		s := p.Schema.Value
		out.Type = schemaType(s)
		out.Format = s.Format
		out.Enum = s.Enum
		out.Pattern = s.Pattern
		out.Min = s.Min
		out.Max = s.Max
		out.Default = s.Default
		if out.Example == nil {
			out.Example = s.Example
		}
		if out.Type == "array" && s.Items != nil {
			out.Items = schemaToField(p.Name, s.Items, false, make(map[*openapi3.Schema]*models.Field))
		}
	}

	return out
}

// extractBody picks the first JSON media type and converts its schema. A
// body with only non-JSON content keeps its content type but no schema.
func extractBody(content openapi3.Content) (string, []*models.Field) {
	mediaTypes := make([]string, 0, len(content))
	for mt := range content {
		mediaTypes = append(mediaTypes, mt)
	}
	sort.Strings(mediaTypes)

	for _, mt := range mediaTypes {
		if !strings.Contains(mt, "json") {
			continue
		}
		media := content[mt]
		if media == nil || media.Schema == nil || media.Schema.Value == nil {
			return mt, nil
		}
		return mt, topLevelFields(media.Schema.Value)
	}
	if len(mediaTypes) > 0 {
		return mediaTypes[0], nil
	}
	return "", nil
}

// topLevelFields flattens the body schema's object properties into fields
func topLevelFields(s *openapi3.Schema) []*models.Field {
	seen := make(map[*openapi3.Schema]*models.Field)
	required := requiredSet(s.Required)

	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]*models.Field, 0, len(names))
	for _, name := range names {
		if f := schemaToField(name, s.Properties[name], required[name], seen); f != nil {
			fields = append(fields, f)
		}
	}
	return fields
}

// schemaToField converts one schema node, reusing the already-built field
// when the same schema pointer comes around again so cycles stay cycles.
func schemaToField(name string, ref *openapi3.SchemaRef, required bool, seen map[*openapi3.Schema]*models.Field) *models.Field {
	if ref == nil || ref.Value == nil {
		return nil
	}
	s := ref.Value
	if existing, ok := seen[s]; ok {
		return existing
	}

	f := &models.Field{
		Name:        name,
		Required:    required,
		Type:        schemaType(s),
		Format:      s.Format,
		Description: s.Description,
		Example:     s.Example,
	}
	seen[s] = f

	if len(s.Properties) > 0 {
		childRequired := requiredSet(s.Required)
		childNames := make([]string, 0, len(s.Properties))
		for child := range s.Properties {
			childNames = append(childNames, child)
		}
		sort.Strings(childNames)
		for _, child := range childNames {
			if cf := schemaToField(child, s.Properties[child], childRequired[child], seen); cf != nil {
				f.Properties = append(f.Properties, cf)
			}
		}
	}
	if s.Items != nil {
		f.Items = schemaToField(name, s.Items, false, seen)
	}

	return f
}

func extractResponses(responses *openapi3.Responses) models.Responses {
	var out models.Responses
	if responses == nil {
		return out
	}

	byCode := responses.Map()
	codes := make([]int, 0, len(byCode))
	refs := make(map[int]*openapi3.ResponseRef, len(byCode))
	for key, ref := range byCode {
		code, err := strconv.Atoi(key)
		if err != nil || ref == nil || ref.Value == nil {
			continue // "default" and malformed keys carry no status
		}
		codes = append(codes, code)
		refs[code] = ref
	}
	sort.Ints(codes)

	for _, code := range codes {
		value := refs[code].Value

		resp := models.Response{Status: code}
		if value.Description != nil {
			resp.Description = *value.Description
		}
		resp.ContentType, resp.Fields, resp.Example = responseContent(value.Content)

		switch {
		case code >= 200 && code < 300 && out.Success == nil:
			success := resp
			out.Success = &success
		case code >= 400:
			out.Errors = append(out.Errors, resp)
		}
	}

	return out
}

func responseContent(content openapi3.Content) (string, []*models.Field, string) {
	mediaTypes := make([]string, 0, len(content))
	for mt := range content {
		mediaTypes = append(mediaTypes, mt)
	}
	sort.Strings(mediaTypes)

	for _, mt := range mediaTypes {
		if !strings.Contains(mt, "json") {
			continue
		}
		media := content[mt]
		if media == nil {
			continue
		}

		example := ""
		if media.Example != nil {
			example = formatExample(media.Example)
		} else {
			for _, ex := range media.Examples {
				if ex.Value != nil && ex.Value.Value != nil {
					example = formatExample(ex.Value.Value)
					break
				}
			}
		}

		var fields []*models.Field
		if media.Schema != nil && media.Schema.Value != nil {
			fields = topLevelFields(media.Schema.Value)
		}
		return mt, fields, example
	}

	if len(mediaTypes) > 0 {
		return mediaTypes[0], nil, ""
	}
	return "", nil, ""
}

// extractAuth resolves the first security requirement against the document's
// security schemes. Operation-level security overrides the document default;
// an empty operation-level list disables auth entirely.
func extractAuth(doc *openapi3.T, op *openapi3.Operation) *models.Auth {
	requirements := doc.Security
	if op.Security != nil {
		requirements = *op.Security
	}

	for _, req := range requirements {
		names := make([]string, 0, len(req))
		for name := range req {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			scheme := lookupSecurityScheme(doc, name)
			if scheme == nil {
				continue
			}
			return &models.Auth{
				Type:   scheme.Type,
				Scheme: scheme.Scheme,
				In:     scheme.In,
				Name:   scheme.Name,
			}
		}
	}
	return nil
}

func lookupSecurityScheme(doc *openapi3.T, name string) *openapi3.SecurityScheme {
	if doc.Components == nil {
		return nil
	}
	ref, ok := doc.Components.SecuritySchemes[name]
	if !ok || ref == nil {
		return nil
	}
	return ref.Value
}

func schemaType(s *openapi3.Schema) string {
	if s.Type == nil {
		return ""
	}
	types := s.Type.Slice()
	if len(types) == 0 {
		return ""
	}
	return types[0]
}

func requiredSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

// formatExample converts an example value to a JSON string
func formatExample(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		if data, err := json.Marshal(val); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", val)
	}
}
