package reconcile

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tandt53/apilot/internal/models"
)

// Smart defaults fill metadata gaps in endpoints imported from metadata-poor
// sources (cURL, Postman) so the differ compares enriched data rather than
// sparse data. Every rule fires on a non-overlapping name or position
// pattern; value-based refinements never invent a type without an example.

var (
	uuidRe     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	dateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[Tt ]\d{2}:\d{2}:\d{2}`)
	dateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe     = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
)

var apiKeyHeaders = map[string]bool{
	"authorization": true,
	"x-api-key":     true,
	"api-key":       true,
	"apikey":        true,
	"x-api-token":   true,
}

var paginationDefaults = map[string]struct {
	min, max, def float64
	hasMax        bool
}{
	"page":      {min: 1, def: 1},
	"limit":     {min: 1, max: 100, def: 20, hasMax: true},
	"offset":    {min: 0, def: 0},
	"per_page":  {min: 1, max: 100, def: 20, hasMax: true},
	"page_size": {min: 1, max: 100, def: 20, hasMax: true},
	"size":      {min: 1, max: 100, def: 20, hasMax: true},
}

var sortNames = map[string]bool{
	"sort": true, "sort_by": true, "order": true, "order_by": true,
}

var filterNames = map[string]bool{
	"filter": true, "q": true, "query": true, "search": true,
}

// ApplyDefaults returns an enriched copy of an endpoint with heuristic
// metadata filled in. The input is never mutated.
func ApplyDefaults(e *models.Endpoint) *models.Endpoint {
	if e == nil {
		return nil
	}

	enriched := cloneEndpoint(e)

	for i := range enriched.Request.Parameters {
		enrichParameter(&enriched.Request.Parameters[i])
	}

	visited := make(map[*models.Field]bool)
	for _, f := range enriched.Request.Body {
		enrichField(f, visited)
	}
	if enriched.Responses.Success != nil {
		for _, f := range enriched.Responses.Success.Fields {
			enrichField(f, visited)
		}
	}

	if len(enriched.Responses.Errors) == 0 {
		enriched.Responses.Errors = baselineErrorResponses(enriched)
	}

	return enriched
}

// enrichParameter applies every heuristic rule to a single parameter.
func enrichParameter(p *models.Parameter) {
	refineTypeFromExample(&p.Type, p.Example)
	if p.Format == "" {
		p.Format = sniffFormat(p.Example)
	}

	lower := strings.ToLower(p.Name)

	// Identifier names carry numeric IDs more often than not
	if isIdentifierName(lower) {
		if t, ok := numericTypeOf(p.Example); ok {
			p.Type = t
		}
	}

	if pg, ok := paginationDefaults[lower]; ok {
		p.Type = "integer"
		min := pg.min
		p.Min = &min
		if pg.hasMax {
			max := pg.max
			p.Max = &max
		}
		if p.Default == nil {
			p.Default = pg.def
		}
	}

	if sortNames[lower] {
		p.Type = "string"
		p.Required = false
		if p.Description == "" {
			p.Description = "Field and direction to sort results by"
		}
	}
	if filterNames[lower] {
		p.Type = "string"
		p.Required = false
		if p.Description == "" {
			p.Description = "Filter or search expression applied to results"
		}
	}

	if p.In == models.InHeader && apiKeyHeaders[lower] {
		p.Required = true
		if p.Description == "" {
			p.Description = "API authentication credential"
		}
	}

	// Path parameters are always required
	if p.In == models.InPath {
		p.Required = true
	}
}

// enrichField applies the value-based rules to a body or response field and
// recurses through the schema, cycle-guarded.
func enrichField(f *models.Field, visited map[*models.Field]bool) {
	if f == nil || visited[f] {
		return
	}
	visited[f] = true

	refineTypeFromExample(&f.Type, f.Example)
	if f.Format == "" {
		f.Format = sniffFormat(f.Example)
	}
	if isIdentifierName(strings.ToLower(f.Name)) {
		if t, ok := numericTypeOf(f.Example); ok {
			f.Type = t
		}
	}

	for _, p := range f.Properties {
		enrichField(p, visited)
	}
	enrichField(f.Items, visited)
}

// isIdentifierName matches id, *_id and *id.
func isIdentifierName(lower string) bool {
	return lower == "id" || strings.HasSuffix(lower, "_id") || strings.HasSuffix(lower, "id")
}

// numericTypeOf infers integer vs number from an example value. String
// examples are parsed; anything non-numeric reports no inference.
func numericTypeOf(example interface{}) (string, bool) {
	switch v := example.(type) {
	case int, int32, int64:
		return "integer", true
	case float64:
		if v == float64(int64(v)) {
			return "integer", true
		}
		return "number", true
	case float32:
		return numericTypeOf(float64(v))
	case string:
		if v == "" {
			return "", false
		}
		if _, err := strconv.ParseInt(v, 10, 64); err == nil {
			return "integer", true
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return "number", true
		}
	}
	return "", false
}

// refineTypeFromExample sets the type from the example's runtime type. It
// never fires without an example, and it leaves string-typed examples alone
// unless no type is set at all, so name-based inference can still promote
// numeric strings afterwards.
func refineTypeFromExample(typ *string, example interface{}) {
	if example == nil {
		return
	}

	switch v := example.(type) {
	case bool:
		*typ = "boolean"
	case int, int32, int64:
		*typ = "integer"
	case float64:
		if v == float64(int64(v)) {
			*typ = "integer"
		} else {
			*typ = "number"
		}
	case float32:
		refineTypeFromExample(typ, float64(v))
	case []interface{}:
		*typ = "array"
	case map[string]interface{}:
		*typ = "object"
	case string:
		if *typ == "" {
			*typ = "string"
		}
	}
}

// sniffFormat inspects a string example for well-known value shapes.
func sniffFormat(example interface{}) string {
	s, ok := example.(string)
	if !ok || s == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://"):
		return "uri"
	case uuidRe.MatchString(s):
		return "uuid"
	case dateTimeRe.MatchString(s):
		return "date-time"
	case dateRe.MatchString(s):
		return "date"
	case timeRe.MatchString(s):
		return "time"
	case strings.Contains(s, "@") && strings.Contains(s, "."):
		return "email"
	}
	return ""
}

// baselineErrorResponses synthesizes a minimal error set for endpoints that
// declare none: auth failures when auth is required, 400 for mutating
// methods, 404 when the path addresses an identified resource, 500 always.
func baselineErrorResponses(e *models.Endpoint) []models.Response {
	responses := make([]models.Response, 0, 5)

	method := strings.ToUpper(e.Method)
	mutating := method == "POST" || method == "PUT" || method == "PATCH" || method == "DELETE"

	if mutating {
		responses = append(responses, models.Response{
			Status:      400,
			Description: "Invalid request payload",
		})
	}
	if e.Auth != nil {
		responses = append(responses,
			models.Response{Status: 401, Description: "Authentication required"},
			models.Response{Status: 403, Description: "Insufficient permissions"},
		)
	}
	if strings.Contains(e.Path, "{") {
		responses = append(responses, models.Response{
			Status:      404,
			Description: "Resource not found",
		})
	}
	responses = append(responses, models.Response{
		Status:      500,
		Description: "Internal server error",
	})

	return responses
}

// cloneEndpoint deep-copies an endpoint, including cyclic field graphs.
func cloneEndpoint(e *models.Endpoint) *models.Endpoint {
	out := *e
	out.Tags = append([]string(nil), e.Tags...)

	out.Request.Parameters = make([]models.Parameter, len(e.Request.Parameters))
	seen := make(map[*models.Field]*models.Field)
	for i, p := range e.Request.Parameters {
		cp := p
		cp.Enum = append([]interface{}(nil), p.Enum...)
		if p.Min != nil {
			min := *p.Min
			cp.Min = &min
		}
		if p.Max != nil {
			max := *p.Max
			cp.Max = &max
		}
		cp.Items = cloneField(p.Items, seen)
		out.Request.Parameters[i] = cp
	}
	out.Request.Body = cloneFields(e.Request.Body, seen)

	if e.Responses.Success != nil {
		s := *e.Responses.Success
		s.Fields = cloneFields(e.Responses.Success.Fields, seen)
		out.Responses.Success = &s
	}
	out.Responses.Errors = make([]models.Response, len(e.Responses.Errors))
	for i, r := range e.Responses.Errors {
		cr := r
		cr.Fields = cloneFields(r.Fields, seen)
		out.Responses.Errors[i] = cr
	}

	if e.Auth != nil {
		a := *e.Auth
		out.Auth = &a
	}

	return &out
}

func cloneFields(fields []*models.Field, seen map[*models.Field]*models.Field) []*models.Field {
	if fields == nil {
		return nil
	}
	out := make([]*models.Field, len(fields))
	for i, f := range fields {
		out[i] = cloneField(f, seen)
	}
	return out
}

// cloneField copies a field graph. The seen map keeps cycles as cycles in the
// copy instead of unrolling them forever.
func cloneField(f *models.Field, seen map[*models.Field]*models.Field) *models.Field {
	if f == nil {
		return nil
	}
	if existing, ok := seen[f]; ok {
		return existing
	}

	out := &models.Field{}
	seen[f] = out
	*out = *f
	out.Properties = cloneFields(f.Properties, seen)
	out.Items = cloneField(f.Items, seen)
	return out
}

// CalculateCompleteness scores how much optional metadata an endpoint
// carries, as a ratio of populated slots over checkable slots. Purely a UI
// hint; never gates merge decisions.
func CalculateCompleteness(e *models.Endpoint) models.CompletenessReport {
	report := models.CompletenessReport{Detail: make([]models.CompletenessDetail, 0, 4)}
	if e == nil {
		report.Score = 0
		return report
	}

	info := models.CompletenessDetail{Section: "info"}
	countSlot(&info, e.Name != "")
	countSlot(&info, e.Description != "")
	countSlot(&info, len(e.Tags) > 0)

	params := models.CompletenessDetail{Section: "parameters"}
	for _, p := range e.Request.Parameters {
		countSlot(&params, p.Description != "")
		countSlot(&params, p.Type != "")
		countSlot(&params, p.Example != nil)
		countSlot(&params, p.Required || p.In == models.InPath)
	}

	body := models.CompletenessDetail{Section: "body"}
	visited := make(map[*models.Field]bool)
	for _, f := range e.Request.Body {
		countFieldSlots(&body, f, visited)
	}

	resp := models.CompletenessDetail{Section: "responses"}
	if e.Responses.Success != nil {
		s := e.Responses.Success
		countSlot(&resp, s.Description != "")
		countSlot(&resp, s.Example != "")
		countSlot(&resp, len(s.Fields) > 0)
	}
	countSlot(&resp, len(e.Responses.Errors) > 0)

	for _, d := range []models.CompletenessDetail{info, params, body, resp} {
		if d.Checked > 0 {
			report.Detail = append(report.Detail, d)
			report.Checked += d.Checked
			report.Filled += d.Filled
		}
	}

	if report.Checked == 0 {
		report.Score = 100
		return report
	}
	report.Score = int(float64(report.Filled)/float64(report.Checked)*100 + 0.5)
	return report
}

func countFieldSlots(d *models.CompletenessDetail, f *models.Field, visited map[*models.Field]bool) {
	if f == nil || visited[f] {
		return
	}
	visited[f] = true

	countSlot(d, f.Description != "")
	countSlot(d, f.Type != "")
	countSlot(d, f.Example != nil)
	countSlot(d, f.Required)

	for _, p := range f.Properties {
		countFieldSlots(d, p, visited)
	}
	countFieldSlots(d, f.Items, visited)
}

func countSlot(d *models.CompletenessDetail, filled bool) {
	d.Checked++
	if filled {
		d.Filled++
	}
}
