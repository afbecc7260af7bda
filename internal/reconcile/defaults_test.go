package reconcile

import (
	"testing"

	"github.com/tandt53/apilot/internal/models"
)

func TestApplyDefaultsPathParameter(t *testing.T) {
	// userId path parameter with numeric string example
	e := &models.Endpoint{
		Method: "GET", Path: "/users/{userId}",
		Request: models.Request{
			Parameters: []models.Parameter{
				{Name: "userId", In: models.InPath, Type: "string", Example: "42"},
			},
		},
	}

	enriched := ApplyDefaults(e)

	p := enriched.Request.Parameters[0]
	if !p.Required {
		t.Error("Path parameter must be forced required")
	}
	if p.Type != "integer" {
		t.Errorf("Expected type 'integer' from numeric example, got %q", p.Type)
	}

	// Input untouched
	if e.Request.Parameters[0].Required || e.Request.Parameters[0].Type != "string" {
		t.Error("ApplyDefaults mutated its input")
	}
}

func TestApplyDefaultsAuthHeader(t *testing.T) {
	tests := []string{"Authorization", "X-API-Key", "api-key", "APIKEY", "x-api-token"}

	for _, name := range tests {
		e := &models.Endpoint{
			Method: "GET", Path: "/pets",
			Request: models.Request{
				Parameters: []models.Parameter{{Name: name, In: models.InHeader, Type: "string"}},
			},
		}

		enriched := ApplyDefaults(e)
		p := enriched.Request.Parameters[0]
		if !p.Required {
			t.Errorf("Header %q should be required", name)
		}
		if p.Description == "" {
			t.Errorf("Header %q should get a default description", name)
		}
	}
}

func TestApplyDefaultsPagination(t *testing.T) {
	e := &models.Endpoint{
		Method: "GET", Path: "/pets",
		Request: models.Request{
			Parameters: []models.Parameter{
				{Name: "page", In: models.InQuery},
				{Name: "limit", In: models.InQuery},
				{Name: "offset", In: models.InQuery},
			},
		},
	}

	enriched := ApplyDefaults(e)

	for _, p := range enriched.Request.Parameters {
		if p.Type != "integer" {
			t.Errorf("Pagination parameter %q should be integer, got %q", p.Name, p.Type)
		}
		if p.Min == nil {
			t.Errorf("Pagination parameter %q should have a minimum", p.Name)
		}
		if p.Default == nil {
			t.Errorf("Pagination parameter %q should have a default", p.Name)
		}
	}

	limit := enriched.Request.Parameters[1]
	if limit.Max == nil || *limit.Max != 100 {
		t.Error("limit should carry max 100")
	}
	if *limit.Min != 1 || limit.Default != 20.0 {
		t.Errorf("limit defaults wrong: min %v default %v", *limit.Min, limit.Default)
	}
}

func TestApplyDefaultsFormatSniffing(t *testing.T) {
	tests := []struct {
		example interface{}
		format  string
	}{
		{"user@example.com", "email"},
		{"https://example.com/api", "uri"},
		{"http://example.com", "uri"},
		{"550e8400-e29b-41d4-a716-446655440000", "uuid"},
		{"2024-06-01T12:30:00Z", "date-time"},
		{"2024-06-01", "date"},
		{"12:30:00", "time"},
		{"plain text", ""},
		{42, ""},
	}

	for _, tt := range tests {
		e := &models.Endpoint{
			Method: "GET", Path: "/pets",
			Request: models.Request{
				Parameters: []models.Parameter{{Name: "value", In: models.InQuery, Example: tt.example}},
			},
		}

		enriched := ApplyDefaults(e)
		if got := enriched.Request.Parameters[0].Format; got != tt.format {
			t.Errorf("Example %v: expected format %q, got %q", tt.example, tt.format, got)
		}
	}
}

func TestApplyDefaultsFormatNotOverwritten(t *testing.T) {
	e := &models.Endpoint{
		Method: "GET", Path: "/pets",
		Request: models.Request{
			Parameters: []models.Parameter{
				{Name: "link", In: models.InQuery, Format: "custom", Example: "https://example.com"},
			},
		},
	}

	enriched := ApplyDefaults(e)
	if got := enriched.Request.Parameters[0].Format; got != "custom" {
		t.Errorf("Existing format overwritten: got %q", got)
	}
}

func TestApplyDefaultsTypeRefinement(t *testing.T) {
	tests := []struct {
		example  interface{}
		expected string
	}{
		{true, "boolean"},
		{float64(3), "integer"},
		{3.5, "number"},
		{[]interface{}{"a"}, "array"},
		{map[string]interface{}{"k": "v"}, "object"},
	}

	for _, tt := range tests {
		e := &models.Endpoint{
			Method: "GET", Path: "/pets",
			Request: models.Request{
				Body: []*models.Field{{Name: "value", Example: tt.example}},
			},
		}

		enriched := ApplyDefaults(e)
		if got := enriched.Request.Body[0].Type; got != tt.expected {
			t.Errorf("Example %v: expected type %q, got %q", tt.example, tt.expected, got)
		}
	}

	// No example, no invented type
	e := &models.Endpoint{
		Method: "GET", Path: "/pets",
		Request: models.Request{
			Body: []*models.Field{{Name: "value"}},
		},
	}
	enriched := ApplyDefaults(e)
	if got := enriched.Request.Body[0].Type; got != "" {
		t.Errorf("Type invented without example: %q", got)
	}
}

func TestApplyDefaultsBaselineErrors(t *testing.T) {
	// Mutating method on an identified resource with auth
	e := &models.Endpoint{
		Method: "DELETE", Path: "/pets/{id}",
		Auth: &models.Auth{Type: "http", Scheme: "bearer"},
	}

	enriched := ApplyDefaults(e)

	statuses := make(map[int]bool)
	for _, r := range enriched.Responses.Errors {
		statuses[r.Status] = true
	}
	for _, want := range []int{400, 401, 403, 404, 500} {
		if !statuses[want] {
			t.Errorf("Missing baseline error %d, got %v", want, statuses)
		}
	}

	// Read-only collection endpoint without auth: just 500
	e = &models.Endpoint{Method: "GET", Path: "/pets"}
	enriched = ApplyDefaults(e)
	if len(enriched.Responses.Errors) != 1 || enriched.Responses.Errors[0].Status != 500 {
		t.Errorf("Expected only 500, got %+v", enriched.Responses.Errors)
	}
}

func TestApplyDefaultsKeepsDeclaredErrors(t *testing.T) {
	e := &models.Endpoint{
		Method: "POST", Path: "/pets",
		Responses: models.Responses{
			Errors: []models.Response{{Status: 422, Description: "Validation failed"}},
		},
	}

	enriched := ApplyDefaults(e)
	if len(enriched.Responses.Errors) != 1 || enriched.Responses.Errors[0].Status != 422 {
		t.Errorf("Declared errors replaced: %+v", enriched.Responses.Errors)
	}
}

func TestApplyDefaultsCyclicBody(t *testing.T) {
	node := &models.Field{Name: "node", Type: "object"}
	node.Properties = []*models.Field{
		{Name: "id", Type: "string", Example: "7"},
		node,
	}
	e := &models.Endpoint{
		Method: "POST", Path: "/nodes",
		Request: models.Request{Body: []*models.Field{node}},
	}

	// Must terminate and keep the copy cyclic rather than unrolled
	enriched := ApplyDefaults(e)
	top := enriched.Request.Body[0]
	if top.Properties[1] != top {
		t.Error("Cycle not preserved in enriched copy")
	}
	if top.Properties[0].Type != "integer" {
		t.Errorf("Nested identifier not refined: %q", top.Properties[0].Type)
	}
}

func TestCalculateCompleteness(t *testing.T) {
	empty := &models.Endpoint{Method: "GET", Path: "/pets"}
	report := CalculateCompleteness(empty)
	if report.Score != 0 {
		t.Errorf("Bare endpoint should score 0, got %d", report.Score)
	}

	full := &models.Endpoint{
		Method: "GET", Path: "/pets",
		Name:        "List pets",
		Description: "Lists all pets",
		Tags:        []string{"pets"},
		Request: models.Request{
			Parameters: []models.Parameter{
				{Name: "status", In: models.InQuery, Type: "string", Required: true, Description: "Filter", Example: "available"},
			},
		},
		Responses: models.Responses{
			Success: &models.Response{Status: 200, Description: "OK", Example: "[]", Fields: []*models.Field{{Name: "id", Type: "integer"}}},
			Errors:  []models.Response{{Status: 500}},
		},
	}
	report = CalculateCompleteness(full)
	if report.Score != 100 {
		t.Errorf("Fully documented endpoint should score 100, got %d (%+v)", report.Score, report.Detail)
	}

	if CalculateCompleteness(nil).Score != 0 {
		t.Error("nil endpoint should score 0")
	}
}
