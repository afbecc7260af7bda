package parser

import (
	"testing"

	"github.com/tandt53/apilot/internal/models"
)

func TestCurlParse(t *testing.T) {
	cmd := `curl -X POST https://api.example.com/users?notify=true \
  -H 'Content-Type: application/json' \
  -H 'Authorization: Bearer tok123' \
  -d '{"name": "Ada", "age": 36}'`

	result, err := NewCurlParser().Parse(cmd)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if result.Spec.Name != "api.example.com" || result.Spec.Format != FormatCurl {
		t.Errorf("Spec wrong: %+v", result.Spec)
	}
	if len(result.Endpoints) != 1 {
		t.Fatalf("Expected 1 endpoint, got %d", len(result.Endpoints))
	}

	e := result.Endpoints[0]
	if e.Method != "POST" || e.Path != "/users" {
		t.Errorf("Identity wrong: %s %s", e.Method, e.Path)
	}
	if e.Request.ContentType != "application/json" {
		t.Errorf("ContentType wrong: %q", e.Request.ContentType)
	}

	if e.Auth == nil || e.Auth.Scheme != "bearer" {
		t.Errorf("Bearer auth not detected: %+v", e.Auth)
	}

	names := make(map[string]string)
	for _, p := range e.Request.Parameters {
		names[p.Name] = p.In
	}
	if names["notify"] != models.InQuery {
		t.Errorf("Query parameter missing: %+v", e.Request.Parameters)
	}
	if names["Authorization"] != models.InHeader {
		t.Errorf("Header parameter missing: %+v", e.Request.Parameters)
	}
	if _, ok := names["Content-Type"]; ok {
		t.Error("Content-Type leaked into parameters")
	}

	types := make(map[string]string)
	for _, f := range e.Request.Body {
		types[f.Name] = f.Type
	}
	if types["name"] != "string" || types["age"] != "integer" {
		t.Errorf("Body fields wrong: %v", types)
	}
}

func TestCurlParseDefaultMethods(t *testing.T) {
	result, err := NewCurlParser().Parse("curl https://api.example.com/health")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.Endpoints[0].Method != "GET" {
		t.Errorf("Bare curl should default to GET, got %s", result.Endpoints[0].Method)
	}

	result, err = NewCurlParser().Parse(`curl https://api.example.com/users -d '{"a":1}'`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.Endpoints[0].Method != "POST" {
		t.Errorf("curl with data should default to POST, got %s", result.Endpoints[0].Method)
	}
}

func TestCurlParseBasicAuth(t *testing.T) {
	result, err := NewCurlParser().Parse("curl -u admin:secret https://api.example.com/private")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	auth := result.Endpoints[0].Auth
	if auth == nil || auth.Type != "http" || auth.Scheme != "basic" {
		t.Errorf("Basic auth not detected: %+v", auth)
	}
}

func TestCurlParseErrors(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
	}{
		{"not curl", "wget https://example.com"},
		{"no url", "curl -X GET"},
		{"unterminated quote", `curl 'https://example.com`},
		{"empty", ""},
	}
	for _, tt := range tests {
		if _, err := NewCurlParser().Parse(tt.cmd); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestTokenizeCommand(t *testing.T) {
	tokens, err := tokenizeCommand(`curl -H "X-Key: a b" -d '{"k": "v"}' https://e.com`)
	if err != nil {
		t.Fatalf("tokenize failed: %v", err)
	}
	expected := []string{"curl", "-H", "X-Key: a b", "-d", `{"k": "v"}`, "https://e.com"}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %v", len(expected), tokens)
	}
	for i, want := range expected {
		if tokens[i] != want {
			t.Errorf("Token %d: expected %q, got %q", i, want, tokens[i])
		}
	}
}
