package parser

import (
	"testing"

	"github.com/tandt53/apilot/internal/models"
)

const sampleCollection = `{
  "info": {
    "_postman_id": "b1e2c3d4",
    "name": "User Service",
    "description": "User management requests",
    "schema": "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"
  },
  "auth": {"type": "bearer"},
  "item": [
    {
      "name": "Users",
      "item": [
        {
          "name": "Get user",
          "request": {
            "method": "GET",
            "url": {
              "raw": "https://api.example.com/users/:userId?expand=profile",
              "path": ["users", ":userId"],
              "query": [
                {"key": "expand", "value": "profile", "description": "Relations to expand"},
                {"key": "debug", "value": "1", "disabled": true}
              ],
              "variable": [
                {"key": "userId", "value": "42"}
              ]
            }
          }
        },
        {
          "name": "Create user",
          "request": {
            "method": "POST",
            "header": [
              {"key": "Content-Type", "value": "application/json"},
              {"key": "X-Request-ID", "value": "abc"}
            ],
            "auth": {"type": "apikey", "apikey": [
              {"key": "key", "value": "X-API-Key"},
              {"key": "in", "value": "header"}
            ]},
            "url": {"path": ["users"]},
            "body": {
              "mode": "raw",
              "raw": "{\"name\": \"Ada\", \"age\": 36, \"active\": true, \"address\": {\"city\": \"London\"}}"
            }
          }
        }
      ]
    }
  ]
}`

func TestPostmanParse(t *testing.T) {
	result, err := NewPostmanParser().Parse(sampleCollection)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if result.Spec.Name != "User Service" || result.Spec.Format != FormatPostman {
		t.Errorf("Spec wrong: %+v", result.Spec)
	}
	if len(result.Endpoints) != 2 {
		t.Fatalf("Expected 2 endpoints, got %d", len(result.Endpoints))
	}

	get := result.Endpoints[0]
	if get.Method != "GET" || get.Path != "/users/{userId}" {
		t.Errorf("Path template not normalized: %s %s", get.Method, get.Path)
	}
	if get.Name != "Get user" {
		t.Errorf("Name wrong: %q", get.Name)
	}
}

func TestPostmanParseParameters(t *testing.T) {
	result, err := NewPostmanParser().Parse(sampleCollection)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	get := result.Endpoints[0]
	if len(get.Request.Parameters) != 2 {
		t.Fatalf("Expected query + path variable, got %+v", get.Request.Parameters)
	}

	expand := get.Request.Parameters[0]
	if expand.Name != "expand" || expand.In != models.InQuery || expand.Example != "profile" {
		t.Errorf("Query parameter wrong: %+v", expand)
	}
	if expand.Description != "Relations to expand" {
		t.Errorf("Description lost: %q", expand.Description)
	}

	userID := get.Request.Parameters[1]
	if userID.Name != "userId" || userID.In != models.InPath || !userID.Required {
		t.Errorf("Path variable wrong: %+v", userID)
	}
}

func TestPostmanParseBody(t *testing.T) {
	result, err := NewPostmanParser().Parse(sampleCollection)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	create := result.Endpoints[1]
	if create.Method != "POST" || create.Path != "/users" {
		t.Fatalf("Unexpected endpoint: %s %s", create.Method, create.Path)
	}
	if create.Request.ContentType != "application/json" {
		t.Errorf("ContentType wrong: %q", create.Request.ContentType)
	}

	types := make(map[string]string)
	for _, f := range create.Request.Body {
		types[f.Name] = f.Type
	}
	expected := map[string]string{
		"name": "string", "age": "integer", "active": "boolean", "address": "object",
	}
	for name, typ := range expected {
		if types[name] != typ {
			t.Errorf("Field %s: expected %s, got %s", name, typ, types[name])
		}
	}

	// Content-Type header becomes the content type, not a parameter
	for _, p := range create.Request.Parameters {
		if p.Name == "Content-Type" {
			t.Error("Content-Type leaked into parameters")
		}
	}
	if len(create.Request.Parameters) != 1 || create.Request.Parameters[0].Name != "X-Request-ID" {
		t.Errorf("Header parameters wrong: %+v", create.Request.Parameters)
	}
}

func TestPostmanParseAuth(t *testing.T) {
	result, err := NewPostmanParser().Parse(sampleCollection)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// Collection-level bearer auth inherited
	get := result.Endpoints[0]
	if get.Auth == nil || get.Auth.Scheme != "bearer" {
		t.Errorf("Inherited auth wrong: %+v", get.Auth)
	}

	// Request-level apikey auth overrides
	create := result.Endpoints[1]
	if create.Auth == nil || create.Auth.Type != "apiKey" || create.Auth.Name != "X-API-Key" {
		t.Errorf("Override auth wrong: %+v", create.Auth)
	}
}

func TestPostmanParseRawURL(t *testing.T) {
	collection := `{
	  "info": {"_postman_id": "x", "name": "Raw"},
	  "item": [
	    {"name": "r", "request": {"method": "DELETE", "url": "https://api.example.com/pets/{{petId}}?force=true"}}
	  ]
	}`

	result, err := NewPostmanParser().Parse(collection)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Endpoints) != 1 {
		t.Fatalf("Expected 1 endpoint, got %d", len(result.Endpoints))
	}

	e := result.Endpoints[0]
	if e.Path != "/pets/{petId}" {
		t.Errorf("Raw URL template wrong: %q", e.Path)
	}
	if len(e.Request.Parameters) != 1 || e.Request.Parameters[0].Name != "force" {
		t.Errorf("Query from raw URL wrong: %+v", e.Request.Parameters)
	}
}

func TestPostmanParseInvalid(t *testing.T) {
	if _, err := NewPostmanParser().Parse("not json"); err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
	if _, err := NewPostmanParser().Parse(`{"item": []}`); err == nil {
		t.Fatal("Expected error for missing info block")
	}
}
