package reconcile

import (
	"testing"

	"github.com/tandt53/apilot/internal/models"
)

func petSchema() []*models.Field {
	return []*models.Field{
		{Name: "id", Type: "integer", Required: true},
		{Name: "name", Type: "string", Required: true, Example: "Rex"},
		{Name: "tags", Type: "array", Items: &models.Field{Name: "tag", Type: "string"}},
		{Name: "owner", Type: "object", Properties: []*models.Field{
			{Name: "name", Type: "string", Required: true},
			{Name: "email", Type: "string", Format: "email"},
		}},
	}
}

func TestBuildBodyFromSchema(t *testing.T) {
	body := BuildBodyFromSchema(petSchema())

	if body["id"] != 0 {
		t.Errorf("Expected zero integer for id, got %v", body["id"])
	}
	if body["name"] != "Rex" {
		t.Errorf("Expected example value for name, got %v", body["name"])
	}

	tags, ok := body["tags"].([]interface{})
	if !ok || len(tags) != 1 || tags[0] != "string" {
		t.Errorf("Expected single placeholder tag, got %v", body["tags"])
	}

	owner, ok := body["owner"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object for owner, got %T", body["owner"])
	}
	if owner["email"] != "user@example.com" {
		t.Errorf("Expected format-aware placeholder email, got %v", owner["email"])
	}
}

func TestBuildBodyRoundTrip(t *testing.T) {
	// Anything synthesized from a schema must validate against it
	schemas := [][]*models.Field{
		petSchema(),
		{{Name: "flag", Type: "boolean", Required: true}},
		{{Name: "price", Type: "number", Required: true}},
		{{Name: "created", Type: "string", Format: "date-time"}},
		{{Name: "matrix", Type: "array", Items: &models.Field{
			Type: "array", Items: &models.Field{Type: "integer"},
		}}},
	}

	for i, schema := range schemas {
		body := BuildBodyFromSchema(schema)
		if !BodyMatchesSchema(body, schema) {
			t.Errorf("Schema %d: synthesized body %v does not validate", i, body)
		}
	}
}

func TestBuildBodyIgnoresMistypedExample(t *testing.T) {
	schema := []*models.Field{
		{Name: "count", Type: "integer", Required: true, Example: "forty-two"},
	}

	body := BuildBodyFromSchema(schema)
	if body["count"] != 0 {
		t.Errorf("Mistyped example should be replaced by zero value, got %v", body["count"])
	}
	if !BodyMatchesSchema(body, schema) {
		t.Error("Synthesized body does not validate")
	}
}

func TestBuildBodyCyclicSchema(t *testing.T) {
	node := &models.Field{Name: "node", Type: "object"}
	node.Properties = []*models.Field{
		{Name: "value", Type: "string"},
		{Name: "next", Type: "object", Properties: []*models.Field{node}},
	}

	body := BuildBodyFromSchema([]*models.Field{node})

	obj, ok := body["node"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object, got %T", body["node"])
	}
	next, ok := obj["next"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected nested object, got %T", obj["next"])
	}
	if next["node"] != nil {
		t.Errorf("Cyclic branch should terminate as null, got %v", next["node"])
	}

	if !BodyMatchesSchema(body, []*models.Field{node}) {
		t.Error("Cyclic schema body does not validate")
	}
}

func TestBodyMatchesSchemaRequired(t *testing.T) {
	schema := petSchema()

	valid := map[string]interface{}{
		"id":   float64(7),
		"name": "Rex",
	}
	if !BodyMatchesSchema(valid, schema) {
		t.Error("Body with all required fields rejected")
	}

	missing := map[string]interface{}{"id": float64(7)}
	if BodyMatchesSchema(missing, schema) {
		t.Error("Body missing a required field accepted")
	}
}

func TestBodyMatchesSchemaTypes(t *testing.T) {
	schema := []*models.Field{{Name: "id", Type: "integer", Required: true}}

	tests := []struct {
		value interface{}
		want  bool
	}{
		{float64(7), true},   // JSON numbers decode as float64
		{7, true},
		{7.5, false},
		{"7", false},
		{nil, true}, // explicit null is tolerated
	}
	for _, tt := range tests {
		got := BodyMatchesSchema(map[string]interface{}{"id": tt.value}, schema)
		if got != tt.want {
			t.Errorf("id=%v: got %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestBodyMatchesSchemaNested(t *testing.T) {
	schema := petSchema()

	badOwner := map[string]interface{}{
		"id":    float64(1),
		"name":  "Rex",
		"owner": map[string]interface{}{"email": "a@b.com"}, // missing required owner.name
	}
	if BodyMatchesSchema(badOwner, schema) {
		t.Error("Nested required field violation accepted")
	}

	badTags := map[string]interface{}{
		"id":   float64(1),
		"name": "Rex",
		"tags": []interface{}{"ok", float64(3)},
	}
	if BodyMatchesSchema(badTags, schema) {
		t.Error("Array item type violation accepted")
	}
}

func TestBodyMatchesSchemaExtraKeys(t *testing.T) {
	schema := []*models.Field{{Name: "name", Type: "string", Required: true}}

	body := map[string]interface{}{
		"name":  "Rex",
		"extra": map[string]interface{}{"anything": true},
	}
	if !BodyMatchesSchema(body, schema) {
		t.Error("Extra body keys should be allowed")
	}
}
