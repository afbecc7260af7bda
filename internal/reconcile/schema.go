package reconcile

import (
	"github.com/tandt53/apilot/internal/models"
)

// BuildBodyFromSchema synthesizes an example request body from a canonical
// field schema. Field examples win when present; otherwise a zero-ish value
// of the declared type is produced. Cyclic branches terminate as nulls.
func BuildBodyFromSchema(fields []*models.Field) map[string]interface{} {
	visited := make(map[*models.Field]bool)
	body := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		if f == nil {
			continue
		}
		body[f.Name] = buildFieldValue(f, visited)
	}
	return body
}

func buildFieldValue(f *models.Field, visited map[*models.Field]bool) interface{} {
	if f == nil || visited[f] {
		return nil
	}
	visited[f] = true
	defer delete(visited, f)

	if f.Example != nil {
		// Use the declared example only when it actually satisfies the
		// field's own type, so synthesized bodies always validate
		if matchValue(f.Example, f, make(map[*models.Field]bool)) {
			return f.Example
		}
	}

	switch f.Type {
	case "object":
		obj := make(map[string]interface{}, len(f.Properties))
		for _, p := range f.Properties {
			if p != nil {
				obj[p.Name] = buildFieldValue(p, visited)
			}
		}
		return obj
	case "array":
		if f.Items == nil {
			return []interface{}{}
		}
		return []interface{}{buildFieldValue(f.Items, visited)}
	case "integer":
		return 0
	case "number":
		return 0.0
	case "boolean":
		return false
	case "string":
		return exampleStringFor(f.Format)
	default:
		return nil
	}
}

// exampleStringFor picks a format-appropriate placeholder string.
func exampleStringFor(format string) string {
	switch format {
	case "email":
		return "user@example.com"
	case "uri":
		return "https://example.com"
	case "uuid":
		return "00000000-0000-0000-0000-000000000000"
	case "date-time":
		return "2024-01-01T00:00:00Z"
	case "date":
		return "2024-01-01"
	case "time":
		return "00:00:00"
	default:
		return "string"
	}
}

// BodyMatchesSchema reports whether a body structurally satisfies a canonical
// field schema: every required field present with a type-compatible value,
// objects and arrays validated recursively, cycle-guarded. Fields present in
// the body but absent from the schema are allowed.
func BodyMatchesSchema(body map[string]interface{}, fields []*models.Field) bool {
	visited := make(map[*models.Field]bool)
	return matchFields(body, fields, visited)
}

func matchFields(body map[string]interface{}, fields []*models.Field, visited map[*models.Field]bool) bool {
	for _, f := range fields {
		if f == nil {
			continue
		}
		value, present := body[f.Name]
		if !present {
			if f.Required {
				return false
			}
			continue
		}
		if !matchValue(value, f, visited) {
			return false
		}
	}
	return true
}

func matchValue(value interface{}, f *models.Field, visited map[*models.Field]bool) bool {
	if f == nil || visited[f] {
		// Opaque cyclic branch: accept whatever is there
		return true
	}
	visited[f] = true
	defer delete(visited, f)

	if value == nil {
		// Null satisfies any optional slot; required-ness was checked by the caller
		return true
	}

	switch f.Type {
	case "object":
		obj, ok := value.(map[string]interface{})
		if !ok {
			return false
		}
		return matchFields(obj, f.Properties, visited)
	case "array":
		arr, ok := value.([]interface{})
		if !ok {
			return false
		}
		if f.Items == nil {
			return true
		}
		for _, item := range arr {
			if !matchValue(item, f.Items, visited) {
				return false
			}
		}
		return true
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "integer":
		return isIntegral(value)
	case "number":
		return isNumeric(value)
	default:
		// Untyped schema slot accepts anything
		return true
	}
}

func isNumeric(value interface{}) bool {
	switch value.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

func isIntegral(value interface{}) bool {
	switch v := value.(type) {
	case int, int32, int64:
		return true
	case float64:
		return v == float64(int64(v))
	case float32:
		return float64(v) == float64(int64(v))
	}
	return false
}
