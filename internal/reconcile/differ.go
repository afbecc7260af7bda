package reconcile

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/tandt53/apilot/internal/models"
)

// Diff walks a matched endpoint pair and produces an ordered list of
// field-level changes. The sections are compared independently and always
// appear in the same order: basic info, parameters, request body, responses,
// auth. Collection-valued sections (parameters, body fields, error responses)
// are compared by name, not position, so reordering alone never produces a
// change.
//
// Diff never panics: a nil endpoint on either side is treated as empty, so
// all of its fields read as absent and only added/removed changes come out.
func Diff(existing, incoming *models.Endpoint) []models.Change {
	if existing == nil {
		existing = &models.Endpoint{}
	}
	if incoming == nil {
		incoming = &models.Endpoint{}
	}

	changes := make([]models.Change, 0)
	changes = append(changes, diffBasicInfo(existing, incoming)...)
	changes = append(changes, diffParameters(existing, incoming)...)
	changes = append(changes, diffRequestBody(existing, incoming)...)
	changes = append(changes, diffResponses(existing, incoming)...)
	changes = append(changes, diffAuth(existing, incoming)...)
	return changes
}

// HasChanges reports whether a matched pair differs at all.
func HasChanges(existing, incoming *models.Endpoint) bool {
	return len(Diff(existing, incoming)) > 0
}

// diffBasicInfo compares scalar metadata and tags. Tags are compared as sets:
// reordering is not a change, changed membership is.
func diffBasicInfo(existing, incoming *models.Endpoint) []models.Change {
	changes := make([]models.Change, 0)

	changes = appendScalarChange(changes, "name", existing.Name, incoming.Name)
	changes = appendScalarChange(changes, "description", existing.Description, incoming.Description)
	changes = appendScalarChange(changes, "operationId", existing.OperationID, incoming.OperationID)

	if existing.Deprecated != incoming.Deprecated {
		changes = append(changes, models.Change{
			Field:    "deprecated",
			Type:     models.ChangeModified,
			OldValue: existing.Deprecated,
			NewValue: incoming.Deprecated,
		})
	}

	added, removed := diffStringSets(existing.Tags, incoming.Tags)
	if len(added) > 0 || len(removed) > 0 {
		changes = append(changes, models.Change{
			Field:    "tags",
			Type:     models.ChangeModified,
			OldValue: existing.Tags,
			NewValue: incoming.Tags,
			Added:    added,
			Removed:  removed,
		})
	}

	return changes
}

// diffParameters compares parameter lists keyed by (name, in).
func diffParameters(existing, incoming *models.Endpoint) []models.Change {
	changes := make([]models.Change, 0)

	exByKey := make(map[string]models.Parameter)
	for _, p := range existing.Request.Parameters {
		exByKey[paramKey(p)] = p
	}
	inByKey := make(map[string]models.Parameter)
	for _, p := range incoming.Request.Parameters {
		inByKey[paramKey(p)] = p
	}

	// Incoming order: additions and modifications
	for _, in := range incoming.Request.Parameters {
		ex, ok := exByKey[paramKey(in)]
		if !ok {
			changes = append(changes, models.Change{
				Field:    "request.parameters",
				Type:     models.ChangeAdded,
				Item:     paramLabel(in),
				NewValue: in,
			})
			continue
		}

		diffs := diffParameterProps(ex, in)
		if len(diffs) > 0 {
			changes = append(changes, models.Change{
				Field:       "request.parameters",
				Type:        models.ChangeModified,
				Item:        paramLabel(in),
				Differences: diffs,
			})
		}
	}

	// Existing order: removals
	for _, ex := range existing.Request.Parameters {
		if _, ok := inByKey[paramKey(ex)]; !ok {
			changes = append(changes, models.Change{
				Field:    "request.parameters",
				Type:     models.ChangeRemoved,
				Item:     paramLabel(ex),
				OldValue: ex,
			})
		}
	}

	return changes
}

// diffParameterProps compares the properties of two parameters sharing a key.
func diffParameterProps(ex, in models.Parameter) []models.PropertyDiff {
	diffs := make([]models.PropertyDiff, 0)

	if ex.Type != in.Type {
		diffs = append(diffs, models.PropertyDiff{Property: "type", OldValue: ex.Type, NewValue: in.Type})
	}
	if ex.Required != in.Required {
		diffs = append(diffs, models.PropertyDiff{Property: "required", OldValue: ex.Required, NewValue: in.Required})
	}
	if ex.Description != in.Description {
		diffs = append(diffs, models.PropertyDiff{Property: "description", OldValue: ex.Description, NewValue: in.Description})
	}
	if !reflect.DeepEqual(ex.Example, in.Example) {
		diffs = append(diffs, models.PropertyDiff{Property: "example", OldValue: ex.Example, NewValue: in.Example})
	}
	if !reflect.DeepEqual(ex.Enum, in.Enum) {
		diffs = append(diffs, models.PropertyDiff{Property: "enum", OldValue: ex.Enum, NewValue: in.Enum})
	}
	if !reflect.DeepEqual(ex.Default, in.Default) {
		diffs = append(diffs, models.PropertyDiff{Property: "default", OldValue: ex.Default, NewValue: in.Default})
	}

	return diffs
}

// diffRequestBody compares the content type as a scalar and the body schema
// fields by dotted name.
func diffRequestBody(existing, incoming *models.Endpoint) []models.Change {
	changes := make([]models.Change, 0)
	changes = appendScalarChange(changes, "request.contentType", existing.Request.ContentType, incoming.Request.ContentType)
	changes = append(changes, diffFields("request.body.fields", existing.Request.Body, incoming.Request.Body)...)
	return changes
}

// diffResponses compares the success response and the error response list.
// Error responses are keyed by status code.
func diffResponses(existing, incoming *models.Endpoint) []models.Change {
	changes := make([]models.Change, 0)

	exSuccess := existing.Responses.Success
	inSuccess := incoming.Responses.Success
	switch {
	case exSuccess == nil && inSuccess == nil:
		// nothing to compare
	case exSuccess == nil:
		changes = append(changes, models.Change{
			Field:    "responses.success",
			Type:     models.ChangeAdded,
			NewValue: inSuccess,
		})
	case inSuccess == nil:
		changes = append(changes, models.Change{
			Field:    "responses.success",
			Type:     models.ChangeRemoved,
			OldValue: exSuccess,
		})
	default:
		changes = appendScalarChange(changes, "responses.success.status", exSuccess.Status, inSuccess.Status)
		changes = appendScalarChange(changes, "responses.success.contentType", exSuccess.ContentType, inSuccess.ContentType)
		changes = appendScalarChange(changes, "responses.success.example", exSuccess.Example, inSuccess.Example)
		changes = append(changes, diffFields("responses.success.fields", exSuccess.Fields, inSuccess.Fields)...)
	}

	changes = append(changes, diffErrorResponses(existing.Responses.Errors, incoming.Responses.Errors)...)
	return changes
}

// diffErrorResponses compares error response lists keyed by status code.
func diffErrorResponses(existing, incoming []models.Response) []models.Change {
	changes := make([]models.Change, 0)

	exByStatus := make(map[int]models.Response)
	for _, r := range existing {
		exByStatus[r.Status] = r
	}
	inByStatus := make(map[int]models.Response)
	for _, r := range incoming {
		inByStatus[r.Status] = r
	}

	for _, in := range incoming {
		ex, ok := exByStatus[in.Status]
		if !ok {
			changes = append(changes, models.Change{
				Field:    "responses.errors",
				Type:     models.ChangeAdded,
				Item:     fmt.Sprintf("%d", in.Status),
				NewValue: in,
			})
			continue
		}

		diffs := make([]models.PropertyDiff, 0)
		if ex.Description != in.Description {
			diffs = append(diffs, models.PropertyDiff{Property: "description", OldValue: ex.Description, NewValue: in.Description})
		}
		if ex.ContentType != in.ContentType {
			diffs = append(diffs, models.PropertyDiff{Property: "contentType", OldValue: ex.ContentType, NewValue: in.ContentType})
		}
		if ex.Example != in.Example {
			diffs = append(diffs, models.PropertyDiff{Property: "example", OldValue: ex.Example, NewValue: in.Example})
		}
		if len(diffs) > 0 {
			changes = append(changes, models.Change{
				Field:       "responses.errors",
				Type:        models.ChangeModified,
				Item:        fmt.Sprintf("%d", in.Status),
				Differences: diffs,
			})
		}
		changes = append(changes, diffFields(fmt.Sprintf("responses.errors.%d.fields", in.Status), ex.Fields, in.Fields)...)
	}

	for _, ex := range existing {
		if _, ok := inByStatus[ex.Status]; !ok {
			changes = append(changes, models.Change{
				Field:    "responses.errors",
				Type:     models.ChangeRemoved,
				Item:     fmt.Sprintf("%d", ex.Status),
				OldValue: ex,
			})
		}
	}

	return changes
}

// diffAuth compares the auth scheme as a single composite value.
func diffAuth(existing, incoming *models.Endpoint) []models.Change {
	exAuth := existing.Auth
	inAuth := incoming.Auth

	switch {
	case exAuth == nil && inAuth == nil:
		return nil
	case exAuth == nil:
		return []models.Change{{Field: "auth", Type: models.ChangeAdded, NewValue: inAuth}}
	case inAuth == nil:
		return []models.Change{{Field: "auth", Type: models.ChangeRemoved, OldValue: exAuth}}
	}

	if exAuth.Type != inAuth.Type || exAuth.Scheme != inAuth.Scheme || exAuth.In != inAuth.In || exAuth.Name != inAuth.Name {
		return []models.Change{{
			Field:    "auth",
			Type:     models.ChangeModified,
			OldValue: exAuth,
			NewValue: inAuth,
		}}
	}

	return nil
}

// diffFields compares two canonical field trees by dotted name, recursing
// into object properties and array items. Both sides carry their own visited
// set so self-referential schemas terminate: a branch already seen is treated
// as an opaque leaf and compared by its shallow signature only.
func diffFields(section string, existing, incoming []*models.Field) []models.Change {
	d := &fieldDiffer{
		section:   section,
		visitedEx: make(map[*models.Field]bool),
		visitedIn: make(map[*models.Field]bool),
	}
	d.compare("", existing, incoming)
	return d.changes
}

type fieldDiffer struct {
	section   string
	changes   []models.Change
	visitedEx map[*models.Field]bool
	visitedIn map[*models.Field]bool
}

func (d *fieldDiffer) compare(prefix string, existing, incoming []*models.Field) {
	exByName := make(map[string]*models.Field)
	for _, f := range existing {
		if f != nil {
			exByName[f.Name] = f
		}
	}
	inByName := make(map[string]*models.Field)
	for _, f := range incoming {
		if f != nil {
			inByName[f.Name] = f
		}
	}

	for _, in := range incoming {
		if in == nil {
			continue
		}
		path := joinPath(prefix, in.Name)
		ex, ok := exByName[in.Name]
		if !ok {
			d.changes = append(d.changes, models.Change{
				Field:    d.section,
				Type:     models.ChangeAdded,
				Item:     path,
				NewValue: in,
			})
			continue
		}
		d.compareField(path, ex, in)
	}

	for _, ex := range existing {
		if ex == nil {
			continue
		}
		if _, ok := inByName[ex.Name]; !ok {
			d.changes = append(d.changes, models.Change{
				Field:    d.section,
				Type:     models.ChangeRemoved,
				Item:     joinPath(prefix, ex.Name),
				OldValue: ex,
			})
		}
	}
}

func (d *fieldDiffer) compareField(path string, ex, in *models.Field) {
	diffs := make([]models.PropertyDiff, 0)
	if ex.Type != in.Type {
		diffs = append(diffs, models.PropertyDiff{Property: "type", OldValue: ex.Type, NewValue: in.Type})
	}
	if ex.Required != in.Required {
		diffs = append(diffs, models.PropertyDiff{Property: "required", OldValue: ex.Required, NewValue: in.Required})
	}
	if ex.Format != in.Format {
		diffs = append(diffs, models.PropertyDiff{Property: "format", OldValue: ex.Format, NewValue: in.Format})
	}
	if ex.Description != in.Description {
		diffs = append(diffs, models.PropertyDiff{Property: "description", OldValue: ex.Description, NewValue: in.Description})
	}
	if !reflect.DeepEqual(ex.Example, in.Example) {
		diffs = append(diffs, models.PropertyDiff{Property: "example", OldValue: ex.Example, NewValue: in.Example})
	}
	if len(diffs) > 0 {
		d.changes = append(d.changes, models.Change{
			Field:       d.section,
			Type:        models.ChangeModified,
			Item:        path,
			Differences: diffs,
		})
	}

	// Cycle guard: a revisited branch on either side stops recursion. The
	// branches are then compared by shallow signature only, so two identical
	// cyclic schemas stay "unchanged" while diverging ones report a single
	// opaque difference.
	if d.visitedEx[ex] || d.visitedIn[in] {
		exSig := shallowSignature(ex)
		inSig := shallowSignature(in)
		if exSig != inSig {
			d.changes = append(d.changes, models.Change{
				Field:    d.section,
				Type:     models.ChangeModified,
				Item:     path,
				OldValue: exSig,
				NewValue: inSig,
			})
		}
		return
	}
	d.visitedEx[ex] = true
	d.visitedIn[in] = true

	if len(ex.Properties) > 0 || len(in.Properties) > 0 {
		d.compare(path, ex.Properties, in.Properties)
	}
	if ex.Items != nil || in.Items != nil {
		switch {
		case ex.Items == nil:
			d.changes = append(d.changes, models.Change{
				Field:    d.section,
				Type:     models.ChangeAdded,
				Item:     path + "[]",
				NewValue: in.Items,
			})
		case in.Items == nil:
			d.changes = append(d.changes, models.Change{
				Field:    d.section,
				Type:     models.ChangeRemoved,
				Item:     path + "[]",
				OldValue: ex.Items,
			})
		default:
			d.compareField(path+"[]", ex.Items, in.Items)
		}
	}
}

// shallowSignature summarizes a field one level deep: its own type plus the
// sorted name:type list of its immediate children.
func shallowSignature(f *models.Field) string {
	if f == nil {
		return ""
	}
	parts := make([]string, 0, len(f.Properties)+1)
	for _, p := range f.Properties {
		if p != nil {
			parts = append(parts, p.Name+":"+p.Type)
		}
	}
	sort.Strings(parts)
	sig := f.Type + "{" + strings.Join(parts, ",") + "}"
	if f.Items != nil {
		sig += "[" + f.Items.Type + "]"
	}
	return sig
}

// appendScalarChange emits one modified change when two comparable scalars
// differ.
func appendScalarChange(changes []models.Change, field string, oldVal, newVal interface{}) []models.Change {
	if reflect.DeepEqual(oldVal, newVal) {
		return changes
	}
	return append(changes, models.Change{
		Field:    field,
		Type:     models.ChangeModified,
		OldValue: oldVal,
		NewValue: newVal,
	})
}

// diffStringSets compares two string slices as sets, reporting membership
// gained and lost. Order never matters.
func diffStringSets(existing, incoming []string) (added, removed []string) {
	exSet := make(map[string]bool, len(existing))
	for _, s := range existing {
		exSet[s] = true
	}
	inSet := make(map[string]bool, len(incoming))
	for _, s := range incoming {
		inSet[s] = true
	}

	for _, s := range incoming {
		if !exSet[s] {
			added = append(added, s)
		}
	}
	for _, s := range existing {
		if !inSet[s] {
			removed = append(removed, s)
		}
	}
	return added, removed
}

func paramKey(p models.Parameter) string {
	return p.Name + "|" + p.In
}

func paramLabel(p models.Parameter) string {
	return p.Name + " (" + p.In + ")"
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
