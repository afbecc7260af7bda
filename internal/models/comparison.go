package models

// Comparison statuses
const (
	StatusNew        = "new"
	StatusModified   = "modified"
	StatusUnchanged  = "unchanged"
	StatusDeprecated = "deprecated"
)

// Change types
const (
	ChangeAdded    = "added"
	ChangeRemoved  = "removed"
	ChangeModified = "modified"
)

// Change records one field-level difference between an existing endpoint and
// its incoming counterpart. Field is a dotted path such as "request.parameters"
// or "responses.success.fields". For collection-valued fields, Item names the
// collection member that changed and Differences carries the per-property
// before/after values.
type Change struct {
	Field       string         `json:"field"`
	Type        string         `json:"type"` // added, removed, modified
	Item        string         `json:"item,omitempty"`
	OldValue    interface{}    `json:"oldValue,omitempty"`
	NewValue    interface{}    `json:"newValue,omitempty"`
	Added       []string       `json:"added,omitempty"`   // Set membership gained (tags)
	Removed     []string       `json:"removed,omitempty"` // Set membership lost (tags)
	Differences []PropertyDiff `json:"differences,omitempty"`
}

// PropertyDiff is one changed property of a named collection item.
type PropertyDiff struct {
	Property string      `json:"property"`
	OldValue interface{} `json:"oldValue"`
	NewValue interface{} `json:"newValue"`
}

// EndpointComparison is one row of an import analysis: an existing endpoint
// paired with its incoming counterpart by (method, path). Transient, never
// persisted.
type EndpointComparison struct {
	Existing      *Endpoint `json:"existing,omitempty"`
	Incoming      *Endpoint `json:"incoming,omitempty"`
	Status        string    `json:"status"` // new, modified, unchanged, deprecated
	HasChanges    bool      `json:"hasChanges"`
	Changes       []Change  `json:"changes,omitempty"`
	AffectedTests int       `json:"affectedTests"`
}

// SkippedEndpoint records an incoming endpoint dropped from analysis because
// it was missing required shape, with the reason for the caller to surface.
type SkippedEndpoint struct {
	Endpoint *Endpoint `json:"endpoint"`
	Reason   string    `json:"reason"`
}

// ImportSummary aggregates analysis counts for display.
type ImportSummary struct {
	New                  int `json:"new"`
	Duplicates           int `json:"duplicates"`
	DuplicatesWithTests  int `json:"duplicatesWithTests"`
	Modified             int `json:"modified"`
	Unchanged            int `json:"unchanged"`
	DeprecatedCandidates int `json:"deprecatedCandidates"`
}

// ImportAnalysis is the full result of analyzing an import batch against a
// stored spec. Produced fresh per analysis call, read-only with respect to
// storage, and discarded after being rendered or acted upon.
type ImportAnalysis struct {
	SpecID               string               `json:"specId"`
	Duplicates           []EndpointComparison `json:"duplicates"`
	NewEndpoints         []*Endpoint          `json:"newEndpoints"`
	DeprecatedCandidates []*Endpoint          `json:"deprecatedCandidates"`
	Skipped              []SkippedEndpoint    `json:"skipped,omitempty"`
	Summary              ImportSummary        `json:"summary"`
}

// Duplicate resolution policies
const (
	OnDuplicateReplace = "replace"
	OnDuplicateSkip    = "skip"
)

// ImportOptions selects the merge policy for applying an import.
type ImportOptions struct {
	// OnDuplicate is "replace" or "skip". Replace inserts the incoming
	// endpoint as a new row and re-points referencing test cases; skip
	// leaves the existing endpoint and its test linkage untouched.
	OnDuplicate string `json:"onDuplicate"`
	// Replacements limits replace mode to these existing endpoint IDs.
	// Empty means replace every duplicate.
	Replacements []string `json:"replacements,omitempty"`
	// MarkAsDeprecated flags superseded endpoint rows as deprecated.
	MarkAsDeprecated bool `json:"markAsDeprecated"`
}

// ImportError records one endpoint that failed during a merge batch.
type ImportError struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Error  string `json:"error"`
}

// ImportResult reports the outcome of a merge batch. Batches are allowed to
// partially succeed; failures are accumulated rather than aborting the batch.
type ImportResult struct {
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Errors    []ImportError `json:"errors,omitempty"`
}

// CompletenessReport scores how much optional metadata an endpoint carries,
// 0-100. Used for UI hinting only, never for gating merge decisions.
type CompletenessReport struct {
	Score   int                  `json:"score"`
	Checked int                  `json:"checked"`
	Filled  int                  `json:"filled"`
	Detail  []CompletenessDetail `json:"detail"`
}

// CompletenessDetail breaks the score down per section.
type CompletenessDetail struct {
	Section string `json:"section"` // parameters, body, responses, info
	Checked int    `json:"checked"`
	Filled  int    `json:"filled"`
}
