package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tandt53/apilot/internal/events"
	"github.com/tandt53/apilot/internal/models"
	"github.com/tandt53/apilot/internal/stats"
	"github.com/tandt53/apilot/internal/storage"
)

// Executor applies a chosen resolution policy for an import batch against
// storage.
//
// Replacing a duplicate never overwrites the stored row: the incoming
// endpoint is inserted as a new row, every test case currently linked to the
// old endpoint is re-pointed at the new one, and the old row is kept
// (optionally flagged deprecated) so test history stays intelligible. A
// test's source endpoint link is never touched.
//
// Batches partially succeed by design: a failed endpoint is recorded and the
// batch moves on, without rolling back endpoints already merged. The executor
// assumes single-writer access to the target spec; concurrent imports into
// the same spec are not guarded against.
type Executor struct {
	store  storage.Storage
	events *events.Service
	stats  *stats.Collector
}

// NewExecutor creates a new merge executor. The event service and stats
// collector may be nil when the caller has no use for them.
func NewExecutor(store storage.Storage, ev *events.Service, st *stats.Collector) *Executor {
	return &Executor{store: store, events: ev, stats: st}
}

// Apply merges the incoming endpoints into targetSpecID under the policy in
// opts. The context is checked between endpoints so a stop request aborts
// cleanly after the current endpoint completes, never mid-insert.
func (x *Executor) Apply(ctx context.Context, incoming []*models.Endpoint, targetSpecID string, opts models.ImportOptions) (*models.ImportResult, error) {
	if opts.OnDuplicate == "" {
		opts.OnDuplicate = models.OnDuplicateReplace
	}
	if opts.OnDuplicate != models.OnDuplicateReplace && opts.OnDuplicate != models.OnDuplicateSkip {
		return nil, fmt.Errorf("invalid onDuplicate policy: %q", opts.OnDuplicate)
	}

	start := time.Now()

	valid, skippedInvalid := partitionValid(incoming)

	existing, err := x.store.GetEndpointsBySpec(targetSpecID)
	if err != nil {
		return nil, fmt.Errorf("failed to load endpoints for spec %s: %w", targetSpecID, err)
	}

	match := Match(existing, valid)

	// Empty replacement list means every duplicate is eligible
	replaceAll := len(opts.Replacements) == 0
	replaceable := make(map[string]bool, len(opts.Replacements))
	for _, id := range opts.Replacements {
		replaceable[id] = true
	}

	result := &models.ImportResult{Errors: make([]models.ImportError, 0)}
	for _, s := range skippedInvalid {
		result.Failed++
		result.Errors = append(result.Errors, models.ImportError{Error: s.Reason})
	}

	inserted := 0
	replaced := 0
	relinked := 0

	for _, e := range match.NewEndpoints {
		if err := ctx.Err(); err != nil {
			x.finish(targetSpecID, result, inserted, replaced, relinked, start)
			return result, err
		}

		if err := x.insertEndpoint(e, targetSpecID); err != nil {
			x.recordFailure(result, targetSpecID, e, err)
			continue
		}
		inserted++
		result.Succeeded++
		x.emit(&models.ImportEvent{
			Type:       models.EventEndpointInserted,
			SpecID:     targetSpecID,
			EndpointID: e.ID,
			Method:     e.Method,
			Path:       e.Path,
		})
	}

	for _, pair := range match.Duplicates {
		if err := ctx.Err(); err != nil {
			x.finish(targetSpecID, result, inserted, replaced, relinked, start)
			return result, err
		}

		if opts.OnDuplicate == models.OnDuplicateSkip || (!replaceAll && !replaceable[pair.Existing.ID]) {
			result.Skipped++
			continue
		}

		n, err := x.replaceEndpoint(pair, targetSpecID, opts.MarkAsDeprecated)
		relinked += n
		if err != nil {
			x.recordFailure(result, targetSpecID, pair.Incoming, err)
			continue
		}
		replaced++
		result.Succeeded++
	}

	x.finish(targetSpecID, result, inserted, replaced, relinked, start)
	return result, nil
}

// ApplyAsNewVersion creates a fresh spec version instead of merging: a new
// spec row joins the base spec's version group, the base loses its latest
// flag, and every incoming endpoint is inserted untouched under the new spec.
func (x *Executor) ApplyAsNewVersion(ctx context.Context, base *models.Spec, version string, incoming []*models.Endpoint) (*models.Spec, *models.ImportResult, error) {
	if base == nil {
		return nil, nil, fmt.Errorf("base spec is required")
	}

	now := time.Now()
	spec := &models.Spec{
		ID:                uuid.New().String(),
		Name:              base.Name,
		Version:           version,
		Description:       base.Description,
		Format:            base.Format,
		VersionGroup:      base.VersionGroup,
		PreviousVersionID: base.ID,
		IsLatest:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if spec.VersionGroup == "" {
		spec.VersionGroup = base.ID
	}

	if err := x.store.CreateSpec(spec); err != nil {
		return nil, nil, fmt.Errorf("failed to create spec version: %w", err)
	}

	base.IsLatest = false
	base.UpdatedAt = now
	if err := x.store.UpdateSpec(base); err != nil {
		return nil, nil, fmt.Errorf("failed to update previous version: %w", err)
	}

	result, err := x.Apply(ctx, incoming, spec.ID, models.ImportOptions{OnDuplicate: models.OnDuplicateReplace})
	return spec, result, err
}

// insertEndpoint stores an incoming endpoint as a new row under the target
// spec.
func (x *Executor) insertEndpoint(e *models.Endpoint, specID string) error {
	now := time.Now()
	e.ID = uuid.New().String()
	e.SpecID = specID
	e.Method = strings.ToUpper(e.Method)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	return x.store.CreateEndpoint(e)
}

// replaceEndpoint runs the insert + relink + deprecate unit for one duplicate
// pair. The relink count is returned even on failure so stats stay accurate.
// If relinking fails after the insert succeeded, the new row is already
// discoverable; the error is surfaced instead of silently moving on.
func (x *Executor) replaceEndpoint(pair MatchPair, specID string, markDeprecated bool) (int, error) {
	old := pair.Existing
	incoming := pair.Incoming

	if err := x.insertEndpoint(incoming, specID); err != nil {
		return 0, fmt.Errorf("insert failed: %w", err)
	}

	testCases, err := x.store.GetTestCasesByCurrentEndpoint(old.ID)
	if err != nil {
		return 0, fmt.Errorf("endpoint %s inserted but test lookup failed: %w", incoming.ID, err)
	}

	relinked := 0
	for _, tc := range testCases {
		if err := x.store.UpdateTestCaseEndpointLink(tc.ID, incoming.ID); err != nil {
			return relinked, fmt.Errorf("endpoint %s inserted but relinking test %s failed: %w", incoming.ID, tc.ID, err)
		}
		relinked++
		x.emit(&models.ImportEvent{
			Type:          models.EventTestRelinked,
			SpecID:        specID,
			EndpointID:    incoming.ID,
			OldEndpointID: old.ID,
			TestCaseID:    tc.ID,
		})
	}

	if markDeprecated {
		if err := x.store.MarkEndpointDeprecated(old.ID); err != nil {
			return relinked, fmt.Errorf("endpoint %s inserted but deprecating %s failed: %w", incoming.ID, old.ID, err)
		}
		x.emit(&models.ImportEvent{
			Type:       models.EventEndpointDeprecated,
			SpecID:     specID,
			EndpointID: old.ID,
			Method:     old.Method,
			Path:       old.Path,
		})
	}

	x.emit(&models.ImportEvent{
		Type:          models.EventEndpointReplaced,
		SpecID:        specID,
		EndpointID:    incoming.ID,
		OldEndpointID: old.ID,
		Method:        incoming.Method,
		Path:          incoming.Path,
	})

	return relinked, nil
}

func (x *Executor) recordFailure(result *models.ImportResult, specID string, e *models.Endpoint, err error) {
	result.Failed++
	result.Errors = append(result.Errors, models.ImportError{
		Method: e.Method,
		Path:   e.Path,
		Error:  err.Error(),
	})
	log.Warn().Err(err).Str("spec", specID).Str("method", e.Method).Str("path", e.Path).Msg("endpoint merge failed")
	if x.stats != nil {
		x.stats.RecordFailure(specID, e.Method, e.Path, err)
	}
}

func (x *Executor) finish(specID string, result *models.ImportResult, inserted, replaced, relinked int, start time.Time) {
	x.emit(&models.ImportEvent{
		Type:   models.EventImportCompleted,
		SpecID: specID,
		Detail: fmt.Sprintf("%d succeeded, %d failed, %d skipped", result.Succeeded, result.Failed, result.Skipped),
	})
	if x.stats != nil {
		x.stats.RecordImport(specID, inserted, replaced, result.Skipped, relinked, result.Failed, time.Since(start))
	}
}

func (x *Executor) emit(event *models.ImportEvent) {
	if x.events != nil {
		x.events.Record(event)
	}
}
