package reconcile

import (
	"fmt"

	"github.com/tandt53/apilot/internal/models"
	"github.com/tandt53/apilot/internal/storage"
)

// Analyzer compares an import batch against a stored spec and produces the
// structured diff the caller uses to drive merge decisions. It only ever
// reads from storage: running the same analysis twice against unchanged
// storage yields the same result.
type Analyzer struct {
	store storage.Storage
}

// NewAnalyzer creates a new import analyzer
func NewAnalyzer(store storage.Storage) *Analyzer {
	return &Analyzer{store: store}
}

// Analyze matches the incoming endpoints against the endpoints stored for
// targetSpecID, runs the field-level differ over every duplicate pair, and
// counts the test cases affected by each. An unknown spec ID is not an error:
// it degenerates to an analysis where everything is new.
//
// Incoming endpoints missing a method or path are skipped with a reason
// rather than failing the batch. Only storage failures surface as errors.
func (a *Analyzer) Analyze(incoming []*models.Endpoint, targetSpecID string) (*models.ImportAnalysis, error) {
	valid, skipped := partitionValid(incoming)

	existing, err := a.store.GetEndpointsBySpec(targetSpecID)
	if err != nil {
		return nil, fmt.Errorf("failed to load endpoints for spec %s: %w", targetSpecID, err)
	}

	match := Match(existing, valid)

	analysis := &models.ImportAnalysis{
		SpecID:               targetSpecID,
		Duplicates:           make([]models.EndpointComparison, 0, len(match.Duplicates)),
		NewEndpoints:         match.NewEndpoints,
		DeprecatedCandidates: match.DeprecatedCandidates,
		Skipped:              skipped,
	}

	for _, pair := range match.Duplicates {
		changes := Diff(pair.Existing, pair.Incoming)

		affected, err := a.store.CountTestCasesByEndpoint(pair.Existing.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count tests for endpoint %s: %w", pair.Existing.ID, err)
		}

		status := models.StatusUnchanged
		if len(changes) > 0 {
			status = models.StatusModified
		}

		analysis.Duplicates = append(analysis.Duplicates, models.EndpointComparison{
			Existing:      pair.Existing,
			Incoming:      pair.Incoming,
			Status:        status,
			HasChanges:    len(changes) > 0,
			Changes:       changes,
			AffectedTests: affected,
		})
	}

	analysis.Summary = summarize(analysis)
	return analysis, nil
}

// partitionValid separates endpoints with the required identity shape from
// malformed ones.
func partitionValid(incoming []*models.Endpoint) ([]*models.Endpoint, []models.SkippedEndpoint) {
	valid := make([]*models.Endpoint, 0, len(incoming))
	skipped := make([]models.SkippedEndpoint, 0)

	for _, e := range incoming {
		switch {
		case e == nil:
			skipped = append(skipped, models.SkippedEndpoint{Reason: "endpoint is nil"})
		case e.Method == "" && e.Path == "":
			skipped = append(skipped, models.SkippedEndpoint{Endpoint: e, Reason: "missing method and path"})
		case e.Method == "":
			skipped = append(skipped, models.SkippedEndpoint{Endpoint: e, Reason: "missing method"})
		case e.Path == "":
			skipped = append(skipped, models.SkippedEndpoint{Endpoint: e, Reason: "missing path"})
		default:
			valid = append(valid, e)
		}
	}

	return valid, skipped
}

func summarize(analysis *models.ImportAnalysis) models.ImportSummary {
	summary := models.ImportSummary{
		New:                  len(analysis.NewEndpoints),
		Duplicates:           len(analysis.Duplicates),
		DeprecatedCandidates: len(analysis.DeprecatedCandidates),
	}

	for _, dup := range analysis.Duplicates {
		if dup.AffectedTests > 0 {
			summary.DuplicatesWithTests++
		}
		if dup.HasChanges {
			summary.Modified++
		} else {
			summary.Unchanged++
		}
	}

	return summary
}
