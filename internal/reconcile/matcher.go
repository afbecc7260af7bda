package reconcile

import (
	"strings"

	"github.com/tandt53/apilot/internal/models"
)

// MatchPair pairs an incoming endpoint with the existing endpoint that shares
// its (method, path) key.
type MatchPair struct {
	Existing *models.Endpoint
	Incoming *models.Endpoint
}

// MatchResult partitions an import batch against a stored endpoint set into
// three disjoint groups.
type MatchResult struct {
	// Duplicates are incoming endpoints whose (method, path) already exists.
	Duplicates []MatchPair
	// NewEndpoints are incoming endpoints with no existing match.
	NewEndpoints []*models.Endpoint
	// DeprecatedCandidates are existing endpoints absent from the import:
	// present before, missing after, signalling possible removal from the API.
	DeprecatedCandidates []*models.Endpoint
}

// Match pairs endpoints by identity key. The method is compared
// case-insensitively (normalized to uppercase), the path case-sensitively.
// Path template parameter names are not normalized: /users/{id} and
// /users/{userId} are distinct keys, so a renamed path parameter shows up as
// one removal plus one addition.
//
// Match always succeeds: empty existing means everything is new, empty
// incoming means everything is a deprecation candidate.
func Match(existing, incoming []*models.Endpoint) MatchResult {
	result := MatchResult{
		Duplicates:           make([]MatchPair, 0),
		NewEndpoints:         make([]*models.Endpoint, 0),
		DeprecatedCandidates: make([]*models.Endpoint, 0),
	}

	byKey := make(map[string]*models.Endpoint, len(existing))
	for _, e := range existing {
		key := matchKey(e)
		// First occurrence wins if a stored spec somehow carries duplicates
		if _, ok := byKey[key]; !ok {
			byKey[key] = e
		}
	}

	matched := make(map[string]bool, len(existing))
	for _, in := range incoming {
		key := matchKey(in)
		if ex, ok := byKey[key]; ok {
			result.Duplicates = append(result.Duplicates, MatchPair{Existing: ex, Incoming: in})
			matched[key] = true
		} else {
			result.NewEndpoints = append(result.NewEndpoints, in)
		}
	}

	for _, e := range existing {
		if !matched[matchKey(e)] {
			result.DeprecatedCandidates = append(result.DeprecatedCandidates, e)
		}
	}

	return result
}

func matchKey(e *models.Endpoint) string {
	return strings.ToUpper(e.Method) + " " + e.Path
}
