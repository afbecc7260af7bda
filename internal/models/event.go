package models

import (
	"time"
)

// Import event types emitted by the merge executor. External layers (UI
// cache, websocket clients) subscribe to these instead of the executor
// calling into them directly.
const (
	EventEndpointInserted   = "endpoint.inserted"
	EventEndpointReplaced   = "endpoint.replaced"
	EventEndpointDeprecated = "endpoint.deprecated"
	EventTestRelinked       = "test.relinked"
	EventImportCompleted    = "import.completed"
)

// ImportEvent is one merge-side effect, broadcast to subscribers and kept in
// a bounded in-memory ring for later inspection.
type ImportEvent struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	SpecID        string    `json:"specId"`
	EndpointID    string    `json:"endpointId,omitempty"`
	OldEndpointID string    `json:"oldEndpointId,omitempty"`
	TestCaseID    string    `json:"testCaseId,omitempty"`
	Method        string    `json:"method,omitempty"`
	Path          string    `json:"path,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// EventFilter represents filters for querying recorded events
type EventFilter struct {
	SpecID     string    `json:"specId,omitempty"`
	Type       string    `json:"type,omitempty"`
	EndpointID string    `json:"endpointId,omitempty"`
	StartTime  time.Time `json:"startTime,omitempty"`
	EndTime    time.Time `json:"endTime,omitempty"`
	Limit      int       `json:"limit,omitempty"`
}
