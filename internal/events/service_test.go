package events

import (
	"testing"
	"time"

	"github.com/tandt53/apilot/internal/models"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name        string
		maxEvents   int
		expectedMax int
	}{
		{"positive max", 500, 500},
		{"zero max defaults to 1000", 0, 1000},
		{"negative max defaults to 1000", -1, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(tt.maxEvents)
			if s == nil {
				t.Fatal("NewService returned nil")
			}
			if s.maxEvents != tt.expectedMax {
				t.Errorf("Expected maxEvents %d, got %d", tt.expectedMax, s.maxEvents)
			}
		})
	}
}

func TestRecord(t *testing.T) {
	s := NewService(100)

	event := &models.ImportEvent{
		Type:       models.EventEndpointInserted,
		SpecID:     "spec-1",
		EndpointID: "ep-1",
		Method:     "GET",
		Path:       "/pets",
	}

	s.Record(event)

	// Verify ID was generated
	if event.ID == "" {
		t.Error("Expected event ID to be generated")
	}

	// Verify timestamp was set
	if event.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}

	got := s.GetEvent(event.ID)
	if got == nil {
		t.Fatal("Recorded event not found")
	}
	if got.Type != models.EventEndpointInserted {
		t.Errorf("Expected type %q, got %q", models.EventEndpointInserted, got.Type)
	}
}

func TestRecordTrimsRing(t *testing.T) {
	s := NewService(5)

	for i := 0; i < 10; i++ {
		s.Record(&models.ImportEvent{Type: models.EventEndpointInserted, SpecID: "spec-1"})
	}

	result := s.GetEvents(nil)
	if len(result) != 5 {
		t.Errorf("Expected ring trimmed to 5 events, got %d", len(result))
	}
}

func TestGetEventsFilter(t *testing.T) {
	s := NewService(100)

	s.Record(&models.ImportEvent{Type: models.EventEndpointInserted, SpecID: "spec-1", EndpointID: "ep-1"})
	s.Record(&models.ImportEvent{Type: models.EventEndpointReplaced, SpecID: "spec-1", EndpointID: "ep-2", OldEndpointID: "ep-1"})
	s.Record(&models.ImportEvent{Type: models.EventEndpointInserted, SpecID: "spec-2", EndpointID: "ep-3"})

	// By spec
	result := s.GetEvents(&models.EventFilter{SpecID: "spec-1"})
	if len(result) != 2 {
		t.Errorf("Expected 2 events for spec-1, got %d", len(result))
	}

	// By type
	result = s.GetEvents(&models.EventFilter{Type: models.EventEndpointReplaced})
	if len(result) != 1 {
		t.Errorf("Expected 1 replaced event, got %d", len(result))
	}

	// By endpoint, matching old endpoint links too
	result = s.GetEvents(&models.EventFilter{EndpointID: "ep-1"})
	if len(result) != 2 {
		t.Errorf("Expected 2 events touching ep-1, got %d", len(result))
	}

	// Limit, newest first
	result = s.GetEvents(&models.EventFilter{Limit: 1})
	if len(result) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(result))
	}
	if result[0].EndpointID != "ep-3" {
		t.Errorf("Expected newest event first, got endpoint %q", result[0].EndpointID)
	}
}

func TestSubscribe(t *testing.T) {
	s := NewService(100)

	id, ch := s.Subscribe()
	defer s.Unsubscribe(id)

	s.Record(&models.ImportEvent{Type: models.EventTestRelinked, TestCaseID: "tc-1"})

	select {
	case event := <-ch:
		if event.TestCaseID != "tc-1" {
			t.Errorf("Expected test case 'tc-1', got %q", event.TestCaseID)
		}
	case <-time.After(time.Second):
		t.Fatal("Subscriber did not receive event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	s := NewService(100)

	id, ch := s.Subscribe()
	s.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after unsubscribe")
	}
}

func TestClearBySpec(t *testing.T) {
	s := NewService(100)

	s.Record(&models.ImportEvent{Type: models.EventEndpointInserted, SpecID: "spec-1"})
	s.Record(&models.ImportEvent{Type: models.EventEndpointInserted, SpecID: "spec-2"})

	s.ClearBySpec("spec-1")

	result := s.GetEvents(nil)
	if len(result) != 1 {
		t.Fatalf("Expected 1 event after clear, got %d", len(result))
	}
	if result[0].SpecID != "spec-2" {
		t.Errorf("Wrong event survived clear: %q", result[0].SpecID)
	}
}
