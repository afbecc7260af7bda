package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tandt53/apilot/internal/models"
)

// Service records import events emitted by the merge executor and fans them
// out to subscribers. The merge engine never calls UI or cache layers
// directly; anything interested in merge side effects subscribes here.
type Service struct {
	mu          sync.RWMutex
	events      []*models.ImportEvent
	maxEvents   int
	subscribers map[string]chan *models.ImportEvent
}

// NewService creates a new event service
func NewService(maxEvents int) *Service {
	if maxEvents <= 0 {
		maxEvents = 1000
	}

	return &Service{
		events:      make([]*models.ImportEvent, 0),
		maxEvents:   maxEvents,
		subscribers: make(map[string]chan *models.ImportEvent),
	}
}

// Record stores a new event and notifies subscribers
func (s *Service) Record(event *models.ImportEvent) {
	s.mu.Lock()

	// Generate ID if not set
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	// Set timestamp if not set
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Add to ring
	s.events = append(s.events, event)

	// Trim if over max
	if len(s.events) > s.maxEvents {
		s.events = s.events[len(s.events)-s.maxEvents:]
	}

	// Get subscribers snapshot
	subscribers := make([]chan *models.ImportEvent, 0, len(s.subscribers))
	for _, ch := range s.subscribers {
		subscribers = append(subscribers, ch)
	}

	s.mu.Unlock()

	// Notify subscribers (non-blocking)
	for _, ch := range subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}

// GetEvents returns recorded events matching the filter, newest first
func (s *Service) GetEvents(filter *models.EventFilter) []*models.ImportEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.ImportEvent, 0)

	for i := len(s.events) - 1; i >= 0; i-- {
		event := s.events[i]

		// Apply filters
		if filter != nil {
			if filter.SpecID != "" && event.SpecID != filter.SpecID {
				continue
			}
			if filter.Type != "" && event.Type != filter.Type {
				continue
			}
			if filter.EndpointID != "" && event.EndpointID != filter.EndpointID && event.OldEndpointID != filter.EndpointID {
				continue
			}
			if !filter.StartTime.IsZero() && event.Timestamp.Before(filter.StartTime) {
				continue
			}
			if !filter.EndTime.IsZero() && event.Timestamp.After(filter.EndTime) {
				continue
			}
		}

		result = append(result, event)

		// Apply limit
		if filter != nil && filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}

	return result
}

// GetEvent returns a single event by ID
func (s *Service) GetEvent(id string) *models.ImportEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, event := range s.events {
		if event.ID == id {
			return event
		}
	}

	return nil
}

// Clear removes all recorded events
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make([]*models.ImportEvent, 0)
}

// ClearBySpec removes events for a specific spec
func (s *Service) ClearBySpec(specID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]*models.ImportEvent, 0)
	for _, event := range s.events {
		if event.SpecID != specID {
			filtered = append(filtered, event)
		}
	}
	s.events = filtered
}

// Subscribe creates a subscription for live events
func (s *Service) Subscribe() (string, chan *models.ImportEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan *models.ImportEvent, 100)
	s.subscribers[id] = ch

	return id, ch
}

// Unsubscribe removes a subscription
func (s *Service) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Stats returns event service statistics
func (s *Service) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"totalEvents":       len(s.events),
		"maxEvents":         s.maxEvents,
		"activeSubscribers": len(s.subscribers),
	}
}
