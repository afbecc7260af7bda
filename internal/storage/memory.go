package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tandt53/apilot/internal/models"
)

// MemoryStorage implements Storage interface with in-memory storage
type MemoryStorage struct {
	mu        sync.RWMutex
	specs     map[string]*models.Spec
	endpoints map[string]*models.Endpoint
	testCases map[string]*models.TestCase
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		specs:     make(map[string]*models.Spec),
		endpoints: make(map[string]*models.Endpoint),
		testCases: make(map[string]*models.TestCase),
	}
}

// CreateSpec creates a new spec
func (m *MemoryStorage) CreateSpec(spec *models.Spec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.specs[spec.ID]; exists {
		return fmt.Errorf("spec with ID %s already exists", spec.ID)
	}

	m.specs[spec.ID] = spec
	return nil
}

// GetSpec retrieves a spec by ID
func (m *MemoryStorage) GetSpec(id string) (*models.Spec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	spec, exists := m.specs[id]
	if !exists {
		return nil, fmt.Errorf("spec not found: %s", id)
	}

	return spec, nil
}

// GetAllSpecs retrieves all specs
func (m *MemoryStorage) GetAllSpecs() ([]*models.Spec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	specs := make([]*models.Spec, 0, len(m.specs))
	for _, spec := range m.specs {
		specs = append(specs, spec)
	}

	// Sort by name
	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Name < specs[j].Name
	})

	return specs, nil
}

// GetLatestSpecs retrieves the latest version of every version group
func (m *MemoryStorage) GetLatestSpecs() ([]*models.Spec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	specs := make([]*models.Spec, 0)
	for _, spec := range m.specs {
		if spec.IsLatest {
			specs = append(specs, spec)
		}
	}

	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Name < specs[j].Name
	})

	return specs, nil
}

// UpdateSpec updates a spec
func (m *MemoryStorage) UpdateSpec(spec *models.Spec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.specs[spec.ID]; !exists {
		return fmt.Errorf("spec not found: %s", spec.ID)
	}

	m.specs[spec.ID] = spec
	return nil
}

// DeleteSpec deletes a spec
func (m *MemoryStorage) DeleteSpec(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.specs[id]; !exists {
		return fmt.Errorf("spec not found: %s", id)
	}

	delete(m.specs, id)
	return nil
}

// CreateEndpoint creates a new endpoint
func (m *MemoryStorage) CreateEndpoint(e *models.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.endpoints[e.ID]; exists {
		return fmt.Errorf("endpoint with ID %s already exists", e.ID)
	}

	m.endpoints[e.ID] = e
	return nil
}

// GetEndpoint retrieves an endpoint by ID
func (m *MemoryStorage) GetEndpoint(id string) (*models.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, exists := m.endpoints[id]
	if !exists {
		return nil, fmt.Errorf("endpoint not found: %s", id)
	}

	return e, nil
}

// GetEndpointsBySpec retrieves all endpoints for a spec. An unknown spec ID
// yields an empty slice, not an error.
func (m *MemoryStorage) GetEndpointsBySpec(specID string) ([]*models.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	endpoints := make([]*models.Endpoint, 0)
	for _, e := range m.endpoints {
		if e.SpecID == specID {
			endpoints = append(endpoints, e)
		}
	}

	// Sort by path, then method
	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].Path != endpoints[j].Path {
			return endpoints[i].Path < endpoints[j].Path
		}
		return endpoints[i].Method < endpoints[j].Method
	})

	return endpoints, nil
}

// GetAllEndpoints retrieves all endpoints
func (m *MemoryStorage) GetAllEndpoints() ([]*models.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	endpoints := make([]*models.Endpoint, 0, len(m.endpoints))
	for _, e := range m.endpoints {
		endpoints = append(endpoints, e)
	}

	return endpoints, nil
}

// UpdateEndpoint updates an endpoint
func (m *MemoryStorage) UpdateEndpoint(e *models.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.endpoints[e.ID]; !exists {
		return fmt.Errorf("endpoint not found: %s", e.ID)
	}

	m.endpoints[e.ID] = e
	return nil
}

// MarkEndpointDeprecated flags an endpoint as deprecated without touching the
// rest of the row
func (m *MemoryStorage) MarkEndpointDeprecated(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.endpoints[id]
	if !exists {
		return fmt.Errorf("endpoint not found: %s", id)
	}

	e.Deprecated = true
	e.UpdatedAt = time.Now()
	return nil
}

// DeleteEndpoint deletes an endpoint
func (m *MemoryStorage) DeleteEndpoint(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.endpoints[id]; !exists {
		return fmt.Errorf("endpoint not found: %s", id)
	}

	delete(m.endpoints, id)
	return nil
}

// DeleteEndpointsBySpec deletes all endpoints for a spec
func (m *MemoryStorage) DeleteEndpointsBySpec(specID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.endpoints {
		if e.SpecID == specID {
			delete(m.endpoints, id)
		}
	}

	return nil
}

// CreateTestCase creates a new test case
func (m *MemoryStorage) CreateTestCase(tc *models.TestCase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.testCases[tc.ID]; exists {
		return fmt.Errorf("test case with ID %s already exists", tc.ID)
	}

	m.testCases[tc.ID] = tc
	return nil
}

// GetTestCase retrieves a test case by ID
func (m *MemoryStorage) GetTestCase(id string) (*models.TestCase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tc, exists := m.testCases[id]
	if !exists {
		return nil, fmt.Errorf("test case not found: %s", id)
	}

	return tc, nil
}

// GetTestCasesByCurrentEndpoint retrieves all test cases currently linked to
// an endpoint
func (m *MemoryStorage) GetTestCasesByCurrentEndpoint(endpointID string) ([]*models.TestCase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tcs := make([]*models.TestCase, 0)
	for _, tc := range m.testCases {
		if tc.CurrentEndpointID == endpointID {
			tcs = append(tcs, tc)
		}
	}

	// Sort by name
	sort.Slice(tcs, func(i, j int) bool {
		return tcs[i].Name < tcs[j].Name
	})

	return tcs, nil
}

// CountTestCasesByEndpoint counts test cases currently linked to an endpoint
func (m *MemoryStorage) CountTestCasesByEndpoint(endpointID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, tc := range m.testCases {
		if tc.CurrentEndpointID == endpointID {
			count++
		}
	}

	return count, nil
}

// UpdateTestCase updates a test case. The source endpoint link is immutable;
// attempts to change it are rejected.
func (m *MemoryStorage) UpdateTestCase(tc *models.TestCase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.testCases[tc.ID]
	if !exists {
		return fmt.Errorf("test case not found: %s", tc.ID)
	}

	if tc.SourceEndpointID != existing.SourceEndpointID {
		return fmt.Errorf("test case %s: sourceEndpointId is immutable", tc.ID)
	}

	m.testCases[tc.ID] = tc
	return nil
}

// UpdateTestCaseEndpointLink re-points a test case's current endpoint link.
// The source endpoint link is left untouched and the new link is never empty.
func (m *MemoryStorage) UpdateTestCaseEndpointLink(testCaseID, newEndpointID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tc, exists := m.testCases[testCaseID]
	if !exists {
		return fmt.Errorf("test case not found: %s", testCaseID)
	}

	if newEndpointID == "" {
		return fmt.Errorf("test case %s: current endpoint link cannot be empty", testCaseID)
	}

	tc.CurrentEndpointID = newEndpointID
	tc.UpdatedAt = time.Now()
	return nil
}

// DeleteTestCase deletes a test case
func (m *MemoryStorage) DeleteTestCase(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.testCases[id]; !exists {
		return fmt.Errorf("test case not found: %s", id)
	}

	delete(m.testCases, id)
	return nil
}

// Close closes the storage (no-op for memory storage)
func (m *MemoryStorage) Close() error {
	return nil
}
