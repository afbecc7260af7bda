package storage

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tandt53/apilot/internal/models"
)

func TestNewMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	if s == nil {
		t.Fatal("NewMemoryStorage returned nil")
	}
	if s.specs == nil || s.endpoints == nil || s.testCases == nil {
		t.Fatal("Storage maps not initialized")
	}
}

// Spec tests
func TestCreateSpec(t *testing.T) {
	s := NewMemoryStorage()

	spec := &models.Spec{
		ID:        "spec-1",
		Name:      "Pet Store",
		Version:   "1.0.0",
		IsLatest:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	err := s.CreateSpec(spec)
	if err != nil {
		t.Fatalf("CreateSpec failed: %v", err)
	}

	// Try to create duplicate
	err = s.CreateSpec(spec)
	if err == nil {
		t.Error("Expected error when creating duplicate spec")
	}
}

func TestGetSpec(t *testing.T) {
	s := NewMemoryStorage()

	spec := &models.Spec{
		ID:      "spec-1",
		Name:    "Pet Store",
		Version: "1.0.0",
	}
	_ = s.CreateSpec(spec)

	// Get existing spec
	result, err := s.GetSpec("spec-1")
	if err != nil {
		t.Fatalf("GetSpec failed: %v", err)
	}
	if result.Name != "Pet Store" {
		t.Errorf("Expected name 'Pet Store', got %q", result.Name)
	}

	// Get non-existent spec
	_, err = s.GetSpec("nonexistent")
	if err == nil {
		t.Error("Expected error when getting non-existent spec")
	}
}

func TestGetLatestSpecs(t *testing.T) {
	s := NewMemoryStorage()

	_ = s.CreateSpec(&models.Spec{ID: "spec-1", Name: "Pet Store v1", VersionGroup: "pets", IsLatest: false})
	_ = s.CreateSpec(&models.Spec{ID: "spec-2", Name: "Pet Store v2", VersionGroup: "pets", PreviousVersionID: "spec-1", IsLatest: true})
	_ = s.CreateSpec(&models.Spec{ID: "spec-3", Name: "Orders", VersionGroup: "orders", IsLatest: true})

	specs, err := s.GetLatestSpecs()
	if err != nil {
		t.Fatalf("GetLatestSpecs failed: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("Expected 2 latest specs, got %d", len(specs))
	}
	for _, spec := range specs {
		if !spec.IsLatest {
			t.Errorf("Got non-latest spec %s in latest list", spec.ID)
		}
	}
}

// Endpoint tests
func TestGetEndpointsBySpec(t *testing.T) {
	s := NewMemoryStorage()

	_ = s.CreateEndpoint(&models.Endpoint{ID: "ep-1", SpecID: "spec-1", Method: "GET", Path: "/pets"})
	_ = s.CreateEndpoint(&models.Endpoint{ID: "ep-2", SpecID: "spec-1", Method: "POST", Path: "/pets"})
	_ = s.CreateEndpoint(&models.Endpoint{ID: "ep-3", SpecID: "spec-2", Method: "GET", Path: "/orders"})

	endpoints, err := s.GetEndpointsBySpec("spec-1")
	if err != nil {
		t.Fatalf("GetEndpointsBySpec failed: %v", err)
	}
	if len(endpoints) != 2 {
		t.Fatalf("Expected 2 endpoints, got %d", len(endpoints))
	}

	// Sorted by path then method
	if endpoints[0].Method != "GET" || endpoints[1].Method != "POST" {
		t.Errorf("Endpoints not sorted: got %s, %s", endpoints[0].Method, endpoints[1].Method)
	}

	// Unknown spec yields empty slice, not error
	endpoints, err = s.GetEndpointsBySpec("nonexistent")
	if err != nil {
		t.Fatalf("GetEndpointsBySpec for unknown spec failed: %v", err)
	}
	if len(endpoints) != 0 {
		t.Errorf("Expected 0 endpoints for unknown spec, got %d", len(endpoints))
	}
}

func TestMarkEndpointDeprecated(t *testing.T) {
	s := NewMemoryStorage()

	_ = s.CreateEndpoint(&models.Endpoint{ID: "ep-1", SpecID: "spec-1", Method: "GET", Path: "/pets"})

	if err := s.MarkEndpointDeprecated("ep-1"); err != nil {
		t.Fatalf("MarkEndpointDeprecated failed: %v", err)
	}

	e, _ := s.GetEndpoint("ep-1")
	if !e.Deprecated {
		t.Error("Endpoint not marked deprecated")
	}

	if err := s.MarkEndpointDeprecated("nonexistent"); err == nil {
		t.Error("Expected error for non-existent endpoint")
	}
}

// TestCase tests
func TestCountTestCasesByEndpoint(t *testing.T) {
	s := NewMemoryStorage()

	_ = s.CreateTestCase(&models.TestCase{ID: "tc-1", SourceEndpointID: "ep-1", CurrentEndpointID: "ep-1"})
	_ = s.CreateTestCase(&models.TestCase{ID: "tc-2", SourceEndpointID: "ep-1", CurrentEndpointID: "ep-1"})
	_ = s.CreateTestCase(&models.TestCase{ID: "tc-3", SourceEndpointID: "ep-2", CurrentEndpointID: "ep-2"})

	count, err := s.CountTestCasesByEndpoint("ep-1")
	if err != nil {
		t.Fatalf("CountTestCasesByEndpoint failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 test cases, got %d", count)
	}

	count, _ = s.CountTestCasesByEndpoint("nonexistent")
	if count != 0 {
		t.Errorf("Expected 0 test cases for unknown endpoint, got %d", count)
	}
}

func TestUpdateTestCaseEndpointLink(t *testing.T) {
	s := NewMemoryStorage()

	_ = s.CreateTestCase(&models.TestCase{
		ID:                "tc-1",
		Name:              "list pets",
		SourceEndpointID:  "ep-1",
		CurrentEndpointID: "ep-1",
	})

	if err := s.UpdateTestCaseEndpointLink("tc-1", "ep-2"); err != nil {
		t.Fatalf("UpdateTestCaseEndpointLink failed: %v", err)
	}

	tc, _ := s.GetTestCase("tc-1")
	if tc.CurrentEndpointID != "ep-2" {
		t.Errorf("Expected current endpoint 'ep-2', got %q", tc.CurrentEndpointID)
	}
	if tc.SourceEndpointID != "ep-1" {
		t.Errorf("Source endpoint changed: got %q", tc.SourceEndpointID)
	}

	// Link can never be emptied
	if err := s.UpdateTestCaseEndpointLink("tc-1", ""); err == nil {
		t.Error("Expected error when nulling endpoint link")
	}

	if err := s.UpdateTestCaseEndpointLink("nonexistent", "ep-2"); err == nil {
		t.Error("Expected error for non-existent test case")
	}
}

func TestUpdateTestCaseSourceImmutable(t *testing.T) {
	s := NewMemoryStorage()

	_ = s.CreateTestCase(&models.TestCase{
		ID:                "tc-1",
		SourceEndpointID:  "ep-1",
		CurrentEndpointID: "ep-1",
	})

	err := s.UpdateTestCase(&models.TestCase{
		ID:                "tc-1",
		SourceEndpointID:  "ep-9",
		CurrentEndpointID: "ep-1",
	})
	if err == nil {
		t.Error("Expected error when changing sourceEndpointId")
	}
}

func TestConcurrentEndpointAccess(t *testing.T) {
	s := NewMemoryStorage()

	var wg sync.WaitGroup
	iterations := 100

	// Concurrent creates
	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			e := &models.Endpoint{
				ID:     fmt.Sprintf("ep-%d", n),
				SpecID: "spec-1",
			}
			_ = s.CreateEndpoint(e)
		}(i)
	}
	wg.Wait()

	// Concurrent reads
	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.GetEndpointsBySpec("spec-1")
		}()
	}
	wg.Wait()
}
