package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tandt53/apilot/internal/models"
)

// FileStorage implements Storage interface with file-based persistence
type FileStorage struct {
	mu       sync.RWMutex
	basePath string
	memory   *MemoryStorage
}

// NewFileStorage creates a new file-based storage
func NewFileStorage(basePath string) (*FileStorage, error) {
	// Create directories if they don't exist
	dirs := []string{
		basePath,
		filepath.Join(basePath, "specs"),
		filepath.Join(basePath, "endpoints"),
		filepath.Join(basePath, "testcases"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fs := &FileStorage{
		basePath: basePath,
		memory:   NewMemoryStorage(),
	}

	// Load existing data
	if err := fs.loadAll(); err != nil {
		return nil, err
	}

	return fs, nil
}

// loadAll loads all data from disk
func (f *FileStorage) loadAll() error {
	// Load specs
	if err := f.loadDir("specs", func(data []byte) {
		var spec models.Spec
		if err := json.Unmarshal(data, &spec); err == nil {
			f.memory.specs[spec.ID] = &spec
		}
	}); err != nil {
		return err
	}

	// Load endpoints
	if err := f.loadDir("endpoints", func(data []byte) {
		var e models.Endpoint
		if err := json.Unmarshal(data, &e); err == nil {
			f.memory.endpoints[e.ID] = &e
		}
	}); err != nil {
		return err
	}

	// Load test cases
	return f.loadDir("testcases", func(data []byte) {
		var tc models.TestCase
		if err := json.Unmarshal(data, &tc); err == nil {
			f.memory.testCases[tc.ID] = &tc
		}
	})
}

// loadDir reads every JSON file in a subdirectory and hands it to load
func (f *FileStorage) loadDir(subdir string, load func([]byte)) error {
	dir := filepath.Join(f.basePath, subdir)
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		load(data)
	}

	return nil
}

// saveJSON writes a record to disk as indented JSON
func (f *FileStorage) saveJSON(subdir, id string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(f.basePath, subdir, id+".json")
	return os.WriteFile(path, data, 0644)
}

// deleteFile removes a record file from disk
func (f *FileStorage) deleteFile(subdir, id string) error {
	path := filepath.Join(f.basePath, subdir, id+".json")
	return os.Remove(path)
}

// CreateSpec creates a new spec
func (f *FileStorage) CreateSpec(spec *models.Spec) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.CreateSpec(spec); err != nil {
		return err
	}

	return f.saveJSON("specs", spec.ID, spec)
}

// GetSpec retrieves a spec by ID
func (f *FileStorage) GetSpec(id string) (*models.Spec, error) {
	return f.memory.GetSpec(id)
}

// GetAllSpecs retrieves all specs
func (f *FileStorage) GetAllSpecs() ([]*models.Spec, error) {
	return f.memory.GetAllSpecs()
}

// GetLatestSpecs retrieves the latest version of every version group
func (f *FileStorage) GetLatestSpecs() ([]*models.Spec, error) {
	return f.memory.GetLatestSpecs()
}

// UpdateSpec updates a spec
func (f *FileStorage) UpdateSpec(spec *models.Spec) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.UpdateSpec(spec); err != nil {
		return err
	}

	return f.saveJSON("specs", spec.ID, spec)
}

// DeleteSpec deletes a spec
func (f *FileStorage) DeleteSpec(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.DeleteSpec(id); err != nil {
		return err
	}

	return f.deleteFile("specs", id)
}

// CreateEndpoint creates a new endpoint
func (f *FileStorage) CreateEndpoint(e *models.Endpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.CreateEndpoint(e); err != nil {
		return err
	}

	return f.saveJSON("endpoints", e.ID, e)
}

// GetEndpoint retrieves an endpoint by ID
func (f *FileStorage) GetEndpoint(id string) (*models.Endpoint, error) {
	return f.memory.GetEndpoint(id)
}

// GetEndpointsBySpec retrieves all endpoints for a spec
func (f *FileStorage) GetEndpointsBySpec(specID string) ([]*models.Endpoint, error) {
	return f.memory.GetEndpointsBySpec(specID)
}

// GetAllEndpoints retrieves all endpoints
func (f *FileStorage) GetAllEndpoints() ([]*models.Endpoint, error) {
	return f.memory.GetAllEndpoints()
}

// UpdateEndpoint updates an endpoint
func (f *FileStorage) UpdateEndpoint(e *models.Endpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.UpdateEndpoint(e); err != nil {
		return err
	}

	return f.saveJSON("endpoints", e.ID, e)
}

// MarkEndpointDeprecated flags an endpoint as deprecated
func (f *FileStorage) MarkEndpointDeprecated(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.MarkEndpointDeprecated(id); err != nil {
		return err
	}

	e, err := f.memory.GetEndpoint(id)
	if err != nil {
		return err
	}

	return f.saveJSON("endpoints", e.ID, e)
}

// DeleteEndpoint deletes an endpoint
func (f *FileStorage) DeleteEndpoint(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.DeleteEndpoint(id); err != nil {
		return err
	}

	return f.deleteFile("endpoints", id)
}

// DeleteEndpointsBySpec deletes all endpoints for a spec
func (f *FileStorage) DeleteEndpointsBySpec(specID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Get endpoints to delete
	endpoints, _ := f.memory.GetEndpointsBySpec(specID)

	// Delete from memory
	if err := f.memory.DeleteEndpointsBySpec(specID); err != nil {
		return err
	}

	// Delete files
	for _, e := range endpoints {
		f.deleteFile("endpoints", e.ID)
	}

	return nil
}

// CreateTestCase creates a new test case
func (f *FileStorage) CreateTestCase(tc *models.TestCase) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.CreateTestCase(tc); err != nil {
		return err
	}

	return f.saveJSON("testcases", tc.ID, tc)
}

// GetTestCase retrieves a test case by ID
func (f *FileStorage) GetTestCase(id string) (*models.TestCase, error) {
	return f.memory.GetTestCase(id)
}

// GetTestCasesByCurrentEndpoint retrieves all test cases currently linked to
// an endpoint
func (f *FileStorage) GetTestCasesByCurrentEndpoint(endpointID string) ([]*models.TestCase, error) {
	return f.memory.GetTestCasesByCurrentEndpoint(endpointID)
}

// CountTestCasesByEndpoint counts test cases currently linked to an endpoint
func (f *FileStorage) CountTestCasesByEndpoint(endpointID string) (int, error) {
	return f.memory.CountTestCasesByEndpoint(endpointID)
}

// UpdateTestCase updates a test case
func (f *FileStorage) UpdateTestCase(tc *models.TestCase) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.UpdateTestCase(tc); err != nil {
		return err
	}

	return f.saveJSON("testcases", tc.ID, tc)
}

// UpdateTestCaseEndpointLink re-points a test case's current endpoint link
func (f *FileStorage) UpdateTestCaseEndpointLink(testCaseID, newEndpointID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.UpdateTestCaseEndpointLink(testCaseID, newEndpointID); err != nil {
		return err
	}

	tc, err := f.memory.GetTestCase(testCaseID)
	if err != nil {
		return err
	}

	return f.saveJSON("testcases", tc.ID, tc)
}

// DeleteTestCase deletes a test case
func (f *FileStorage) DeleteTestCase(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.memory.DeleteTestCase(id); err != nil {
		return err
	}

	return f.deleteFile("testcases", id)
}

// Close closes the storage
func (f *FileStorage) Close() error {
	return nil
}
