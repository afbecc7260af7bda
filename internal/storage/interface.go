package storage

import (
	"github.com/tandt53/apilot/internal/models"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Spec operations
	CreateSpec(spec *models.Spec) error
	GetSpec(id string) (*models.Spec, error)
	GetAllSpecs() ([]*models.Spec, error)
	GetLatestSpecs() ([]*models.Spec, error)
	UpdateSpec(spec *models.Spec) error
	DeleteSpec(id string) error

	// Endpoint operations
	CreateEndpoint(e *models.Endpoint) error
	GetEndpoint(id string) (*models.Endpoint, error)
	GetEndpointsBySpec(specID string) ([]*models.Endpoint, error)
	GetAllEndpoints() ([]*models.Endpoint, error)
	UpdateEndpoint(e *models.Endpoint) error
	MarkEndpointDeprecated(id string) error
	DeleteEndpoint(id string) error
	DeleteEndpointsBySpec(specID string) error

	// TestCase operations
	CreateTestCase(tc *models.TestCase) error
	GetTestCase(id string) (*models.TestCase, error)
	GetTestCasesByCurrentEndpoint(endpointID string) ([]*models.TestCase, error)
	CountTestCasesByEndpoint(endpointID string) (int, error)
	UpdateTestCase(tc *models.TestCase) error
	UpdateTestCaseEndpointLink(testCaseID, newEndpointID string) error
	DeleteTestCase(id string) error

	// Utility
	Close() error
}
