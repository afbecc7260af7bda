package models

import (
	"time"
)

// TestCase is a stored test bound to an endpoint.
//
// SourceEndpointID records the endpoint the test was originally generated
// from and never changes. CurrentEndpointID is the live link: when a merge
// replaces an endpoint with a new row, every referencing test is re-pointed
// here. It is never nulled.
type TestCase struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	SourceEndpointID  string            `json:"sourceEndpointId"`
	CurrentEndpointID string            `json:"currentEndpointId"`
	Method            string            `json:"method"`
	Path              string            `json:"path"`
	Headers           map[string]string `json:"headers,omitempty"`
	Body              string            `json:"body,omitempty"`
	ExpectedStatus    int               `json:"expectedStatus,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// TestCaseInput represents input for creating a test case
type TestCaseInput struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Headers        map[string]string `json:"headers"`
	Body           string            `json:"body"`
	ExpectedStatus int               `json:"expectedStatus"`
}
