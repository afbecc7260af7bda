package models

import (
	"time"
)

// Spec represents a stored API specification: a named, versioned collection
// of endpoints. RawSpec preserves the original uploaded document so it can be
// re-parsed later.
type Spec struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Version           string    `json:"version"`
	Description       string    `json:"description"`
	Format            string    `json:"format"` // openapi, postman, curl
	RawSpec           string    `json:"rawSpec,omitempty"`
	VersionGroup      string    `json:"versionGroup"` // Groups related versions of the same API
	PreviousVersionID string    `json:"previousVersionId,omitempty"`
	IsLatest          bool      `json:"isLatest"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// SpecInput represents input for creating a spec from a raw document
type SpecInput struct {
	Name        string `json:"name"`
	Content     string `json:"content"`
	Filename    string `json:"filename"`
	Description string `json:"description"`
}

// SpecUpdate represents input for updating spec settings
type SpecUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}
