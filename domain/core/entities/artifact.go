package entities

import (
	"strings"
	"time"

	"recall-backend/domain/core/valueobjects"
	pkgerrors "recall-backend/pkg/errors"
)

// ArtifactType distinguishes the two kinds of tracked artifacts
type ArtifactType string

const (
	ArtifactProblem  ArtifactType = "problem"
	ArtifactLearning ArtifactType = "learning"
)

// TrackedArtifact is a solved problem or learning resource tracked for
// review. Immutable once created except for metadata edits.
type TrackedArtifact struct {
	id           valueobjects.ItemID
	userID       string
	title        string
	category     string
	artifactType ArtifactType
	createdAt    time.Time
}

// NewTrackedArtifact creates a new artifact with validation
func NewTrackedArtifact(userID, title, category string, artifactType ArtifactType) (*TrackedArtifact, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, pkgerrors.NewValidationError("title cannot be empty")
	}
	if artifactType != ArtifactProblem && artifactType != ArtifactLearning {
		return nil, pkgerrors.NewValidationError("artifact type must be problem or learning")
	}

	return &TrackedArtifact{
		id:           valueobjects.NewItemID(),
		userID:       userID,
		title:        title,
		category:     category,
		artifactType: artifactType,
		createdAt:    time.Now(),
	}, nil
}

// ReconstructTrackedArtifact rebuilds an artifact from repository data
func ReconstructTrackedArtifact(
	id valueobjects.ItemID,
	userID, title, category string,
	artifactType ArtifactType,
	createdAt time.Time,
) *TrackedArtifact {
	return &TrackedArtifact{
		id:           id,
		userID:       userID,
		title:        title,
		category:     category,
		artifactType: artifactType,
		createdAt:    createdAt,
	}
}

// ID returns the artifact's identifier
func (a *TrackedArtifact) ID() valueobjects.ItemID { return a.id }

// UserID returns the owner's ID
func (a *TrackedArtifact) UserID() string { return a.userID }

// Title returns the artifact title
func (a *TrackedArtifact) Title() string { return a.title }

// Category returns the topic/category label
func (a *TrackedArtifact) Category() string { return a.category }

// Type returns the artifact type
func (a *TrackedArtifact) Type() ArtifactType { return a.artifactType }

// CreatedAt returns when the artifact was created
func (a *TrackedArtifact) CreatedAt() time.Time { return a.createdAt }

// UpdateMetadata edits title and category, the only mutable fields
func (a *TrackedArtifact) UpdateMetadata(title, category string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return pkgerrors.NewValidationError("title cannot be empty")
	}
	a.title = title
	a.category = category
	return nil
}
