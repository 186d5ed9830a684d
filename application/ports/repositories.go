package ports

import (
	"context"
	"time"

	"recall-backend/domain/core/aggregates"
	"recall-backend/domain/core/entities"
	"recall-backend/domain/core/valueobjects"
	"recall-backend/domain/events"
	"recall-backend/domain/scheduling"
)

// RevisionItemRepository defines the interface for revision item persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type RevisionItemRepository interface {
	// Save persists an item (create or update) with optimistic locking
	Save(ctx context.Context, item *entities.RevisionItem) error

	// GetByID retrieves an item by its ID
	GetByID(ctx context.Context, id valueobjects.ItemID) (*entities.RevisionItem, error)

	// GetByUserID retrieves all items for a user
	GetByUserID(ctx context.Context, userID string) ([]*entities.RevisionItem, error)

	// Delete removes an item
	Delete(ctx context.Context, id valueobjects.ItemID) error
}

// ArtifactRepository defines the interface for tracked artifact persistence
type ArtifactRepository interface {
	Save(ctx context.Context, artifact *entities.TrackedArtifact) error
	GetByID(ctx context.Context, id valueobjects.ItemID) (*entities.TrackedArtifact, error)
	GetByUserID(ctx context.Context, userID string) ([]*entities.TrackedArtifact, error)
	Delete(ctx context.Context, id valueobjects.ItemID) error
}

// GraphRepository defines the interface for graph persistence
type GraphRepository interface {
	// Save persists a graph with all its nodes and edges
	Save(ctx context.Context, graph *aggregates.Graph) error

	// GetByID retrieves a fully populated graph
	GetByID(ctx context.Context, id aggregates.GraphID) (*aggregates.Graph, error)

	// GetOrCreateDefaultGraph gets or creates the user's default graph
	GetOrCreateDefaultGraph(ctx context.Context, userID string) (*aggregates.Graph, error)

	// SaveNodes persists a batch of updated nodes (propagation results)
	SaveNodes(ctx context.Context, graphID string, nodes []*entities.GraphNode) error

	// DeleteNode removes a node and its edges
	DeleteNode(ctx context.Context, graphID string, nodeID valueobjects.NodeID) error

	// DeleteEdge removes a single edge
	DeleteEdge(ctx context.Context, graphID string, edgeID string) error
}

// SettingsRepository defines the interface for per-user scheduler settings
type SettingsRepository interface {
	// Get returns the user's settings, or the balanced defaults if unset
	Get(ctx context.Context, userID string) (scheduling.GraphSettings, error)

	// Put stores the user's settings
	Put(ctx context.Context, userID string, settings scheduling.GraphSettings) error
}

// ReviewLog defines the interface for the append-only review record
type ReviewLog interface {
	// Append stores a review record; records are never mutated
	Append(ctx context.Context, review entities.Review) error

	// ListBySubject retrieves reviews for one item/node, newest first
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]entities.Review, error)

	// ListByUser retrieves a user's reviews within a time window
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]entities.Review, error)
}

// EventBus defines the interface for publishing domain events
type EventBus interface {
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}

// Cache provides caching for expensive computed results
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
