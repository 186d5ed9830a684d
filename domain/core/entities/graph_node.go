package entities

import (
	"strings"
	"time"

	"recall-backend/domain/core/valueobjects"
	"recall-backend/domain/events"
	pkgerrors "recall-backend/pkg/errors"
)

// NodeType categorizes a knowledge graph node
type NodeType string

const (
	NodeConcept  NodeType = "concept"
	NodeSkill    NodeType = "skill"
	NodeTopic    NodeType = "topic"
	NodeResource NodeType = "resource"
)

// GraphNode is a concept/skill/topic/resource unit in the knowledge graph.
// Strength is kept on the canonical [0,1] scale; conversion to the 1-5
// mastery scale happens at the API boundary only.
type GraphNode struct {
	id          valueobjects.NodeID
	userID      string
	graphID     string
	title       string
	nodeType    NodeType
	strength    valueobjects.Strength
	stability   float64 // interval memory, days
	lastVisited *time.Time
	dueDate     *time.Time
	artifactIDs []valueobjects.ItemID
	reviewCount int
	createdAt   time.Time
	updatedAt   time.Time
	version     int

	domainEvents []events.DomainEvent
}

// NewGraphNode creates a node with the default (unset) strength
func NewGraphNode(userID, graphID, title string, nodeType NodeType) (*GraphNode, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, pkgerrors.NewValidationError("title cannot be empty")
	}
	switch nodeType {
	case NodeConcept, NodeSkill, NodeTopic, NodeResource:
	default:
		return nil, pkgerrors.NewValidationError("invalid node type")
	}

	now := time.Now()
	return &GraphNode{
		id:           valueobjects.NewNodeID(),
		userID:       userID,
		graphID:      graphID,
		title:        title,
		nodeType:     nodeType,
		strength:     valueobjects.DefaultStrength(),
		artifactIDs:  []valueobjects.ItemID{},
		createdAt:    now,
		updatedAt:    now,
		version:      1,
		domainEvents: []events.DomainEvent{},
	}, nil
}

// ReconstructGraphNode rebuilds a node from repository data
func ReconstructGraphNode(
	id valueobjects.NodeID,
	userID, graphID, title string,
	nodeType NodeType,
	strength valueobjects.Strength,
	stability float64,
	lastVisited, dueDate *time.Time,
	artifactIDs []valueobjects.ItemID,
	reviewCount int,
	createdAt, updatedAt time.Time,
	version int,
) *GraphNode {
	if artifactIDs == nil {
		artifactIDs = []valueobjects.ItemID{}
	}
	return &GraphNode{
		id:           id,
		userID:       userID,
		graphID:      graphID,
		title:        title,
		nodeType:     nodeType,
		strength:     strength,
		stability:    stability,
		lastVisited:  lastVisited,
		dueDate:      dueDate,
		artifactIDs:  artifactIDs,
		reviewCount:  reviewCount,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
		version:      version,
		domainEvents: []events.DomainEvent{},
	}
}

// ID returns the node's identifier
func (n *GraphNode) ID() valueobjects.NodeID { return n.id }

// UserID returns the owner's ID
func (n *GraphNode) UserID() string { return n.userID }

// GraphID returns the id of the graph this node belongs to
func (n *GraphNode) GraphID() string { return n.graphID }

// SetGraphID assigns the node to a graph
func (n *GraphNode) SetGraphID(graphID string) {
	n.graphID = graphID
	n.updatedAt = time.Now()
}

// Title returns the node title
func (n *GraphNode) Title() string { return n.title }

// Type returns the node type
func (n *GraphNode) Type() NodeType { return n.nodeType }

// Strength returns the node's canonical strength
func (n *GraphNode) Strength() valueobjects.Strength { return n.strength }

// Stability returns the node's interval memory in days
func (n *GraphNode) Stability() float64 { return n.stability }

// LastVisited returns the last review/visit time, nil if never
func (n *GraphNode) LastVisited() *time.Time { return n.lastVisited }

// DueDate returns the node's scheduled review date, nil if unscheduled
func (n *GraphNode) DueDate() *time.Time { return n.dueDate }

// ReviewCount returns how many direct reviews the node has received
func (n *GraphNode) ReviewCount() int { return n.reviewCount }

// Version returns the node's version for optimistic locking
func (n *GraphNode) Version() int { return n.version }

// CreatedAt returns when the node was created
func (n *GraphNode) CreatedAt() time.Time { return n.createdAt }

// UpdatedAt returns when the node was last modified
func (n *GraphNode) UpdatedAt() time.Time { return n.updatedAt }

// ArtifactIDs returns the linked artifact ids
func (n *GraphNode) ArtifactIDs() []valueobjects.ItemID {
	ids := make([]valueobjects.ItemID, len(n.artifactIDs))
	copy(ids, n.artifactIDs)
	return ids
}

// LinkArtifact associates a tracked artifact with this node
func (n *GraphNode) LinkArtifact(id valueobjects.ItemID) {
	for _, existing := range n.artifactIDs {
		if existing.Equals(id) {
			return
		}
	}
	n.artifactIDs = append(n.artifactIDs, id)
	n.updatedAt = time.Now()
}

// HasBeenStudied reports whether the node carries any evidence of study:
// a linked artifact, a past review, a non-default strength, or a visit.
// A fresh node sits at the 0.5 default strength, which alone cannot be
// told apart from genuine half-mastery.
func (n *GraphNode) HasBeenStudied() bool {
	return len(n.artifactIDs) > 0 ||
		n.reviewCount > 0 ||
		!n.strength.IsDefault() ||
		n.lastVisited != nil
}

// Classify returns the node's mastery tier and display semantics
func (n *GraphNode) Classify() valueobjects.Classification {
	return valueobjects.ClassifyStrength(n.strength, n.HasBeenStudied())
}

// RecordReview applies a direct review to this node
func (n *GraphNode) RecordReview(rating valueobjects.Rating, now time.Time) {
	n.strength = n.strength.Add(rating.StrengthDelta())
	visited := now
	n.lastVisited = &visited
	n.reviewCount++
	n.updatedAt = now
	n.version++
}

// ApplyStrengthDelta adjusts strength from neighbor propagation.
// The result is clamped by the strength value object, never out of range.
func (n *GraphNode) ApplyStrengthDelta(delta float64, now time.Time) {
	n.strength = n.strength.Add(delta)
	n.updatedAt = now
	n.version++
}

// SetSchedule records the node's next stability and due date
func (n *GraphNode) SetSchedule(stability float64, due time.Time) {
	n.stability = stability
	d := due
	n.dueDate = &d
	n.updatedAt = time.Now()
}

// GetUncommittedEvents returns all uncommitted domain events
func (n *GraphNode) GetUncommittedEvents() []events.DomainEvent {
	return n.domainEvents
}

// MarkEventsAsCommitted clears the uncommitted events
func (n *GraphNode) MarkEventsAsCommitted() {
	n.domainEvents = []events.DomainEvent{}
}
