package events

import "time"

// EventTypeReviewRecorded is consumed by the async propagation worker
const EventTypeReviewRecorded = "review.recorded"

// ReviewRecorded is raised when a review is submitted for an item or node
type ReviewRecorded struct {
	BaseEvent
	SubjectID   string  `json:"subject_id"`
	SubjectKind string  `json:"subject_kind"` // "item" or "node"
	UserID      string  `json:"user_id"`
	Rating      int     `json:"rating"`
	RatingDelta float64 `json:"rating_delta"`
}

// NewReviewRecorded creates a ReviewRecorded event
func NewReviewRecorded(subjectID, subjectKind, userID string, rating int, ratingDelta float64, timestamp time.Time) ReviewRecorded {
	return ReviewRecorded{
		BaseEvent: BaseEvent{
			AggregateID: subjectID,
			EventType:   EventTypeReviewRecorded,
			Timestamp:   timestamp,
			Version:     1,
		},
		SubjectID:   subjectID,
		SubjectKind: subjectKind,
		UserID:      userID,
		Rating:      rating,
		RatingDelta: ratingDelta,
	}
}

// ItemCompleted is raised when a revision item completes a cycle
type ItemCompleted struct {
	BaseEvent
	ItemID        string    `json:"item_id"`
	UserID        string    `json:"user_id"`
	Rating        int       `json:"rating"`
	RevisionCycle int       `json:"revision_cycle"`
	NextDue       time.Time `json:"next_due"`
}

// NewItemCompleted creates an ItemCompleted event
func NewItemCompleted(itemID, userID string, rating, cycle int, nextDue, timestamp time.Time) ItemCompleted {
	return ItemCompleted{
		BaseEvent: BaseEvent{
			AggregateID: itemID,
			EventType:   "item.completed",
			Timestamp:   timestamp,
			Version:     1,
		},
		ItemID:        itemID,
		UserID:        userID,
		Rating:        rating,
		RevisionCycle: cycle,
		NextDue:       nextDue,
	}
}

// StrengthPropagated is raised after neighbor strengths are updated
type StrengthPropagated struct {
	BaseEvent
	SourceNodeID string `json:"source_node_id"`
	UserID       string `json:"user_id"`
	UpdatedNodes int    `json:"updated_nodes"`
	Depth        int    `json:"depth"`
}

// NewStrengthPropagated creates a StrengthPropagated event
func NewStrengthPropagated(sourceNodeID, userID string, updatedNodes, depth int, timestamp time.Time) StrengthPropagated {
	return StrengthPropagated{
		BaseEvent: BaseEvent{
			AggregateID: sourceNodeID,
			EventType:   "strength.propagated",
			Timestamp:   timestamp,
			Version:     1,
		},
		SourceNodeID: sourceNodeID,
		UserID:       userID,
		UpdatedNodes: updatedNodes,
		Depth:        depth,
	}
}

// NodeRemoved is raised when a node is deleted along with its edges
type NodeRemoved struct {
	BaseEvent
	NodeID       string `json:"node_id"`
	UserID       string `json:"user_id"`
	RemovedEdges int    `json:"removed_edges"`
}

// NewNodeRemoved creates a NodeRemoved event
func NewNodeRemoved(nodeID, userID string, removedEdges int, timestamp time.Time) NodeRemoved {
	return NodeRemoved{
		BaseEvent: BaseEvent{
			AggregateID: nodeID,
			EventType:   "node.removed",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:       nodeID,
		UserID:       userID,
		RemovedEdges: removedEdges,
	}
}

// NodesLinked is raised when an edge is created between two nodes
type NodesLinked struct {
	BaseEvent
	EdgeID           string  `json:"edge_id"`
	SourceNodeID     string  `json:"source_node_id"`
	TargetNodeID     string  `json:"target_node_id"`
	RelationshipType string  `json:"relationship_type"`
	Weight           float64 `json:"weight"`
}

// NewNodesLinked creates a NodesLinked event
func NewNodesLinked(edgeID, sourceID, targetID, relationshipType string, weight float64, timestamp time.Time) NodesLinked {
	return NodesLinked{
		BaseEvent: BaseEvent{
			AggregateID: sourceID,
			EventType:   "nodes.linked",
			Timestamp:   timestamp,
			Version:     1,
		},
		EdgeID:           edgeID,
		SourceNodeID:     sourceID,
		TargetNodeID:     targetID,
		RelationshipType: relationshipType,
		Weight:           weight,
	}
}
