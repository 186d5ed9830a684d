package aggregates

import (
	"time"

	"github.com/google/uuid"

	"recall-backend/domain/core/entities"
	"recall-backend/domain/core/valueobjects"
	"recall-backend/domain/events"
	pkgerrors "recall-backend/pkg/errors"
)

// GraphID represents a unique graph identifier
type GraphID string

// NewGraphID creates a new random GraphID
func NewGraphID() GraphID {
	return GraphID(uuid.New().String())
}

// String returns the string representation
func (id GraphID) String() string {
	return string(id)
}

// RelationshipType is the directed semantic of an edge
type RelationshipType string

const (
	RelPrerequisite RelationshipType = "prerequisite"
	RelRelated      RelationshipType = "related"
	RelDependsOn    RelationshipType = "depends_on"
	RelLeadsTo      RelationshipType = "leads_to"
)

// ValidRelationshipType reports whether t is a known relationship type
func ValidRelationshipType(t RelationshipType) bool {
	switch t {
	case RelPrerequisite, RelRelated, RelDependsOn, RelLeadsTo:
		return true
	default:
		return false
	}
}

// Edge is a directed relationship between two nodes. Weight scales how
// strongly reviews propagate across it.
type Edge struct {
	ID               string
	SourceID         valueobjects.NodeID
	TargetID         valueobjects.NodeID
	RelationshipType RelationshipType
	Weight           float64
	CreatedAt        time.Time
}

// Graph is the aggregate root for the knowledge graph. It enforces the
// structural invariants: no self-loops, edges only between known nodes.
// Parallel edges between the same pair are allowed - it is a multigraph.
type Graph struct {
	id        GraphID
	userID    string
	name      string
	nodes     map[valueobjects.NodeID]*entities.GraphNode
	edges     map[string]*Edge
	createdAt time.Time
	updatedAt time.Time
	version   int

	domainEvents []events.DomainEvent
}

// NewGraph creates a new graph aggregate
func NewGraph(userID, name string) (*Graph, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if name == "" {
		return nil, pkgerrors.NewValidationError("graph name cannot be empty")
	}

	now := time.Now()
	return &Graph{
		id:           NewGraphID(),
		userID:       userID,
		name:         name,
		nodes:        make(map[valueobjects.NodeID]*entities.GraphNode),
		edges:        make(map[string]*Edge),
		createdAt:    now,
		updatedAt:    now,
		version:      1,
		domainEvents: []events.DomainEvent{},
	}, nil
}

// ReconstructGraph recreates a graph from stored data
func ReconstructGraph(id, userID, name string, createdAt, updatedAt time.Time) *Graph {
	return &Graph{
		id:           GraphID(id),
		userID:       userID,
		name:         name,
		nodes:        make(map[valueobjects.NodeID]*entities.GraphNode),
		edges:        make(map[string]*Edge),
		createdAt:    createdAt,
		updatedAt:    updatedAt,
		version:      1,
		domainEvents: []events.DomainEvent{},
	}
}

// ID returns the graph's unique identifier
func (g *Graph) ID() GraphID { return g.id }

// UserID returns the owner's ID
func (g *Graph) UserID() string { return g.userID }

// Name returns the graph's name
func (g *Graph) Name() string { return g.name }

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int { return len(g.edges) }

// AddNode adds a node to the graph
func (g *Graph) AddNode(node *entities.GraphNode) error {
	if node == nil {
		return pkgerrors.NewValidationError("node cannot be nil")
	}
	if _, exists := g.nodes[node.ID()]; exists {
		return pkgerrors.NewConflictError("node already in graph")
	}

	node.SetGraphID(g.id.String())
	g.nodes[node.ID()] = node
	g.updatedAt = time.Now()
	return nil
}

// GetNode retrieves a node by id
func (g *Graph) GetNode(nodeID valueobjects.NodeID) (*entities.GraphNode, error) {
	node, exists := g.nodes[nodeID]
	if !exists {
		return nil, pkgerrors.NewUnknownSubjectError(nodeID.String())
	}
	return node, nil
}

// HasNode reports whether a node exists in the graph
func (g *Graph) HasNode(nodeID valueobjects.NodeID) bool {
	_, exists := g.nodes[nodeID]
	return exists
}

// Nodes returns all nodes
func (g *Graph) Nodes() []*entities.GraphNode {
	nodes := make([]*entities.GraphNode, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	return nodes
}

// Edges returns all edges
func (g *Graph) Edges() []*Edge {
	edges := make([]*Edge, 0, len(g.edges))
	for _, edge := range g.edges {
		edges = append(edges, edge)
	}
	return edges
}

// ConnectNodes creates a directed edge between two existing nodes.
// Self-loops are rejected; parallel edges are permitted.
func (g *Graph) ConnectNodes(
	sourceID, targetID valueobjects.NodeID,
	relationshipType RelationshipType,
	weight float64,
) (*Edge, error) {
	if sourceID.Equals(targetID) {
		return nil, pkgerrors.NewValidationError("cannot connect node to itself")
	}
	if !g.HasNode(sourceID) {
		return nil, pkgerrors.NewUnknownSubjectError(sourceID.String())
	}
	if !g.HasNode(targetID) {
		return nil, pkgerrors.NewUnknownSubjectError(targetID.String())
	}
	if !ValidRelationshipType(relationshipType) {
		return nil, pkgerrors.NewValidationError("invalid relationship type")
	}
	if weight < 0 || weight > 1 {
		return nil, pkgerrors.NewValidationError("edge weight must be in [0,1]")
	}

	now := time.Now()
	edge := &Edge{
		ID:               uuid.New().String(),
		SourceID:         sourceID,
		TargetID:         targetID,
		RelationshipType: relationshipType,
		Weight:           weight,
		CreatedAt:        now,
	}
	g.edges[edge.ID] = edge
	g.updatedAt = now

	g.addEvent(events.NewNodesLinked(
		edge.ID, sourceID.String(), targetID.String(),
		string(relationshipType), weight, now,
	))

	return edge, nil
}

// RestoreEdge places a persisted edge back into the aggregate without
// raising events
func (g *Graph) RestoreEdge(edge *Edge) error {
	if edge == nil {
		return pkgerrors.NewValidationError("edge cannot be nil")
	}
	g.edges[edge.ID] = edge
	return nil
}

// RemoveEdge deletes an edge by id
func (g *Graph) RemoveEdge(edgeID string) error {
	if _, exists := g.edges[edgeID]; !exists {
		return pkgerrors.NewNotFoundError("edge")
	}
	delete(g.edges, edgeID)
	g.updatedAt = time.Now()
	return nil
}

// RemoveNode deletes a node and cascades deletion of its edges
func (g *Graph) RemoveNode(nodeID valueobjects.NodeID) error {
	node, exists := g.nodes[nodeID]
	if !exists {
		return pkgerrors.NewUnknownSubjectError(nodeID.String())
	}

	removed := 0
	for id, edge := range g.edges {
		if edge.SourceID.Equals(nodeID) || edge.TargetID.Equals(nodeID) {
			delete(g.edges, id)
			removed++
		}
	}

	delete(g.nodes, nodeID)
	now := time.Now()
	g.updatedAt = now

	g.addEvent(events.NewNodeRemoved(nodeID.String(), node.UserID(), removed, now))
	return nil
}

// NeighborEdges returns the edges touching a node, in either direction
func (g *Graph) NeighborEdges(nodeID valueobjects.NodeID) []*Edge {
	var edges []*Edge
	for _, edge := range g.edges {
		if edge.SourceID.Equals(nodeID) || edge.TargetID.Equals(nodeID) {
			edges = append(edges, edge)
		}
	}
	return edges
}

// ComponentCount returns the number of connected components, treating
// edges as undirected
func (g *Graph) ComponentCount() int {
	visited := make(map[valueobjects.NodeID]bool, len(g.nodes))
	components := 0

	for id := range g.nodes {
		if visited[id] {
			continue
		}
		components++

		// Iterative traversal; the graph is user-editable and can grow
		// large enough to overflow a recursive walk.
		stack := []valueobjects.NodeID{id}
		visited[id] = true
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, edge := range g.edges {
				var next valueobjects.NodeID
				switch {
				case edge.SourceID.Equals(current):
					next = edge.TargetID
				case edge.TargetID.Equals(current):
					next = edge.SourceID
				default:
					continue
				}
				if !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}
	}

	return components
}

// GetUncommittedEvents returns all uncommitted domain events, including
// those raised by member nodes
func (g *Graph) GetUncommittedEvents() []events.DomainEvent {
	all := make([]events.DomainEvent, len(g.domainEvents))
	copy(all, g.domainEvents)
	for _, node := range g.nodes {
		all = append(all, node.GetUncommittedEvents()...)
	}
	return all
}

// MarkEventsAsCommitted clears the uncommitted events
func (g *Graph) MarkEventsAsCommitted() {
	g.domainEvents = []events.DomainEvent{}
	for _, node := range g.nodes {
		node.MarkEventsAsCommitted()
	}
}

func (g *Graph) addEvent(event events.DomainEvent) {
	g.domainEvents = append(g.domainEvents, event)
}
