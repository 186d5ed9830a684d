package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"recall-backend/application/ports"
	domainconfig "recall-backend/domain/config"
	"recall-backend/domain/core/aggregates"
	"recall-backend/domain/core/entities"
	"recall-backend/domain/core/valueobjects"
	pkgerrors "recall-backend/pkg/errors"
)

// GraphService manages the knowledge graph structure: nodes, edges and
// classification reads. Strength updates go through the review and
// propagation services; this service owns the shape of the graph and
// enforces the configured size limits.
type GraphService struct {
	graphRepo ports.GraphRepository
	eventBus  ports.EventBus
	domainCfg *domainconfig.DomainConfig
	logger    *zap.Logger
}

// NewGraphService creates a new graph service
func NewGraphService(
	graphRepo ports.GraphRepository,
	eventBus ports.EventBus,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *GraphService {
	return &GraphService{
		graphRepo: graphRepo,
		eventBus:  eventBus,
		domainCfg: domainCfg,
		logger:    logger,
	}
}

// NodeView is the read model for a single node
type NodeView struct {
	NodeID      string   `json:"node_id"`
	Title       string   `json:"title"`
	NodeType    string   `json:"node_type"`
	Strength    float64  `json:"strength"`
	Mastery     float64  `json:"mastery"`
	Tier        string   `json:"tier"`
	Description string   `json:"description"`
	Studied     bool     `json:"studied"`
	ReviewCount int      `json:"review_count"`
	ArtifactIDs []string `json:"artifact_ids,omitempty"`
}

// EdgeView is the read model for a single edge
type EdgeView struct {
	EdgeID           string  `json:"edge_id"`
	SourceID         string  `json:"source_id"`
	TargetID         string  `json:"target_id"`
	RelationshipType string  `json:"relationship_type"`
	Weight           float64 `json:"weight"`
}

// GraphView is the full read model of a user's graph
type GraphView struct {
	GraphID    string     `json:"graph_id"`
	Nodes      []NodeView `json:"nodes"`
	Edges      []EdgeView `json:"edges"`
	Components int        `json:"components"`
}

// CreateNode adds a new node to the user's default graph
func (s *GraphService) CreateNode(ctx context.Context, userID, title, nodeType string) (*NodeView, error) {
	graph, err := s.graphRepo.GetOrCreateDefaultGraph(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(title) < s.domainCfg.MinTitleLength || len(title) > s.domainCfg.MaxTitleLength {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf(
			"title must be between %d and %d characters",
			s.domainCfg.MinTitleLength, s.domainCfg.MaxTitleLength,
		))
	}
	if graph.NodeCount() >= s.domainCfg.MaxNodesPerGraph {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf(
			"graph is at its limit of %d nodes", s.domainCfg.MaxNodesPerGraph,
		))
	}

	node, err := entities.NewGraphNode(userID, graph.ID().String(), title, entities.NodeType(nodeType))
	if err != nil {
		return nil, err
	}
	if err := graph.AddNode(node); err != nil {
		return nil, err
	}

	if err := s.graphRepo.SaveNodes(ctx, graph.ID().String(), []*entities.GraphNode{node}); err != nil {
		return nil, err
	}

	s.logger.Info("node created",
		zap.String("nodeID", node.ID().String()),
		zap.String("userID", userID),
	)

	view := nodeView(node)
	return &view, nil
}

// GetNode returns the node with its classification
func (s *GraphService) GetNode(ctx context.Context, userID, nodeID string) (*NodeView, error) {
	_, node, err := s.loadNode(ctx, userID, nodeID)
	if err != nil {
		return nil, err
	}

	view := nodeView(node)
	return &view, nil
}

// ConnectNodes creates an edge between two nodes in the user's graph.
// A nil weight falls back to the configured default; an explicit zero is
// kept as zero.
func (s *GraphService) ConnectNodes(
	ctx context.Context,
	userID, sourceID, targetID, relationshipType string,
	weight *float64,
) (*EdgeView, error) {
	graph, err := s.graphRepo.GetOrCreateDefaultGraph(ctx, userID)
	if err != nil {
		return nil, err
	}

	if graph.EdgeCount() >= s.domainCfg.MaxEdgesPerGraph {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf(
			"graph is at its limit of %d edges", s.domainCfg.MaxEdgesPerGraph,
		))
	}

	src, err := valueobjects.NewNodeIDFromString(sourceID)
	if err != nil {
		return nil, pkgerrors.NewUnknownSubjectError(sourceID)
	}
	dst, err := valueobjects.NewNodeIDFromString(targetID)
	if err != nil {
		return nil, pkgerrors.NewUnknownSubjectError(targetID)
	}

	if !s.domainCfg.AllowDuplicateEdges && s.hasEdgeBetween(graph, src, dst) {
		return nil, pkgerrors.NewConflictError("nodes are already connected")
	}

	w := s.domainCfg.DefaultEdgeWeight
	if weight != nil {
		w = *weight
	}

	edge, err := graph.ConnectNodes(src, dst, aggregates.RelationshipType(relationshipType), w)
	if err != nil {
		return nil, err
	}

	if err := s.graphRepo.Save(ctx, graph); err != nil {
		return nil, err
	}
	s.publishGraphEvents(ctx, graph)

	return &EdgeView{
		EdgeID:           edge.ID,
		SourceID:         edge.SourceID.String(),
		TargetID:         edge.TargetID.String(),
		RelationshipType: string(edge.RelationshipType),
		Weight:           edge.Weight,
	}, nil
}

// RemoveEdge deletes an edge from the user's graph
func (s *GraphService) RemoveEdge(ctx context.Context, userID, edgeID string) error {
	graph, err := s.graphRepo.GetOrCreateDefaultGraph(ctx, userID)
	if err != nil {
		return err
	}

	if err := graph.RemoveEdge(edgeID); err != nil {
		return err
	}
	if err := s.graphRepo.DeleteEdge(ctx, graph.ID().String(), edgeID); err != nil {
		return err
	}

	s.logger.Info("edge removed",
		zap.String("edgeID", edgeID),
		zap.String("userID", userID),
	)
	return nil
}

// RemoveNode deletes a node and cascades its edges
func (s *GraphService) RemoveNode(ctx context.Context, userID, nodeID string) error {
	graph, node, err := s.loadNode(ctx, userID, nodeID)
	if err != nil {
		return err
	}

	if err := graph.RemoveNode(node.ID()); err != nil {
		return err
	}
	if err := s.graphRepo.DeleteNode(ctx, graph.ID().String(), node.ID()); err != nil {
		return err
	}
	s.publishGraphEvents(ctx, graph)

	s.logger.Info("node removed",
		zap.String("nodeID", nodeID),
		zap.String("userID", userID),
	)
	return nil
}

// GetGraph returns the full graph read model
func (s *GraphService) GetGraph(ctx context.Context, userID string) (*GraphView, error) {
	graph, err := s.graphRepo.GetOrCreateDefaultGraph(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &GraphView{
		GraphID:    graph.ID().String(),
		Nodes:      make([]NodeView, 0, graph.NodeCount()),
		Edges:      make([]EdgeView, 0, graph.EdgeCount()),
		Components: graph.ComponentCount(),
	}
	for _, node := range graph.Nodes() {
		view.Nodes = append(view.Nodes, nodeView(node))
	}
	for _, edge := range graph.Edges() {
		view.Edges = append(view.Edges, EdgeView{
			EdgeID:           edge.ID,
			SourceID:         edge.SourceID.String(),
			TargetID:         edge.TargetID.String(),
			RelationshipType: string(edge.RelationshipType),
			Weight:           edge.Weight,
		})
	}

	return view, nil
}

// LinkArtifact attaches a tracked artifact to a node, which marks the
// node as studied
func (s *GraphService) LinkArtifact(ctx context.Context, userID, nodeID, artifactID string) error {
	graph, node, err := s.loadNode(ctx, userID, nodeID)
	if err != nil {
		return err
	}

	id, err := valueobjects.NewItemIDFromString(artifactID)
	if err != nil {
		return pkgerrors.NewUnknownSubjectError(artifactID)
	}

	node.LinkArtifact(id)
	return s.graphRepo.SaveNodes(ctx, graph.ID().String(), []*entities.GraphNode{node})
}

func (s *GraphService) loadNode(ctx context.Context, userID, nodeID string) (*aggregates.Graph, *entities.GraphNode, error) {
	graph, err := s.graphRepo.GetOrCreateDefaultGraph(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	id, err := valueobjects.NewNodeIDFromString(nodeID)
	if err != nil {
		return nil, nil, pkgerrors.NewUnknownSubjectError(nodeID)
	}
	node, err := graph.GetNode(id)
	if err != nil {
		return nil, nil, err
	}
	return graph, node, nil
}

func (s *GraphService) hasEdgeBetween(graph *aggregates.Graph, a, b valueobjects.NodeID) bool {
	for _, edge := range graph.NeighborEdges(a) {
		if edge.SourceID.Equals(b) || edge.TargetID.Equals(b) {
			return true
		}
	}
	return false
}

func (s *GraphService) publishGraphEvents(ctx context.Context, graph *aggregates.Graph) {
	evts := graph.GetUncommittedEvents()
	if s.eventBus == nil || len(evts) == 0 {
		graph.MarkEventsAsCommitted()
		return
	}
	if err := s.eventBus.Publish(ctx, evts...); err != nil {
		s.logger.Warn("failed to publish graph events", zap.Error(err))
	}
	graph.MarkEventsAsCommitted()
}

func nodeView(node *entities.GraphNode) NodeView {
	classification := node.Classify()
	view := NodeView{
		NodeID:      node.ID().String(),
		Title:       node.Title(),
		NodeType:    string(node.Type()),
		Strength:    node.Strength().Value(),
		Mastery:     node.Strength().Mastery(),
		Tier:        string(classification.Tier),
		Description: classification.Description,
		Studied:     node.HasBeenStudied(),
		ReviewCount: node.ReviewCount(),
	}
	for _, artifactID := range node.ArtifactIDs() {
		view.ArtifactIDs = append(view.ArtifactIDs, artifactID.String())
	}
	return view
}
