package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"recall-backend/application/ports"
	domainconfig "recall-backend/domain/config"
	"recall-backend/domain/core/aggregates"
	"recall-backend/domain/core/entities"
	"recall-backend/domain/core/valueobjects"
	"recall-backend/domain/events"
	"recall-backend/domain/propagation"
	"recall-backend/pkg/observability"
)

// PropagationService spreads a review's effect across the knowledge graph
// and persists the touched nodes. It is invoked inline by the review
// service, or by the EventBridge-triggered worker when propagation runs
// asynchronously.
type PropagationService struct {
	graphRepo ports.GraphRepository
	eventBus  ports.EventBus
	domainCfg *domainconfig.DomainConfig
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewPropagationService creates a new propagation service
func NewPropagationService(
	graphRepo ports.GraphRepository,
	eventBus ports.EventBus,
	domainCfg *domainconfig.DomainConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *PropagationService {
	return &PropagationService{
		graphRepo: graphRepo,
		eventBus:  eventBus,
		domainCfg: domainCfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// NodeUpdate reports one node touched by propagation
type NodeUpdate struct {
	NodeID        string  `json:"node_id"`
	StrengthDelta float64 `json:"strength_delta"`
	NewStrength   float64 `json:"new_strength"`
	Hops          int     `json:"hops"`
}

// PropagateFromNode runs the propagation engine over an already loaded
// graph and applies the resulting deltas to neighbor nodes. The reviewed
// node's own delta (hop 0) is skipped - the direct review already updated
// it. Touched nodes are persisted in one batch.
func (s *PropagationService) PropagateFromNode(
	ctx context.Context,
	graph *aggregates.Graph,
	sourceID valueobjects.NodeID,
	ratingDelta float64,
	depth int,
	now time.Time,
) ([]NodeUpdate, error) {
	in := propagation.Input{
		ReviewedNodeID: sourceID.String(),
		RatingDelta:    ratingDelta,
		Depth:          depth,
		MaxFrontier:    s.domainCfg.MaxPropagationFrontier,
	}
	for _, node := range graph.Nodes() {
		in.NodeIDs = append(in.NodeIDs, node.ID().String())
	}
	for _, edge := range graph.Edges() {
		in.Edges = append(in.Edges, propagation.Edge{
			ID:       edge.ID,
			SourceID: edge.SourceID.String(),
			TargetID: edge.TargetID.String(),
			Weight:   edge.Weight,
		})
	}

	deltas, err := propagation.Propagate(in)
	if err != nil {
		return nil, err
	}

	updates := make([]NodeUpdate, 0, len(deltas))
	touched := make([]*entities.GraphNode, 0, len(deltas))

	for _, delta := range deltas {
		if delta.Hops == 0 {
			continue
		}

		nodeID, idErr := valueobjects.NewNodeIDFromString(delta.NodeID)
		if idErr != nil {
			continue
		}
		node, getErr := graph.GetNode(nodeID)
		if getErr != nil {
			continue
		}

		node.ApplyStrengthDelta(delta.StrengthDelta, now)
		touched = append(touched, node)
		updates = append(updates, NodeUpdate{
			NodeID:        delta.NodeID,
			StrengthDelta: delta.StrengthDelta,
			NewStrength:   node.Strength().Value(),
			Hops:          delta.Hops,
		})
	}

	if len(touched) > 0 {
		if err := s.graphRepo.SaveNodes(ctx, graph.ID().String(), touched); err != nil {
			return nil, err
		}
	}

	if s.eventBus != nil {
		event := events.NewStrengthPropagated(
			sourceID.String(), graph.UserID(), len(touched), depth, now,
		)
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish propagation event",
				zap.String("nodeID", sourceID.String()),
				zap.Error(err),
			)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordPropagationFanout(ctx, len(touched))
	}

	s.logger.Debug("propagated review across graph",
		zap.String("sourceNode", sourceID.String()),
		zap.Int("depth", depth),
		zap.Int("updatedNodes", len(touched)),
	)

	return updates, nil
}
