package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"recall-backend/application/ports"
	domainconfig "recall-backend/domain/config"
	"recall-backend/domain/core/entities"
	"recall-backend/domain/core/valueobjects"
	"recall-backend/domain/events"
	"recall-backend/domain/scheduling"
	pkgerrors "recall-backend/pkg/errors"
	"recall-backend/pkg/observability"
)

// ReviewService handles review submission for both revision items and
// graph nodes: scheduling the next review, appending to the review log,
// and triggering graph propagation for node subjects.
type ReviewService struct {
	itemRepo     ports.RevisionItemRepository
	graphRepo    ports.GraphRepository
	settingsRepo ports.SettingsRepository
	reviewLog    ports.ReviewLog
	eventBus     ports.EventBus
	scheduler    *scheduling.Scheduler
	propagation  *PropagationService
	domainCfg    *domainconfig.DomainConfig
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(
	itemRepo ports.RevisionItemRepository,
	graphRepo ports.GraphRepository,
	settingsRepo ports.SettingsRepository,
	reviewLog ports.ReviewLog,
	eventBus ports.EventBus,
	scheduler *scheduling.Scheduler,
	propagationSvc *PropagationService,
	domainCfg *domainconfig.DomainConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		itemRepo:     itemRepo,
		graphRepo:    graphRepo,
		settingsRepo: settingsRepo,
		reviewLog:    reviewLog,
		eventBus:     eventBus,
		scheduler:    scheduler,
		propagation:  propagationSvc,
		domainCfg:    domainCfg,
		metrics:      metrics,
		logger:       logger,
	}
}

// ReviewResult is the outcome of a submitted review
type ReviewResult struct {
	SubjectID     string       `json:"subject_id"`
	SubjectKind   string       `json:"subject_kind"`
	Rating        int          `json:"rating"`
	NextDue       time.Time    `json:"next_due"`
	NextStability float64      `json:"next_stability"`
	RevisionCycle int          `json:"revision_cycle,omitempty"`
	NewStrength   *float64     `json:"new_strength,omitempty"`
	Propagated    []NodeUpdate `json:"propagated,omitempty"`
}

// SubmitReview applies a 1-5 rating to an item or node.
// The subject kind decides the path: items go through the lifecycle
// completion, nodes additionally propagate across the graph.
func (s *ReviewService) SubmitReview(
	ctx context.Context,
	userID, subjectID string,
	kind entities.SubjectKind,
	rating int,
) (*ReviewResult, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordReviewLatency(ctx, time.Since(start))
		}
	}()

	switch kind {
	case entities.SubjectItem:
		return s.reviewItem(ctx, userID, subjectID, rating)
	case entities.SubjectNode:
		return s.reviewNode(ctx, userID, subjectID, rating)
	default:
		return nil, pkgerrors.NewValidationError("subject kind must be item or node")
	}
}

func (s *ReviewService) reviewItem(ctx context.Context, userID, subjectID string, rating int) (*ReviewResult, error) {
	itemID, err := valueobjects.NewItemIDFromString(subjectID)
	if err != nil {
		return nil, pkgerrors.NewUnknownSubjectError(subjectID)
	}

	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.UserID() != userID {
		return nil, pkgerrors.NewUnknownSubjectError(subjectID)
	}

	settings, err := s.settingsRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	review, err := item.Complete(rating, s.scheduler, settings, now)
	if err != nil {
		return nil, err
	}

	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	if err := s.reviewLog.Append(ctx, review); err != nil {
		// The schedule update already landed; a lost log row is logged
		// and surfaced to metrics rather than failing the review.
		s.logger.Error("failed to append review record",
			zap.String("itemID", subjectID),
			zap.Error(err),
		)
	}

	s.publishEvents(ctx, item.GetUncommittedEvents()...)
	item.MarkEventsAsCommitted()

	return &ReviewResult{
		SubjectID:     subjectID,
		SubjectKind:   string(entities.SubjectItem),
		Rating:        rating,
		NextDue:       review.NextDue,
		NextStability: review.NextStability,
		RevisionCycle: item.RevisionCycle(),
	}, nil
}

func (s *ReviewService) reviewNode(ctx context.Context, userID, subjectID string, rating int) (*ReviewResult, error) {
	// Validate the rating before loading anything; an invalid grade must
	// never reach the graph.
	r, err := valueobjects.NewRating(rating)
	if err != nil {
		return nil, err
	}

	nodeID, err := valueobjects.NewNodeIDFromString(subjectID)
	if err != nil {
		return nil, pkgerrors.NewUnknownSubjectError(subjectID)
	}

	graph, err := s.graphRepo.GetOrCreateDefaultGraph(ctx, userID)
	if err != nil {
		return nil, err
	}

	node, err := graph.GetNode(nodeID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settingsRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	prevStability := node.Stability()

	result, err := s.scheduler.Schedule(rating, node.ReviewCount(), node.Stability(), settings, now)
	if err != nil {
		return nil, err
	}

	node.RecordReview(r, now)
	node.SetSchedule(result.NextStability, result.NextDue)

	if err := s.graphRepo.SaveNodes(ctx, graph.ID().String(), []*entities.GraphNode{node}); err != nil {
		return nil, err
	}

	review := entities.NewReview(
		subjectID, entities.SubjectNode, userID, rating,
		prevStability, result.NextStability, result.NextDue, now,
	)
	if err := s.reviewLog.Append(ctx, review); err != nil {
		s.logger.Error("failed to append review record",
			zap.String("nodeID", subjectID),
			zap.Error(err),
		)
	}

	s.publishEvents(ctx, events.NewReviewRecorded(
		subjectID, string(entities.SubjectNode), userID, rating, r.StrengthDelta(), now,
	))

	res := &ReviewResult{
		SubjectID:     subjectID,
		SubjectKind:   string(entities.SubjectNode),
		Rating:        rating,
		NextDue:       result.NextDue,
		NextStability: result.NextStability,
	}
	strength := node.Strength().Value()
	res.NewStrength = &strength

	// Propagation runs inline unless the deployment routes review events
	// to the async worker.
	if !s.domainCfg.EnableAsyncPropagation {
		updates, err := s.propagation.PropagateFromNode(
			ctx, graph, nodeID, r.StrengthDelta(), settings.PropagationDepth, now,
		)
		if err != nil {
			return nil, err
		}
		res.Propagated = updates
	}

	return res, nil
}

func (s *ReviewService) publishEvents(ctx context.Context, evts ...events.DomainEvent) {
	if s.eventBus == nil || len(evts) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, evts...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
}
