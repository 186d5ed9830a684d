package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"recall-backend/application/ports"
	domainconfig "recall-backend/domain/config"
	"recall-backend/domain/core/entities"
	"recall-backend/domain/core/valueobjects"
	"recall-backend/domain/scheduling"
	pkgerrors "recall-backend/pkg/errors"
	"recall-backend/pkg/observability"
)

// RevisionService manages the lifecycle of revision items: marking
// artifacts for revision, listing, and bulk completion.
type RevisionService struct {
	itemRepo     ports.RevisionItemRepository
	artifactRepo ports.ArtifactRepository
	settingsRepo ports.SettingsRepository
	reviewLog    ports.ReviewLog
	scheduler    *scheduling.Scheduler
	domainCfg    *domainconfig.DomainConfig
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewRevisionService creates a new revision service
func NewRevisionService(
	itemRepo ports.RevisionItemRepository,
	artifactRepo ports.ArtifactRepository,
	settingsRepo ports.SettingsRepository,
	reviewLog ports.ReviewLog,
	scheduler *scheduling.Scheduler,
	domainCfg *domainconfig.DomainConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *RevisionService {
	return &RevisionService{
		itemRepo:     itemRepo,
		artifactRepo: artifactRepo,
		settingsRepo: settingsRepo,
		reviewLog:    reviewLog,
		scheduler:    scheduler,
		domainCfg:    domainCfg,
		metrics:      metrics,
		logger:       logger,
	}
}

// CreateArtifact registers a solved problem or learning resource so it
// can be marked for revision
func (s *RevisionService) CreateArtifact(
	ctx context.Context,
	userID, title, category string,
	artifactType entities.ArtifactType,
) (*entities.TrackedArtifact, error) {
	if len(title) < s.domainCfg.MinTitleLength || len(title) > s.domainCfg.MaxTitleLength {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf(
			"title must be between %d and %d characters",
			s.domainCfg.MinTitleLength, s.domainCfg.MaxTitleLength,
		))
	}

	artifact, err := entities.NewTrackedArtifact(userID, title, category, artifactType)
	if err != nil {
		return nil, err
	}
	if err := s.artifactRepo.Save(ctx, artifact); err != nil {
		return nil, err
	}

	s.logger.Info("artifact created",
		zap.String("artifactID", artifact.ID().String()),
		zap.String("userID", userID),
		zap.String("type", string(artifactType)),
	)
	return artifact, nil
}

// ListArtifacts returns the user's tracked artifacts
func (s *RevisionService) ListArtifacts(ctx context.Context, userID string) ([]*entities.TrackedArtifact, error) {
	return s.artifactRepo.GetByUserID(ctx, userID)
}

// MarkForRevision creates a revision item for an artifact, first due
// after the configured lead time
func (s *RevisionService) MarkForRevision(ctx context.Context, userID, artifactID string) (*entities.RevisionItem, error) {
	id, err := valueobjects.NewItemIDFromString(artifactID)
	if err != nil {
		return nil, pkgerrors.NewUnknownSubjectError(artifactID)
	}

	artifact, err := s.artifactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if artifact == nil || artifact.UserID() != userID {
		return nil, pkgerrors.NewUnknownSubjectError(artifactID)
	}

	firstDue := time.Now().Add(s.domainCfg.FirstRevisionLeadTime)
	item := entities.NewRevisionItem(userID, artifact, firstDue)

	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns the user's revision items, resetting completed flags
// for items whose completion day has passed
func (s *RevisionService) ListItems(ctx context.Context, userID string) ([]*entities.RevisionItem, error) {
	items, err := s.itemRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for _, item := range items {
		before := item.IsCompleted()
		item.Refresh(now)
		if before && !item.IsCompleted() {
			if err := s.itemRepo.Save(ctx, item); err != nil {
				s.logger.Warn("failed to persist refreshed item",
					zap.String("itemID", item.ID().String()),
					zap.Error(err),
				)
			}
		}
	}

	return items, nil
}

// Completion is one entry in a bulk completion request
type Completion struct {
	ItemID string `json:"item_id"`
	Rating int    `json:"rating"`
}

// CompletionResult is the per-item outcome of a bulk completion
type CompletionResult struct {
	ItemID     string     `json:"item_id"`
	OK         bool       `json:"ok"`
	NewDueDate *time.Time `json:"new_due_date,omitempty"`
	Error      string     `json:"error,omitempty"`
	ErrorType  string     `json:"error_type,omitempty"`
}

// BulkComplete applies each completion independently. One item's failure
// never aborts the rest; every entry gets its own verdict.
func (s *RevisionService) BulkComplete(ctx context.Context, userID string, completions []Completion) []CompletionResult {
	settings, err := s.settingsRepo.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load settings for bulk completion, using defaults",
			zap.String("userID", userID),
			zap.Error(err),
		)
		settings = scheduling.DefaultGraphSettings()
	}

	results := make([]CompletionResult, 0, len(completions))
	succeeded, failed := 0, 0

	for _, completion := range completions {
		result := s.completeOne(ctx, userID, completion, settings)
		if result.OK {
			succeeded++
		} else {
			failed++
		}
		results = append(results, result)
	}

	if s.metrics != nil {
		s.metrics.RecordBulkCompletion(ctx, succeeded, failed)
	}

	return results
}

func (s *RevisionService) completeOne(
	ctx context.Context,
	userID string,
	completion Completion,
	settings scheduling.GraphSettings,
) CompletionResult {
	fail := func(err error) CompletionResult {
		result := CompletionResult{ItemID: completion.ItemID, OK: false, Error: err.Error()}
		if appErr := pkgerrors.GetAppError(err); appErr != nil {
			result.ErrorType = string(appErr.Type)
		}
		return result
	}

	id, err := valueobjects.NewItemIDFromString(completion.ItemID)
	if err != nil {
		return fail(pkgerrors.NewUnknownSubjectError(completion.ItemID))
	}

	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return fail(err)
	}
	if item == nil || item.UserID() != userID {
		return fail(pkgerrors.NewUnknownSubjectError(completion.ItemID))
	}

	now := time.Now()
	review, err := item.Complete(completion.Rating, s.scheduler, settings, now)
	if err != nil {
		return fail(err)
	}

	if err := s.itemRepo.Save(ctx, item); err != nil {
		return fail(err)
	}
	if err := s.reviewLog.Append(ctx, review); err != nil {
		s.logger.Error("failed to append review record",
			zap.String("itemID", completion.ItemID),
			zap.Error(err),
		)
	}

	due := item.NextRevisionDate()
	return CompletionResult{ItemID: completion.ItemID, OK: true, NewDueDate: &due}
}
