package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"recall-backend/application/ports"
	"recall-backend/application/services"
	"recall-backend/domain/core/entities"
	"recall-backend/pkg/auth"
	"recall-backend/pkg/common"
	pkgerrors "recall-backend/pkg/errors"
	"recall-backend/pkg/utils"
)

// RevisionHandler handles revision item lifecycle, agenda, queue and
// stats requests
type RevisionHandler struct {
	revisionService *services.RevisionService
	agendaService   *services.AgendaService
	settingsRepo    ports.SettingsRepository
	graphRepo       ports.GraphRepository
	errorHandler    *pkgerrors.ErrorHandler
	logger          *zap.Logger
}

// NewRevisionHandler creates a new revision handler
func NewRevisionHandler(
	revisionService *services.RevisionService,
	agendaService *services.AgendaService,
	settingsRepo ports.SettingsRepository,
	graphRepo ports.GraphRepository,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *RevisionHandler {
	return &RevisionHandler{
		revisionService: revisionService,
		agendaService:   agendaService,
		settingsRepo:    settingsRepo,
		graphRepo:       graphRepo,
		errorHandler:    errorHandler,
		logger:          logger,
	}
}

// CreateArtifactRequest represents the request body for registering an artifact
type CreateArtifactRequest struct {
	Title        string `json:"title" validate:"required,min=1,max=200"`
	Category     string `json:"category" validate:"max=100"`
	ArtifactType string `json:"artifact_type" validate:"required,oneof=problem learning"`
}

// CreateArtifact handles POST /artifacts
func (h *RevisionHandler) CreateArtifact(w http.ResponseWriter, r *http.Request) {
	var req CreateArtifactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	artifact, err := h.revisionService.CreateArtifact(
		r.Context(), userCtx.UserID, req.Title, req.Category,
		entities.ArtifactType(req.ArtifactType),
	)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"artifact_id":   artifact.ID().String(),
		"title":         artifact.Title(),
		"category":      artifact.Category(),
		"artifact_type": string(artifact.Type()),
		"created_at":    artifact.CreatedAt().Format(time.RFC3339),
	})
}

// ListArtifacts handles GET /artifacts
func (h *RevisionHandler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	artifacts, err := h.revisionService.ListArtifacts(r.Context(), userCtx.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	views := make([]map[string]interface{}, 0, len(artifacts))
	for _, artifact := range artifacts {
		views = append(views, map[string]interface{}{
			"artifact_id":   artifact.ID().String(),
			"title":         artifact.Title(),
			"category":      artifact.Category(),
			"artifact_type": string(artifact.Type()),
			"created_at":    artifact.CreatedAt().Format(time.RFC3339),
		})
	}

	common.RespondWithMeta(w, http.StatusOK, views, &common.MetaInfo{
		RequestID: common.ExtractRequestID(r),
		Timestamp: utils.NowRFC3339(),
		Count:     len(views),
	})
}

// MarkForRevisionRequest represents the request body for tracking an artifact
type MarkForRevisionRequest struct {
	ArtifactID string `json:"artifact_id" validate:"required,uuid"`
}

// MarkForRevision handles POST /revisions
func (h *RevisionHandler) MarkForRevision(w http.ResponseWriter, r *http.Request) {
	var req MarkForRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	item, err := h.revisionService.MarkForRevision(r.Context(), userCtx.UserID, req.ArtifactID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"item_id":            item.ID().String(),
		"next_revision_date": item.NextRevisionDate().Format(time.RFC3339),
		"revision_cycle":     item.RevisionCycle(),
	})
}

// ListRevisions handles GET /revisions
func (h *RevisionHandler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	items, err := h.revisionService.ListItems(r.Context(), userCtx.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	now := time.Now()
	views := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		views = append(views, map[string]interface{}{
			"item_id":            item.ID().String(),
			"item_type":          string(item.ItemType()),
			"revision_cycle":     item.RevisionCycle(),
			"next_revision_date": item.NextRevisionDate().Format(time.RFC3339),
			"status":             string(item.Status(now)),
			"is_completed":       item.IsCompleted(),
			"stability":          item.Stability(),
		})
	}

	common.RespondWithMeta(w, http.StatusOK, views, &common.MetaInfo{
		RequestID: common.ExtractRequestID(r),
		Timestamp: utils.NowRFC3339(),
		Count:     len(views),
	})
}

// BulkCompleteRequest represents the request body for bulk completion
type BulkCompleteRequest struct {
	Completions []services.Completion `json:"completions" validate:"required,min=1,dive"`
}

// BulkComplete handles POST /revisions/bulk-complete
func (h *RevisionHandler) BulkComplete(w http.ResponseWriter, r *http.Request) {
	var req BulkCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	results := h.revisionService.BulkComplete(r.Context(), userCtx.UserID, req.Completions)

	succeeded := 0
	for _, result := range results {
		if result.OK {
			succeeded++
		}
	}

	// Partial failure is a success at the batch level; each entry carries
	// its own verdict.
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"results":   results,
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}

// GetAgenda handles GET /agenda?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *RevisionHandler) GetAgenda(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	now := time.Now()
	from, to, err := parseAgendaRange(r, now)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	includeEmpty := r.URL.Query().Get("include_empty") == "true"

	items, err := h.revisionService.ListItems(r.Context(), userCtx.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	agenda, err := h.agendaService.BuildAgenda(items, from, to, includeEmpty, now)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, agenda)
}

// GetQueue handles GET /queue
func (h *RevisionHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	items, err := h.revisionService.ListItems(r.Context(), userCtx.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	graph, err := h.graphRepo.GetOrCreateDefaultGraph(r.Context(), userCtx.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	settings, err := h.settingsRepo.Get(r.Context(), userCtx.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	queue := h.agendaService.BuildQueue(
		r.Context(), userCtx.UserID, items, graph.Nodes(), settings, time.Now(),
	)

	common.RespondWithMeta(w, http.StatusOK, queue, &common.MetaInfo{
		Timestamp: utils.NowRFC3339(),
		Count:     len(queue),
	})
}

// GetStats handles GET /stats
func (h *RevisionHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	items, err := h.revisionService.ListItems(r.Context(), userCtx.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	stats := h.agendaService.ComputeStats(items, time.Now())
	common.RespondJSON(w, http.StatusOK, stats)
}

// parseAgendaRange reads the from/to query params, defaulting to the next
// seven days
func parseAgendaRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	from := utils.StartOfDay(now)
	to := from.AddDate(0, 0, 6)

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, pkgerrors.NewValidationError("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, pkgerrors.NewValidationError("to must be YYYY-MM-DD")
		}
		to = parsed
	}

	return from, to, nil
}
