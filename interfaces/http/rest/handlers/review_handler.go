package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"recall-backend/application/services"
	"recall-backend/domain/core/entities"
	"recall-backend/pkg/auth"
	"recall-backend/pkg/common"
	pkgerrors "recall-backend/pkg/errors"
	"recall-backend/pkg/utils"
)

// ReviewHandler handles review submission requests
type ReviewHandler struct {
	reviewService *services.ReviewService
	errorHandler  *pkgerrors.ErrorHandler
	logger        *zap.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *services.ReviewService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		errorHandler:  errorHandler,
		logger:        logger,
	}
}

// SubmitReviewRequest represents the request body for submitting a review
type SubmitReviewRequest struct {
	SubjectID   string `json:"subject_id" validate:"required,uuid"`
	SubjectKind string `json:"subject_kind" validate:"required,oneof=item node"`
	Rating      int    `json:"rating" validate:"required,gte=1,lte=5"`
}

// SubmitReview handles POST /reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req SubmitReviewRequest
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

	result, err := h.reviewService.SubmitReview(
		r.Context(),
		userCtx.UserID,
		req.SubjectID,
		entities.SubjectKind(req.SubjectKind),
		req.Rating,
	)
	if err != nil {
		h.logger.Warn("review submission failed",
			zap.String("userID", userCtx.UserID),
			zap.String("subjectID", req.SubjectID),
			zap.Error(err),
		)
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}
