package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"recall-backend/application/services"
	"recall-backend/pkg/auth"
	"recall-backend/pkg/common"
	pkgerrors "recall-backend/pkg/errors"
	"recall-backend/pkg/utils"
)

// GraphHandler handles knowledge graph HTTP requests
type GraphHandler struct {
	graphService *services.GraphService
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(graphService *services.GraphService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		graphService: graphService,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// CreateNodeRequest represents the request body for creating a node
type CreateNodeRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=200"`
	NodeType string `json:"node_type" validate:"required,oneof=concept skill topic resource"`
}

// CreateNode handles POST /nodes
func (h *GraphHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
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

	node, err := h.graphService.CreateNode(r.Context(), userCtx.UserID, req.Title, req.NodeType)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, node)
}

// GetNode handles GET /nodes/{nodeID}
func (h *GraphHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	if nodeID == "" {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Node ID is required")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	node, err := h.graphService.GetNode(r.Context(), userCtx.UserID, nodeID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode handles DELETE /nodes/{nodeID}
func (h *GraphHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	if nodeID == "" {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Node ID is required")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	if err := h.graphService.RemoveNode(r.Context(), userCtx.UserID, nodeID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Node deleted",
		"node_id": nodeID,
	})
}

// LinkArtifactRequest represents the request body for linking an artifact
type LinkArtifactRequest struct {
	ArtifactID string `json:"artifact_id" validate:"required,uuid"`
}

// LinkArtifact handles POST /nodes/{nodeID}/artifacts
func (h *GraphHandler) LinkArtifact(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	if nodeID == "" {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Node ID is required")
		return
	}

	var req LinkArtifactRequest
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

	if err := h.graphService.LinkArtifact(r.Context(), userCtx.UserID, nodeID, req.ArtifactID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Artifact linked",
		"node_id":     nodeID,
		"artifact_id": req.ArtifactID,
	})
}

// CreateEdgeRequest represents the request body for connecting two nodes.
// Weight is a pointer so an explicit zero survives; a missing weight
// falls back to the configured default.
type CreateEdgeRequest struct {
	SourceID         string   `json:"source_id" validate:"required,uuid"`
	TargetID         string   `json:"target_id" validate:"required,uuid"`
	RelationshipType string   `json:"relationship_type,omitempty" validate:"omitempty,oneof=prerequisite related depends_on leads_to"`
	Weight           *float64 `json:"weight,omitempty" validate:"omitempty,min=0,max=1"`
}

// CreateEdge handles POST /edges
func (h *GraphHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req CreateEdgeRequest
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

	if req.RelationshipType == "" {
		req.RelationshipType = "related"
	}

	edge, err := h.graphService.ConnectNodes(
		r.Context(), userCtx.UserID,
		req.SourceID, req.TargetID, req.RelationshipType, req.Weight,
	)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, edge)
}

// DeleteEdge handles DELETE /edges/{edgeID}
func (h *GraphHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeID")
	if edgeID == "" {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "Edge ID is required")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	if err := h.graphService.RemoveEdge(r.Context(), userCtx.UserID, edgeID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Edge deleted",
		"edge_id": edgeID,
	})
}

// GetGraphData handles GET /graph-data
func (h *GraphHandler) GetGraphData(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	view, err := h.graphService.GetGraph(r.Context(), userCtx.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, view)
}
