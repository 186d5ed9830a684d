package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"recall-backend/application/ports"
	"recall-backend/domain/scheduling"
	"recall-backend/pkg/auth"
	"recall-backend/pkg/common"
	pkgerrors "recall-backend/pkg/errors"
	"recall-backend/pkg/utils"
)

// SettingsHandler handles scheduler settings requests
type SettingsHandler struct {
	settingsRepo ports.SettingsRepository
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsRepo ports.SettingsRepository, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsRepo: settingsRepo,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// settingsView is the wire shape of scheduler settings
type settingsView struct {
	Preset           string  `json:"preset"`
	SMax             float64 `json:"s_max"`
	GFactor          float64 `json:"g_factor"`
	PropagationDepth int     `json:"propagation_depth"`
	HorizonDays      int     `json:"horizon_days"`
	WeakThreshold    float64 `json:"weak_threshold"`
	JitterEnabled    bool    `json:"jitter_enabled"`
}

// UpdateSettingsRequest represents the request body for updating settings.
// Naming a preset resets the tuning values to that preset's defaults;
// explicit values then override field by field.
type UpdateSettingsRequest struct {
	Preset           string   `json:"preset,omitempty" validate:"omitempty,oneof=gentle balanced intensive"`
	SMax             *float64 `json:"s_max,omitempty" validate:"omitempty,gt=0"`
	GFactor          *float64 `json:"g_factor,omitempty" validate:"omitempty,gt=0"`
	PropagationDepth *int     `json:"propagation_depth,omitempty" validate:"omitempty,gte=0,lte=5"`
	HorizonDays      *int     `json:"horizon_days,omitempty" validate:"omitempty,gte=0,lte=365"`
	WeakThreshold    *float64 `json:"weak_threshold,omitempty" validate:"omitempty,gt=0,lt=1"`
	JitterEnabled    *bool    `json:"jitter_enabled,omitempty"`
}

// GetSettings handles GET /settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	settings, err := h.settingsRepo.Get(r.Context(), userCtx.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toSettingsView(settings))
}

// UpdateSettings handles PUT /settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
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

	var settings scheduling.GraphSettings
	if req.Preset != "" {
		settings, err = scheduling.NewGraphSettings(scheduling.Preset(req.Preset))
		if err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
	} else {
		settings, err = h.settingsRepo.Get(r.Context(), userCtx.UserID)
		if err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
	}

	if req.SMax != nil {
		settings.SMax = *req.SMax
	}
	if req.GFactor != nil {
		settings.GFactor = *req.GFactor
	}
	if req.PropagationDepth != nil {
		settings.PropagationDepth = *req.PropagationDepth
	}
	if req.HorizonDays != nil {
		settings.HorizonDays = *req.HorizonDays
	}
	if req.WeakThreshold != nil {
		settings.WeakThreshold = *req.WeakThreshold
	}
	if req.JitterEnabled != nil {
		settings.JitterEnabled = *req.JitterEnabled
	}

	if err := h.settingsRepo.Put(r.Context(), userCtx.UserID, settings); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("settings updated",
		zap.String("userID", userCtx.UserID),
		zap.String("preset", string(settings.Preset)),
	)

	common.RespondJSON(w, http.StatusOK, toSettingsView(settings))
}

func toSettingsView(settings scheduling.GraphSettings) settingsView {
	return settingsView{
		Preset:           string(settings.Preset),
		SMax:             settings.SMax,
		GFactor:          settings.GFactor,
		PropagationDepth: settings.PropagationDepth,
		HorizonDays:      settings.HorizonDays,
		WeakThreshold:    settings.WeakThreshold,
		JitterEnabled:    settings.JitterEnabled,
	}
}
