package di

import (
	"go.uber.org/zap"

	"recall-backend/application/ports"
	"recall-backend/application/services"
	domainconfig "recall-backend/domain/config"
	"recall-backend/domain/scheduling"
	"recall-backend/infrastructure/config"
	"recall-backend/pkg/auth"
	"recall-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	DomainConfig    *domainconfig.DomainConfig
	Logger          *zap.Logger
	ItemRepo        ports.RevisionItemRepository
	ArtifactRepo    ports.ArtifactRepository
	GraphRepo       ports.GraphRepository
	SettingsRepo    ports.SettingsRepository
	ReviewLog       ports.ReviewLog
	EventBus        ports.EventBus
	Cache           ports.Cache
	Metrics         *observability.Metrics
	Tracer          *observability.Tracer
	Scheduler       *scheduling.Scheduler
	JWTValidator    *auth.JWTValidator
	RateLimiter     *auth.UserRateLimiter
	ReviewService   *services.ReviewService
	RevisionService *services.RevisionService
	AgendaService   *services.AgendaService
	GraphService    *services.GraphService
	Propagation     *services.PropagationService
}
