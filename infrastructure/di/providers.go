package di

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"recall-backend/application/ports"
	"recall-backend/application/services"
	domainconfig "recall-backend/domain/config"
	"recall-backend/domain/scheduling"
	"recall-backend/infrastructure/config"
	"recall-backend/infrastructure/messaging/eventbridge"
	"recall-backend/infrastructure/persistence/dynamodb"
	"recall-backend/pkg/auth"
	"recall-backend/pkg/observability"
)

// metricsNamespace is the CloudWatch namespace for all emitted metrics
const metricsNamespace = "Recall/Backend"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideDomainConfig selects the domain limits for the environment
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return domainconfig.LoadDomainConfig(cfg.Environment)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideItemRepository creates the revision item repository
func ProvideItemRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.RevisionItemRepository {
	return dynamodb.NewItemRepository(client, cfg.DynamoDBTable, cfg.IndexName, logger)
}

// ProvideArtifactRepository creates the tracked artifact repository
func ProvideArtifactRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ArtifactRepository {
	return dynamodb.NewArtifactRepository(client, cfg.DynamoDBTable, cfg.IndexName, logger)
}

// ProvideGraphRepository creates the graph repository
func ProvideGraphRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.GraphRepository {
	return dynamodb.NewGraphRepository(client, cfg.DynamoDBTable, cfg.IndexName, logger)
}

// ProvideSettingsRepository creates the settings repository
func ProvideSettingsRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SettingsRepository {
	return dynamodb.NewSettingsRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideReviewLog creates the append-only review log
func ProvideReviewLog(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ReviewLog {
	return dynamodb.NewReviewLog(client, cfg.DynamoDBTable, cfg.IndexName, logger)
}

// ProvideEventBus creates the EventBridge-backed event bus
func ProvideEventBus(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventBus {
	return eventbridge.NewEventBridgePublisher(client, cfg.EventBusName, logger)
}

// ProvideMetrics creates the metrics recorder
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	return observability.NewMetrics(client, metricsNamespace, cfg.EnableMetrics, logger)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("recall-backend", cfg.EnableTracing)
}

// ProvideScheduler creates the interval scheduler
func ProvideScheduler() *scheduling.Scheduler {
	return scheduling.NewScheduler()
}

// ProvideInMemoryCache creates the in-memory cache
func ProvideInMemoryCache() ports.Cache {
	return NewInMemoryCache()
}

// ProvideUserRateLimiter creates the per-user rate limiter
func ProvideUserRateLimiter(cfg *config.Config) *auth.UserRateLimiter {
	return auth.NewUserRateLimiter(cfg.RateLimitPerMinute)
}

// ProvideJWTValidator creates the JWT validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" && !cfg.IsProduction() {
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     secret,
		Issuer:        cfg.JWTIssuer,
		Audience:      []string{"recall-api"},
	})
}

// ProvidePropagationService creates the propagation service
func ProvidePropagationService(
	graphRepo ports.GraphRepository,
	eventBus ports.EventBus,
	domainCfg *domainconfig.DomainConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.PropagationService {
	return services.NewPropagationService(graphRepo, eventBus, domainCfg, metrics, logger)
}

// ProvideReviewService creates the review service
func ProvideReviewService(
	itemRepo ports.RevisionItemRepository,
	graphRepo ports.GraphRepository,
	settingsRepo ports.SettingsRepository,
	reviewLog ports.ReviewLog,
	eventBus ports.EventBus,
	scheduler *scheduling.Scheduler,
	propagationSvc *services.PropagationService,
	domainCfg *domainconfig.DomainConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.ReviewService {
	return services.NewReviewService(
		itemRepo, graphRepo, settingsRepo, reviewLog, eventBus,
		scheduler, propagationSvc, domainCfg, metrics, logger,
	)
}

// ProvideRevisionService creates the revision lifecycle service
func ProvideRevisionService(
	itemRepo ports.RevisionItemRepository,
	artifactRepo ports.ArtifactRepository,
	settingsRepo ports.SettingsRepository,
	reviewLog ports.ReviewLog,
	scheduler *scheduling.Scheduler,
	domainCfg *domainconfig.DomainConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *services.RevisionService {
	return services.NewRevisionService(
		itemRepo, artifactRepo, settingsRepo, reviewLog,
		scheduler, domainCfg, metrics, logger,
	)
}

// ProvideAgendaService creates the agenda service
func ProvideAgendaService(cache ports.Cache, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *services.AgendaService {
	return services.NewAgendaService(cache, domainCfg, logger)
}

// ProvideGraphService creates the graph service
func ProvideGraphService(
	graphRepo ports.GraphRepository,
	eventBus ports.EventBus,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.GraphService {
	return services.NewGraphService(graphRepo, eventBus, domainCfg, logger)
}

// shutdownTimeout bounds how long Close waits for the logger to flush
const shutdownTimeout = 5 * time.Second

// Close flushes buffered telemetry before shutdown
func (c *Container) Close() {
	if c.Logger != nil {
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = c.Logger.Sync()
		}()
		select {
		case <-done:
		case <-time.After(shutdownTimeout):
		}
	}
}
