// Package main implements the Lambda worker for asynchronous review
// propagation. Deployments that set ENABLE_ASYNC_PROPAGATION route
// review.recorded events here instead of propagating inline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"recall-backend/application/ports"
	"recall-backend/application/services"
	"recall-backend/domain/core/entities"
	"recall-backend/domain/core/valueobjects"
	domainevents "recall-backend/domain/events"
	"recall-backend/infrastructure/config"
	"recall-backend/infrastructure/di"
)

// Global dependencies for Lambda performance optimization
var (
	propagationSvc *services.PropagationService
	graphRepo      ports.GraphRepository
	settingsRepo   ports.SettingsRepository
)

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	container, err := di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dependency container: %v", err)
	}

	propagationSvc = container.Propagation
	graphRepo = container.GraphRepo
	settingsRepo = container.SettingsRepo

	log.Println("Propagate-review handler initialized successfully")
}

// reviewDetail is the EventBridge detail payload of a recorded review
type reviewDetail struct {
	SubjectID   string    `json:"subject_id"`
	SubjectKind string    `json:"subject_kind"`
	UserID      string    `json:"user_id"`
	Rating      int       `json:"rating"`
	RatingDelta float64   `json:"rating_delta"`
	Timestamp   time.Time `json:"timestamp"`
}

// HandleReview spreads one recorded node review across the user's graph
func HandleReview(ctx context.Context, detail reviewDetail) error {
	if detail.SubjectKind != string(entities.SubjectNode) {
		// Item reviews have no graph neighborhood to update.
		return nil
	}

	nodeID, err := valueobjects.NewNodeIDFromString(detail.SubjectID)
	if err != nil {
		return fmt.Errorf("invalid node id %q: %w", detail.SubjectID, err)
	}

	graph, err := graphRepo.GetOrCreateDefaultGraph(ctx, detail.UserID)
	if err != nil {
		return fmt.Errorf("load graph for user %s: %w", detail.UserID, err)
	}

	settings, err := settingsRepo.Get(ctx, detail.UserID)
	if err != nil {
		return fmt.Errorf("load settings for user %s: %w", detail.UserID, err)
	}

	now := detail.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	updates, err := propagationSvc.PropagateFromNode(
		ctx, graph, nodeID, detail.RatingDelta, settings.PropagationDepth, now,
	)
	if err != nil {
		return fmt.Errorf("propagate from node %s: %w", detail.SubjectID, err)
	}

	log.Printf("Propagated review of node %s to %d neighbors", detail.SubjectID, len(updates))
	return nil
}

// handler accepts both EventBridge envelopes and direct invocations
func handler(ctx context.Context, event json.RawMessage) error {
	var busEvent awsevents.CloudWatchEvent
	if err := json.Unmarshal(event, &busEvent); err == nil && busEvent.DetailType != "" {
		if busEvent.DetailType != domainevents.EventTypeReviewRecorded {
			log.Printf("Ignoring event of type %s", busEvent.DetailType)
			return nil
		}

		var detail reviewDetail
		if err := json.Unmarshal(busEvent.Detail, &detail); err != nil {
			return fmt.Errorf("failed to parse review.recorded detail: %w", err)
		}
		return HandleReview(ctx, detail)
	}

	var detail reviewDetail
	if err := json.Unmarshal(event, &detail); err == nil && detail.SubjectID != "" {
		return HandleReview(ctx, detail)
	}

	return fmt.Errorf("unable to parse event")
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		log.Println("Starting propagate-review Lambda")
		lambda.Start(handler)
	} else {
		// Local testing mode
		log.Println("Running in local test mode")

		testDetail := reviewDetail{
			SubjectID:   "00000000-0000-0000-0000-000000000001",
			SubjectKind: string(entities.SubjectNode),
			UserID:      "test-user",
			Rating:      4,
			RatingDelta: 0.05,
			Timestamp:   time.Now(),
		}

		if err := HandleReview(context.Background(), testDetail); err != nil {
			log.Fatalf("Test invocation failed: %v", err)
		}
		log.Println("Test invocation completed")
	}
}
