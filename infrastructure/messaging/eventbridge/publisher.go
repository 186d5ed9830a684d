package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"recall-backend/application/ports"
	"recall-backend/domain/events"
)

const eventSource = "recall.backend"

// maxEntriesPerCall is the PutEvents API batch limit
const maxEntriesPerCall = 10

// EventBridgePublisher publishes domain events to an EventBridge bus.
// Detail type is the domain event type, so rules can route per event.
type EventBridgePublisher struct {
	client  *awseventbridge.Client
	busName string
	logger  *zap.Logger
}

// NewEventBridgePublisher creates a new EventBridgePublisher
func NewEventBridgePublisher(client *awseventbridge.Client, busName string, logger *zap.Logger) ports.EventBus {
	return &EventBridgePublisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

// Publish sends the given events in batches of at most ten entries
func (p *EventBridgePublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}

	entries := make([]types.PutEventsRequestEntry, 0, len(evts))
	for _, event := range evts {
		detail, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("failed to marshal domain event",
				zap.String("eventType", event.GetEventType()),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.busName),
			Source:       aws.String(eventSource),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.GetTimestamp()),
		})
	}

	for start := 0; start < len(entries); start += maxEntriesPerCall {
		end := start + maxEntriesPerCall
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		output, err := p.client.PutEvents(ctx, &awseventbridge.PutEventsInput{
			Entries: batch,
		})
		if err != nil {
			return fmt.Errorf("failed to publish events: %w", err)
		}
		if output.FailedEntryCount > 0 {
			for _, entry := range output.Entries {
				if entry.ErrorCode != nil {
					p.logger.Error("event bridge rejected entry",
						zap.String("errorCode", aws.ToString(entry.ErrorCode)),
						zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
					)
				}
			}
			return fmt.Errorf("%d events failed to publish", output.FailedEntryCount)
		}
	}

	p.logger.Debug("published domain events", zap.Int("count", len(entries)))
	return nil
}
