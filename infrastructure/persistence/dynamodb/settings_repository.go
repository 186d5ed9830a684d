package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"recall-backend/application/ports"
	"recall-backend/domain/scheduling"
	pkgerrors "recall-backend/pkg/errors"
)

// SettingsRepository stores per-user scheduler settings as a single item
// in the user's partition
type SettingsRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.SettingsRepository {
	return &SettingsRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

type settingsRecord struct {
	PK               string  `dynamodbav:"PK"`
	SK               string  `dynamodbav:"SK"`
	EntityType       string  `dynamodbav:"EntityType"`
	UserID           string  `dynamodbav:"UserID"`
	Preset           string  `dynamodbav:"Preset"`
	SMax             float64 `dynamodbav:"SMax"`
	GFactor          float64 `dynamodbav:"GFactor"`
	PropagationDepth int     `dynamodbav:"PropagationDepth"`
	HorizonDays      int     `dynamodbav:"HorizonDays"`
	WeakThreshold    float64 `dynamodbav:"WeakThreshold"`
	JitterEnabled    bool    `dynamodbav:"JitterEnabled"`
	UpdatedAt        string  `dynamodbav:"UpdatedAt"`
}

// Get returns the user's settings, falling back to the balanced defaults
// when none are stored
func (r *SettingsRepository) Get(ctx context.Context, userID string) (scheduling.GraphSettings, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID)},
			"SK": &types.AttributeValueMemberS{Value: "SETTINGS"},
		},
	})
	if err != nil {
		return scheduling.GraphSettings{}, pkgerrors.NewDatabaseError("get settings", err)
	}
	if result.Item == nil {
		return scheduling.DefaultGraphSettings(), nil
	}

	var record settingsRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return scheduling.GraphSettings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	settings := scheduling.GraphSettings{
		Preset:           scheduling.Preset(record.Preset),
		SMax:             record.SMax,
		GFactor:          record.GFactor,
		PropagationDepth: record.PropagationDepth,
		HorizonDays:      record.HorizonDays,
		WeakThreshold:    record.WeakThreshold,
		JitterEnabled:    record.JitterEnabled,
	}
	if err := settings.Validate(); err != nil {
		// Stored settings from an older deployment may no longer validate;
		// serve defaults rather than breaking every schedule read.
		r.logger.Warn("stored settings invalid, using defaults",
			zap.String("userID", userID),
			zap.Error(err),
		)
		return scheduling.DefaultGraphSettings(), nil
	}

	return settings, nil
}

// Put stores the user's settings after validating them
func (r *SettingsRepository) Put(ctx context.Context, userID string, settings scheduling.GraphSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	record := settingsRecord{
		PK:               fmt.Sprintf("USER#%s", userID),
		SK:               "SETTINGS",
		EntityType:       "SETTINGS",
		UserID:           userID,
		Preset:           string(settings.Preset),
		SMax:             settings.SMax,
		GFactor:          settings.GFactor,
		PropagationDepth: settings.PropagationDepth,
		HorizonDays:      settings.HorizonDays,
		WeakThreshold:    settings.WeakThreshold,
		JitterEnabled:    settings.JitterEnabled,
		UpdatedAt:        time.Now().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("save settings", err)
	}
	return nil
}
