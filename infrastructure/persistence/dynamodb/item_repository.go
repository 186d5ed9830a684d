package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"recall-backend/application/ports"
	"recall-backend/domain/core/entities"
	"recall-backend/domain/core/valueobjects"
	pkgerrors "recall-backend/pkg/errors"
	"recall-backend/pkg/utils"
)

// ItemRepository implements RevisionItemRepository using a single-table
// DynamoDB layout. Items live under the owner's partition; GSI1 gives
// direct lookup by item ID.
type ItemRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewItemRepository creates a new ItemRepository
func NewItemRepository(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) ports.RevisionItemRepository {
	return &ItemRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// revisionItemRecord represents the DynamoDB item structure for a revision item
type revisionItemRecord struct {
	PK               string  `dynamodbav:"PK"`
	SK               string  `dynamodbav:"SK"`
	GSI1PK           string  `dynamodbav:"GSI1PK"`
	GSI1SK           string  `dynamodbav:"GSI1SK"`
	EntityType       string  `dynamodbav:"EntityType"`
	ItemID           string  `dynamodbav:"ItemID"`
	UserID           string  `dynamodbav:"UserID"`
	ItemType         string  `dynamodbav:"ItemType"`
	RefID            string  `dynamodbav:"RefID"`
	RevisionCycle    int     `dynamodbav:"RevisionCycle"`
	NextRevisionDate string  `dynamodbav:"NextRevisionDate"`
	IsCompleted      bool    `dynamodbav:"IsCompleted"`
	LastRating       int     `dynamodbav:"LastRating"`
	Stability        float64 `dynamodbav:"Stability"`
	LastCompletedAt  string  `dynamodbav:"LastCompletedAt,omitempty"`
	CreatedAt        string  `dynamodbav:"CreatedAt"`
	UpdatedAt        string  `dynamodbav:"UpdatedAt"`
	Version          int     `dynamodbav:"Version"`
}

func itemKeys(userID, itemID string) (pk, sk string) {
	return fmt.Sprintf("USER#%s", userID), fmt.Sprintf("ITEM#%s", itemID)
}

// Save persists an item with optimistic locking. A new item (version 0)
// requires the key to not exist; an update requires the stored version to
// match the version the caller loaded.
func (r *ItemRepository) Save(ctx context.Context, item *entities.RevisionItem) error {
	pk, sk := itemKeys(item.UserID(), item.ID().String())
	record := revisionItemRecord{
		PK:               pk,
		SK:               sk,
		GSI1PK:           fmt.Sprintf("ITEMID#%s", item.ID().String()),
		GSI1SK:           "METADATA",
		EntityType:       "REVISION_ITEM",
		ItemID:           item.ID().String(),
		UserID:           item.UserID(),
		ItemType:         string(item.ItemType()),
		RefID:            item.RefID().String(),
		RevisionCycle:    item.RevisionCycle(),
		NextRevisionDate: item.NextRevisionDate().Format(time.RFC3339),
		IsCompleted:      item.IsCompleted(),
		LastRating:       item.LastRating(),
		Stability:        item.Stability(),
		CreatedAt:        item.CreatedAt().Format(time.RFC3339),
		UpdatedAt:        item.UpdatedAt().Format(time.RFC3339),
		Version:          item.Version() + 1,
	}
	if completed := item.LastCompletedAt(); completed != nil {
		record.LastCompletedAt = completed.Format(time.RFC3339)
	}

	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal revision item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}
	if item.Version() == 0 {
		input.ConditionExpression = aws.String("attribute_not_exists(PK)")
	} else {
		input.ConditionExpression = aws.String("Version = :expectedVersion")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expectedVersion": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", item.Version())},
		}
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return pkgerrors.NewConflictError(
				fmt.Sprintf("revision item %s was modified concurrently", item.ID().String()))
		}
		return pkgerrors.NewDatabaseError("save revision item", err)
	}

	return nil
}

// GetByID retrieves an item via GSI1; returns nil when not found
func (r *ItemRepository) GetByID(ctx context.Context, id valueobjects.ItemID) (*entities.RevisionItem, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("ITEMID#%s", id.String())},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query revision item", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var record revisionItemRecord
	if err := attributevalue.UnmarshalMap(result.Items[0], &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal revision item: %w", err)
	}

	return r.reconstruct(record)
}

// GetByUserID retrieves all items in the user's partition
func (r *ItemRepository) GetByUserID(ctx context.Context, userID string) ([]*entities.RevisionItem, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID)},
			":sk": &types.AttributeValueMemberS{Value: "ITEM#"},
		},
	}

	items := make([]*entities.RevisionItem, 0)
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query revision items", err)
		}
		for _, raw := range page.Items {
			var record revisionItemRecord
			if err := attributevalue.UnmarshalMap(raw, &record); err != nil {
				r.logger.Warn("failed to unmarshal revision item", zap.Error(err))
				continue
			}
			item, err := r.reconstruct(record)
			if err != nil {
				r.logger.Warn("failed to reconstruct revision item",
					zap.String("itemID", record.ItemID),
					zap.Error(err),
				)
				continue
			}
			items = append(items, item)
		}
	}

	return items, nil
}

// Delete removes an item
func (r *ItemRepository) Delete(ctx context.Context, id valueobjects.ItemID) error {
	item, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}

	pk, sk := itemKeys(item.UserID(), id.String())
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	}

	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		return pkgerrors.NewDatabaseError("delete revision item", err)
	}
	return nil
}

func (r *ItemRepository) reconstruct(record revisionItemRecord) (*entities.RevisionItem, error) {
	id, err := valueobjects.NewItemIDFromString(record.ItemID)
	if err != nil {
		return nil, fmt.Errorf("invalid item ID %q: %w", record.ItemID, err)
	}
	refID, err := valueobjects.NewItemIDFromString(record.RefID)
	if err != nil {
		return nil, fmt.Errorf("invalid ref ID %q: %w", record.RefID, err)
	}

	nextDue, err := utils.ParseRFC3339(record.NextRevisionDate)
	if err != nil {
		return nil, fmt.Errorf("invalid next revision date: %w", err)
	}
	createdAt, err := utils.ParseRFC3339(record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created at: %w", err)
	}
	updatedAt, err := utils.ParseRFC3339(record.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated at: %w", err)
	}

	var lastCompletedAt *time.Time
	if record.LastCompletedAt != "" {
		t, err := utils.ParseRFC3339(record.LastCompletedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid last completed at: %w", err)
		}
		lastCompletedAt = &t
	}

	return entities.ReconstructRevisionItem(
		id,
		record.UserID,
		entities.ArtifactType(record.ItemType),
		refID,
		record.RevisionCycle,
		nextDue,
		record.IsCompleted,
		record.LastRating,
		record.Stability,
		lastCompletedAt,
		createdAt, updatedAt,
		record.Version,
	), nil
}
