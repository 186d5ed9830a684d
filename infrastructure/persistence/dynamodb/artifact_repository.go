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
	"recall-backend/domain/core/entities"
	"recall-backend/domain/core/valueobjects"
	pkgerrors "recall-backend/pkg/errors"
	"recall-backend/pkg/utils"
)

// ArtifactRepository implements tracked artifact persistence on the same
// single-table layout as revision items
type ArtifactRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewArtifactRepository creates a new ArtifactRepository
func NewArtifactRepository(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) ports.ArtifactRepository {
	return &ArtifactRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

type artifactRecord struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	GSI1PK       string `dynamodbav:"GSI1PK"`
	GSI1SK       string `dynamodbav:"GSI1SK"`
	EntityType   string `dynamodbav:"EntityType"`
	ArtifactID   string `dynamodbav:"ArtifactID"`
	UserID       string `dynamodbav:"UserID"`
	Title        string `dynamodbav:"Title"`
	Category     string `dynamodbav:"Category"`
	ArtifactType string `dynamodbav:"ArtifactType"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
}

// Save persists an artifact (create or overwrite)
func (r *ArtifactRepository) Save(ctx context.Context, artifact *entities.TrackedArtifact) error {
	record := artifactRecord{
		PK:           fmt.Sprintf("USER#%s", artifact.UserID()),
		SK:           fmt.Sprintf("ARTIFACT#%s", artifact.ID().String()),
		GSI1PK:       fmt.Sprintf("ARTIFACTID#%s", artifact.ID().String()),
		GSI1SK:       "METADATA",
		EntityType:   "ARTIFACT",
		ArtifactID:   artifact.ID().String(),
		UserID:       artifact.UserID(),
		Title:        artifact.Title(),
		Category:     artifact.Category(),
		ArtifactType: string(artifact.Type()),
		CreatedAt:    artifact.CreatedAt().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("save artifact", err)
	}
	return nil
}

// GetByID retrieves an artifact via GSI1; returns nil when not found
func (r *ArtifactRepository) GetByID(ctx context.Context, id valueobjects.ItemID) (*entities.TrackedArtifact, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("ARTIFACTID#%s", id.String())},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query artifact", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var record artifactRecord
	if err := attributevalue.UnmarshalMap(result.Items[0], &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}
	return r.reconstruct(record)
}

// GetByUserID retrieves all artifacts for a user
func (r *ArtifactRepository) GetByUserID(ctx context.Context, userID string) ([]*entities.TrackedArtifact, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID)},
			":sk": &types.AttributeValueMemberS{Value: "ARTIFACT#"},
		},
	}

	artifacts := make([]*entities.TrackedArtifact, 0)
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query artifacts", err)
		}
		for _, raw := range page.Items {
			var record artifactRecord
			if err := attributevalue.UnmarshalMap(raw, &record); err != nil {
				r.logger.Warn("failed to unmarshal artifact", zap.Error(err))
				continue
			}
			artifact, err := r.reconstruct(record)
			if err != nil {
				r.logger.Warn("failed to reconstruct artifact",
					zap.String("artifactID", record.ArtifactID),
					zap.Error(err),
				)
				continue
			}
			artifacts = append(artifacts, artifact)
		}
	}

	return artifacts, nil
}

// Delete removes an artifact
func (r *ArtifactRepository) Delete(ctx context.Context, id valueobjects.ItemID) error {
	artifact, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if artifact == nil {
		return nil
	}

	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", artifact.UserID())},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("ARTIFACT#%s", id.String())},
		},
	}); err != nil {
		return pkgerrors.NewDatabaseError("delete artifact", err)
	}
	return nil
}

func (r *ArtifactRepository) reconstruct(record artifactRecord) (*entities.TrackedArtifact, error) {
	id, err := valueobjects.NewItemIDFromString(record.ArtifactID)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact ID %q: %w", record.ArtifactID, err)
	}
	createdAt, err := utils.ParseRFC3339(record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created at: %w", err)
	}
	return entities.ReconstructTrackedArtifact(
		id,
		record.UserID,
		record.Title,
		record.Category,
		entities.ArtifactType(record.ArtifactType),
		createdAt,
	), nil
}
