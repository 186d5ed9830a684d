package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"recall-backend/application/ports"
	"recall-backend/domain/core/entities"
	pkgerrors "recall-backend/pkg/errors"
	"recall-backend/pkg/utils"
)

// ReviewLog is an append-only store of review records. Records are keyed
// by subject for history queries and indexed by user for time-window
// queries; nothing ever updates or deletes them.
type ReviewLog struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewReviewLog creates a new ReviewLog
func NewReviewLog(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) ports.ReviewLog {
	return &ReviewLog{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

type reviewRecord struct {
	PK            string  `dynamodbav:"PK"`
	SK            string  `dynamodbav:"SK"`
	GSI1PK        string  `dynamodbav:"GSI1PK"`
	GSI1SK        string  `dynamodbav:"GSI1SK"`
	EntityType    string  `dynamodbav:"EntityType"`
	ReviewID      string  `dynamodbav:"ReviewID"`
	SubjectID     string  `dynamodbav:"SubjectID"`
	SubjectKind   string  `dynamodbav:"SubjectKind"`
	UserID        string  `dynamodbav:"UserID"`
	Rating        int     `dynamodbav:"Rating"`
	PrevStability float64 `dynamodbav:"PrevStability"`
	NextStability float64 `dynamodbav:"NextStability"`
	NextDue       string  `dynamodbav:"NextDue"`
	Timestamp     string  `dynamodbav:"Timestamp"`
}

// Append stores a review record. The conditional write makes appends
// idempotent per review ID.
func (l *ReviewLog) Append(ctx context.Context, review entities.Review) error {
	timestamp := review.Timestamp.UTC().Format(time.RFC3339Nano)
	record := reviewRecord{
		PK:            fmt.Sprintf("REVIEWS#%s", review.SubjectID),
		SK:            fmt.Sprintf("TS#%s#%s", timestamp, review.ID),
		GSI1PK:        fmt.Sprintf("USERREVIEWS#%s", review.UserID),
		GSI1SK:        timestamp,
		EntityType:    "REVIEW",
		ReviewID:      review.ID,
		SubjectID:     review.SubjectID,
		SubjectKind:   string(review.SubjectKind),
		UserID:        review.UserID,
		Rating:        review.Rating,
		PrevStability: review.PrevStability,
		NextStability: review.NextStability,
		NextDue:       review.NextDue.Format(time.RFC3339),
		Timestamp:     timestamp,
	}

	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal review: %w", err)
	}

	if _, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Already appended; the log never takes the same review twice.
			return nil
		}
		return pkgerrors.NewDatabaseError("append review", err)
	}
	return nil
}

// ListBySubject retrieves a subject's reviews, newest first
func (l *ReviewLog) ListBySubject(ctx context.Context, subjectID string, limit int) ([]entities.Review, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("REVIEWS#%s", subjectID)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(l.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := l.client.Query(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query reviews", err)
	}

	return l.unmarshalReviews(result.Items)
}

// ListByUser retrieves a user's reviews within [from, to]
func (l *ReviewLog) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]entities.Review, error) {
	keyCond := expression.Key("GSI1PK").
		Equal(expression.Value(fmt.Sprintf("USERREVIEWS#%s", userID))).
		And(expression.Key("GSI1SK").Between(
			expression.Value(from.UTC().Format(time.RFC3339Nano)),
			expression.Value(to.UTC().Format(time.RFC3339Nano)),
		))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(l.tableName),
		IndexName:                 aws.String(l.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	reviews := make([]entities.Review, 0)
	paginator := dynamodb.NewQueryPaginator(l.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query user reviews", err)
		}
		batch, err := l.unmarshalReviews(page.Items)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, batch...)
	}

	return reviews, nil
}

func (l *ReviewLog) unmarshalReviews(items []map[string]types.AttributeValue) ([]entities.Review, error) {
	reviews := make([]entities.Review, 0, len(items))
	for _, raw := range items {
		var record reviewRecord
		if err := attributevalue.UnmarshalMap(raw, &record); err != nil {
			l.logger.Warn("failed to unmarshal review", zap.Error(err))
			continue
		}

		timestamp, err := time.Parse(time.RFC3339Nano, record.Timestamp)
		if err != nil {
			l.logger.Warn("invalid review timestamp",
				zap.String("reviewID", record.ReviewID),
				zap.Error(err),
			)
			continue
		}
		nextDue, err := utils.ParseRFC3339(record.NextDue)
		if err != nil {
			l.logger.Warn("invalid review next due",
				zap.String("reviewID", record.ReviewID),
				zap.Error(err),
			)
			continue
		}

		reviews = append(reviews, entities.Review{
			ID:            record.ReviewID,
			SubjectID:     record.SubjectID,
			SubjectKind:   entities.SubjectKind(record.SubjectKind),
			UserID:        record.UserID,
			Rating:        record.Rating,
			PrevStability: record.PrevStability,
			NextStability: record.NextStability,
			NextDue:       nextDue,
			Timestamp:     timestamp,
		})
	}
	return reviews, nil
}
