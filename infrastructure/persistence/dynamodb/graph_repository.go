package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"recall-backend/application/ports"
	"recall-backend/domain/core/aggregates"
	"recall-backend/domain/core/entities"
	"recall-backend/domain/core/valueobjects"
	pkgerrors "recall-backend/pkg/errors"
	"recall-backend/pkg/utils"
)

// GraphRepository implements graph persistence on the single-table layout.
// Graph metadata lives under the owner's partition; nodes and edges live
// under the graph's own partition so the whole structure loads with two
// queries.
type GraphRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewGraphRepository creates a new GraphRepository
func NewGraphRepository(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) ports.GraphRepository {
	return &GraphRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// graphRecord represents the DynamoDB item structure for graph metadata
type graphRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	GraphID    string `dynamodbav:"GraphID"`
	UserID     string `dynamodbav:"UserID"`
	Name       string `dynamodbav:"Name"`
	IsDefault  bool   `dynamodbav:"IsDefault"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

// nodeRecord represents the DynamoDB item structure for a graph node
type nodeRecord struct {
	PK          string   `dynamodbav:"PK"`
	SK          string   `dynamodbav:"SK"`
	EntityType  string   `dynamodbav:"EntityType"`
	NodeID      string   `dynamodbav:"NodeID"`
	UserID      string   `dynamodbav:"UserID"`
	GraphID     string   `dynamodbav:"GraphID"`
	Title       string   `dynamodbav:"Title"`
	NodeType    string   `dynamodbav:"NodeType"`
	Strength    float64  `dynamodbav:"Strength"`
	Stability   float64  `dynamodbav:"Stability"`
	LastVisited string   `dynamodbav:"LastVisited,omitempty"`
	DueDate     string   `dynamodbav:"DueDate,omitempty"`
	ArtifactIDs []string `dynamodbav:"ArtifactIDs,omitempty"`
	ReviewCount int      `dynamodbav:"ReviewCount"`
	CreatedAt   string   `dynamodbav:"CreatedAt"`
	UpdatedAt   string   `dynamodbav:"UpdatedAt"`
	Version     int      `dynamodbav:"Version"`
}

// edgeRecord represents the DynamoDB item structure for an edge
type edgeRecord struct {
	PK               string  `dynamodbav:"PK"`
	SK               string  `dynamodbav:"SK"`
	EntityType       string  `dynamodbav:"EntityType"`
	EdgeID           string  `dynamodbav:"EdgeID"`
	GraphID          string  `dynamodbav:"GraphID"`
	SourceID         string  `dynamodbav:"SourceID"`
	TargetID         string  `dynamodbav:"TargetID"`
	RelationshipType string  `dynamodbav:"RelationshipType"`
	Weight           float64 `dynamodbav:"Weight"`
	CreatedAt        string  `dynamodbav:"CreatedAt"`
}

// Save persists a graph's metadata plus every node and edge it holds
func (r *GraphRepository) Save(ctx context.Context, graph *aggregates.Graph) error {
	record := graphRecord{
		PK:         fmt.Sprintf("USER#%s", graph.UserID()),
		SK:         fmt.Sprintf("GRAPH#%s", graph.ID().String()),
		GSI1PK:     fmt.Sprintf("GRAPHID#%s", graph.ID().String()),
		GSI1SK:     "METADATA",
		EntityType: "GRAPH",
		GraphID:    graph.ID().String(),
		UserID:     graph.UserID(),
		Name:       graph.Name(),
		IsDefault:  true,
		CreatedAt:  time.Now().Format(time.RFC3339),
		UpdatedAt:  time.Now().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("save graph", err)
	}

	if err := r.SaveNodes(ctx, graph.ID().String(), graph.Nodes()); err != nil {
		return err
	}
	for _, edge := range graph.Edges() {
		if err := r.saveEdge(ctx, graph.ID().String(), edge); err != nil {
			r.logger.Error("failed to save edge",
				zap.String("edgeID", edge.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// GetByID retrieves a fully populated graph, loading nodes and edges in
// parallel
func (r *GraphRepository) GetByID(ctx context.Context, id aggregates.GraphID) (*aggregates.Graph, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("GRAPHID#%s", id.String())},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query graph", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("graph")
	}

	var record graphRecord
	if err := attributevalue.UnmarshalMap(result.Items[0], &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}

	return r.populate(ctx, record)
}

// GetOrCreateDefaultGraph gets the user's default graph, creating an empty
// one on first use
func (r *GraphRepository) GetOrCreateDefaultGraph(ctx context.Context, userID string) (*aggregates.Graph, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		FilterExpression:       aws.String("IsDefault = :isDefault"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":        &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID)},
			":sk":        &types.AttributeValueMemberS{Value: "GRAPH#"},
			":isDefault": &types.AttributeValueMemberBOOL{Value: true},
		},
		Limit: aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query default graph", err)
	}
	if len(result.Items) > 0 {
		var record graphRecord
		if err := attributevalue.UnmarshalMap(result.Items[0], &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
		}
		return r.populate(ctx, record)
	}

	graph, err := aggregates.NewGraph(userID, "Knowledge Graph")
	if err != nil {
		return nil, err
	}

	record := graphRecord{
		PK:         fmt.Sprintf("USER#%s", userID),
		SK:         fmt.Sprintf("GRAPH#%s", graph.ID().String()),
		GSI1PK:     fmt.Sprintf("GRAPHID#%s", graph.ID().String()),
		GSI1SK:     "METADATA",
		EntityType: "GRAPH",
		GraphID:    graph.ID().String(),
		UserID:     userID,
		Name:       graph.Name(),
		IsDefault:  true,
		CreatedAt:  time.Now().Format(time.RFC3339),
		UpdatedAt:  time.Now().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph: %w", err)
	}

	// Conditional write so concurrent first requests cannot create two
	// default graphs.
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return r.GetOrCreateDefaultGraph(ctx, userID)
		}
		return nil, pkgerrors.NewDatabaseError("create default graph", err)
	}

	r.logger.Info("default graph created",
		zap.String("graphID", graph.ID().String()),
		zap.String("userID", userID),
	)

	return graph, nil
}

// SaveNodes persists a batch of nodes with per-node optimistic locking
func (r *GraphRepository) SaveNodes(ctx context.Context, graphID string, nodes []*entities.GraphNode) error {
	for _, node := range nodes {
		if err := r.saveNode(ctx, graphID, node); err != nil {
			return err
		}
	}
	return nil
}

// DeleteNode removes a node and every edge that touches it
func (r *GraphRepository) DeleteNode(ctx context.Context, graphID string, nodeID valueobjects.NodeID) error {
	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("GRAPH#%s", graphID)},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("NODE#%s", nodeID.String())},
		},
	}); err != nil {
		return pkgerrors.NewDatabaseError("delete node", err)
	}

	edges, err := r.loadEdges(ctx, graphID)
	if err != nil {
		return err
	}
	for _, edge := range edges {
		if edge.SourceID.String() != nodeID.String() && edge.TargetID.String() != nodeID.String() {
			continue
		}
		if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("GRAPH#%s", graphID)},
				"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("EDGE#%s", edge.ID)},
			},
		}); err != nil {
			r.logger.Error("failed to delete edge during node cascade",
				zap.String("edgeID", edge.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// DeleteEdge removes a single edge from the graph's partition
func (r *GraphRepository) DeleteEdge(ctx context.Context, graphID string, edgeID string) error {
	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("GRAPH#%s", graphID)},
			"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("EDGE#%s", edgeID)},
		},
	}); err != nil {
		return pkgerrors.NewDatabaseError("delete edge", err)
	}
	return nil
}

func (r *GraphRepository) saveNode(ctx context.Context, graphID string, node *entities.GraphNode) error {
	record := nodeRecord{
		PK:          fmt.Sprintf("GRAPH#%s", graphID),
		SK:          fmt.Sprintf("NODE#%s", node.ID().String()),
		EntityType:  "NODE",
		NodeID:      node.ID().String(),
		UserID:      node.UserID(),
		GraphID:     graphID,
		Title:       node.Title(),
		NodeType:    string(node.Type()),
		Strength:    node.Strength().Value(),
		Stability:   node.Stability(),
		ReviewCount: node.ReviewCount(),
		CreatedAt:   node.CreatedAt().Format(time.RFC3339),
		UpdatedAt:   node.UpdatedAt().Format(time.RFC3339),
		Version:     node.Version() + 1,
	}
	if visited := node.LastVisited(); visited != nil {
		record.LastVisited = visited.Format(time.RFC3339)
	}
	if due := node.DueDate(); due != nil {
		record.DueDate = due.Format(time.RFC3339)
	}
	for _, artifactID := range node.ArtifactIDs() {
		record.ArtifactIDs = append(record.ArtifactIDs, artifactID.String())
	}

	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal node: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}
	if node.Version() > 0 {
		input.ConditionExpression = aws.String("Version = :expectedVersion")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expectedVersion": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", node.Version())},
		}
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return pkgerrors.NewConflictError(
				fmt.Sprintf("node %s was modified concurrently", node.ID().String()))
		}
		return pkgerrors.NewDatabaseError("save node", err)
	}
	return nil
}

func (r *GraphRepository) saveEdge(ctx context.Context, graphID string, edge *aggregates.Edge) error {
	record := edgeRecord{
		PK:               fmt.Sprintf("GRAPH#%s", graphID),
		SK:               fmt.Sprintf("EDGE#%s", edge.ID),
		EntityType:       "EDGE",
		EdgeID:           edge.ID,
		GraphID:          graphID,
		SourceID:         edge.SourceID.String(),
		TargetID:         edge.TargetID.String(),
		RelationshipType: string(edge.RelationshipType),
		Weight:           edge.Weight,
		CreatedAt:        edge.CreatedAt.Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal edge: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("save edge", err)
	}
	return nil
}

func (r *GraphRepository) populate(ctx context.Context, record graphRecord) (*aggregates.Graph, error) {
	createdAt, err := utils.ParseRFC3339(record.CreatedAt)
	if err != nil {
		createdAt = time.Now()
	}
	updatedAt, err := utils.ParseRFC3339(record.UpdatedAt)
	if err != nil {
		updatedAt = createdAt
	}

	graph := aggregates.ReconstructGraph(record.GraphID, record.UserID, record.Name, createdAt, updatedAt)

	var nodes []*entities.GraphNode
	var edges []*aggregates.Edge
	var nodeErr, edgeErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		nodes, nodeErr = r.loadNodes(ctx, record.GraphID)
	}()
	go func() {
		defer wg.Done()
		edges, edgeErr = r.loadEdges(ctx, record.GraphID)
	}()
	wg.Wait()

	if nodeErr != nil {
		return nil, nodeErr
	}
	if edgeErr != nil {
		return nil, edgeErr
	}

	for _, node := range nodes {
		if err := graph.AddNode(node); err != nil {
			r.logger.Warn("failed to add node to graph",
				zap.String("nodeID", node.ID().String()),
				zap.Error(err),
			)
		}
	}
	for _, edge := range edges {
		if err := graph.RestoreEdge(edge); err != nil {
			r.logger.Warn("failed to restore edge",
				zap.String("edgeID", edge.ID),
				zap.Error(err),
			)
		}
	}

	return graph, nil
}

func (r *GraphRepository) loadNodes(ctx context.Context, graphID string) ([]*entities.GraphNode, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("GRAPH#%s", graphID)},
			":sk": &types.AttributeValueMemberS{Value: "NODE#"},
		},
	}

	nodes := make([]*entities.GraphNode, 0)
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query nodes", err)
		}
		for _, raw := range page.Items {
			var record nodeRecord
			if err := attributevalue.UnmarshalMap(raw, &record); err != nil {
				r.logger.Warn("failed to unmarshal node", zap.Error(err))
				continue
			}
			node, err := r.reconstructNode(record)
			if err != nil {
				r.logger.Warn("failed to reconstruct node",
					zap.String("nodeID", record.NodeID),
					zap.Error(err),
				)
				continue
			}
			nodes = append(nodes, node)
		}
	}

	return nodes, nil
}

func (r *GraphRepository) loadEdges(ctx context.Context, graphID string) ([]*aggregates.Edge, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("GRAPH#%s", graphID)},
			":sk": &types.AttributeValueMemberS{Value: "EDGE#"},
		},
	}

	edges := make([]*aggregates.Edge, 0)
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query edges", err)
		}
		for _, raw := range page.Items {
			var record edgeRecord
			if err := attributevalue.UnmarshalMap(raw, &record); err != nil {
				r.logger.Warn("failed to unmarshal edge", zap.Error(err))
				continue
			}
			edge, err := r.reconstructEdge(record)
			if err != nil {
				r.logger.Warn("failed to reconstruct edge",
					zap.String("edgeID", record.EdgeID),
					zap.Error(err),
				)
				continue
			}
			edges = append(edges, edge)
		}
	}

	return edges, nil
}

func (r *GraphRepository) reconstructNode(record nodeRecord) (*entities.GraphNode, error) {
	id, err := valueobjects.NewNodeIDFromString(record.NodeID)
	if err != nil {
		return nil, fmt.Errorf("invalid node ID %q: %w", record.NodeID, err)
	}

	createdAt, err := utils.ParseRFC3339(record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created at: %w", err)
	}
	updatedAt, err := utils.ParseRFC3339(record.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated at: %w", err)
	}

	var lastVisited, dueDate *time.Time
	if record.LastVisited != "" {
		t, err := utils.ParseRFC3339(record.LastVisited)
		if err != nil {
			return nil, fmt.Errorf("invalid last visited: %w", err)
		}
		lastVisited = &t
	}
	if record.DueDate != "" {
		t, err := utils.ParseRFC3339(record.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid due date: %w", err)
		}
		dueDate = &t
	}

	artifactIDs := make([]valueobjects.ItemID, 0, len(record.ArtifactIDs))
	for _, rawID := range record.ArtifactIDs {
		artifactID, err := valueobjects.NewItemIDFromString(rawID)
		if err != nil {
			r.logger.Warn("skipping invalid artifact ID on node",
				zap.String("nodeID", record.NodeID),
				zap.String("artifactID", rawID),
			)
			continue
		}
		artifactIDs = append(artifactIDs, artifactID)
	}

	return entities.ReconstructGraphNode(
		id,
		record.UserID, record.GraphID, record.Title,
		entities.NodeType(record.NodeType),
		valueobjects.NewStrength(record.Strength),
		record.Stability,
		lastVisited, dueDate,
		artifactIDs,
		record.ReviewCount,
		createdAt, updatedAt,
		record.Version,
	), nil
}

func (r *GraphRepository) reconstructEdge(record edgeRecord) (*aggregates.Edge, error) {
	sourceID, err := valueobjects.NewNodeIDFromString(record.SourceID)
	if err != nil {
		return nil, fmt.Errorf("invalid source ID %q: %w", record.SourceID, err)
	}
	targetID, err := valueobjects.NewNodeIDFromString(record.TargetID)
	if err != nil {
		return nil, fmt.Errorf("invalid target ID %q: %w", record.TargetID, err)
	}
	createdAt, err := utils.ParseRFC3339(record.CreatedAt)
	if err != nil {
		createdAt = time.Now()
	}

	return &aggregates.Edge{
		ID:               record.EdgeID,
		SourceID:         sourceID,
		TargetID:         targetID,
		RelationshipType: aggregates.RelationshipType(record.RelationshipType),
		Weight:           record.Weight,
		CreatedAt:        createdAt,
	}, nil
}
