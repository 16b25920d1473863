package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"degrees/application/ports"
	"degrees/domain/core/entities"
	"degrees/domain/core/valueobjects"
	pkgerrors "degrees/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// API is the subset of the DynamoDB client the store needs.
type API interface {
	dynamodb.QueryAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// batchGetLimit is the DynamoDB cap on keys per BatchGetItem request.
const batchGetLimit = 100

// GraphStore keeps the graph in a single DynamoDB table.
type GraphStore struct {
	client    API
	tableName string
	indexName string
	logger    *zap.Logger
}

var _ ports.GraphStore = (*GraphStore)(nil)

// NewGraphStore creates a store over tableName. indexName names the
// kind/visibility GSI and defaults to GSI1.
func NewGraphStore(client API, tableName, indexName string, logger *zap.Logger) *GraphStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if indexName == "" {
		indexName = gsi1Name
	}
	return &GraphStore{client: client, tableName: tableName, indexName: indexName, logger: logger}
}

func (s *GraphStore) Backend() string { return "dynamodb" }

func (s *GraphStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	if err != nil {
		return pkgerrors.NewDatabaseError("describe table", err)
	}
	return nil
}

func (s *GraphStore) Close(context.Context) error { return nil }

func (s *GraphStore) GetNode(ctx context.Context, id valueobjects.NodeID, scope entities.Scope) (*entities.Node, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(nodePK(id.String()), skMetadata),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get node", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	node, err := unmarshalNode(out.Item)
	if err != nil {
		return nil, err
	}
	if !scope.Sees(node) {
		return nil, nil
	}
	return node, nil
}

func (s *GraphStore) Neighbors(ctx context.Context, id valueobjects.NodeID, scope entities.Scope) ([]entities.Neighbor, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(nodePK(id.String()))).
		And(expression.Key("SK").BeginsWith(adjacencySK("")))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var adjacent []edgeItem
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query adjacency", err)
		}
		var items []edgeItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal adjacency: %w", err)
		}
		adjacent = append(adjacent, items...)
	}
	if len(adjacent) == 0 {
		return nil, nil
	}

	others := make([]string, 0, len(adjacent))
	for _, it := range adjacent {
		others = append(others, it.OtherID)
	}
	nodes, err := s.batchGetNodes(ctx, others)
	if err != nil {
		return nil, err
	}

	out := make([]entities.Neighbor, 0, len(adjacent))
	for _, it := range adjacent {
		node, ok := nodes[it.OtherID]
		if !ok || !scope.Sees(node) {
			continue
		}
		edge, err := it.toEdge()
		if err != nil {
			s.logger.Warn("Skipping malformed adjacency item", zap.String("edgeID", it.EdgeID), zap.Error(err))
			continue
		}
		out = append(out, entities.Neighbor{Edge: edge, Node: node})
	}
	return out, nil
}

func (s *GraphStore) batchGetNodes(ctx context.Context, ids []string) (map[string]*entities.Node, error) {
	seen := make(map[string]bool, len(ids))
	var keys []map[string]types.AttributeValue
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		keys = append(keys, key(nodePK(id), skMetadata))
	}

	nodes := make(map[string]*entities.Node, len(keys))
	for len(keys) > 0 {
		n := min(len(keys), batchGetLimit)
		chunk := keys[:n]
		keys = keys[n:]

		for len(chunk) > 0 {
			out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: map[string]types.KeysAndAttributes{
					s.tableName: {Keys: chunk},
				},
			})
			if err != nil {
				return nil, pkgerrors.NewDatabaseError("batch get nodes", err)
			}
			for _, item := range out.Responses[s.tableName] {
				node, err := unmarshalNode(item)
				if err != nil {
					return nil, err
				}
				nodes[node.ID().String()] = node
			}
			chunk = out.UnprocessedKeys[s.tableName].Keys
		}
	}
	return nodes, nil
}

func (s *GraphStore) kindQuery(filter ports.NodeFilter) (*dynamodb.QueryInput, error) {
	keyEx := expression.Key("GSI1PK").Equal(expression.Value(kindIndexKey(filter.Kind, filter.Visibility)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}
	return &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	}, nil
}

func (s *GraphStore) CountNodes(ctx context.Context, filter ports.NodeFilter) (int, error) {
	if !filter.Scope.Allows(filter.Visibility) {
		return 0, nil
	}
	input, err := s.kindQuery(filter)
	if err != nil {
		return 0, err
	}
	input.Select = types.SelectCount

	total := 0
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, pkgerrors.NewDatabaseError("count nodes", err)
		}
		total += int(page.Count)
	}
	return total, nil
}

// NodeAt walks the kind index in id order. The cost grows with offset.
func (s *GraphStore) NodeAt(ctx context.Context, filter ports.NodeFilter, offset int) (*entities.Node, error) {
	if offset < 0 || !filter.Scope.Allows(filter.Visibility) {
		return nil, nil
	}
	input, err := s.kindQuery(filter)
	if err != nil {
		return nil, err
	}

	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("node at offset", err)
		}
		if offset >= len(page.Items) {
			offset -= len(page.Items)
			continue
		}
		return unmarshalNode(page.Items[offset])
	}
	return nil, nil
}

func (s *GraphStore) SaveNode(ctx context.Context, node *entities.Node) error {
	av, err := marshal(toNodeItem(node))
	if err != nil {
		return err
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("save node", err)
	}

	s.logger.Debug("Saved node", zap.String("nodeID", node.ID().String()))
	return nil
}

// SaveEdge writes the edge, both adjacency items and the pair guard in one
// transaction, removing the items of a previous edge with the same id.
func (s *GraphStore) SaveEdge(ctx context.Context, edge *entities.Edge) error {
	previous, err := s.getEdge(ctx, edge.ID().String())
	if err != nil {
		return err
	}

	items, err := s.edgeTransaction(edge, previous)
	if err != nil {
		return err
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		return translateEdgeWriteError(err)
	}

	s.logger.Debug("Saved edge",
		zap.String("edgeID", edge.ID().String()),
		zap.String("sourceID", edge.SourceID().String()),
		zap.String("targetID", edge.TargetID().String()),
	)
	return nil
}

// The first three transaction items are the checks translateEdgeWriteError inspects.
const (
	txSourceCheck = iota
	txTargetCheck
	txPairGuard
)

func (s *GraphStore) edgeTransaction(edge *entities.Edge, previous *edgeItem) ([]types.TransactWriteItem, error) {
	meta, fromSource, fromTarget := toEdgeItems(edge)
	pair := pairItem{
		PK:         pairPK(meta.SourceID, meta.TargetID, edge.Kind()),
		SK:         skPair,
		EntityType: entityPair,
		EdgeID:     meta.EdgeID,
	}

	exists := expression.AttributeExists(expression.Name("PK"))
	existsExpr, err := expression.NewBuilder().WithCondition(exists).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}
	guard := expression.AttributeNotExists(expression.Name("PK")).
		Or(expression.Name("EdgeID").Equal(expression.Value(meta.EdgeID)))
	guardExpr, err := expression.NewBuilder().WithCondition(guard).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	check := func(nodeID string) types.TransactWriteItem {
		return types.TransactWriteItem{ConditionCheck: &types.ConditionCheck{
			TableName:                aws.String(s.tableName),
			Key:                      key(nodePK(nodeID), skMetadata),
			ConditionExpression:      existsExpr.Condition(),
			ExpressionAttributeNames: existsExpr.Names(),
		}}
	}

	pairAV, err := marshal(pair)
	if err != nil {
		return nil, err
	}
	items := []types.TransactWriteItem{
		txSourceCheck: check(meta.SourceID),
		txTargetCheck: check(meta.TargetID),
		txPairGuard: {Put: &types.Put{
			TableName:                 aws.String(s.tableName),
			Item:                      pairAV,
			ConditionExpression:       guardExpr.Condition(),
			ExpressionAttributeNames:  guardExpr.Names(),
			ExpressionAttributeValues: guardExpr.Values(),
		}},
	}

	for _, it := range []edgeItem{meta, fromSource, fromTarget} {
		av, err := marshal(it)
		if err != nil {
			return nil, err
		}
		items = append(items, types.TransactWriteItem{Put: &types.Put{
			TableName: aws.String(s.tableName),
			Item:      av,
		}})
	}

	if previous != nil {
		for _, stale := range staleKeys(*previous, meta) {
			items = append(items, types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(s.tableName),
				Key:       stale,
			}})
		}
	}
	return items, nil
}

// staleKeys lists the items of old that next does not overwrite.
func staleKeys(old, next edgeItem) []map[string]types.AttributeValue {
	var keys []map[string]types.AttributeValue
	ends := map[string]bool{next.SourceID: true, next.TargetID: true}
	for _, end := range []string{old.SourceID, old.TargetID} {
		if !ends[end] {
			keys = append(keys, key(nodePK(end), adjacencySK(old.EdgeID)))
		}
	}
	oldPair := pairPK(old.SourceID, old.TargetID, entities.EdgeKind(old.Kind))
	if oldPair != pairPK(next.SourceID, next.TargetID, entities.EdgeKind(next.Kind)) {
		keys = append(keys, key(oldPair, skPair))
	}
	return keys
}

func (s *GraphStore) getEdge(ctx context.Context, id string) (*edgeItem, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(edgePK(id), skMetadata),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get edge", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var it edgeItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal edge: %w", err)
	}
	return &it, nil
}

func translateEdgeWriteError(err error) error {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return pkgerrors.NewDatabaseError("save edge", err)
	}
	for i, reason := range tce.CancellationReasons {
		if aws.ToString(reason.Code) != "ConditionalCheckFailed" {
			continue
		}
		switch i {
		case txSourceCheck, txTargetCheck:
			return pkgerrors.NewNotFoundError("edge endpoint").WithCause(err)
		case txPairGuard:
			return pkgerrors.NewConflictError("an edge of this kind already links these nodes").WithCause(err)
		}
	}
	return pkgerrors.NewDatabaseError("save edge", err)
}

func unmarshalNode(av map[string]types.AttributeValue) (*entities.Node, error) {
	var it nodeItem
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	return it.toNode()
}
