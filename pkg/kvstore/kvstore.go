package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wtreehq/merkletree/pkg/apperr"
	"github.com/wtreehq/merkletree/pkg/metrics"
)

// Item is one DynamoDB row expressed as raw attribute values. Callers
// marshal/unmarshal between Item and their own record types via
// github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue.
type Item = map[string]ddbtypes.AttributeValue

const (
	maxBatchWriteItems     = 25
	maxBatchStatementItems = 25
	maxTransactItems       = 100

	batchRetryBaseDelay = 10 * time.Millisecond
)

// ddbAPI is the subset of *dynamodb.Client this adapter calls. Pulling
// it out as an interface, the same way Tessera's S3 driver hides
// *s3.Client behind an objStore interface, lets tests substitute a
// fake provider instead of talking to real DynamoDB.
type ddbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, opts ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	BatchExecuteStatement(ctx context.Context, in *dynamodb.BatchExecuteStatementInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchExecuteStatementOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Store is the adapter for a single DynamoDB table.
type Store struct {
	client ddbAPI
	table  string
}

// New constructs a Store bound to table using the default AWS SDK
// credential and region resolution chain.
func New(ctx context.Context, table string) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading default AWS configuration: %w", err)
	}
	return &Store{client: dynamodb.NewFromConfig(cfg), table: table}, nil
}

// newWithClient constructs a Store around an arbitrary ddbAPI
// implementation, for use by tests.
func newWithClient(client ddbAPI, table string) *Store {
	return &Store{client: client, table: table}
}

// GetItem performs a strongly consistent point read. A missing row
// returns (nil, apperr with Kind ResourceNotFound).
func (s *Store) GetItem(ctx context.Context, key Item) (Item, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, apperr.FromAWS("getItem", err)
	}
	if out.Item == nil {
		return nil, apperr.New(apperr.ResourceNotFound, "item not found")
	}
	return out.Item, nil
}

// Ping verifies the configured table is reachable and accessible,
// without reading or writing any row. Used by health checks at startup
// and on the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	}); err != nil {
		return apperr.FromAWS("describeTable", err)
	}
	return nil
}

// PutItem writes item, optionally gated by a condition expression. A
// failed condition surfaces as apperr.ConditionalCheckFailed.
func (s *Store) PutItem(ctx context.Context, item Item, conditionExpr string, exprAttrValues Item) error {
	in := &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}
	if conditionExpr != "" {
		in.ConditionExpression = aws.String(conditionExpr)
		in.ExpressionAttributeValues = exprAttrValues
	}
	if _, err := s.client.PutItem(ctx, in); err != nil {
		return apperr.FromAWS("putItem", err)
	}
	return nil
}

// DeleteItem removes the row identified by key.
func (s *Store) DeleteItem(ctx context.Context, key Item) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       key,
	}); err != nil {
		return apperr.FromAWS("deleteItem", err)
	}
	return nil
}

// PaginatedQuery runs a strongly consistent query for every row whose
// partition key attribute pkName equals pkValue, following
// LastEvaluatedKey until the result set is exhausted.
func (s *Store) PaginatedQuery(ctx context.Context, pkName string, pkValue ddbtypes.AttributeValue) ([]Item, error) {
	var items []Item
	var startKey Item

	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.table),
			KeyConditionExpression: aws.String("#pk = :pk"),
			ExpressionAttributeNames: map[string]string{
				"#pk": pkName,
			},
			ExpressionAttributeValues: Item{
				":pk": pkValue,
			},
			ConsistentRead:    aws.Bool(true),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, apperr.FromAWS("paginatedQuery", err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return items, nil
}

// Scan returns up to pageSize rows via a strongly consistent scan,
// resuming from startingToken (the whitelist-name string last
// returned) when non-empty. The returned token is empty when no
// further page exists.
func (s *Store) Scan(ctx context.Context, pkName string, pageSize int32, startingToken string) ([]Item, string, error) {
	in := &dynamodb.ScanInput{
		TableName:      aws.String(s.table),
		Limit:          aws.Int32(pageSize),
		ConsistentRead: aws.Bool(true),
	}
	if startingToken != "" {
		in.ExclusiveStartKey = Item{
			pkName: &ddbtypes.AttributeValueMemberS{Value: startingToken},
		}
	}

	out, err := s.client.Scan(ctx, in)
	if err != nil {
		return nil, "", apperr.FromAWS("scan", err)
	}

	nextToken := ""
	if v, ok := out.LastEvaluatedKey[pkName].(*ddbtypes.AttributeValueMemberS); ok {
		nextToken = v.Value
	}
	return out.Items, nextToken, nil
}

// batchBackoff sleeps 10ms*2^attempt, honoring ctx cancellation.
func batchBackoff(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(batchRetryBaseDelay << attempt):
		return nil
	}
}

// BatchPutWrite bulk-inserts items in chunks of 25, retrying any
// UnprocessedItems up to maxRetries times with the prescribed backoff.
// A chunk that still has unprocessed items after the retry budget is
// exhausted returns apperr.PartialBatch.
func (s *Store) BatchPutWrite(ctx context.Context, items []Item, maxRetries int) error {
	requests := make([]ddbtypes.WriteRequest, len(items))
	for i, item := range items {
		requests[i] = ddbtypes.WriteRequest{PutRequest: &ddbtypes.PutRequest{Item: item}}
	}
	return s.batchWrite(ctx, requests, maxRetries)
}

// BatchDeleteWrite bulk-deletes rows identified by keys in chunks of
// 25, with the same retry and partial-batch semantics as
// BatchPutWrite.
func (s *Store) BatchDeleteWrite(ctx context.Context, keys []Item, maxRetries int) error {
	requests := make([]ddbtypes.WriteRequest, len(keys))
	for i, key := range keys {
		requests[i] = ddbtypes.WriteRequest{DeleteRequest: &ddbtypes.DeleteRequest{Key: key}}
	}
	return s.batchWrite(ctx, requests, maxRetries)
}

func (s *Store) batchWrite(ctx context.Context, requests []ddbtypes.WriteRequest, maxRetries int) error {
	for len(requests) > 0 {
		n := maxBatchWriteItems
		if n > len(requests) {
			n = len(requests)
		}
		batch := requests[:n]
		requests = requests[n:]

		pending := batch
		for attempt := 0; len(pending) > 0; attempt++ {
			out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]ddbtypes.WriteRequest{s.table: pending},
			})
			if err != nil {
				return apperr.FromAWS("batchWriteItem", err)
			}

			pending = out.UnprocessedItems[s.table]
			if len(pending) == 0 {
				break
			}
			if attempt >= maxRetries {
				metrics.BatchPartialFailuresTotal.WithLabelValues(s.table).Inc()
				return apperr.New(apperr.PartialBatch, fmt.Sprintf("batch write exhausted %d retries with %d items unprocessed", maxRetries, len(pending)))
			}
			metrics.BatchRetriesTotal.WithLabelValues(s.table).Inc()
			if err := batchBackoff(ctx, attempt); err != nil {
				return err
			}
		}
	}
	return nil
}

// TransactInsertWrite inserts items atomically in chunks of 100, each
// chunk gated by the shared conditionExpr/exprAttrValues (e.g. an
// insert-only "attribute_not_exists" guard). A failed condition on any
// item fails the whole chunk with apperr.ConditionalCheckFailed.
func (s *Store) TransactInsertWrite(ctx context.Context, items []Item, conditionExpr string, exprAttrValues Item) error {
	puts := make([]ddbtypes.TransactWriteItem, len(items))
	for i, item := range items {
		put := &ddbtypes.Put{TableName: aws.String(s.table), Item: item}
		if conditionExpr != "" {
			put.ConditionExpression = aws.String(conditionExpr)
			put.ExpressionAttributeValues = exprAttrValues
		}
		puts[i] = ddbtypes.TransactWriteItem{Put: put}
	}
	return s.transactWrite(ctx, puts)
}

// TransactDeleteWrite deletes rows atomically in chunks of 100.
func (s *Store) TransactDeleteWrite(ctx context.Context, keys []Item) error {
	deletes := make([]ddbtypes.TransactWriteItem, len(keys))
	for i, key := range keys {
		deletes[i] = ddbtypes.TransactWriteItem{
			Delete: &ddbtypes.Delete{TableName: aws.String(s.table), Key: key},
		}
	}
	return s.transactWrite(ctx, deletes)
}

func (s *Store) transactWrite(ctx context.Context, items []ddbtypes.TransactWriteItem) error {
	for len(items) > 0 {
		n := maxTransactItems
		if n > len(items) {
			n = len(items)
		}
		batch := items[:n]
		items = items[n:]

		if _, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: batch,
		}); err != nil {
			return apperr.FromAWS("transactWriteItems", err)
		}
	}
	return nil
}

// BatchInsertViaStatement inserts items using PartiQL, chunked to 25
// statements per BatchExecuteStatement call.
func (s *Store) BatchInsertViaStatement(ctx context.Context, statements []string) error {
	for len(statements) > 0 {
		n := maxBatchStatementItems
		if n > len(statements) {
			n = len(statements)
		}
		batch := statements[:n]
		statements = statements[n:]

		stmts := make([]ddbtypes.BatchStatementRequest, len(batch))
		for i, stmt := range batch {
			stmts[i] = ddbtypes.BatchStatementRequest{Statement: aws.String(stmt)}
		}

		out, err := s.client.BatchExecuteStatement(ctx, &dynamodb.BatchExecuteStatementInput{
			Statements: stmts,
		})
		if err != nil {
			return apperr.FromAWS("batchExecuteStatement", err)
		}

		for _, r := range out.Responses {
			if r.Error != nil {
				return apperr.New(apperr.Other, fmt.Sprintf("batch statement failed: %s", aws.ToString(r.Error.Message)))
			}
		}
	}
	return nil
}
