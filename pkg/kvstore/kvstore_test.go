package kvstore

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtreehq/merkletree/pkg/apperr"
)

// fakeDDB is a minimal in-memory stand-in for ddbAPI, just enough to
// exercise the adapter's chunking, retry, and error-mapping logic
// without a live DynamoDB endpoint.
type fakeDDB struct {
	getItemFn           func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	putItemFn           func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
	scanFn              func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error)
	queryFn             func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	batchWriteResponses []*dynamodb.BatchWriteItemOutput
	batchWriteCallCount int
	batchWriteErr       error
	describeTableErr    error
}

func (f *fakeDDB) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getItemFn(in)
}

func (f *fakeDDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return f.putItemFn(in)
}

func (f *fakeDDB) DeleteItem(_ context.Context, _ *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDDB) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return f.queryFn(in)
}

func (f *fakeDDB) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return f.scanFn(in)
}

func (f *fakeDDB) BatchWriteItem(_ context.Context, _ *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if f.batchWriteErr != nil {
		return nil, f.batchWriteErr
	}
	out := f.batchWriteResponses[f.batchWriteCallCount]
	f.batchWriteCallCount++
	return out, nil
}

func (f *fakeDDB) TransactWriteItems(_ context.Context, _ *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeDDB) BatchExecuteStatement(_ context.Context, in *dynamodb.BatchExecuteStatementInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchExecuteStatementOutput, error) {
	responses := make([]ddbtypes.BatchStatementResponse, len(in.Statements))
	return &dynamodb.BatchExecuteStatementOutput{Responses: responses}, nil
}

func (f *fakeDDB) DescribeTable(_ context.Context, _ *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.describeTableErr != nil {
		return nil, f.describeTableErr
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

type fakeAPIError struct{ code string }

func (f *fakeAPIError) Error() string                 { return f.code }
func (f *fakeAPIError) ErrorCode() string              { return f.code }
func (f *fakeAPIError) ErrorMessage() string           { return "boom" }
func (f *fakeAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultUnknown }

func TestGetItem_NotFound(t *testing.T) {
	store := newWithClient(&fakeDDB{
		getItemFn: func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{}, nil
		},
	}, "roots")

	_, err := store.GetItem(context.Background(), Item{})
	assert.True(t, apperr.Is(err, apperr.ResourceNotFound))
}

func TestGetItem_Found(t *testing.T) {
	item := Item{"WhitelistName": &ddbtypes.AttributeValueMemberS{Value: "w0"}}
	store := newWithClient(&fakeDDB{
		getItemFn: func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: item}, nil
		},
	}, "roots")

	got, err := store.GetItem(context.Background(), Item{})
	require.NoError(t, err)
	assert.Equal(t, item, got)
}

func TestPutItem_ConditionalCheckFailed(t *testing.T) {
	store := newWithClient(&fakeDDB{
		putItemFn: func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			return nil, &fakeAPIError{code: "ConditionalCheckFailedException"}
		},
	}, "roots")

	err := store.PutItem(context.Background(), Item{}, "attribute_not_exists(WhitelistName)", nil)
	assert.Equal(t, apperr.ConditionalCheckFailed, apperr.KindOf(err))
}

func TestScan_ReturnsContinuationToken(t *testing.T) {
	store := newWithClient(&fakeDDB{
		scanFn: func(in *dynamodb.ScanInput) (*dynamodb.ScanOutput, error) {
			return &dynamodb.ScanOutput{
				Items: []Item{{"WhitelistName": &ddbtypes.AttributeValueMemberS{Value: "w0"}}},
				LastEvaluatedKey: Item{
					"WhitelistName": &ddbtypes.AttributeValueMemberS{Value: "w1"},
				},
			}, nil
		},
	}, "roots")

	items, token, err := store.Scan(context.Background(), "WhitelistName", 2, "")
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "w1", token)
}

func TestPaginatedQuery_FollowsLastEvaluatedKey(t *testing.T) {
	calls := 0
	store := newWithClient(&fakeDDB{
		queryFn: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			calls++
			if calls == 1 {
				return &dynamodb.QueryOutput{
					Items:            []Item{{"WhitelistAddress": &ddbtypes.AttributeValueMemberS{Value: "a"}}},
					LastEvaluatedKey: Item{"WhitelistAddress": &ddbtypes.AttributeValueMemberS{Value: "a"}},
				}, nil
			}
			return &dynamodb.QueryOutput{
				Items: []Item{{"WhitelistAddress": &ddbtypes.AttributeValueMemberS{Value: "b"}}},
			}, nil
		},
	}, "proofs")

	items, err := store.PaginatedQuery(context.Background(), "WhitelistName", &ddbtypes.AttributeValueMemberS{Value: "w0"})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, calls)
}

func TestBatchPutWrite_RetriesUnprocessedThenSucceeds(t *testing.T) {
	retriedKey := ddbtypes.WriteRequest{PutRequest: &ddbtypes.PutRequest{Item: Item{"k": &ddbtypes.AttributeValueMemberS{Value: "v"}}}}
	store := newWithClient(&fakeDDB{
		batchWriteResponses: []*dynamodb.BatchWriteItemOutput{
			{UnprocessedItems: map[string][]ddbtypes.WriteRequest{"roots": {retriedKey}}},
			{UnprocessedItems: map[string][]ddbtypes.WriteRequest{}},
		},
	}, "roots")

	err := store.BatchPutWrite(context.Background(), []Item{{"k": &ddbtypes.AttributeValueMemberS{Value: "v"}}}, 3)
	require.NoError(t, err)
}

func TestBatchPutWrite_ExhaustsRetriesReturnsPartialBatch(t *testing.T) {
	retriedKey := ddbtypes.WriteRequest{PutRequest: &ddbtypes.PutRequest{Item: Item{"k": &ddbtypes.AttributeValueMemberS{Value: "v"}}}}
	unprocessed := map[string][]ddbtypes.WriteRequest{"roots": {retriedKey}}
	store := newWithClient(&fakeDDB{
		batchWriteResponses: []*dynamodb.BatchWriteItemOutput{
			{UnprocessedItems: unprocessed},
			{UnprocessedItems: unprocessed},
		},
	}, "roots")

	err := store.BatchPutWrite(context.Background(), []Item{{"k": &ddbtypes.AttributeValueMemberS{Value: "v"}}}, 1)
	assert.Equal(t, apperr.PartialBatch, apperr.KindOf(err))
}

func TestPing_Success(t *testing.T) {
	store := newWithClient(&fakeDDB{}, "roots")
	err := store.Ping(context.Background())
	require.NoError(t, err)
}

func TestPing_TableNotFound(t *testing.T) {
	store := newWithClient(&fakeDDB{
		describeTableErr: &fakeAPIError{code: "ResourceNotFoundException"},
	}, "roots")
	err := store.Ping(context.Background())
	assert.Equal(t, apperr.ResourceNotFound, apperr.KindOf(err))
}
