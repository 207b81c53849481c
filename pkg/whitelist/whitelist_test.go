package whitelist

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wtreehq/merkletree/pkg/apperr"
	"github.com/wtreehq/merkletree/pkg/types"
)

const sampleCSV = "WhitelistAddress,WhitelistAmount\n" +
	"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed,1250\n"

type fakeObjects struct {
	putCalls []string
	putErr   error
}

func (f *fakeObjects) Put(_ context.Context, key string, _ []byte, _ string, _ bool) error {
	f.putCalls = append(f.putCalls, key)
	return f.putErr
}

type fakeKV struct {
	rootItem  map[string]ddbtypes.AttributeValue
	rootErr   error
	proofItem map[string]ddbtypes.AttributeValue
	proofErr  error
	queryRows []map[string]ddbtypes.AttributeValue
	scanRows  []map[string]ddbtypes.AttributeValue
	scanToken string
}

func (f *fakeKV) GetItem(_ context.Context, key map[string]ddbtypes.AttributeValue) (map[string]ddbtypes.AttributeValue, error) {
	if _, ok := key["WhitelistAddress"]; ok {
		if f.proofErr != nil {
			return nil, f.proofErr
		}
		return f.proofItem, nil
	}
	if f.rootErr != nil {
		return nil, f.rootErr
	}
	return f.rootItem, nil
}

func (f *fakeKV) PaginatedQuery(context.Context, string, ddbtypes.AttributeValue) ([]map[string]ddbtypes.AttributeValue, error) {
	return f.queryRows, nil
}

func (f *fakeKV) Scan(context.Context, string, int32, string) ([]map[string]ddbtypes.AttributeValue, string, error) {
	return f.scanRows, f.scanToken, nil
}

func TestUploadWhitelist_RejectsBadName(t *testing.T) {
	svc := New(&fakeObjects{}, &fakeKV{}, &fakeKV{})
	err := svc.UploadWhitelist(context.Background(), "0bad-name", []byte(sampleCSV))
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestUploadWhitelist_RejectsBadCSV(t *testing.T) {
	svc := New(&fakeObjects{}, &fakeKV{}, &fakeKV{})
	err := svc.UploadWhitelist(context.Background(), "w0", []byte("not,a,valid,header\n"))
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestUploadWhitelist_Success(t *testing.T) {
	objects := &fakeObjects{}
	svc := New(objects, &fakeKV{}, &fakeKV{})
	err := svc.UploadWhitelist(context.Background(), "w0", []byte(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, []string{"w0.csv"}, objects.putCalls)
}

func TestGetMerkleProof_NotFoundWhenNoTree(t *testing.T) {
	roots := &fakeKV{rootErr: apperr.New(apperr.ResourceNotFound, "no row")}
	svc := New(&fakeObjects{}, roots, &fakeKV{})
	_, err := svc.GetMerkleProof(context.Background(), "w0", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestGetMerkleProof_NotReadyWhenCreating(t *testing.T) {
	item, _ := attributevalue.MarshalMap(types.RootRecord{WhitelistName: "w0", MerkleRoot: "0xabc", WhitelistStatus: types.StatusCreating})
	roots := &fakeKV{rootItem: item}
	svc := New(&fakeObjects{}, roots, &fakeKV{})
	_, err := svc.GetMerkleProof(context.Background(), "w0", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestGetMerkleProof_Success(t *testing.T) {
	rootItem, _ := attributevalue.MarshalMap(types.RootRecord{WhitelistName: "w0", MerkleRoot: "0xabc", WhitelistStatus: types.StatusCompleted})
	proofItem, _ := attributevalue.MarshalMap(types.ProofRecord{
		WhitelistName:      "w0",
		WhitelistAddress:   "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		WhitelistAmountWei: "1250000000000000000000",
		MerkleProof:        "",
	})
	roots := &fakeKV{rootItem: rootItem}
	proofs := &fakeKV{proofItem: proofItem}
	svc := New(&fakeObjects{}, roots, proofs)

	rec, err := svc.GetMerkleProof(context.Background(), "w0", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	assert.Equal(t, "1250000000000000000000", rec.WhitelistAmountWei)
}

func TestGetMerkleProof_CaseInsensitiveLookup(t *testing.T) {
	rootItem, _ := attributevalue.MarshalMap(types.RootRecord{WhitelistName: "w0", MerkleRoot: "0xabc", WhitelistStatus: types.StatusCompleted})
	proofItem, _ := attributevalue.MarshalMap(types.ProofRecord{WhitelistName: "w0", WhitelistAddress: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"})
	roots := &fakeKV{rootItem: rootItem}
	proofs := &fakeKV{proofItem: proofItem}
	svc := New(&fakeObjects{}, roots, proofs)

	lowerResult, err := svc.GetMerkleProof(context.Background(), "w0", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	upperResult, err := svc.GetMerkleProof(context.Background(), "w0", "0X5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED")
	require.NoError(t, err)
	assert.Equal(t, lowerResult, upperResult)
}

func TestGetMerkleRoots_ValidatesPageSize(t *testing.T) {
	svc := New(&fakeObjects{}, &fakeKV{}, &fakeKV{})
	_, err := svc.GetMerkleRoots(context.Background(), 0, "")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = svc.GetMerkleRoots(context.Background(), 1001, "")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestGetMerkleRoots_ReturnsPageAndToken(t *testing.T) {
	row, _ := attributevalue.MarshalMap(types.RootRecord{WhitelistName: "w0", MerkleRoot: "0xabc", WhitelistStatus: types.StatusCompleted})
	roots := &fakeKV{scanRows: []map[string]ddbtypes.AttributeValue{row}, scanToken: "w1"}
	svc := New(&fakeObjects{}, roots, &fakeKV{})

	page, err := svc.GetMerkleRoots(context.Background(), 2, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "w0", page.Items[0].WhitelistName)
	assert.Equal(t, "w1", page.Token)
}

func TestGetMerkleTrees_ProjectsNameOnly(t *testing.T) {
	row, _ := attributevalue.MarshalMap(types.RootRecord{WhitelistName: "w0", MerkleRoot: "0xabc", WhitelistStatus: types.StatusCompleted})
	roots := &fakeKV{scanRows: []map[string]ddbtypes.AttributeValue{row}}
	svc := New(&fakeObjects{}, roots, &fakeKV{})

	page, err := svc.GetMerkleTrees(context.Background(), 10, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "w0", page.Items[0].WhitelistName)
}

func TestValidateWhitelistName(t *testing.T) {
	assert.NoError(t, ValidateWhitelistName("w0"))
	assert.NoError(t, ValidateWhitelistName("W_hitelist-1"))
	assert.Error(t, ValidateWhitelistName(""))
	assert.Error(t, ValidateWhitelistName("1starts-with-digit"))
	assert.Error(t, ValidateWhitelistName(strings.Repeat("a", 1025)))
}
