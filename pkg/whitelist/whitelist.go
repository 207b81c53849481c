package whitelist

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/wtreehq/merkletree/pkg/apperr"
	"github.com/wtreehq/merkletree/pkg/merkle"
	"github.com/wtreehq/merkletree/pkg/metrics"
	"github.com/wtreehq/merkletree/pkg/types"
)

// namePattern is the whitelist-name validation rule.
var namePattern = regexp.MustCompile(`^[A-Za-z][0-9A-Za-z_-]*$`)

// ValidateWhitelistName checks name against the length and shape
// rules a whitelist name (and a scan continuation token, which shares
// the same syntax) must satisfy.
func ValidateWhitelistName(name string) error {
	if len(name) < 1 || len(name) > 1024 {
		return fmt.Errorf("whitelist name %q must be 1-1024 characters long", name)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("whitelist name %q has an invalid shape", name)
	}
	return nil
}

// ValidatePageSize checks pageSize against the [1, 1000] bound every
// paginated read must satisfy.
func ValidatePageSize(pageSize int32) error {
	if pageSize < 1 || pageSize > 1000 {
		return fmt.Errorf("pageSize %d must be between 1 and 1000", pageSize)
	}
	return nil
}

// objectStore is the subset of *objectstore.Store the upload path
// needs.
type objectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string, allowOverwrite bool) error
}

// kv is the subset of *kvstore.Store the read path needs.
type kv interface {
	GetItem(ctx context.Context, key map[string]ddbtypes.AttributeValue) (map[string]ddbtypes.AttributeValue, error)
	PaginatedQuery(ctx context.Context, pkName string, pkValue ddbtypes.AttributeValue) ([]map[string]ddbtypes.AttributeValue, error)
	Scan(ctx context.Context, pkName string, pageSize int32, startingToken string) ([]map[string]ddbtypes.AttributeValue, string, error)
}

// Service is component E plus whitelist CSV upload.
type Service struct {
	objects objectStore
	roots   kv
	proofs  kv
}

// New constructs a Service over the given object store and the roots
// and proofs table adapters.
func New(objects objectStore, roots, proofs kv) *Service {
	return &Service{objects: objects, roots: roots, proofs: proofs}
}

// UploadWhitelist validates name and the CSV content, then stores the
// raw CSV bytes at "<name>.csv" with an if-none-match precondition: a
// byte-identical re-upload is idempotent, any other pre-existing
// content is rejected.
func (s *Service) UploadWhitelist(ctx context.Context, whitelistName string, csv []byte) error {
	if err := ValidateWhitelistName(whitelistName); err != nil {
		return apperr.Wrap(apperr.Validation, "invalid whitelist name", err)
	}
	if _, err := merkle.ParseCSV(csv); err != nil {
		return apperr.Wrap(apperr.Validation, "invalid whitelist CSV", err)
	}

	return s.objects.Put(ctx, whitelistName+".csv", csv, "text/csv", false)
}

// GetMerkleRoot returns the roots row for whitelistName, or a
// ResourceNotFound apperr if none exists. No status gating is applied
// here; callers treat a non-COMPLETED status as "not ready".
func (s *Service) GetMerkleRoot(ctx context.Context, whitelistName string) (*types.RootRecord, error) {
	if err := ValidateWhitelistName(whitelistName); err != nil {
		return nil, apperr.Wrap(apperr.Validation, "invalid whitelist name", err)
	}

	item, err := s.roots.GetItem(ctx, rootsKey(whitelistName))
	if err != nil {
		return nil, err
	}

	var rec types.RootRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling root row: %w", err)
	}
	return &rec, nil
}

// GetMerkleProof canonicalizes address to its checksummed form, then
// returns the whitelisted entry's proof. It fails with
// apperr.Validation("not found") if no tree exists for whitelistName,
// apperr.Validation("not ready") if the tree is not yet COMPLETED, and
// apperr.ResourceNotFound if the address is not part of the
// whitelist.
func (s *Service) GetMerkleProof(ctx context.Context, whitelistName, address string) (*types.ProofRecord, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ProofLookupDuration)

	checksummed, err := merkle.ValidateAddress(address)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, "invalid address", err)
	}

	if _, err := s.getCompletedRoot(ctx, whitelistName); err != nil {
		return nil, err
	}

	item, err := s.proofs.GetItem(ctx, proofKey(whitelistName, checksummed))
	if err != nil {
		return nil, err
	}

	var rec types.ProofRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling proof row: %w", err)
	}
	return &rec, nil
}

// GetMerkleProofs returns every proof row for whitelistName. The tree
// must be COMPLETED.
func (s *Service) GetMerkleProofs(ctx context.Context, whitelistName string) ([]types.ProofRecord, error) {
	if _, err := s.getCompletedRoot(ctx, whitelistName); err != nil {
		return nil, err
	}

	rows, err := s.proofs.PaginatedQuery(ctx, "WhitelistName", &ddbtypes.AttributeValueMemberS{Value: whitelistName})
	if err != nil {
		return nil, err
	}

	records := make([]types.ProofRecord, len(rows))
	for i, row := range rows {
		if err := attributevalue.UnmarshalMap(row, &records[i]); err != nil {
			return nil, fmt.Errorf("unmarshaling proof row: %w", err)
		}
	}
	return records, nil
}

// getCompletedRoot reads the roots row for whitelistName and enforces
// the absent/not-ready gating shared by GetMerkleProof and
// GetMerkleProofs.
func (s *Service) getCompletedRoot(ctx context.Context, whitelistName string) (*types.RootRecord, error) {
	item, err := s.roots.GetItem(ctx, rootsKey(whitelistName))
	if apperr.Is(err, apperr.ResourceNotFound) {
		return nil, apperr.New(apperr.Validation, fmt.Sprintf("whitelist %q not found", whitelistName))
	}
	if err != nil {
		return nil, err
	}

	var rec types.RootRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling root row: %w", err)
	}
	if rec.WhitelistStatus != types.StatusCompleted {
		return nil, apperr.New(apperr.Validation, fmt.Sprintf("whitelist %q is not ready (status=%s)", whitelistName, rec.WhitelistStatus))
	}
	return &rec, nil
}

// GetMerkleRoots scans the roots table, returning up to pageSize rows
// and an opaque continuation token.
func (s *Service) GetMerkleRoots(ctx context.Context, pageSize int32, startingToken string) (types.Page[types.RootRecord], error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RootScanDuration)

	if err := ValidatePageSize(pageSize); err != nil {
		return types.Page[types.RootRecord]{}, apperr.Wrap(apperr.Validation, "invalid pageSize", err)
	}
	if startingToken != "" {
		if err := ValidateWhitelistName(startingToken); err != nil {
			return types.Page[types.RootRecord]{}, apperr.Wrap(apperr.Validation, "invalid startingToken", err)
		}
	}

	rows, token, err := s.roots.Scan(ctx, "WhitelistName", pageSize, startingToken)
	if err != nil {
		return types.Page[types.RootRecord]{}, err
	}

	items := make([]types.RootRecord, len(rows))
	for i, row := range rows {
		if err := attributevalue.UnmarshalMap(row, &items[i]); err != nil {
			return types.Page[types.RootRecord]{}, fmt.Errorf("unmarshaling root row: %w", err)
		}
	}
	return types.Page[types.RootRecord]{Items: items, Token: token}, nil
}

// GetMerkleTrees is the same scan as GetMerkleRoots, projected to just
// the whitelist name — the one read safe for anonymous callers.
func (s *Service) GetMerkleTrees(ctx context.Context, pageSize int32, startingToken string) (types.Page[types.TreeSummary], error) {
	page, err := s.GetMerkleRoots(ctx, pageSize, startingToken)
	if err != nil {
		return types.Page[types.TreeSummary]{}, err
	}

	items := make([]types.TreeSummary, len(page.Items))
	for i, r := range page.Items {
		items[i] = types.TreeSummary{WhitelistName: r.WhitelistName}
	}
	return types.Page[types.TreeSummary]{Items: items, Token: page.Token}, nil
}

func rootsKey(whitelistName string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"WhitelistName": &ddbtypes.AttributeValueMemberS{Value: whitelistName},
	}
}

func proofKey(whitelistName, address string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"WhitelistName":    &ddbtypes.AttributeValueMemberS{Value: whitelistName},
		"WhitelistAddress": &ddbtypes.AttributeValueMemberS{Value: address},
	}
}
