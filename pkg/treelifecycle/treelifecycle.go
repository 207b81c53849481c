package treelifecycle

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/wtreehq/merkletree/pkg/apperr"
	"github.com/wtreehq/merkletree/pkg/log"
	"github.com/wtreehq/merkletree/pkg/merkle"
	"github.com/wtreehq/merkletree/pkg/metrics"
	"github.com/wtreehq/merkletree/pkg/types"
)

const (
	proofBatchSize = 25
	batchMaxRetries = 3
)

// objectStore is the subset of *objectstore.Store the orchestrator
// needs; both the whitelist CSV blob and its deletion.
type objectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// kv is the subset of *kvstore.Store the orchestrator drives the roots
// and proofs tables through.
type kv interface {
	GetItem(ctx context.Context, key map[string]ddbtypes.AttributeValue) (map[string]ddbtypes.AttributeValue, error)
	PutItem(ctx context.Context, item map[string]ddbtypes.AttributeValue, conditionExpr string, exprAttrValues map[string]ddbtypes.AttributeValue) error
	DeleteItem(ctx context.Context, key map[string]ddbtypes.AttributeValue) error
	PaginatedQuery(ctx context.Context, pkName string, pkValue ddbtypes.AttributeValue) ([]map[string]ddbtypes.AttributeValue, error)
	BatchPutWrite(ctx context.Context, items []map[string]ddbtypes.AttributeValue, maxRetries int) error
	BatchDeleteWrite(ctx context.Context, keys []map[string]ddbtypes.AttributeValue, maxRetries int) error
}

// Orchestrator owns the roots-row state machine for every whitelist
// name. It is the sole writer of the roots table.
type Orchestrator struct {
	objects objectStore
	roots   kv
	proofs  kv
}

// New constructs an Orchestrator over the given object store and the
// two DynamoDB-backed table adapters.
func New(objects objectStore, roots, proofs kv) *Orchestrator {
	return &Orchestrator{objects: objects, roots: roots, proofs: proofs}
}

func csvKey(whitelistName string) string {
	return whitelistName + ".csv"
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

// CreateTree reads the uploaded CSV for whitelistName, builds the
// Merkle tree, and runs the absent -> CREATING -> COMPLETED protocol.
// It returns the computed root on success.
func (o *Orchestrator) CreateTree(ctx context.Context, whitelistName string) (string, error) {
	reqID := uuid.NewString()
	reqLog := log.WithWhitelistName(whitelistName).With().Str("request_id", reqID).Logger()
	reqLog.Info().Msg("starting tree creation")

	csv, err := o.objects.Get(ctx, csvKey(whitelistName))
	if err != nil {
		return "", err
	}

	buildTimer := metrics.NewTimer()
	entries, err := merkle.ParseCSV(csv)
	if err != nil {
		return "", apperr.Wrap(apperr.Validation, "invalid whitelist CSV", err)
	}

	root, proofs, err := merkle.Build(whitelistName, entries)
	buildTimer.ObserveDuration(metrics.TreeBuildDuration)
	if err != nil {
		return "", apperr.Wrap(apperr.Validation, "failed to build Merkle tree", err)
	}
	metrics.TreeBuildRows.Observe(float64(len(entries)))

	rootItem, err := attributevalue.MarshalMap(types.RootRecord{
		WhitelistName:   whitelistName,
		MerkleRoot:      root,
		WhitelistStatus: types.StatusCreating,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling root row: %w", err)
	}

	if err := o.roots.PutItem(ctx, rootItem, "attribute_not_exists(WhitelistName)", nil); err != nil {
		if apperr.Is(err, apperr.ConditionalCheckFailed) {
			metrics.ConditionalCheckFailuresTotal.WithLabelValues("absent->CREATING").Inc()
		}
		return "", err
	}

	if err := o.insertProofs(ctx, whitelistName, proofs); err != nil {
		reqLog.Warn().Err(err).Msg("bulk proof insert failed, compensating root row to FAILED")
		if compErr := o.transition(ctx, whitelistName, root, types.StatusCreating, types.StatusFailed); compErr != nil {
			reqLog.Error().Err(compErr).Msg("compensating transition to FAILED also failed; root row left stuck in CREATING")
		} else {
			metrics.TreesFailedTotal.Inc()
		}
		return "", err
	}

	if err := o.transition(ctx, whitelistName, root, types.StatusCreating, types.StatusCompleted); err != nil {
		if apperr.Is(err, apperr.ConditionalCheckFailed) {
			metrics.ConditionalCheckFailuresTotal.WithLabelValues("CREATING->COMPLETED").Inc()
		}
		return "", err
	}

	metrics.TreesCreatedTotal.Inc()
	reqLog.Info().Str("root", root).Msg("tree created")
	return root, nil
}

func (o *Orchestrator) insertProofs(ctx context.Context, whitelistName string, proofs []types.ProofRecord) error {
	for start := 0; start < len(proofs); start += proofBatchSize {
		end := start + proofBatchSize
		if end > len(proofs) {
			end = len(proofs)
		}

		items := make([]map[string]ddbtypes.AttributeValue, end-start)
		for i, p := range proofs[start:end] {
			item, err := attributevalue.MarshalMap(p)
			if err != nil {
				return fmt.Errorf("marshaling proof row for %s: %w", p.WhitelistAddress, err)
			}
			items[i] = item
		}

		if err := o.proofs.BatchPutWrite(ctx, items, batchMaxRetries); err != nil {
			return fmt.Errorf("bulk-inserting proof rows [%d:%d) for %s: %w", start, end, whitelistName, err)
		}
	}
	return nil
}

// transition performs the conditional status-changing put common to
// every edge in the state diagram: the expected root must match and
// the row must currently be in `from` status.
func (o *Orchestrator) transition(ctx context.Context, whitelistName, root string, from, to types.Status) error {
	item, err := attributevalue.MarshalMap(types.RootRecord{
		WhitelistName:   whitelistName,
		MerkleRoot:      root,
		WhitelistStatus: to,
	})
	if err != nil {
		return fmt.Errorf("marshaling root row transition: %w", err)
	}

	exprValues, err := attributevalue.MarshalMap(map[string]string{
		":root": root,
		":from": string(from),
	})
	if err != nil {
		return fmt.Errorf("marshaling transition condition values: %w", err)
	}

	return o.roots.PutItem(ctx, item, "MerkleRoot = :root AND WhitelistStatus = :from", exprValues)
}

// DeleteTree runs the COMPLETED|FAILED -> DELETING -> absent protocol,
// bulk-deleting every proof row before removing the root row itself.
func (o *Orchestrator) DeleteTree(ctx context.Context, whitelistName string) error {
	reqID := uuid.NewString()
	reqLog := log.WithWhitelistName(whitelistName).With().Str("request_id", reqID).Logger()
	reqLog.Info().Msg("starting tree deletion")

	item, err := o.roots.GetItem(ctx, rootsKey(whitelistName))
	if apperr.Is(err, apperr.ResourceNotFound) {
		return apperr.New(apperr.Validation, fmt.Sprintf("tree %q does not exist", whitelistName))
	}
	if err != nil {
		return err
	}

	var record types.RootRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return fmt.Errorf("unmarshaling root row: %w", err)
	}

	if record.WhitelistStatus == types.StatusCreating || record.WhitelistStatus == types.StatusDeleting {
		return apperr.New(apperr.Validation, fmt.Sprintf("tree %q is not in a deletable state (status=%s)", whitelistName, record.WhitelistStatus))
	}

	if err := o.deletingTransition(ctx, whitelistName, record.MerkleRoot, record.WhitelistStatus); err != nil {
		if apperr.Is(err, apperr.ConditionalCheckFailed) {
			metrics.ConditionalCheckFailuresTotal.WithLabelValues("COMPLETED|FAILED->DELETING").Inc()
		}
		return err
	}

	if err := o.deleteAllProofs(ctx, whitelistName); err != nil {
		reqLog.Warn().Err(err).Msg("bulk proof delete failed, compensating root row back to FAILED")
		if compErr := o.transition(ctx, whitelistName, record.MerkleRoot, types.StatusDeleting, types.StatusFailed); compErr != nil {
			reqLog.Error().Err(compErr).Msg("compensating transition to FAILED also failed; root row left stuck in DELETING")
		} else {
			metrics.TreesFailedTotal.Inc()
		}
		return err
	}

	if err := o.roots.DeleteItem(ctx, rootsKey(whitelistName)); err != nil {
		return err
	}

	metrics.TreesDeletedTotal.Inc()
	reqLog.Info().Msg("tree deleted")
	return nil
}

// deletingTransition handles the two legal predecessors of DELETING
// (COMPLETED and FAILED) with a single condition expression.
func (o *Orchestrator) deletingTransition(ctx context.Context, whitelistName, root string, from types.Status) error {
	item, err := attributevalue.MarshalMap(types.RootRecord{
		WhitelistName:   whitelistName,
		MerkleRoot:      root,
		WhitelistStatus: types.StatusDeleting,
	})
	if err != nil {
		return fmt.Errorf("marshaling root row transition: %w", err)
	}

	exprValues, err := attributevalue.MarshalMap(map[string]string{
		":root": root,
	})
	if err != nil {
		return fmt.Errorf("marshaling transition condition values: %w", err)
	}

	condition := "MerkleRoot = :root AND (WhitelistStatus = :completed OR WhitelistStatus = :failed)"
	exprValues[":completed"] = &ddbtypes.AttributeValueMemberS{Value: string(types.StatusCompleted)}
	exprValues[":failed"] = &ddbtypes.AttributeValueMemberS{Value: string(types.StatusFailed)}

	return o.roots.PutItem(ctx, item, condition, exprValues)
}

func (o *Orchestrator) deleteAllProofs(ctx context.Context, whitelistName string) error {
	rows, err := o.proofs.PaginatedQuery(ctx, "WhitelistName", &ddbtypes.AttributeValueMemberS{Value: whitelistName})
	if err != nil {
		return fmt.Errorf("querying proof rows for %s: %w", whitelistName, err)
	}

	keys := make([]map[string]ddbtypes.AttributeValue, len(rows))
	for i, row := range rows {
		var p types.ProofRecord
		if err := attributevalue.UnmarshalMap(row, &p); err != nil {
			return fmt.Errorf("unmarshaling proof row: %w", err)
		}
		keys[i] = proofKey(whitelistName, p.WhitelistAddress)
	}

	for start := 0; start < len(keys); start += proofBatchSize {
		end := start + proofBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := o.proofs.BatchDeleteWrite(ctx, keys[start:end], batchMaxRetries); err != nil {
			return fmt.Errorf("bulk-deleting proof rows [%d:%d) for %s: %w", start, end, whitelistName, err)
		}
	}
	return nil
}

// ForceFail forces a root row stuck in CREATING or DELETING to FAILED.
// It is the operator escape hatch for a row left behind by a process
// that crashed between a status-changing PutItem and its paired bulk
// proof write: normal traffic can neither create nor delete the tree
// again until the row leaves CREATING/DELETING, and this is the only
// supported way to move it out by hand. It refuses if the row is
// already COMPLETED, already FAILED, or absent.
func (o *Orchestrator) ForceFail(ctx context.Context, whitelistName string) error {
	item, err := o.roots.GetItem(ctx, rootsKey(whitelistName))
	if err != nil {
		return err
	}

	var record types.RootRecord
	if err := attributevalue.UnmarshalMap(item, &record); err != nil {
		return fmt.Errorf("unmarshaling root row: %w", err)
	}

	if record.WhitelistStatus != types.StatusCreating && record.WhitelistStatus != types.StatusDeleting {
		return apperr.New(apperr.Validation, fmt.Sprintf("tree %q is not stuck (status=%s)", whitelistName, record.WhitelistStatus))
	}

	return o.transition(ctx, whitelistName, record.MerkleRoot, record.WhitelistStatus, types.StatusFailed)
}

// DeleteWhitelist removes the uploaded CSV for whitelistName. It
// refuses with apperr.Validation if a root row exists in any status —
// a tree must be deleted first.
func (o *Orchestrator) DeleteWhitelist(ctx context.Context, whitelistName string) error {
	_, err := o.roots.GetItem(ctx, rootsKey(whitelistName))
	switch {
	case err == nil:
		return apperr.New(apperr.Validation, fmt.Sprintf("Merkle tree exists for whitelist %q", whitelistName))
	case apperr.Is(err, apperr.ResourceNotFound):
		// no tree, safe to delete the CSV
	default:
		return err
	}

	return o.objects.Delete(ctx, csvKey(whitelistName))
}
