package types

// Status represents the current state of a whitelist's Merkle root row.
// It is a single-writer state machine owned by the tree lifecycle
// orchestrator; see pkg/treelifecycle for the transition diagram.
type Status string

const (
	StatusCreating  Status = "CREATING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusDeleting  Status = "DELETING"
)

// WhitelistEntry is one validated (address, amount) row parsed from an
// uploaded CSV. Address is always in checksummed (EIP-55) form and
// AmountWei is always the base-10 decimal string of the wei integer;
// both are produced by pkg/merkle's input gate, never taken verbatim
// from the CSV.
type WhitelistEntry struct {
	Address   string
	AmountWei string
}

// RootRecord is the single row per whitelist name in the roots table.
// MerkleRoot is fixed at insert time and never changes; only
// WhitelistStatus transitions thereafter.
type RootRecord struct {
	WhitelistName   string
	MerkleRoot      string
	WhitelistStatus Status
}

// ProofRecord is one row per whitelisted address in the proofs table,
// keyed by (WhitelistName, WhitelistAddress). MerkleProof is the
// comma-joined list of sibling hashes from the leaf to (not including)
// the root, empty for a single-leaf tree.
type ProofRecord struct {
	WhitelistName      string
	WhitelistAddress   string
	WhitelistAmountWei string
	MerkleProof        string
}

// TreeSummary is the projection of a RootRecord returned by the
// anonymous-safe catalog read (getMerkleTrees): name only, no root or
// status.
type TreeSummary struct {
	WhitelistName string
}

// Page wraps a single page of scan results together with an opaque
// continuation token. Token is empty when there is no further page.
type Page[T any] struct {
	Items []T
	Token string
}
