/*
Package types defines the core data structures shared across the
whitelist-to-Merkle-tree service.

This package holds the domain model: whitelist entries parsed from CSV,
the Merkle root record that anchors a whitelist's tree, and the
per-address Merkle proof record. These types are the shared vocabulary
between the merkle, objectstore, kvstore, treelifecycle, and whitelist
packages.

# Core Types

Status:
  - Status: CREATING, COMPLETED, FAILED, DELETING — the roots-row state
    machine owned by the tree lifecycle orchestrator.

Merkle Records:
  - WhitelistEntry: one validated (address, amount) row parsed from a CSV
  - RootRecord: the single row per whitelist name in the roots table
  - ProofRecord: one row per whitelisted address in the proofs table

# Design Patterns

Enums are typed string constants:

	type Status string
	const (
	    StatusCreating  Status = "CREATING"
	    StatusCompleted Status = "COMPLETED"
	)

# Validation

This package holds no validation logic of its own. Whitelist entry
validation (address checksum, amount range, row limits) lives in
pkg/merkle; status transition validity lives in pkg/treelifecycle. Types
here are plain data, safe to read concurrently, and should be treated as
immutable once constructed — callers that need to change a field build a
new value rather than mutate a shared one.
*/
package types
