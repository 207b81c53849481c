/*
Package treelifecycle implements component D: the tree lifecycle
orchestrator, the design centerpiece of this service.

The roots table row for a whitelist name is a single-writer state
machine:

	absent -> CREATING -> COMPLETED -> DELETING -> absent
	                   \-> FAILED  -<

Every status-changing write is a conditional DynamoDB put keyed on the
previously observed status and the (immutable, once written)
MerkleRoot value. This package is the only writer of that row; reads
elsewhere (pkg/whitelist) never mutate it. CreateTree and DeleteTree
run compensating writes to FAILED when their respective bulk-proof
step fails partway, leaving a deterministic, externally-visible
"not ready" state rather than a torn write; a process crash mid-way
through either protocol leaves the row stuck in CREATING or DELETING,
which is by design left for manual operator repair (see
cmd/whitelist-repair).
*/
package treelifecycle
