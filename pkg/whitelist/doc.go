/*
Package whitelist implements whitelist CSV upload and component E, the
read path: getMerkleRoot, getMerkleProof, getMerkleProofs,
getMerkleRoots, and getMerkleTrees.

None of these operations mutate the roots or proofs tables; the
tree-status state machine is owned entirely by pkg/treelifecycle. The
read path's one correctness-critical rule is
that every address lookup must canonicalize to its EIP-55 checksummed
form before it is used as a KV sort key, since the proofs table is
always written with checksummed addresses.
*/
package whitelist
