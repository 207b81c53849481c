/*
Package merkle builds standard sorted-pair Merkle trees over whitelist
CSV rows and emits per-leaf proofs compatible with an on-chain
keccak256-based verifier contract.

# Pipeline

	CSV bytes -> ParseCSV -> input gate (row/address/amount validation)
	          -> Build -> (root, []ProofRecord)

Leaf encoding is the double-keccak of the ABI-encoded (address, uint256)
tuple, matching the verifier's
keccak256(bytes.concat(keccak256(abi.encode(address, amountWei)))).
Internal nodes hash the pair of children in (min, max) unsigned
byte-order, the same OpenZeppelin-compatible "sorted pairs" convention
used by the txaty/go-merkletree library's SortSiblingPairs mode. An odd
node at any level is promoted unchanged to the next level. A single-leaf
tree's root is the leaf itself, and its proof is the empty string.
*/
package merkle
