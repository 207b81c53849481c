package merkle

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/wtreehq/merkletree/pkg/types"
)

// leafHash computes keccak256(keccak256(abi.encode(address, amountWei))),
// the double-keccak leaf encoding the on-chain verifier expects. addr is
// a checksummed "0x..." address and weiStr is a base-10 wei integer
// string, both already validated by ValidateAddress/ParseAmountWei.
func leafHash(addr, weiStr string) ([32]byte, error) {
	addrBytes, err := hex.DecodeString(strings.TrimPrefix(addr, "0x"))
	if err != nil {
		return [32]byte{}, fmt.Errorf("decoding address %q: %w", addr, err)
	}

	wei, ok := new(big.Int).SetString(weiStr, 10)
	if !ok {
		return [32]byte{}, fmt.Errorf("decoding wei amount %q", weiStr)
	}

	// abi.encode(address, uint256): each argument occupies a 32-byte
	// word, the address right-aligned in its word.
	encoded := make([]byte, 64)
	copy(encoded[32-len(addrBytes):32], addrBytes)
	wei.FillBytes(encoded[32:64])

	inner := keccak256(encoded)
	outer := keccak256(inner[:])
	return outer, nil
}

func keccak256(data []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// hashPair hashes two sibling nodes in sorted (min, max) unsigned
// byte order, the OpenZeppelin-compatible convention also known as
// "sort sibling pairs".
func hashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return keccak256(append(append([]byte{}, a[:]...), b[:]...))
	}
	return keccak256(append(append([]byte{}, b[:]...), a[:]...))
}

// Build constructs a sorted-pair Merkle tree over entries and returns
// the hex-encoded root together with one ProofRecord per entry. A
// single-entry tree's root is the entry's leaf hash and its proof is
// the empty string. entries must be non-empty; callers are expected to
// have already run entries through ParseCSV's input gate.
func Build(whitelistName string, entries []types.WhitelistEntry) (root string, proofs []types.ProofRecord, err error) {
	if len(entries) == 0 {
		return "", nil, fmt.Errorf("cannot build a tree over zero entries")
	}

	level := make([][32]byte, len(entries))
	for i, e := range entries {
		leaf, err := leafHash(e.Address, e.AmountWei)
		if err != nil {
			return "", nil, err
		}
		level[i] = leaf
	}

	// pos[i] tracks entry i's index within the current level; siblings
	// collects the proof path (leaf to root, exclusive) for entry i.
	pos := make([]int, len(entries))
	for i := range pos {
		pos[i] = i
	}
	siblings := make([][][32]byte, len(entries))

	for len(level) > 1 {
		next := make([][32]byte, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next[i/2] = hashPair(level[i], level[i+1])
			} else {
				next[i/2] = level[i] // odd node promoted unchanged
			}
		}

		for i := range pos {
			p := pos[i]
			if p%2 == 0 && p+1 < len(level) {
				siblings[i] = append(siblings[i], level[p+1])
			} else if p%2 == 1 {
				siblings[i] = append(siblings[i], level[p-1])
			}
			// odd node with no partner: no sibling appended, position
			// carries straight through to next level.
			pos[i] = p / 2
		}

		level = next
	}

	root = "0x" + hex.EncodeToString(level[0][:])

	proofs = make([]types.ProofRecord, len(entries))
	for i, e := range entries {
		proofs[i] = types.ProofRecord{
			WhitelistName:      whitelistName,
			WhitelistAddress:   e.Address,
			WhitelistAmountWei: e.AmountWei,
			MerkleProof:        encodeProof(siblings[i]),
		}
	}

	return root, proofs, nil
}

func encodeProof(path [][32]byte) string {
	parts := make([]string, len(path))
	for i, h := range path {
		parts[i] = "0x" + hex.EncodeToString(h[:])
	}
	return strings.Join(parts, ",")
}
