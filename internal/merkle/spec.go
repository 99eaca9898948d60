// Package merkle implements the authenticated overlay (C2) described in
// spec.md §4.2: a deterministic Merkle index over the provable paths of a
// versioned key/value snapshot, producing app-hashes and ICS-23 proofs.
package merkle

import ics23 "github.com/cosmos/ics23/go"

// ProofSpec pins the exact leaf/inner encoding this tree uses when emitting
// ics23.CommitmentProof values, matching the layout spec.md §4.2 requires:
// sha256 leaf and inner hashing, no key pre-hash, value pre-hashed with
// sha256, a fixed two-child inner layout, and 32-byte child digests.
var ProofSpec = &ics23.ProofSpec{
	LeafSpec: &ics23.LeafOp{
		Hash:         ics23.HashOp_SHA256,
		PrehashKey:   ics23.HashOp_NO_HASH,
		PrehashValue: ics23.HashOp_SHA256,
		Length:       ics23.LengthOp_NO_PREFIX,
		Prefix:       []byte{leafPrefix},
	},
	InnerSpec: &ics23.InnerSpec{
		ChildOrder:      []int32{0, 1},
		ChildSize:       32,
		MinPrefixLength: 1,
		MaxPrefixLength: 1 + 32,
		Hash:            ics23.HashOp_SHA256,
	},
	MaxDepth: 0, // unbounded; the tree is rebuilt canonically on every commit
	MinDepth: 0,
}

const (
	leafPrefix  byte = 0x00
	innerPrefix byte = 0x01
)
