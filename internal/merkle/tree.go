package merkle

import (
	"sort"

	"github.com/cometbft/cometbft/crypto/tmhash"
	ics23 "github.com/cosmos/ics23/go"
)

// emptyRoot is the fixed digest of a tree with no provable entries, as
// required by spec.md §4.2 ("empty tree has a fixed digest").
var emptyRoot = tmhash.Sum([]byte{leafPrefix})

// Entry is a single (path, value) pair fed into the tree. Values are the raw
// bytes a provable sub-store wrote; the tree only ever stores their digest.
type Entry struct {
	Path  string
	Value []byte
}

// node is an internal node of the canonical binary Merkle tree. The tree is
// rebuilt from the sorted entry set on every commit (see Build), so its
// shape — and therefore its root hash — is a pure function of the
// (path, value) set, never of insertion history. That is the determinism
// guarantee spec.md §4.2 calls out explicitly.
type node struct {
	isLeaf bool
	hash   []byte

	// leaf fields
	key       string
	value     []byte
	valueHash []byte

	// inner fields
	left, right *node
}

// Tree is an ephemeral, immutable view of the authenticated index at one
// revision. Callers obtain one via Build for each revision they need to
// compute a root or a proof for; there is no incremental mutation API,
// which keeps the "root is a function of the key set" invariant trivial to
// maintain.
type Tree struct {
	root    *node
	entries []Entry // sorted by Path, kept for proof construction
}

// Build constructs the canonical tree over entries, which need not be
// pre-sorted. Duplicate paths are an error at the call site (sub-stores
// never produce them, since they are keyed maps).
func Build(entries []Entry) *Tree {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	return &Tree{
		root:    buildNode(sorted),
		entries: sorted,
	}
}

func buildNode(entries []Entry) *node {
	if len(entries) == 0 {
		return nil
	}
	if len(entries) == 1 {
		e := entries[0]
		vh := tmhash.Sum(e.Value)
		return &node{
			isLeaf:    true,
			key:       e.Path,
			value:     e.Value,
			valueHash: vh,
			hash:      leafHash(e.Path, vh),
		}
	}

	mid := len(entries) / 2
	left := buildNode(entries[:mid])
	right := buildNode(entries[mid:])
	return &node{
		isLeaf: false,
		left:   left,
		right:  right,
		hash:   innerHash(left.hash, right.hash),
	}
}

func leafHash(key string, valueHash []byte) []byte {
	buf := make([]byte, 0, 1+len(key)+len(valueHash))
	buf = append(buf, leafPrefix)
	buf = append(buf, key...)
	buf = append(buf, valueHash...)
	return tmhash.Sum(buf)
}

func innerHash(left, right []byte) []byte {
	buf := make([]byte, 0, 1+len(left)+len(right))
	buf = append(buf, innerPrefix)
	buf = append(buf, left...)
	buf = append(buf, right...)
	return tmhash.Sum(buf)
}

// Root returns the 32-byte app-hash contribution of this tree.
func (t *Tree) Root() []byte {
	if t.root == nil {
		return emptyRoot
	}
	return t.root.hash
}

// step records which branch a path took descending toward a leaf, so
// Prove can unwind the path bottom-up into ics23 InnerOp values.
type step struct {
	wentLeft bool
	sibling  []byte
}

// locate walks the tree toward key, returning the leaf found (nil if the
// tree doesn't contain it) and the path of steps taken from root to leaf.
func (t *Tree) locate(key string) (*node, []step) {
	var path []step
	cur := t.root
	for cur != nil && !cur.isLeaf {
		if key <= maxKey(cur.left) {
			path = append(path, step{wentLeft: true, sibling: cur.right.hash})
			cur = cur.left
		} else {
			path = append(path, step{wentLeft: false, sibling: cur.left.hash})
			cur = cur.right
		}
	}
	if cur != nil && cur.key == key {
		return cur, path
	}
	return nil, path
}

func maxKey(n *node) string {
	for !n.isLeaf {
		n = n.right
	}
	return n.key
}

func minKey(n *node) string {
	for !n.isLeaf {
		n = n.left
	}
	return n.key
}

// buildInnerOps converts a root-to-leaf step list (as produced by locate,
// which appends each step as it descends) into the leaf-to-root
// ics23.InnerOp chain the proof format requires.
func buildInnerOps(steps []step) []*ics23.InnerOp {
	ops := make([]*ics23.InnerOp, len(steps))
	for i := range steps {
		s := steps[len(steps)-1-i]
		if s.wentLeft {
			ops[i] = &ics23.InnerOp{Hash: ics23.HashOp_SHA256, Prefix: []byte{innerPrefix}, Suffix: s.sibling}
		} else {
			prefix := make([]byte, 0, 1+len(s.sibling))
			prefix = append(prefix, innerPrefix)
			prefix = append(prefix, s.sibling...)
			ops[i] = &ics23.InnerOp{Hash: ics23.HashOp_SHA256, Prefix: prefix}
		}
	}
	return ops
}

func (t *Tree) existenceProof(key string) *ics23.ExistenceProof {
	leaf, steps := t.locate(key)
	if leaf == nil {
		return nil
	}
	return &ics23.ExistenceProof{
		Key:   []byte(leaf.key),
		Value: leaf.value,
		Leaf:  ProofSpec.LeafSpec,
		Path:  buildInnerOps(steps),
	}
}

// neighbors returns the largest present key < key and the smallest present
// key > key, for bracketing a non-existence proof per spec.md §4.2.
func (t *Tree) neighbors(key string) (left, right *string) {
	// entries is sorted; binary search for the insertion point.
	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].Path >= key })
	if i > 0 {
		l := t.entries[i-1].Path
		left = &l
	}
	if i < len(t.entries) && t.entries[i].Path != key {
		r := t.entries[i].Path
		right = &r
	}
	return left, right
}

// Prove returns an existence proof if key is present, else a
// non-existence proof bracketing key between its neighbors (or the
// boundary, when key is before the first or after the last entry).
func (t *Tree) Prove(key string) *ics23.CommitmentProof {
	if ep := t.existenceProof(key); ep != nil {
		return &ics23.CommitmentProof{Proof: &ics23.CommitmentProof_Exist{Exist: ep}}
	}

	left, right := t.neighbors(key)
	nep := &ics23.NonExistenceProof{Key: []byte(key)}
	if left != nil {
		nep.Left = t.existenceProof(*left)
	}
	if right != nil {
		nep.Right = t.existenceProof(*right)
	}
	return &ics23.CommitmentProof{Proof: &ics23.CommitmentProof_Nonexist{Nonexist: nep}}
}

// Verify checks a proof produced by Prove (or any ics23-conformant proof)
// against root. If value is nil it verifies non-membership, else membership.
func Verify(root []byte, proof *ics23.CommitmentProof, key string, value []byte) bool {
	if value == nil {
		return ics23.VerifyNonMembership(ProofSpec, root, proof, []byte(key))
	}
	return ics23.VerifyMembership(ProofSpec, root, proof, []byte(key), value)
}

// EmptyRoot exposes the fixed digest of a tree with no provable entries.
func EmptyRoot() []byte {
	out := make([]byte, len(emptyRoot))
	copy(out, emptyRoot)
	return out
}
