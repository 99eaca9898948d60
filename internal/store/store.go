// Package store implements the versioned key/value store (C1) described in
// spec.md §4.1: a sequence of immutable snapshots indexed by revision, with
// a single in-progress pending snapshot that set/delete operate against and
// commit/reset finalize or discard.
package store

import (
	"fmt"

	"github.com/tidwall/btree"
)

// Revision identifies a committed version of the store. The empty genesis
// snapshot sits at index 0; revision r is the state committed after block
// height r. Latest is also 0, so a read at revision 0 resolves to the most
// recently committed revision; reads never observe pending writes.
type Revision uint64

// Latest is the sentinel revision meaning "current" per spec.md §3.
const Latest Revision = 0

// KV is a single path/value pair, used by Range results.
type KV struct {
	Path  string
	Value []byte
}

// Store is the versioned byte-level KV store. It is not safe for
// concurrent mutation: per spec.md §5, the deliver path is single-lane.
// Queries against historical snapshots are read-only and may run
// concurrently with mutation of pending.
type Store struct {
	snapshots []*btree.Map[string, []byte] // index i holds the committed snapshot for revision i
	pending   *btree.Map[string, []byte]
	retain    int // 0 means unbounded retention
}

// New returns a Store whose only committed revision is the empty genesis
// snapshot (revision 0). retain bounds how many trailing committed
// snapshots are kept reachable; 0 keeps all of them.
func New(retain int) *Store {
	genesis := &btree.Map[string, []byte]{}
	s := &Store{
		snapshots: []*btree.Map[string, []byte]{genesis},
		retain:    retain,
	}
	s.pending = genesis.Copy()
	return s
}

// LatestRevision returns the most recently committed revision.
func (s *Store) LatestRevision() Revision {
	return Revision(len(s.snapshots) - 1)
}

func (s *Store) resolve(rev Revision) (*btree.Map[string, []byte], error) {
	if rev == Latest {
		return s.snapshots[len(s.snapshots)-1], nil
	}
	idx := int(rev)
	floor := s.oldestRetained()
	if idx < floor || idx >= len(s.snapshots) {
		return nil, fmt.Errorf("store: revision %d is not retained (have %d..%d)", rev, floor, len(s.snapshots)-1)
	}
	return s.snapshots[idx], nil
}

func (s *Store) oldestRetained() int {
	if s.retain <= 0 || s.retain >= len(s.snapshots) {
		return 0
	}
	return len(s.snapshots) - s.retain
}

// Get reads path as of rev (or Latest for the most recent committed
// snapshot). It never observes pending writes.
func (s *Store) Get(path string, rev Revision) ([]byte, bool) {
	snap, err := s.resolve(rev)
	if err != nil {
		return nil, false
	}
	return snap.Get(path)
}

// Range returns every committed (path, value) pair with Path >= prefix and
// Path sharing prefix, in strictly lexicographic order, as of rev.
func (s *Store) Range(prefix string, rev Revision) ([]KV, error) {
	snap, err := s.resolve(rev)
	if err != nil {
		return nil, err
	}
	return scan(snap, prefix), nil
}

func scan(snap *btree.Map[string, []byte], prefix string) []KV {
	var out []KV
	snap.Ascend(prefix, func(key string, value []byte) bool {
		if !hasPrefix(key, prefix) {
			return false
		}
		out = append(out, KV{Path: key, Value: value})
		return true
	})
	return out
}

func hasPrefix(key, prefix string) bool {
	return len(key) >= len(prefix) && key[:len(prefix)] == prefix
}

// Set writes path into the pending snapshot.
func (s *Store) Set(path string, value []byte) {
	s.pending.Set(path, value)
}

// Delete removes path from the pending snapshot.
func (s *Store) Delete(path string) {
	s.pending.Delete(path)
}

// GetPending reads path from the pending snapshot, falling through to
// nothing else — callers that need committed + pending semantics compose
// this with Get themselves (see internal/scope).
func (s *Store) GetPending(path string) ([]byte, bool) {
	return s.pending.Get(path)
}

// RangePending scans the pending snapshot only.
func (s *Store) RangePending(prefix string) []KV {
	return scan(s.pending, prefix)
}

// Commit freezes pending as the next revision and starts a fresh pending
// snapshot (a copy-on-write clone of what was just committed).
func (s *Store) Commit() Revision {
	committed := s.pending
	s.snapshots = append(s.snapshots, committed)
	s.pending = committed.Copy()

	if s.retain > 0 && len(s.snapshots) > s.retain {
		floor := len(s.snapshots) - s.retain
		for i := 0; i < floor; i++ {
			s.snapshots[i] = nil
		}
	}
	return s.LatestRevision()
}

// Reset discards pending writes, replacing pending with a fresh copy of
// the latest committed snapshot.
func (s *Store) Reset() {
	s.pending = s.snapshots[len(s.snapshots)-1].Copy()
}

// Snapshot is a read-only view of the store pinned to one revision. It
// satisfies scope.Reader structurally, letting root Check/Deliver/Query
// scopes read through to committed state without this package depending
// on the scope package.
type Snapshot struct {
	store *Store
	rev   Revision
}

// At returns a Snapshot pinned to rev (or the latest committed revision
// for Latest).
func (s *Store) At(rev Revision) *Snapshot {
	if rev == Latest {
		rev = s.LatestRevision()
	}
	return &Snapshot{store: s, rev: rev}
}

// Get implements scope.Reader.
func (sn *Snapshot) Get(path string) ([]byte, bool) {
	return sn.store.Get(path, sn.rev)
}

// Range implements scope.Reader.
func (sn *Snapshot) Range(prefix string) []KV {
	kvs, err := sn.store.Range(prefix, sn.rev)
	if err != nil {
		return nil
	}
	return kvs
}

// Revision reports which committed revision this snapshot is pinned to.
func (sn *Snapshot) Revision() Revision { return sn.rev }

// SnapshotEntries returns every (path, value) pair in rev whose path has
// one of the given prefixes. Used by the Merkle overlay (C2) to rebuild
// the canonical authenticated tree for a revision.
func (s *Store) SnapshotEntries(rev Revision, prefixes []string) ([]KV, error) {
	snap, err := s.resolve(rev)
	if err != nil {
		return nil, err
	}
	var out []KV
	for _, p := range prefixes {
		out = append(out, scan(snap, p)...)
	}
	return out, nil
}
