// Package scope implements the staging scopes (C4) described in
// spec.md §4.4: isolated write sets for mempool (Check) vs block execution
// (Deliver), plus read-only Query scopes, all composable so that a nested
// per-transaction scope can be merged into its parent on success or
// dropped on failure without the parent ever observing partial writes.
package scope

import (
	"errors"
	"sort"

	"github.com/tokenize-x/tx-chain/v6/internal/store"
)

// ErrReadOnly is returned by Set/Delete on a Query scope.
var ErrReadOnly = errors.New("scope: query scopes are read-only")

// Kind identifies which of the three scope kinds (see spec.md §4.4 table)
// a Scope instance represents.
type Kind int

const (
	Query Kind = iota
	Check
	Deliver
)

func (k Kind) String() string {
	switch k {
	case Query:
		return "query"
	case Check:
		return "check"
	case Deliver:
		return "deliver"
	default:
		return "unknown"
	}
}

// Reader is the minimal read surface a Scope falls through to when a path
// isn't present in its own overlay. The root Check/Deliver scopes read
// through to committed store state; nested transaction scopes read
// through to their parent Scope.
type Reader interface {
	Get(path string) ([]byte, bool)
	Range(prefix string) []store.KV
}

type op struct {
	path    string
	value   []byte
	deleted bool // true marks a staged delete; value is then unused
}

// Scope is the handle handlers receive to read and write state. Nested
// sub-calls within one handler invocation share the same Scope instance;
// per-transaction isolation is achieved by the aggregator creating a
// fresh child Scope per deliver_tx/check_tx and deciding whether to Merge
// or discard it once the transaction's messages have all run.
type Scope struct {
	kind Kind
	base Reader

	writes map[string]op
	order  []string // insertion order, replayed verbatim on Merge/flush for determinism
}

// New creates a root scope (Check, Deliver, or Query) reading through to
// base. Query scopes reject writes.
func New(kind Kind, base Reader) *Scope {
	return &Scope{
		kind:   kind,
		base:   base,
		writes: make(map[string]op),
	}
}

// Child creates a nested scope (e.g. one deliver_tx's working set) whose
// reads fall through to s and whose writes are buffered independently
// until Merge is called.
func (s *Scope) Child() *Scope {
	return New(s.kind, s)
}

// Kind reports which of Query/Check/Deliver this scope is.
func (s *Scope) Kind() Kind { return s.kind }

// Get reads path, preferring this scope's own overlay, then falling
// through to base.
func (s *Scope) Get(path string) ([]byte, bool) {
	if o, ok := s.writes[path]; ok {
		if o.deleted {
			return nil, false
		}
		return o.value, true
	}
	return s.base.Get(path)
}

// Set stages a write visible to this scope and any children, but not to
// its parent until Merge.
func (s *Scope) Set(path string, value []byte) error {
	if s.kind == Query {
		return ErrReadOnly
	}
	if _, exists := s.writes[path]; !exists {
		s.order = append(s.order, path)
	}
	s.writes[path] = op{path: path, value: value}
	return nil
}

// Delete stages a deletion, shadowing any value base would otherwise
// return for path.
func (s *Scope) Delete(path string) error {
	if s.kind == Query {
		return ErrReadOnly
	}
	if _, exists := s.writes[path]; !exists {
		s.order = append(s.order, path)
	}
	s.writes[path] = op{path: path, deleted: true}
	return nil
}

// Range merges this scope's overlay over base's view of prefix, returning
// a deterministic, lexicographically sorted result with deleted keys
// removed and overlaid values taking precedence.
func (s *Scope) Range(prefix string) []store.KV {
	merged := make(map[string]store.KV, len(s.writes))
	for _, kv := range s.base.Range(prefix) {
		merged[kv.Path] = kv
	}
	for path, o := range s.writes {
		if len(path) < len(prefix) || path[:len(prefix)] != prefix {
			continue
		}
		if o.deleted {
			delete(merged, path)
			continue
		}
		merged[path] = store.KV{Path: path, Value: o.value}
	}

	out := make([]store.KV, 0, len(merged))
	for _, kv := range merged {
		out = append(out, kv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Merge replays this scope's writes, in the order they were staged, into
// parent. Call this after a transaction's handler(s) have all succeeded.
func (s *Scope) Merge(parent *Scope) {
	for _, path := range s.order {
		o := s.writes[path]
		if o.deleted {
			_ = parent.Delete(path)
		} else {
			_ = parent.Set(path, o.value)
		}
	}
}

// Drop discards a child scope's writes entirely; it is always safe to
// call (and a no-op) — it exists purely for call-site clarity at the
// point a transaction's handler failed (spec.md §4.4, I5).
func (s *Scope) Drop() {}

// Ops exposes the ordered write/delete set, used by the aggregator (C8)
// to flush a Deliver root scope into the store at block commit.
func (s *Scope) Ops() []Op {
	out := make([]Op, 0, len(s.order))
	for _, path := range s.order {
		o := s.writes[path]
		out = append(out, Op{Path: o.path, Value: o.value, Deleted: o.deleted})
	}
	return out
}

// Op is the exported, read-only view of a staged write or delete.
type Op struct {
	Path    string
	Value   []byte
	Deleted bool
}

// Reset clears a root scope's overlay, used to start a fresh Check or
// Deliver scope at each new block boundary.
func (s *Scope) Reset(base Reader) {
	s.base = base
	s.writes = make(map[string]op)
	s.order = nil
}
