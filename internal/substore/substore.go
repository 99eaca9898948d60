// Package substore implements the typed, path-scoped sub-stores (C3)
// described in spec.md §4.3: a module's prefix, a value codec, and a
// provable/non-provable flag, exposed as strongly-typed get/set/delete/
// range operations in terms of domain values rather than raw bytes.
package substore

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/internal/wire"
)

// Codec marshals and unmarshals a sub-store's domain value type.
type Codec[T any] interface {
	Marshal(T) ([]byte, error)
	Unmarshal([]byte) (T, error)
}

// Store is a typed view onto one module's key prefix within the versioned
// Merkle-backed state. Provable stores mirror every write into the
// Merkle overlay (C2) via the aggregator's provable-prefix registry;
// non-provable stores are excluded from the app-hash (I2).
type Store[T any] struct {
	prefix   string
	provable bool
	codec    Codec[T]
}

// New binds prefix to a typed sub-store. prefix must not collide with any
// other module's prefix (I3); that invariant is enforced by the router at
// registration time, not here.
func New[T any](prefix string, provable bool, codec Codec[T]) *Store[T] {
	return &Store[T]{prefix: prefix, provable: provable, codec: codec}
}

// Prefix returns the module path prefix this store is scoped to.
func (st *Store[T]) Prefix() string { return st.prefix }

// Provable reports whether writes through this store are Merkle-indexed.
func (st *Store[T]) Provable() bool { return st.provable }

// Path returns the full store path key resolves to, for callers (module
// Query implementations) that need to hand the exact Merkle-tree path
// back to the aggregator for proof generation rather than have it
// guessed from a query URL.
func (st *Store[T]) Path(key string) string { return st.path(key) }

func (st *Store[T]) path(key string) string {
	return st.prefix + "/" + key
}

// Get reads key from s, decoding it with the store's codec.
func (st *Store[T]) Get(s *scope.Scope, key string) (T, bool, error) {
	var zero T
	raw, ok := s.Get(st.path(key))
	if !ok {
		return zero, false, nil
	}
	v, err := st.codec.Unmarshal(raw)
	if err != nil {
		return zero, false, fmt.Errorf("substore %s: decode %s: %w", st.prefix, key, err)
	}
	return v, true, nil
}

// Set encodes value and stages it through s.
func (st *Store[T]) Set(s *scope.Scope, key string, value T) error {
	raw, err := st.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("substore %s: encode %s: %w", st.prefix, key, err)
	}
	return s.Set(st.path(key), raw)
}

// Delete stages removal of key through s.
func (st *Store[T]) Delete(s *scope.Scope, key string) error {
	return s.Delete(st.path(key))
}

// KV is one decoded (key, value) pair from Range, with key relative to
// the sub-store's own prefix (the module-owned path segment).
type KV[T any] struct {
	Key   string
	Value T
}

// Range returns every entry under keyPrefix (relative to the sub-store's
// own prefix), decoded, in lexicographic key order.
func (st *Store[T]) Range(s *scope.Scope, keyPrefix string) ([]KV[T], error) {
	full := st.path(keyPrefix)
	raw := s.Range(full)
	out := make([]KV[T], 0, len(raw))
	for _, kv := range raw {
		v, err := st.codec.Unmarshal(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("substore %s: decode %s: %w", st.prefix, kv.Path, err)
		}
		out = append(out, KV[T]{
			Key:   strings.TrimPrefix(kv.Path, st.prefix+"/"),
			Value: v,
		})
	}
	return out, nil
}

// GetKeys is Range without decoding, for callers that only need key names
// (e.g. listing channel IDs).
func (st *Store[T]) GetKeys(s *scope.Scope, keyPrefix string) ([]string, error) {
	kvs, err := st.Range(s, keyPrefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(kvs))
	for i, kv := range kvs {
		keys[i] = kv.Key
	}
	return keys, nil
}

// BytesCodec is the identity codec, for sub-stores whose domain value is
// already a raw byte slice (e.g. packet receipts, ack digests).
type BytesCodec struct{}

func (BytesCodec) Marshal(v []byte) ([]byte, error)   { return v, nil }
func (BytesCodec) Unmarshal(b []byte) ([]byte, error) { return b, nil }

// Uint64Codec encodes monotonic counters (the client/connection/channel
// ID counters and the per-channel packet sequence counters) as
// fixed-width big-endian integers.
type Uint64Codec struct{}

func (Uint64Codec) Marshal(v uint64) ([]byte, error) {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b, nil
}

func (Uint64Codec) Unmarshal(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("substore: want 8-byte counter, got %d bytes", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// WireMarshaler is implemented by every domain type this module persists
// in a provable sub-store, writing/reading its fields through the
// deterministic encoding in internal/wire (spec.md §3: "canonical
// [encoding] is used for anything that must be Merkle-proven").
type WireMarshaler interface {
	MarshalWire(*wire.Writer)
	UnmarshalWire(*wire.Reader) error
}

// WireCodec adapts a WireMarshaler type to the Codec interface. New must
// return a fresh zero value of T ready to have UnmarshalWire called on it
// (e.g. `func() *ClientState { return &ClientState{} }`).
type WireCodec[T WireMarshaler] struct {
	New func() T
}

func (c WireCodec[T]) Marshal(v T) ([]byte, error) {
	w := wire.NewWriter()
	v.MarshalWire(w)
	return w.Out(), nil
}

func (c WireCodec[T]) Unmarshal(b []byte) (T, error) {
	v := c.New()
	if err := v.UnmarshalWire(wire.NewReader(b)); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
