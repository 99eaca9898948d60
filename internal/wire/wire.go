// Package wire implements the canonical binary encoding this module uses
// for any value a provable sub-store persists (spec.md §3: "canonical
// [encoding] is used for anything that must be Merkle-proven cross
// chain"). It is a small, explicit, length-delimited encoding in the
// spirit of protobuf's varint + length-prefixed fields, written by hand so
// every byte a domain type produces is something this codebase fully
// controls and can reason about deterministically — no reflection, no
// struct tags, no code generation step.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Writer appends fields to an internal buffer in call order. Callers
// define a fixed field order per type and must read it back in the same
// order.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes appends a length-prefixed byte slice.
func (w *Writer) Bytes(b []byte) {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(b)))
	w.buf = append(w.buf, lenBuf[:n]...)
	w.buf = append(w.buf, b...)
}

// String appends a length-prefixed string.
func (w *Writer) String(s string) { w.Bytes([]byte(s)) }

// Uint64 appends a varint-encoded unsigned integer.
func (w *Writer) Uint64(v uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	w.buf = append(w.buf, buf[:n]...)
}

// Int64 appends a zigzag varint-encoded signed integer.
func (w *Writer) Int64(v int64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutVarint(buf[:], v)
	w.buf = append(w.buf, buf[:n]...)
}

// Bool appends a single byte, 1 for true and 0 for false.
func (w *Writer) Bool(b bool) {
	if b {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// Out returns the encoded bytes.
func (w *Writer) Out() []byte { return w.buf }

// Reader decodes fields previously appended by a Writer, in the same
// order they were written.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps b for sequential decoding.
func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// Bytes reads a length-prefixed byte slice.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.buf) {
		return nil, fmt.Errorf("wire: truncated byte slice (want %d, have %d)", n, len(r.buf)-r.pos)
	}
	out := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return out, nil
}

// String reads a length-prefixed string.
func (r *Reader) String() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Uint64 reads a varint-encoded unsigned integer.
func (r *Reader) Uint64() (uint64, error) {
	return r.uvarint()
}

// Int64 reads a zigzag varint-encoded signed integer.
func (r *Reader) Int64() (int64, error) {
	v, n := binary.Varint(r.buf[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("wire: invalid int64 varint")
	}
	r.pos += n
	return v, nil
}

// Bool reads a single boolean byte.
func (r *Reader) Bool() (bool, error) {
	if r.pos >= len(r.buf) {
		return false, fmt.Errorf("wire: truncated bool")
	}
	v := r.buf[r.pos] != 0
	r.pos++
	return v, nil
}

// Done reports whether every byte has been consumed.
func (r *Reader) Done() bool { return r.pos >= len(r.buf) }

func (r *Reader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("wire: invalid uvarint")
	}
	r.pos += n
	return v, nil
}
