package types

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/tokenize-x/tx-chain/v6/internal/wire"
)

// Packet is one ICS-04 packet, identified by its (source port/channel,
// sequence) triple.
type Packet struct {
	Sequence         uint64
	SourcePort       string
	SourceChannel    string
	DestPort         string
	DestChannel      string
	Data             []byte
	TimeoutHeight    Height
	TimeoutTimestamp uint64 // unix nanoseconds, 0 means no timestamp timeout
}

func (p *Packet) MarshalWire(w *wire.Writer) {
	w.Uint64(p.Sequence)
	w.String(p.SourcePort)
	w.String(p.SourceChannel)
	w.String(p.DestPort)
	w.String(p.DestChannel)
	w.Bytes(p.Data)
	w.Uint64(p.TimeoutHeight.RevisionNumber)
	w.Uint64(p.TimeoutHeight.RevisionHeight)
	w.Uint64(p.TimeoutTimestamp)
}

func (p *Packet) UnmarshalWire(r *wire.Reader) error {
	var err error
	if p.Sequence, err = r.Uint64(); err != nil {
		return err
	}
	if p.SourcePort, err = r.String(); err != nil {
		return err
	}
	if p.SourceChannel, err = r.String(); err != nil {
		return err
	}
	if p.DestPort, err = r.String(); err != nil {
		return err
	}
	if p.DestChannel, err = r.String(); err != nil {
		return err
	}
	if p.Data, err = r.Bytes(); err != nil {
		return err
	}
	if p.TimeoutHeight.RevisionNumber, err = r.Uint64(); err != nil {
		return err
	}
	if p.TimeoutHeight.RevisionHeight, err = r.Uint64(); err != nil {
		return err
	}
	if p.TimeoutTimestamp, err = r.Uint64(); err != nil {
		return err
	}
	return nil
}

// CommitPacket computes the commitment bytes stored under a packet's
// commitments path, per spec.md §4.7: "sha256(timeout_ts_be ||
// timeout_height_be || sha256(data))".
func CommitPacket(p Packet) []byte {
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], p.TimeoutTimestamp)

	var heightBuf [16]byte
	binary.BigEndian.PutUint64(heightBuf[:8], p.TimeoutHeight.RevisionNumber)
	binary.BigEndian.PutUint64(heightBuf[8:], p.TimeoutHeight.RevisionHeight)

	dataHash := sha256.Sum256(p.Data)

	buf := make([]byte, 0, len(tsBuf)+len(heightBuf)+len(dataHash))
	buf = append(buf, tsBuf[:]...)
	buf = append(buf, heightBuf[:]...)
	buf = append(buf, dataHash[:]...)
	sum := sha256.Sum256(buf)
	return sum[:]
}

// CommitAck computes the acknowledgement commitment stored under a
// packet's acks path: sha256 of the raw acknowledgement bytes.
func CommitAck(ack []byte) []byte {
	sum := sha256.Sum256(ack)
	return sum[:]
}

// ReceiptSentinel is the fixed byte an unordered channel's receipt path
// holds once a packet has been received (spec.md §4.7: "fixed byte 0x01").
var ReceiptSentinel = []byte{0x01}

// DefaultAcknowledgement is the acknowledgement RecvPacket writes for
// every successfully received packet. This module has no IBC application
// layer of its own (no ICS-20-style per-packet payload to accept or
// reject), so every accepted packet gets the same fixed success value
// rather than one a calling application chose.
var DefaultAcknowledgement = []byte{0x01}
