package types

import (
	"time"

	"github.com/tokenize-x/tx-chain/v6/internal/wire"
)

// ClientStatus is computed, never stored (spec.md §4.7: "Status is not
// stored; it is computed").
type ClientStatus int

const (
	StatusActive ClientStatus = iota
	StatusExpired
	StatusFrozen
)

func (s ClientStatus) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusExpired:
		return "Expired"
	case StatusFrozen:
		return "Frozen"
	default:
		return "Unknown"
	}
}

// ClientState is the light-client tracking state for one counterparty
// chain (ICS-02). The chain-specific header-verification algorithm is
// injected via HeaderVerifier (SPEC_FULL.md's light-client-agnostic
// design) rather than baked into this type, so ClientState itself only
// carries the parameters every client needs regardless of consensus
// algorithm: a trusting period, an allowed clock drift, and the latest
// known height.
type ClientState struct {
	ChainID        string
	TrustingPeriod time.Duration
	MaxClockDrift  time.Duration
	LatestHeight   Height
	FrozenHeight   Height // zero means not frozen
}

func (c *ClientState) MarshalWire(w *wire.Writer) {
	w.String(c.ChainID)
	w.Int64(int64(c.TrustingPeriod))
	w.Int64(int64(c.MaxClockDrift))
	w.Uint64(c.LatestHeight.RevisionNumber)
	w.Uint64(c.LatestHeight.RevisionHeight)
	w.Uint64(c.FrozenHeight.RevisionNumber)
	w.Uint64(c.FrozenHeight.RevisionHeight)
}

func (c *ClientState) UnmarshalWire(r *wire.Reader) error {
	var err error
	if c.ChainID, err = r.String(); err != nil {
		return err
	}
	trusting, err := r.Int64()
	if err != nil {
		return err
	}
	c.TrustingPeriod = time.Duration(trusting)
	drift, err := r.Int64()
	if err != nil {
		return err
	}
	c.MaxClockDrift = time.Duration(drift)
	if c.LatestHeight.RevisionNumber, err = r.Uint64(); err != nil {
		return err
	}
	if c.LatestHeight.RevisionHeight, err = r.Uint64(); err != nil {
		return err
	}
	if c.FrozenHeight.RevisionNumber, err = r.Uint64(); err != nil {
		return err
	}
	if c.FrozenHeight.RevisionHeight, err = r.Uint64(); err != nil {
		return err
	}
	return nil
}

// Status computes a client's status as a pure function of its state and
// the latest trusted consensus state's timestamp, per spec.md §4.7's
// client state machine ("Active -> Expired as a pure function of (latest
// consensus-state timestamp, current block time, trusting period)").
func (c *ClientState) Status(latestConsensusTimestamp, blockTime time.Time) ClientStatus {
	if !c.FrozenHeight.IsZero() {
		return StatusFrozen
	}
	if blockTime.Sub(latestConsensusTimestamp) > c.TrustingPeriod {
		return StatusExpired
	}
	return StatusActive
}

// ConsensusState is the counterparty chain's state root and timestamp as
// trusted by this client at one height.
type ConsensusState struct {
	Timestamp time.Time
	Root      []byte
}

func (c *ConsensusState) MarshalWire(w *wire.Writer) {
	w.Int64(c.Timestamp.UnixNano())
	w.Bytes(c.Root)
}

func (c *ConsensusState) UnmarshalWire(r *wire.Reader) error {
	nanos, err := r.Int64()
	if err != nil {
		return err
	}
	c.Timestamp = time.Unix(0, nanos).UTC()
	if c.Root, err = r.Bytes(); err != nil {
		return err
	}
	return nil
}

// Header is the counterparty-chain header a client Update message
// carries. The module itself reads only its Height, the height the new
// consensus state is stored at; the rest is interpreted by the
// HeaderVerifier bound to the client's chain.
type Header struct {
	Height    Height
	Timestamp time.Time
	Root      []byte
}

// HeaderVerifier is the injected, chain-specific light-client algorithm
// (SPEC_FULL.md: "light-client-agnostic design"). A concrete verifier
// checks header against the client's trusted state and, if valid, returns
// the consensus state it establishes.
type HeaderVerifier interface {
	// Verify checks header against clientState/trustedConsensus (the
	// consensus state at clientState.LatestHeight) and returns the new
	// consensus state to store at header.Height.
	Verify(clientState *ClientState, trustedConsensus *ConsensusState, header Header) (ConsensusState, error)
}
