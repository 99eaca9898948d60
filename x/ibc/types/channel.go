package types

import "github.com/tokenize-x/tx-chain/v6/internal/wire"

// ChanState is a channel's position in the ICS-04 handshake state machine.
type ChanState int

const (
	ChanUninit ChanState = iota
	ChanInit
	ChanTryOpen
	ChanOpen
	ChanClosed
)

// Ordering controls packet-sequence semantics (spec.md §4.7).
type Ordering int

const (
	Unordered Ordering = iota
	Ordered
)

// ChannelCounterparty names the remote port/channel pair.
type ChannelCounterparty struct {
	PortID    string
	ChannelID string
}

func (c *ChannelCounterparty) MarshalWire(w *wire.Writer) {
	w.String(c.PortID)
	w.String(c.ChannelID)
}

func (c *ChannelCounterparty) UnmarshalWire(r *wire.Reader) error {
	var err error
	if c.PortID, err = r.String(); err != nil {
		return err
	}
	if c.ChannelID, err = r.String(); err != nil {
		return err
	}
	return nil
}

// ChannelEnd is one side's view of a channel (ICS-04).
type ChannelEnd struct {
	State          ChanState
	Ordering       Ordering
	Counterparty   ChannelCounterparty
	ConnectionHops []string
	Version        string
}

func (c *ChannelEnd) MarshalWire(w *wire.Writer) {
	w.Uint64(uint64(c.State))
	w.Uint64(uint64(c.Ordering))
	c.Counterparty.MarshalWire(w)
	w.Uint64(uint64(len(c.ConnectionHops)))
	for _, h := range c.ConnectionHops {
		w.String(h)
	}
	w.String(c.Version)
}

func (c *ChannelEnd) UnmarshalWire(r *wire.Reader) error {
	state, err := r.Uint64()
	if err != nil {
		return err
	}
	c.State = ChanState(state)
	ordering, err := r.Uint64()
	if err != nil {
		return err
	}
	c.Ordering = Ordering(ordering)
	if err := c.Counterparty.UnmarshalWire(r); err != nil {
		return err
	}
	n, err := r.Uint64()
	if err != nil {
		return err
	}
	c.ConnectionHops = make([]string, n)
	for i := range c.ConnectionHops {
		if c.ConnectionHops[i], err = r.String(); err != nil {
			return err
		}
	}
	if c.Version, err = r.String(); err != nil {
		return err
	}
	return nil
}
