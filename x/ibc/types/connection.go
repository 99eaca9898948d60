package types

import "github.com/tokenize-x/tx-chain/v6/internal/wire"

// ConnState is a connection's position in the ICS-03 handshake state
// machine (spec.md §4.7: "UNINIT -> INIT -> TRYOPEN -> OPEN").
type ConnState int

const (
	ConnUninit ConnState = iota
	ConnInit
	ConnTryOpen
	ConnOpen
)

// Counterparty names the remote side of a connection: its client ID, the
// connection ID it knows this connection by (empty until OpenAck), and
// its commitment-prefix (the store path segment under which the remote
// chain's IBC paths live, always "ibc" in this implementation but carried
// explicitly since ICS-24 treats it as a parameter).
type Counterparty struct {
	ClientID     string
	ConnectionID string
	Prefix       string
}

func (c *Counterparty) MarshalWire(w *wire.Writer) {
	w.String(c.ClientID)
	w.String(c.ConnectionID)
	w.String(c.Prefix)
}

func (c *Counterparty) UnmarshalWire(r *wire.Reader) error {
	var err error
	if c.ClientID, err = r.String(); err != nil {
		return err
	}
	if c.ConnectionID, err = r.String(); err != nil {
		return err
	}
	if c.Prefix, err = r.String(); err != nil {
		return err
	}
	return nil
}

// ConnectionEnd is one side's view of a connection handshake (ICS-03).
type ConnectionEnd struct {
	ClientID     string
	State        ConnState
	Counterparty Counterparty
	Versions     []string
}

func (c *ConnectionEnd) MarshalWire(w *wire.Writer) {
	w.String(c.ClientID)
	w.Uint64(uint64(c.State))
	c.Counterparty.MarshalWire(w)
	w.Uint64(uint64(len(c.Versions)))
	for _, v := range c.Versions {
		w.String(v)
	}
}

func (c *ConnectionEnd) UnmarshalWire(r *wire.Reader) error {
	var err error
	if c.ClientID, err = r.String(); err != nil {
		return err
	}
	state, err := r.Uint64()
	if err != nil {
		return err
	}
	c.State = ConnState(state)
	if err := c.Counterparty.UnmarshalWire(r); err != nil {
		return err
	}
	n, err := r.Uint64()
	if err != nil {
		return err
	}
	c.Versions = make([]string, n)
	for i := range c.Versions {
		if c.Versions[i], err = r.String(); err != nil {
			return err
		}
	}
	return nil
}
