package types

import errorsmod "cosmossdk.io/errors"

// MsgSendTypeURL is the fully-qualified type the router dispatches
// MsgSend on (spec.md §4.5).
const MsgSendTypeURL = "/tx-chain.bank.v1.MsgSend"

// MsgSend debits From and credits To with Coins (spec.md §4.6). Signature
// verification of From happens externally, before the message reaches
// the bank module (spec.md §1 Out of scope).
type MsgSend struct {
	From  string
	To    string
	Coins []Coin
}

// TypeURL implements module.Msg.
func (MsgSend) TypeURL() string { return MsgSendTypeURL }

// ValidateBasic performs stateless checks independent of current state,
// mirroring the teacher's ValidateBasic convention (x/pse/types/msg.go).
func (m MsgSend) ValidateBasic() error {
	if m.From == "" {
		return errorsmod.Wrap(ErrInvalidMessage, "from address cannot be empty")
	}
	if m.To == "" {
		return errorsmod.Wrap(ErrInvalidMessage, "to address cannot be empty")
	}
	if m.From == m.To {
		return errorsmod.Wrap(ErrInvalidMessage, "from and to must differ")
	}
	if len(m.Coins) == 0 {
		return errorsmod.Wrap(ErrInvalidMessage, "coins cannot be empty")
	}
	seen := make(map[string]bool, len(m.Coins))
	for _, c := range m.Coins {
		if c.Denom == "" {
			return errorsmod.Wrap(ErrInvalidMessage, "denom cannot be empty")
		}
		if seen[c.Denom] {
			return errorsmod.Wrapf(ErrInvalidMessage, "duplicate denom %s", c.Denom)
		}
		seen[c.Denom] = true
		if c.Amount.IsNil() || !c.Amount.IsPositive() {
			return errorsmod.Wrapf(ErrInvalidMessage, "amount for %s must be positive", c.Denom)
		}
	}
	return nil
}
