// Tx decoding is the one piece of the ABCI transport spec.md §1 scopes
// out explicitly ("the ABCI transport/codec... consumed as opaque
// operations"): a real deployment's signing/broadcast client and this
// binary's decoder must agree on a wire format, but that format is a
// transport detail, not part of the hard core (C1-C8). What follows is a
// small envelope codec over the internal/wire encoding every other
// provable value in this module already uses, covering the one message
// type spec.md's CLI surface actually needs to construct end-to-end
// (MsgRecoverClient, per §6 "a transaction subcommand that signs and
// broadcasts a Recover... message") plus MsgSend, since §8's scenarios
// exercise it. Additional message types register into the same table by
// following the same two-line pattern.
package app

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/wire"
	"github.com/tokenize-x/tx-chain/v6/x/bank/types"
	ibctypes "github.com/tokenize-x/tx-chain/v6/x/ibc/types"
)

// msgDecoder turns the wire-encoded payload that followed a type URL in
// an envelope back into a routable module.Msg.
type msgDecoder func(r *wire.Reader) (module.Msg, error)

// txDecoders is keyed by the same fully-qualified type URL the router
// dispatches on, so registering a new message type here and in its
// module's MessageDomain is the only wiring a new handler needs.
var txDecoders = map[string]msgDecoder{
	types.MsgSendTypeURL: decodeMsgSend,
	ibctypes.MsgRecoverClientTypeURL: decodeMsgRecoverClient,
}

// EncodeTx serializes msgs as a length-prefixed sequence of
// (type URL, wire payload) envelopes, the inverse of DecodeTx.
func EncodeTx(msgs ...module.Msg) ([]byte, error) {
	w := wire.NewWriter()
	w.Uint64(uint64(len(msgs)))
	for _, msg := range msgs {
		w.String(msg.TypeURL())
		payload, err := encodeMsg(msg)
		if err != nil {
			return nil, err
		}
		w.Bytes(payload)
	}
	return w.Out(), nil
}

// DecodeTx is the TxDecoder capability the ABCI adapter (abci.go) plugs
// into CheckTx/DeliverTx. It never inspects or verifies signatures —
// that external capability runs upstream, per spec.md §1/§4.8.
func DecodeTx(raw []byte) (Tx, error) {
	r := wire.NewReader(raw)
	count, err := r.Uint64()
	if err != nil {
		return Tx{}, fmt.Errorf("app: decode tx: %w", err)
	}
	msgs := make([]module.Msg, 0, count)
	for i := uint64(0); i < count; i++ {
		typeURL, err := r.String()
		if err != nil {
			return Tx{}, fmt.Errorf("app: decode tx: message %d: %w", i, err)
		}
		payload, err := r.Bytes()
		if err != nil {
			return Tx{}, fmt.Errorf("app: decode tx: message %d: %w", i, err)
		}
		decode, ok := txDecoders[typeURL]
		if !ok {
			return Tx{}, fmt.Errorf("app: decode tx: unrecognized message type %q", typeURL)
		}
		msg, err := decode(wire.NewReader(payload))
		if err != nil {
			return Tx{}, fmt.Errorf("app: decode tx: message %d (%s): %w", i, typeURL, err)
		}
		msgs = append(msgs, msg)
	}
	return Tx{Messages: msgs}, nil
}

func encodeMsg(msg module.Msg) ([]byte, error) {
	w := wire.NewWriter()
	switch m := msg.(type) {
	case types.MsgSend:
		w.String(m.From)
		w.String(m.To)
		w.Uint64(uint64(len(m.Coins)))
		for _, c := range m.Coins {
			w.String(c.Denom)
			w.String(c.Amount.String())
		}
	case ibctypes.MsgRecoverClient:
		w.String(m.SubjectClientID)
		w.String(m.SubstituteClientID)
	default:
		return nil, fmt.Errorf("app: encode tx: unregistered message type %T", msg)
	}
	return w.Out(), nil
}

func decodeMsgSend(r *wire.Reader) (module.Msg, error) {
	from, err := r.String()
	if err != nil {
		return nil, err
	}
	to, err := r.String()
	if err != nil {
		return nil, err
	}
	n, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	coins := make([]types.Coin, 0, n)
	for i := uint64(0); i < n; i++ {
		denom, err := r.String()
		if err != nil {
			return nil, err
		}
		amountStr, err := r.String()
		if err != nil {
			return nil, err
		}
		amount, ok := sdkmath.NewIntFromString(amountStr)
		if !ok {
			return nil, fmt.Errorf("invalid coin amount %q", amountStr)
		}
		coins = append(coins, types.Coin{Denom: denom, Amount: amount})
	}
	return types.MsgSend{From: from, To: to, Coins: coins}, nil
}

func decodeMsgRecoverClient(r *wire.Reader) (module.Msg, error) {
	subject, err := r.String()
	if err != nil {
		return nil, err
	}
	substitute, err := r.String()
	if err != nil {
		return nil, err
	}
	return ibctypes.MsgRecoverClient{SubjectClientID: subject, SubstituteClientID: substitute}, nil
}
