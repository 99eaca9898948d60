package keeper

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/x/bank/types"
)

// checkSend performs the stateless-or-light validation spec.md §4.5's
// check contract asks for: ValidateBasic plus a read-only sufficient-funds
// check against s. It never writes, so running it twice (once in check_tx,
// once again as part of deliver) can never double-spend.
func (k Keeper) checkSend(s *scope.Scope, msg types.MsgSend) ([]module.Event, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	fromBal, _, err := k.balances.Get(s, msg.From)
	if err != nil {
		return nil, err
	}
	if fromBal == nil {
		fromBal = &types.Balance{}
	}
	for _, c := range msg.Coins {
		if fromBal.AmountOf(c.Denom).LT(c.Amount) {
			return nil, errorsmod.Wrapf(types.ErrInsufficientFunds, "%s: has %s, needs %s", c.Denom, fromBal.AmountOf(c.Denom), c.Amount)
		}
	}
	return nil, nil
}

// deliverSend applies msg against s: debits From, credits To, and emits a
// transfer event per coin moved (spec.md §4.6). It re-derives the
// insufficient-funds check rather than trusting a prior check_tx result,
// since deliver runs against block-execution state that check_tx never
// saw (I5).
func (k Keeper) deliverSend(s *scope.Scope, msg types.MsgSend) ([]module.Event, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	fromBal, _, err := k.balances.Get(s, msg.From)
	if err != nil {
		return nil, err
	}
	if fromBal == nil {
		fromBal = &types.Balance{}
	}
	for _, c := range msg.Coins {
		if fromBal.AmountOf(c.Denom).LT(c.Amount) {
			return nil, errorsmod.Wrapf(types.ErrInsufficientFunds, "%s: has %s, needs %s", c.Denom, fromBal.AmountOf(c.Denom), c.Amount)
		}
	}

	toBal, _, err := k.balances.Get(s, msg.To)
	if err != nil {
		return nil, err
	}
	if toBal == nil {
		toBal = &types.Balance{}
	}

	events := make([]module.Event, 0, len(msg.Coins))
	for _, c := range msg.Coins {
		fromBal.SetAmount(c.Denom, fromBal.AmountOf(c.Denom).Sub(c.Amount))
		toBal.SetAmount(c.Denom, toBal.AmountOf(c.Denom).Add(c.Amount))
		events = append(events, types.NewTransferEvent(msg.From, msg.To, c.Amount.String()+c.Denom))
	}

	if err := k.balances.Set(s, msg.From, fromBal); err != nil {
		return nil, err
	}
	if err := k.balances.Set(s, msg.To, toBal); err != nil {
		return nil, err
	}
	return events, nil
}
