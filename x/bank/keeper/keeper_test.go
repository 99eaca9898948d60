package keeper_test

import (
	"encoding/json"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/internal/store"
	"github.com/tokenize-x/tx-chain/v6/internal/wire"
	"github.com/tokenize-x/tx-chain/v6/x/bank/keeper"
	"github.com/tokenize-x/tx-chain/v6/x/bank/types"
)

func newDeliverScope(t *testing.T, st *store.Store) *scope.Scope {
	t.Helper()
	return scope.New(scope.Deliver, st.At(store.Latest))
}

// flush applies a root scope's staged writes directly into st, standing in
// for the aggregator's block-commit flush (C8, not yet exercised by these
// module-level tests).
func flush(st *store.Store, s *scope.Scope) {
	for _, op := range s.Ops() {
		if op.Deleted {
			st.Delete(op.Path)
		} else {
			st.Set(op.Path, op.Value)
		}
	}
}

func seedGenesis(t *testing.T, k keeper.Keeper, s *scope.Scope) {
	t.Helper()
	appState := map[string]json.RawMessage{
		"bank": json.RawMessage(`{"alice":{"stake":"100"},"bob":{"stake":"10"}}`),
	}
	raw, err := json.Marshal(appState)
	require.NoError(t, err)
	require.NoError(t, k.InitGenesis(s, raw))
}

func TestSendMovesBalance(t *testing.T) {
	st := store.New(0)
	k := keeper.New()
	s := newDeliverScope(t, st)
	seedGenesis(t, k, s)

	msg := types.MsgSend{
		From:  "alice",
		To:    "bob",
		Coins: []types.Coin{types.NewCoin("stake", sdkmath.NewInt(30))},
	}
	events, err := k.Deliver(s, msg)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, types.EventTypeTransfer, events[0].Type)

	flush(st, s)
	st.Commit()
	post := scope.New(scope.Query, st.At(store.Latest))

	aliceBal, ok, err := rawBalance(post, k, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "70", aliceBal.AmountOf("stake").String())

	bobBal, ok, err := rawBalance(post, k, "bob")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "40", bobBal.AmountOf("stake").String())
}

func TestDeliverRejectsOverdraft(t *testing.T) {
	st := store.New(0)
	k := keeper.New()
	s := newDeliverScope(t, st)
	seedGenesis(t, k, s)

	msg := types.MsgSend{
		From:  "bob",
		To:    "alice",
		Coins: []types.Coin{types.NewCoin("stake", sdkmath.NewInt(1000))},
	}
	_, err := k.Deliver(s, msg)
	require.ErrorIs(t, err, types.ErrInsufficientFunds)
}

func TestCheckRejectsOverdraftWithoutWriting(t *testing.T) {
	st := store.New(0)
	k := keeper.New()
	s := newDeliverScope(t, st)
	seedGenesis(t, k, s)
	flush(st, s)
	st.Commit()

	check := scope.New(scope.Check, st.At(store.Latest))
	msg := types.MsgSend{
		From:  "bob",
		To:    "alice",
		Coins: []types.Coin{types.NewCoin("stake", sdkmath.NewInt(1000))},
	}
	_, err := k.Check(check, msg)
	require.ErrorIs(t, err, types.ErrInsufficientFunds)
	require.Empty(t, check.Ops())
}

func TestQueryBalanceReflectsGenesis(t *testing.T) {
	st := store.New(0)
	k := keeper.New()
	s := newDeliverScope(t, st)
	seedGenesis(t, k, s)
	flush(st, s)
	st.Commit()

	q := scope.New(scope.Query, st.At(store.Latest))
	resp, err := k.Query(q, module.QueryRequest{Path: "/bank/balance/alice"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Value)
}

func rawBalance(s *scope.Scope, k keeper.Keeper, account string) (*types.Balance, bool, error) {
	resp, err := k.Query(s, module.QueryRequest{Path: "/bank/balance/" + account})
	if err != nil {
		return nil, false, err
	}
	bal := &types.Balance{}
	if len(resp.Value) == 0 {
		return bal, true, nil
	}
	if err := bal.UnmarshalWire(wire.NewReader(resp.Value)); err != nil {
		return nil, false, err
	}
	return bal, true, nil
}
