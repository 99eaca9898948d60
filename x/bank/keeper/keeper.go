// Package keeper implements the bank module (C6): account balances,
// transfers, and coin supply tracking, as a module.Module plugged into
// the router (C5).
package keeper

import (
	"github.com/tokenize-x/tx-chain/v6/internal/substore"
	"github.com/tokenize-x/tx-chain/v6/x/bank/types"
)

// Keeper owns the bank module's sub-stores: per-account balances and
// per-denom total supply, both provable (app-hash-bearing) since balance
// proofs are exactly the kind of cross-chain-relevant fact IBC transfer
// channels need to reference.
type Keeper struct {
	balances *substore.Store[*types.Balance]
	supply   *substore.Store[*types.Supply]
}

// New wires the bank sub-stores under the module's store prefix.
func New() Keeper {
	return Keeper{
		balances: substore.New(
			// Prefix matches the "/bank/balance/{account}" query path
			// singular (spec.md §4.6) so the aggregator's proof-path
			// reconstruction from the query URL (app/aggregator.go
			// Query) lands on the same path the value was written
			// under.
			types.ModuleName+"/balance", true,
			substore.WireCodec[*types.Balance]{New: func() *types.Balance { return &types.Balance{} }},
		),
		supply: substore.New(
			types.ModuleName+"/supply", true,
			substore.WireCodec[*types.Supply]{New: func() *types.Supply { return &types.Supply{} }},
		),
	}
}
