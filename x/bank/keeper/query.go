package keeper

import (
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/internal/wire"
	"github.com/tokenize-x/tx-chain/v6/x/bank/types"
)

// Query answers the module-specific read paths spec.md §6 and SPEC_FULL.md
// add: "/bank/balance/{account}" and "/bank/supply/{denom}". Proof
// attachment is the aggregator's job (C8); Query reports the exact
// sub-store path the value lives under via ProvenPath so the aggregator
// never has to re-derive it from the query URL.
func (k Keeper) Query(s *scope.Scope, req module.QueryRequest) (module.QueryResponse, error) {
	segments := strings.Split(strings.Trim(req.Path, "/"), "/")
	if len(segments) < 3 || segments[0] != types.ModuleName {
		return module.QueryResponse{}, errorsmod.Wrapf(module.ErrUnroutable, "bank: unrecognized query path %q", req.Path)
	}

	switch segments[1] {
	case "balance":
		account := segments[2]
		bal, ok, err := k.balances.Get(s, account)
		if err != nil {
			return module.QueryResponse{}, err
		}
		if !ok {
			bal = &types.Balance{}
		}
		w := wire.NewWriter()
		bal.MarshalWire(w)
		return module.QueryResponse{Value: w.Out(), Revision: req.Revision, ProvenPath: k.balances.Path(account)}, nil
	case "supply":
		denom := segments[2]
		sup, ok, err := k.supply.Get(s, denom)
		if err != nil {
			return module.QueryResponse{}, err
		}
		if !ok {
			sup = &types.Supply{Amount: sdkmath.ZeroInt()}
		}
		w := wire.NewWriter()
		sup.MarshalWire(w)
		return module.QueryResponse{Value: w.Out(), Revision: req.Revision, ProvenPath: k.supply.Path(denom)}, nil
	default:
		return module.QueryResponse{}, errorsmod.Wrapf(module.ErrUnroutable, "bank: unrecognized query path %q", req.Path)
	}
}
