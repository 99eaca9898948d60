package keeper

import (
	"encoding/json"

	sdkmath "cosmossdk.io/math"

	deterministicmap "github.com/tokenize-x/tx-chain/v6/pkg/deterministic-map"

	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/x/bank/types"
)

// InitGenesis seeds account balances from the chain-wide app_state object
// and derives total supply per denom. Both the account set and each
// account's denom set pass through deterministicmap.FromMap, which
// canonicalizes native-map iteration order by sorting keys once, so
// genesis application stays deterministic across nodes (spec.md §6, I1)
// without every call site hand-rolling its own collect-then-sort.
func (k Keeper) InitGenesis(s *scope.Scope, appStateJSON json.RawMessage) error {
	var appState map[string]json.RawMessage
	if err := json.Unmarshal(appStateJSON, &appState); err != nil {
		return err
	}
	genesis, err := types.ParseGenesis(appState)
	if err != nil {
		return err
	}

	supply := deterministicmap.New[string, sdkmath.Int]()
	accounts := deterministicmap.FromMap(genesis)
	err = accounts.Range(func(account string, coins map[string]string) error {
		bal := &types.Balance{}
		err := deterministicmap.FromMap(coins).Range(func(denom, amountStr string) error {
			amount, _ := sdkmath.NewIntFromString(amountStr)
			bal.SetAmount(denom, amount)
			if running, ok := supply.Get(denom); ok {
				supply.Set(denom, running.Add(amount))
			} else {
				supply.Set(denom, amount)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if len(bal.Coins) > 0 {
			return k.balances.Set(s, account, bal)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return supply.Range(func(denom string, amount sdkmath.Int) error {
		return k.supply.Set(s, denom, &types.Supply{Amount: amount})
	})
}
