package types

import (
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// GenesisState is the bank module's slice of the chain genesis JSON
// (spec.md §6): a mapping account -> denom -> amount-string.
type GenesisState map[string]map[string]string

// Validate checks every amount string parses to a non-negative integer.
func (g GenesisState) Validate() error {
	for account, coins := range g {
		for denom, amountStr := range coins {
			amount, ok := sdkmath.NewIntFromString(amountStr)
			if !ok {
				return fmt.Errorf("bank genesis: account %s denom %s: invalid amount %q", account, denom, amountStr)
			}
			if amount.IsNegative() {
				return fmt.Errorf("bank genesis: account %s denom %s: negative amount %q", account, denom, amountStr)
			}
		}
	}
	return nil
}

// ParseGenesis extracts this module's GenesisState out of the chain-wide
// app_state object, keyed by ModuleName (spec.md §6). Absence of the key
// is not an error — genesis then seeds no balances.
func ParseGenesis(appState map[string]json.RawMessage) (GenesisState, error) {
	raw, ok := appState[ModuleName]
	if !ok {
		return GenesisState{}, nil
	}
	var g GenesisState
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("bank genesis: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
