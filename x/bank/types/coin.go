// Package types holds the bank module's (C6) domain types: coins,
// messages, events, errors, and genesis state.
package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/tokenize-x/tx-chain/v6/internal/wire"
)

// ModuleName is the bank module's store prefix and query-path segment.
const ModuleName = "bank"

// Coin is one denomination amount. Amount uses cosmossdk.io/math.Int, a
// big.Int-backed type safe for the 256-bit balances spec.md §3 requires.
type Coin struct {
	Denom  string
	Amount sdkmath.Int
}

// NewCoin constructs a Coin, panicking if amount is negative — callers at
// the message-handling boundary validate this themselves and return a
// user error instead; NewCoin is for internal/test construction where a
// negative coin is always a programming error.
func NewCoin(denom string, amount sdkmath.Int) Coin {
	if amount.IsNegative() {
		panic(fmt.Sprintf("bank: negative coin amount for %s: %s", denom, amount))
	}
	return Coin{Denom: denom, Amount: amount}
}

func (c Coin) MarshalWire(w *wire.Writer) {
	w.String(c.Denom)
	w.String(c.Amount.String())
}

func (c *Coin) UnmarshalWire(r *wire.Reader) error {
	var err error
	if c.Denom, err = r.String(); err != nil {
		return err
	}
	amountStr, err := r.String()
	if err != nil {
		return err
	}
	amount, ok := sdkmath.NewIntFromString(amountStr)
	if !ok {
		return fmt.Errorf("bank: invalid coin amount %q", amountStr)
	}
	c.Amount = amount
	return nil
}

// Balance is the full set of denomination amounts held by one account,
// the value type of the balances sub-store.
type Balance struct {
	Coins []Coin
}

func (b *Balance) MarshalWire(w *wire.Writer) {
	w.Uint64(uint64(len(b.Coins)))
	for _, c := range b.Coins {
		c.MarshalWire(w)
	}
}

func (b *Balance) UnmarshalWire(r *wire.Reader) error {
	n, err := r.Uint64()
	if err != nil {
		return err
	}
	b.Coins = make([]Coin, n)
	for i := range b.Coins {
		if err := b.Coins[i].UnmarshalWire(r); err != nil {
			return err
		}
	}
	return nil
}

// AmountOf returns the amount held of denom, zero if the account holds
// none.
func (b *Balance) AmountOf(denom string) sdkmath.Int {
	for _, c := range b.Coins {
		if c.Denom == denom {
			return c.Amount
		}
	}
	return sdkmath.ZeroInt()
}

// SetAmount sets (or removes, if amount is zero) the balance of denom,
// keeping the coin list sorted by denom for deterministic iteration.
func (b *Balance) SetAmount(denom string, amount sdkmath.Int) {
	for i, c := range b.Coins {
		if c.Denom == denom {
			if amount.IsZero() {
				b.Coins = append(b.Coins[:i], b.Coins[i+1:]...)
			} else {
				b.Coins[i].Amount = amount
			}
			return
		}
	}
	if amount.IsZero() {
		return
	}
	b.Coins = append(b.Coins, Coin{Denom: denom, Amount: amount})
	sortCoins(b.Coins)
}

func sortCoins(coins []Coin) {
	for i := 1; i < len(coins); i++ {
		for j := i; j > 0 && coins[j].Denom < coins[j-1].Denom; j-- {
			coins[j], coins[j-1] = coins[j-1], coins[j]
		}
	}
}

// Supply is the total amount of one denomination across all accounts,
// tracked as an invariant check surface for P4.
type Supply struct {
	Amount sdkmath.Int
}

func (s *Supply) MarshalWire(w *wire.Writer) {
	w.String(s.Amount.String())
}

func (s *Supply) UnmarshalWire(r *wire.Reader) error {
	str, err := r.String()
	if err != nil {
		return err
	}
	amount, ok := sdkmath.NewIntFromString(str)
	if !ok {
		return fmt.Errorf("bank: invalid supply amount %q", str)
	}
	s.Amount = amount
	return nil
}
