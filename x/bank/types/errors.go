package types

import errorsmod "cosmossdk.io/errors"

// Error codes follow the teacher's x/pse/types/errors.go convention:
// cosmossdk.io/errors.Register(codespace, code, description), codespace
// scoped to the module, code starting from 2 per that package's
// NOTE comment.
var (
	// ErrInsufficientFunds is spec.md §7's INSUFFICIENT_FUNDS.
	ErrInsufficientFunds = errorsmod.Register(ModuleName, 2, "insufficient funds")
	// ErrInvalidMessage is spec.md §7's INVALID_MESSAGE.
	ErrInvalidMessage = errorsmod.Register(ModuleName, 3, "invalid message")
)
