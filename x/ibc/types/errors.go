package types

import errorsmod "cosmossdk.io/errors"

// Error codes mirror spec.md §7's IBC failure kinds, registered the same
// way the bank module registers its own (x/bank/types/errors.go).
var (
	ErrInvalidProof    = errorsmod.Register(ModuleName, 2, "invalid proof")
	ErrInvalidClient   = errorsmod.Register(ModuleName, 3, "invalid client")
	ErrUnexpectedState = errorsmod.Register(ModuleName, 4, "unexpected state")
	ErrTimeout         = errorsmod.Register(ModuleName, 5, "timeout")
	ErrUnauthorized    = errorsmod.Register(ModuleName, 6, "unauthorized")
	ErrInvalidMessage  = errorsmod.Register(ModuleName, 7, "invalid message")
)
