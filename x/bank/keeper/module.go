package keeper

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/x/bank/types"
)

// Keeper implements module.Module directly: unlike the teacher's keeper/
// AppModule split (inherited from the Cosmos SDK's module manager), this
// codebase's C5 router talks to a single flat interface, so one type
// carries both the state access methods (send.go, genesis.go, query.go)
// and the dispatch surface below.
var _ module.Module = Keeper{}

// Name implements module.Module.
func (k Keeper) Name() string { return types.ModuleName }

// StorePrefix implements module.Module.
func (k Keeper) StorePrefix() string { return types.ModuleName }

// MessageDomain implements module.Module.
func (k Keeper) MessageDomain() []string {
	return []string{types.MsgSendTypeURL}
}

// InitGenesis is defined in genesis.go.

// Check implements module.Module.
func (k Keeper) Check(s *scope.Scope, msg module.Msg) ([]module.Event, error) {
	send, ok := msg.(types.MsgSend)
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrInvalidMessage, "bank: unexpected message type %T", msg)
	}
	return k.checkSend(s, send)
}

// Deliver implements module.Module.
func (k Keeper) Deliver(s *scope.Scope, msg module.Msg) ([]module.Event, error) {
	send, ok := msg.(types.MsgSend)
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrInvalidMessage, "bank: unexpected message type %T", msg)
	}
	return k.deliverSend(s, send)
}

// BeginBlock implements module.Module. The bank module has no per-block
// housekeeping.
func (k Keeper) BeginBlock(s *scope.Scope, header module.BlockHeader) ([]module.Event, error) {
	return nil, nil
}

// NonProvablePrefixes implements module.Module. Every bank sub-store is
// provable; there is nothing to exclude from the app-hash.
func (k Keeper) NonProvablePrefixes() []string { return nil }
