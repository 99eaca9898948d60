package keeper

import (
	"encoding/json"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/x/ibc/types"
)

var _ module.Module = (*Keeper)(nil)

// blockCtx carries the consensus-supplied block time/height this module's
// Deliver handlers for client-expiry and packet-timeout checks need, set
// once per block by BeginBlock. It is a plain value field on Keeper, so
// only the Keeper BeginBlock runs on sees it (the router holds a *Keeper);
// a copy of a Keeper value carries its own cell.
type blockCtx struct {
	time   time.Time
	height types.Height
}

// Name implements module.Module.
func (k *Keeper) Name() string { return types.ModuleName }

// StorePrefix implements module.Module.
func (k *Keeper) StorePrefix() string { return types.ModuleName }

// MessageDomain implements module.Module.
func (k *Keeper) MessageDomain() []string {
	return []string{
		types.MsgCreateClientTypeURL, types.MsgUpdateClientTypeURL, types.MsgUpgradeClientTypeURL, types.MsgRecoverClientTypeURL,
		types.MsgConnOpenInitTypeURL, types.MsgConnOpenTryTypeURL, types.MsgConnOpenAckTypeURL, types.MsgConnOpenConfirmTypeURL,
		types.MsgChanOpenInitTypeURL, types.MsgChanOpenTryTypeURL, types.MsgChanOpenAckTypeURL, types.MsgChanOpenConfirmTypeURL,
		types.MsgChanCloseInitTypeURL, types.MsgChanCloseConfirmTypeURL,
		types.MsgRecvPacketTypeURL, types.MsgAcknowledgePacketTypeURL, types.MsgTimeoutPacketTypeURL, types.MsgTimeoutOnCloseTypeURL,
	}
}

// InitGenesis implements module.Module. The ibc module has no required
// genesis state of its own (spec.md §6: "other modules read their
// respective keys if present") — clients and connections are always
// established post-genesis via messages.
func (k *Keeper) InitGenesis(s *scope.Scope, genesisJSON json.RawMessage) error {
	return nil
}

// BeginBlock implements module.Module, latching the consensus-supplied
// block time/height that Deliver uses for client-expiry and
// packet-timeout evaluation (spec.md §5: "evaluated against the
// consensus-supplied block time and height, not wall time").
func (k *Keeper) BeginBlock(s *scope.Scope, header module.BlockHeader) ([]module.Event, error) {
	k.ctx.time = header.Time
	k.ctx.height = types.Height{RevisionNumber: 0, RevisionHeight: uint64(header.Height)}
	return nil, nil
}

func (k *Keeper) blockTime() time.Time    { return k.ctx.time }
func (k *Keeper) blockHeight() types.Height { return k.ctx.height }

// prefixedStore is the part of substore.Store's interface that doesn't
// depend on its value type, letting NonProvablePrefixes below walk every
// sub-store regardless of what it holds.
type prefixedStore interface {
	Prefix() string
	Provable() bool
}

// NonProvablePrefixes implements module.Module, reading each sub-store's
// own Provable() flag (set at construction in keeper.go) rather than
// re-deriving it. The ID-minting sequence counters live under the
// module's own "ibc" prefix (so a module-prefix scan alone can't tell
// them apart from provable paths, I2) but are never proven to a relayer;
// the aggregator excludes them by full path.
func (k *Keeper) NonProvablePrefixes() []string {
	stores := []prefixedStore{
		k.clientStates, k.consensusStates, k.connections, k.channels,
		k.nextSequenceSend, k.nextSequenceRecv, k.nextSequenceAck,
		k.commitments, k.receipts, k.acks, k.ports,
		k.nextClientSequence, k.nextConnectionSequence, k.nextChannelSequence,
	}
	seen := make(map[string]bool)
	var out []string
	for _, st := range stores {
		if st.Provable() {
			continue
		}
		if !seen[st.Prefix()] {
			seen[st.Prefix()] = true
			out = append(out, st.Prefix())
		}
	}
	return out
}

// Check implements module.Module: the same stateless-or-light validation
// class as the bank module's checkSend, here limited to message-shape
// checks since IBC's real validity gate is proof verification, which
// Deliver alone performs against block-execution state.
func (k *Keeper) Check(s *scope.Scope, msg module.Msg) ([]module.Event, error) {
	switch msg.(type) {
	case types.MsgCreateClient, types.MsgUpdateClient, types.MsgUpgradeClient, types.MsgRecoverClient,
		types.MsgConnectionOpenInit, types.MsgConnectionOpenTry, types.MsgConnectionOpenAck, types.MsgConnectionOpenConfirm,
		types.MsgChannelOpenInit, types.MsgChannelOpenTry, types.MsgChannelOpenAck, types.MsgChannelOpenConfirm,
		types.MsgChannelCloseInit, types.MsgChannelCloseConfirm,
		types.MsgRecvPacket, types.MsgAcknowledgePacket, types.MsgTimeoutPacket, types.MsgTimeoutOnClose:
		return nil, nil
	default:
		return nil, errorsmod.Wrapf(types.ErrInvalidMessage, "ibc: unexpected message type %T", msg)
	}
}

// Deliver implements module.Module, dispatching to the keeper method for
// msg's concrete type.
func (k *Keeper) Deliver(s *scope.Scope, msg module.Msg) ([]module.Event, error) {
	switch m := msg.(type) {
	case types.MsgCreateClient:
		_, events, err := k.CreateClient(s, m)
		return events, err
	case types.MsgUpdateClient:
		return k.UpdateClient(s, m)
	case types.MsgUpgradeClient:
		return k.UpgradeClient(s, m)
	case types.MsgRecoverClient:
		return k.RecoverClient(s, m, k.blockTime)

	case types.MsgConnectionOpenInit:
		_, events, err := k.ConnectionOpenInit(s, m)
		return events, err
	case types.MsgConnectionOpenTry:
		_, events, err := k.ConnectionOpenTry(s, m)
		return events, err
	case types.MsgConnectionOpenAck:
		return k.ConnectionOpenAck(s, m)
	case types.MsgConnectionOpenConfirm:
		return k.ConnectionOpenConfirm(s, m)

	case types.MsgChannelOpenInit:
		_, events, err := k.ChannelOpenInit(s, m)
		return events, err
	case types.MsgChannelOpenTry:
		_, events, err := k.ChannelOpenTry(s, m)
		return events, err
	case types.MsgChannelOpenAck:
		return k.ChannelOpenAck(s, m)
	case types.MsgChannelOpenConfirm:
		return k.ChannelOpenConfirm(s, m)
	case types.MsgChannelCloseInit:
		return k.ChannelCloseInit(s, m)
	case types.MsgChannelCloseConfirm:
		return k.ChannelCloseConfirm(s, m)

	case types.MsgRecvPacket:
		return k.RecvPacket(s, m)
	case types.MsgAcknowledgePacket:
		return k.AcknowledgePacket(s, m)
	case types.MsgTimeoutPacket:
		return k.TimeoutPacket(s, m, k.blockTime, k.blockHeight())
	case types.MsgTimeoutOnClose:
		return k.TimeoutOnClose(s, m)

	default:
		return nil, errorsmod.Wrapf(types.ErrInvalidMessage, "ibc: unexpected message type %T", msg)
	}
}
