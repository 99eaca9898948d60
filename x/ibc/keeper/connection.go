package keeper

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/internal/wire"
	"github.com/tokenize-x/tx-chain/v6/x/ibc/types"
)

func (k Keeper) nextConnectionID(s *scope.Scope) (string, error) {
	seq, _, err := k.nextConnectionSequence.Get(s, "connection")
	if err != nil {
		return "", err
	}
	if err := k.nextConnectionSequence.Set(s, "connection", seq+1); err != nil {
		return "", err
	}
	return fmt.Sprintf("connection-%d", seq), nil
}

func (k Keeper) connection(s *scope.Scope, connectionID string) (*types.ConnectionEnd, error) {
	conn, ok, err := k.connections.Get(s, types.ConnectionKey(connectionID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrUnexpectedState, "no connection %s", connectionID)
	}
	return conn, nil
}

func encodeConnection(conn *types.ConnectionEnd) []byte {
	w := wire.NewWriter()
	conn.MarshalWire(w)
	return w.Out()
}

// ConnectionOpenInit implements spec.md §4.7: begins a connection
// handshake, creating it in state INIT.
func (k Keeper) ConnectionOpenInit(s *scope.Scope, msg types.MsgConnectionOpenInit) (string, []module.Event, error) {
	if _, err := k.client(s, msg.ClientID); err != nil {
		return "", nil, err
	}
	connectionID, err := k.nextConnectionID(s)
	if err != nil {
		return "", nil, err
	}
	conn := &types.ConnectionEnd{
		ClientID:     msg.ClientID,
		State:        types.ConnInit,
		Counterparty: msg.Counterparty,
		Versions:     []string{msg.Version},
	}
	if err := k.connections.Set(s, types.ConnectionKey(connectionID), conn); err != nil {
		return "", nil, err
	}
	return connectionID, []module.Event{types.NewConnectionEvent(connectionID, msg.ClientID, types.ConnInit)}, nil
}

// ConnectionOpenTry implements spec.md §4.7: accepts a counterparty's
// OpenInit, verified by msg.ProofInit against the counterparty's INIT
// connection end, creating this side's connection in state TRYOPEN.
func (k Keeper) ConnectionOpenTry(s *scope.Scope, msg types.MsgConnectionOpenTry) (string, []module.Event, error) {
	if _, err := k.client(s, msg.ClientID); err != nil {
		return "", nil, err
	}

	expected := &types.ConnectionEnd{
		ClientID: msg.Counterparty.ClientID,
		State:    types.ConnInit,
		Counterparty: types.Counterparty{
			ClientID: msg.ClientID,
			Prefix:   "ibc",
		},
		Versions: []string{msg.Version},
	}
	path := types.ConnectionKey(msg.Counterparty.ConnectionID)
	if err := k.verifyMembership(s, msg.ClientID, msg.ProofInit, path, encodeConnection(expected)); err != nil {
		return "", nil, err
	}

	connectionID, err := k.nextConnectionID(s)
	if err != nil {
		return "", nil, err
	}
	conn := &types.ConnectionEnd{
		ClientID:     msg.ClientID,
		State:        types.ConnTryOpen,
		Counterparty: msg.Counterparty,
		Versions:     []string{msg.Version},
	}
	if err := k.connections.Set(s, types.ConnectionKey(connectionID), conn); err != nil {
		return "", nil, err
	}
	return connectionID, []module.Event{types.NewConnectionEvent(connectionID, msg.ClientID, types.ConnTryOpen)}, nil
}

// ConnectionOpenAck implements spec.md §4.7: moves a connection from INIT
// to OPEN, verified by msg.ProofTry against the counterparty's TRYOPEN
// end.
func (k Keeper) ConnectionOpenAck(s *scope.Scope, msg types.MsgConnectionOpenAck) ([]module.Event, error) {
	conn, err := k.connection(s, msg.ConnectionID)
	if err != nil {
		return nil, err
	}
	if conn.State != types.ConnInit {
		return nil, errorsmod.Wrapf(types.ErrUnexpectedState, "connection %s is not in INIT", msg.ConnectionID)
	}

	expected := &types.ConnectionEnd{
		ClientID: conn.Counterparty.ClientID,
		State:    types.ConnTryOpen,
		Counterparty: types.Counterparty{
			ClientID:     conn.ClientID,
			ConnectionID: msg.ConnectionID,
			Prefix:       "ibc",
		},
		Versions: []string{msg.Version},
	}
	path := types.ConnectionKey(msg.CounterpartyConnection)
	if err := k.verifyMembership(s, conn.ClientID, msg.ProofTry, path, encodeConnection(expected)); err != nil {
		return nil, err
	}

	conn.State = types.ConnOpen
	conn.Counterparty.ConnectionID = msg.CounterpartyConnection
	conn.Versions = []string{msg.Version}
	if err := k.connections.Set(s, types.ConnectionKey(msg.ConnectionID), conn); err != nil {
		return nil, err
	}
	return []module.Event{types.NewConnectionEvent(msg.ConnectionID, conn.ClientID, types.ConnOpen)}, nil
}

// ConnectionOpenConfirm implements spec.md §4.7: completes a connection
// handshake on the TRYOPEN side, verified by msg.ProofAck against the
// counterparty's now-OPEN end.
func (k Keeper) ConnectionOpenConfirm(s *scope.Scope, msg types.MsgConnectionOpenConfirm) ([]module.Event, error) {
	conn, err := k.connection(s, msg.ConnectionID)
	if err != nil {
		return nil, err
	}
	if conn.State != types.ConnTryOpen {
		return nil, errorsmod.Wrapf(types.ErrUnexpectedState, "connection %s is not in TRYOPEN", msg.ConnectionID)
	}

	expected := &types.ConnectionEnd{
		ClientID: conn.Counterparty.ClientID,
		State:    types.ConnOpen,
		Counterparty: types.Counterparty{
			ClientID:     conn.ClientID,
			ConnectionID: msg.ConnectionID,
			Prefix:       "ibc",
		},
		Versions: conn.Versions,
	}
	path := types.ConnectionKey(conn.Counterparty.ConnectionID)
	if err := k.verifyMembership(s, conn.ClientID, msg.ProofAck, path, encodeConnection(expected)); err != nil {
		return nil, err
	}

	conn.State = types.ConnOpen
	if err := k.connections.Set(s, types.ConnectionKey(msg.ConnectionID), conn); err != nil {
		return nil, err
	}
	return []module.Event{types.NewConnectionEvent(msg.ConnectionID, conn.ClientID, types.ConnOpen)}, nil
}
