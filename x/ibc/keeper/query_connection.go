package keeper

import (
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/internal/wire"
	"github.com/tokenize-x/tx-chain/v6/x/ibc/types"
)

func (k *Keeper) queryConnection(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	if len(segments) < 3 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrUnroutable, "ibc: connection query needs a connection id")
	}
	conn, err := k.connection(s, segments[2])
	if err != nil {
		return module.QueryResponse{}, queryErr(err)
	}
	return module.QueryResponse{Value: encodeConnection(conn), Revision: req.Revision, ProvenPath: k.connections.Path(types.ConnectionKey(segments[2]))}, nil
}

func (k *Keeper) queryConnections(s *scope.Scope, req module.QueryRequest) (module.QueryResponse, error) {
	prefix := types.ModuleName + "/connections/"
	w := newListWriter()
	for _, kv := range s.Range(prefix) {
		w.entry(strings.TrimPrefix(kv.Path, prefix), kv.Value)
	}
	return module.QueryResponse{Value: w.out(), Revision: req.Revision}, nil
}

// queryClientConnections lists the IDs of every connection associated
// with one client (ICS-03's client-connection index), derived by scanning
// the connection ends rather than kept as a separate reverse index.
func (k *Keeper) queryClientConnections(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	if len(segments) < 3 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrUnroutable, "ibc: client_connections query needs a client id")
	}
	clientID := segments[2]
	prefix := types.ModuleName + "/connections/"
	w := wire.NewWriter()
	var ids []string
	for _, kv := range s.Range(prefix) {
		conn := &types.ConnectionEnd{}
		if err := conn.UnmarshalWire(wire.NewReader(kv.Value)); err != nil {
			return module.QueryResponse{}, err
		}
		if conn.ClientID == clientID {
			ids = append(ids, strings.TrimPrefix(kv.Path, prefix))
		}
	}
	w.Uint64(uint64(len(ids)))
	for _, id := range ids {
		w.String(id)
	}
	return module.QueryResponse{Value: w.Out(), Revision: req.Revision}, nil
}

func (k *Keeper) queryConnectionClientState(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	if len(segments) < 3 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrUnroutable, "ibc: connection_client_state query needs a connection id")
	}
	conn, err := k.connection(s, segments[2])
	if err != nil {
		return module.QueryResponse{}, queryErr(err)
	}
	cs, err := k.client(s, conn.ClientID)
	if err != nil {
		return module.QueryResponse{}, queryErr(err)
	}
	return module.QueryResponse{Value: encodeClientState(cs), Revision: req.Revision, ProvenPath: k.clientStates.Path(types.ClientStateKey(conn.ClientID))}, nil
}

func (k *Keeper) queryConnectionConsensusState(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	if len(segments) < 4 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrUnroutable, "ibc: connection_consensus_state query needs a connection id and height")
	}
	conn, err := k.connection(s, segments[2])
	if err != nil {
		return module.QueryResponse{}, queryErr(err)
	}
	height, err := parseHeight(segments[3])
	if err != nil {
		return module.QueryResponse{}, err
	}
	cons, ok, err := k.consensusStates.Get(s, types.ConsensusStateKey(conn.ClientID, height))
	if err != nil {
		return module.QueryResponse{}, err
	}
	if !ok {
		return module.QueryResponse{}, errorsmod.Wrapf(module.ErrQueryNotFound, "ibc: no consensus state for %s at %s", conn.ClientID, height)
	}
	return module.QueryResponse{Value: encodeConsensusState(cons), Revision: req.Revision, ProvenPath: k.consensusStates.Path(types.ConsensusStateKey(conn.ClientID, height))}, nil
}
