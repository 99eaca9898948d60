package keeper

import (
	"sort"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/internal/wire"
	"github.com/tokenize-x/tx-chain/v6/x/ibc/types"
)

// Query implements module.Module, answering the full gRPC query surface
// spec.md §6 lists (ICS-02 client, ICS-03 connection, ICS-04 channel
// queries) by reading the underlying sub-stores directly. Proof
// attachment is the aggregator's job (C8), the same division of labor as
// the bank module's Query; since IBC's externally-facing query paths
// (client_state/connection/channel/...) don't share the ICS-24 key shape
// its sub-stores actually use, every single-value branch reports the real
// path via ProvenPath rather than let the aggregator guess one from the
// query URL. List queries return aggregate views no single Merkle path
// covers and leave ProvenPath empty.
func (k *Keeper) Query(s *scope.Scope, req module.QueryRequest) (module.QueryResponse, error) {
	segments := strings.Split(strings.Trim(req.Path, "/"), "/")
	if len(segments) < 2 || segments[0] != types.ModuleName {
		return module.QueryResponse{}, errorsmod.Wrapf(module.ErrUnroutable, "ibc: unrecognized query path %q", req.Path)
	}

	switch segments[1] {
	// ICS-02 client queries.
	case "client_state":
		return k.queryClientState(s, req, segments)
	case "client_states":
		return k.queryClientStates(s, req)
	case "consensus_state":
		return k.queryConsensusState(s, req, segments)
	case "consensus_states":
		return k.queryConsensusStates(s, req, segments)
	case "consensus_state_heights":
		return k.queryConsensusStateHeights(s, req, segments)
	case "client_params":
		return k.queryClientParams(req)
	case "upgraded_client_state":
		return k.queryUpgraded(s, req, "upgradedClient")
	case "upgraded_consensus_state":
		return k.queryUpgraded(s, req, "upgradedConsState")

	// ICS-03 connection queries.
	case "connection":
		return k.queryConnection(s, req, segments)
	case "connections":
		return k.queryConnections(s, req)
	case "client_connections":
		return k.queryClientConnections(s, req, segments)
	case "connection_client_state":
		return k.queryConnectionClientState(s, req, segments)
	case "connection_consensus_state":
		return k.queryConnectionConsensusState(s, req, segments)
	case "connection_params":
		return k.queryConnectionParams(req)

	// ICS-04 channel and packet queries.
	case "channel":
		return k.queryChannel(s, req, segments)
	case "channels":
		return k.queryChannels(s, req)
	case "connection_channels":
		return k.queryConnectionChannels(s, req, segments)
	case "channel_client_state":
		return k.queryChannelClientState(s, req, segments)
	case "packet_commitment":
		return k.queryPacketCommitment(s, req, segments)
	case "packet_commitments":
		return k.queryPacketCommitments(s, req, segments)
	case "packet_receipt":
		return k.queryPacketReceipt(s, req, segments)
	case "packet_acknowledgement":
		return k.queryPacketAcknowledgement(s, req, segments)
	case "packet_acknowledgements":
		return k.queryPacketAcknowledgements(s, req, segments)
	case "unreceived_packets":
		return k.queryUnreceivedPackets(s, req, segments)
	case "unreceived_acks":
		return k.queryUnreceivedAcks(s, req, segments)
	case "next_sequence_send":
		return k.querySequence(s, req, segments, k.nextSequenceSend, types.NextSequenceSendKey)
	case "next_sequence_recv":
		return k.querySequence(s, req, segments, k.nextSequenceRecv, types.NextSequenceRecvKey)
	case "next_sequence_ack":
		return k.querySequence(s, req, segments, k.nextSequenceAck, types.NextSequenceAckKey)

	default:
		return module.QueryResponse{}, errorsmod.Wrapf(module.ErrUnroutable, "ibc: unrecognized query path %q", req.Path)
	}
}

// queryErr converts the deliver-path errors the keeper's lookup helpers
// raise for a missing client/connection/channel into QUERY_NOT_FOUND, so
// the transports map them to gRPC NOT_FOUND / ABCI code 1 (spec.md §7)
// instead of treating a read miss like a rejected transaction.
func queryErr(err error) error {
	if errorsmod.IsOf(err, types.ErrInvalidClient, types.ErrUnexpectedState) {
		return errorsmod.Wrap(module.ErrQueryNotFound, err.Error())
	}
	return err
}

func (k *Keeper) queryClientState(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	if len(segments) < 3 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrUnroutable, "ibc: client_state query needs a client id")
	}
	cs, err := k.client(s, segments[2])
	if err != nil {
		return module.QueryResponse{}, queryErr(err)
	}
	return module.QueryResponse{Value: encodeClientState(cs), Revision: req.Revision, ProvenPath: k.clientStates.Path(types.ClientStateKey(segments[2]))}, nil
}

// queryClientStates lists every client as (client_id, ClientState) pairs.
// The clients/ prefix interleaves clientState and consensusStates entries
// within one sub-store namespace, so the scan filters on the clientState
// leaf name rather than ranging through the typed sub-store.
func (k *Keeper) queryClientStates(s *scope.Scope, req module.QueryRequest) (module.QueryResponse, error) {
	prefix := types.ModuleName + "/clients/"
	w := newListWriter()
	for _, kv := range s.Range(prefix) {
		rest := strings.TrimPrefix(kv.Path, prefix)
		clientID, leaf, ok := strings.Cut(rest, "/")
		if !ok || leaf != "clientState" {
			continue
		}
		w.entry(clientID, kv.Value)
	}
	return module.QueryResponse{Value: w.out(), Revision: req.Revision}, nil
}

func (k *Keeper) queryConsensusState(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	if len(segments) < 4 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrUnroutable, "ibc: consensus_state query needs a client id and height")
	}
	height, err := parseHeight(segments[3])
	if err != nil {
		return module.QueryResponse{}, err
	}
	cons, ok, err := k.consensusStates.Get(s, types.ConsensusStateKey(segments[2], height))
	if err != nil {
		return module.QueryResponse{}, err
	}
	if !ok {
		return module.QueryResponse{}, errorsmod.Wrapf(module.ErrQueryNotFound, "ibc: no consensus state for %s at %s", segments[2], height)
	}
	return module.QueryResponse{Value: encodeConsensusState(cons), Revision: req.Revision, ProvenPath: k.consensusStates.Path(types.ConsensusStateKey(segments[2], height))}, nil
}

func (k *Keeper) queryConsensusStates(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	if len(segments) < 3 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrUnroutable, "ibc: consensus_states query needs a client id")
	}
	heights, values, err := k.consensusStatesByHeight(s, segments[2])
	if err != nil {
		return module.QueryResponse{}, err
	}
	w := newListWriter()
	for i, h := range heights {
		w.entry(h.String(), values[i])
	}
	return module.QueryResponse{Value: w.out(), Revision: req.Revision}, nil
}

func (k *Keeper) queryConsensusStateHeights(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	if len(segments) < 3 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrUnroutable, "ibc: consensus_state_heights query needs a client id")
	}
	heights, _, err := k.consensusStatesByHeight(s, segments[2])
	if err != nil {
		return module.QueryResponse{}, err
	}
	w := wire.NewWriter()
	w.Uint64(uint64(len(heights)))
	for _, h := range heights {
		w.Uint64(h.RevisionNumber)
		w.Uint64(h.RevisionHeight)
	}
	return module.QueryResponse{Value: w.Out(), Revision: req.Revision}, nil
}

// consensusStatesByHeight scans one client's consensus states and returns
// them in ascending height order. The store's lexicographic key order
// would put "1-10" before "1-2", so the heights are re-sorted numerically
// the way every ICS-02 height comparison works.
func (k *Keeper) consensusStatesByHeight(s *scope.Scope, clientID string) ([]types.Height, [][]byte, error) {
	prefix := types.ModuleName + "/clients/" + clientID + "/consensusStates/"
	type entry struct {
		height types.Height
		value  []byte
	}
	var entries []entry
	for _, kv := range s.Range(prefix) {
		height, err := parseHeight(strings.TrimPrefix(kv.Path, prefix))
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, entry{height: height, value: kv.Value})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].height.LT(entries[j].height) })
	heights := make([]types.Height, len(entries))
	values := make([][]byte, len(entries))
	for i, e := range entries {
		heights[i] = e.height
		values[i] = e.value
	}
	return heights, values, nil
}

// allowedClientTypes and maxExpectedTimePerBlock are the client/connection
// parameter sets the §6 ClientParams/ConnectionParams RPCs report. This
// host has no governance module to mutate them, so they are fixed.
var allowedClientTypes = []string{"07-tendermint"}

const maxExpectedTimePerBlockNanos = uint64(30_000_000_000)

func (k *Keeper) queryClientParams(req module.QueryRequest) (module.QueryResponse, error) {
	w := wire.NewWriter()
	w.Uint64(uint64(len(allowedClientTypes)))
	for _, ct := range allowedClientTypes {
		w.String(ct)
	}
	return module.QueryResponse{Value: w.Out(), Revision: req.Revision}, nil
}

func (k *Keeper) queryConnectionParams(req module.QueryRequest) (module.QueryResponse, error) {
	w := wire.NewWriter()
	w.Uint64(maxExpectedTimePerBlockNanos)
	return module.QueryResponse{Value: w.Out(), Revision: req.Revision}, nil
}

// queryUpgraded serves UpgradedClientState/UpgradedConsensusState. The
// upgrade paths are committed only while this chain has an upgrade plan
// pending, which it never schedules itself (no upgrade module); the read
// is still served so a relayer probing for a plan gets a clean NOT_FOUND
// rather than an unimplemented RPC. When multiple heights are committed,
// the latest wins, matching the "state to adopt after the halt" reading.
func (k *Keeper) queryUpgraded(s *scope.Scope, req module.QueryRequest, pathSegment string) (module.QueryResponse, error) {
	prefix := types.ModuleName + "/" + pathSegment + "/"
	entries := s.Range(prefix)
	if len(entries) == 0 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrQueryNotFound, "ibc: no upgrade scheduled")
	}
	best := entries[0]
	bestHeight, err := parseHeight(strings.TrimPrefix(best.Path, prefix))
	if err != nil {
		return module.QueryResponse{}, err
	}
	for _, kv := range entries[1:] {
		h, err := parseHeight(strings.TrimPrefix(kv.Path, prefix))
		if err != nil {
			return module.QueryResponse{}, err
		}
		if bestHeight.LT(h) {
			best, bestHeight = kv, h
		}
	}
	return module.QueryResponse{Value: best.Value, Revision: req.Revision, ProvenPath: best.Path}, nil
}

func parseSequence(s string) (uint64, error) {
	seq, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errorsmod.Wrapf(types.ErrInvalidMessage, "invalid sequence %q", s)
	}
	return seq, nil
}

func parseHeight(s string) (types.Height, error) {
	revStr, heightStr, ok := strings.Cut(s, "-")
	if !ok {
		return types.Height{}, errorsmod.Wrapf(types.ErrInvalidMessage, "invalid height %q, want {revision}-{height}", s)
	}
	rev, err := strconv.ParseUint(revStr, 10, 64)
	if err != nil {
		return types.Height{}, errorsmod.Wrapf(types.ErrInvalidMessage, "invalid height %q", s)
	}
	height, err := strconv.ParseUint(heightStr, 10, 64)
	if err != nil {
		return types.Height{}, errorsmod.Wrapf(types.ErrInvalidMessage, "invalid height %q", s)
	}
	return types.Height{RevisionNumber: rev, RevisionHeight: height}, nil
}

// listWriter encodes the shared list-response shape every aggregate query
// returns: an entry count followed by (key, value) pairs in the order
// appended.
type listWriter struct {
	w     *wire.Writer
	count uint64
}

func newListWriter() *listWriter {
	return &listWriter{w: wire.NewWriter()}
}

func (l *listWriter) entry(key string, value []byte) {
	l.w.String(key)
	l.w.Bytes(value)
	l.count++
}

func (l *listWriter) out() []byte {
	out := wire.NewWriter()
	out.Uint64(l.count)
	return append(out.Out(), l.w.Out()...)
}
