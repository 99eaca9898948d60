package keeper_test

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/internal/store"
	"github.com/tokenize-x/tx-chain/v6/internal/wire"
	"github.com/tokenize-x/tx-chain/v6/x/ibc/types"
)

// decodeEntryList reads the count-prefixed (key, value) list every
// aggregate query returns.
func decodeEntryList(t *testing.T, raw []byte) map[string][]byte {
	t.Helper()
	r := wire.NewReader(raw)
	n, err := r.Uint64()
	require.NoError(t, err)
	out := make(map[string][]byte, n)
	for i := uint64(0); i < n; i++ {
		key, err := r.String()
		require.NoError(t, err)
		value, err := r.Bytes()
		require.NoError(t, err)
		out[key] = value
	}
	require.True(t, r.Done())
	return out
}

func decodeSequenceList(t *testing.T, raw []byte) []uint64 {
	t.Helper()
	r := wire.NewReader(raw)
	n, err := r.Uint64()
	require.NoError(t, err)
	out := make([]uint64, 0, n)
	for i := uint64(0); i < n; i++ {
		seq, err := r.Uint64()
		require.NoError(t, err)
		out = append(out, seq)
	}
	require.True(t, r.Done())
	return out
}

func TestQueryClientStatesListsEveryClient(t *testing.T) {
	st := store.New(0)
	k := newKeeper()
	s := scope.New(scope.Deliver, st.At(store.Latest))

	for _, id := range []string{"07-tendermint-0", "07-tendermint-1"} {
		_, _, err := k.CreateClient(s, types.MsgCreateClient{
			ClientID:       id,
			ClientState:    types.ClientState{ChainID: "counterparty", TrustingPeriod: time.Hour, LatestHeight: types.Height{RevisionHeight: 1}},
			ConsensusState: types.ConsensusState{Timestamp: time.Unix(1000, 0), Root: []byte("root")},
		})
		require.NoError(t, err)
	}
	// An extra consensus state interleaves under clients/ and must not
	// leak into the client-state listing.
	_, err := k.UpdateClient(s, types.MsgUpdateClient{
		ClientID: "07-tendermint-0",
		Header:   types.Header{Height: types.Height{RevisionHeight: 2}, Timestamp: time.Unix(1100, 0), Root: []byte("root-2")},
	})
	require.NoError(t, err)

	resp, err := k.Query(s, module.QueryRequest{Path: "/ibc/client_states"})
	require.NoError(t, err)

	entries := decodeEntryList(t, resp.Value)
	require.Len(t, entries, 2)
	for _, id := range []string{"07-tendermint-0", "07-tendermint-1"} {
		cs := &types.ClientState{}
		require.NoError(t, cs.UnmarshalWire(wire.NewReader(entries[id])))
		require.Equal(t, "counterparty", cs.ChainID)
	}
}

// TestQueryConsensusStateHeightsSortNumerically pins the height ordering:
// the store's lexicographic key order would put "0-10" before "0-2", the
// query must not.
func TestQueryConsensusStateHeightsSortNumerically(t *testing.T) {
	st := store.New(0)
	k := newKeeper()
	s := scope.New(scope.Deliver, st.At(store.Latest))

	_, _, err := k.CreateClient(s, types.MsgCreateClient{
		ClientID:       "07-tendermint-0",
		ClientState:    types.ClientState{ChainID: "counterparty", TrustingPeriod: time.Hour, LatestHeight: types.Height{RevisionHeight: 2}},
		ConsensusState: types.ConsensusState{Timestamp: time.Unix(1000, 0), Root: []byte("root-2")},
	})
	require.NoError(t, err)
	_, err = k.UpdateClient(s, types.MsgUpdateClient{
		ClientID: "07-tendermint-0",
		Header:   types.Header{Height: types.Height{RevisionHeight: 10}, Timestamp: time.Unix(1100, 0), Root: []byte("root-10")},
	})
	require.NoError(t, err)

	resp, err := k.Query(s, module.QueryRequest{Path: "/ibc/consensus_state_heights/07-tendermint-0"})
	require.NoError(t, err)

	r := wire.NewReader(resp.Value)
	n, err := r.Uint64()
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	var heights []types.Height
	for i := uint64(0); i < n; i++ {
		rev, err := r.Uint64()
		require.NoError(t, err)
		h, err := r.Uint64()
		require.NoError(t, err)
		heights = append(heights, types.Height{RevisionNumber: rev, RevisionHeight: h})
	}
	require.Equal(t, []types.Height{{RevisionHeight: 2}, {RevisionHeight: 10}}, heights)

	// The single-height lookup reports the exact ICS-24 path for proving.
	single, err := k.Query(s, module.QueryRequest{Path: "/ibc/consensus_state/07-tendermint-0/0-10"})
	require.NoError(t, err)
	require.Equal(t, "ibc/"+types.ConsensusStateKey("07-tendermint-0", types.Height{RevisionHeight: 10}), single.ProvenPath)
}

func TestQueryClientConnectionsFiltersByClient(t *testing.T) {
	st := store.New(0)
	k := newKeeper()
	s := scope.New(scope.Deliver, st.At(store.Latest))

	for _, id := range []string{"client-a", "client-b"} {
		_, _, err := k.CreateClient(s, types.MsgCreateClient{
			ClientID:       id,
			ClientState:    types.ClientState{ChainID: "counterparty", TrustingPeriod: time.Hour, LatestHeight: types.Height{RevisionHeight: 1}},
			ConsensusState: types.ConsensusState{Timestamp: time.Unix(1000, 0), Root: []byte("root")},
		})
		require.NoError(t, err)
	}
	for _, clientID := range []string{"client-a", "client-a", "client-b"} {
		_, _, err := k.ConnectionOpenInit(s, types.MsgConnectionOpenInit{
			ClientID:     clientID,
			Counterparty: types.Counterparty{ClientID: "remote", Prefix: "ibc"},
			Version:      "1",
		})
		require.NoError(t, err)
	}

	resp, err := k.Query(s, module.QueryRequest{Path: "/ibc/client_connections/client-a"})
	require.NoError(t, err)

	r := wire.NewReader(resp.Value)
	n, err := r.Uint64()
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	ids := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		id, err := r.String()
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.Equal(t, []string{"connection-0", "connection-1"}, ids)

	all, err := k.Query(s, module.QueryRequest{Path: "/ibc/connections"})
	require.NoError(t, err)
	require.Len(t, decodeEntryList(t, all.Value), 3)
}

// seedChannel stages a channel end plus its recv counter directly through
// the scope, the raw-path counterpart of the st.Get assertions the packet
// tests make.
func seedChannel(t *testing.T, s *scope.Scope, portID, channelID string, ordering types.Ordering, nextRecv uint64) {
	t.Helper()
	end := &types.ChannelEnd{
		State:          types.ChanOpen,
		Ordering:       ordering,
		Counterparty:   types.ChannelCounterparty{PortID: portID, ChannelID: "remote-" + channelID},
		ConnectionHops: []string{"connection-0"},
		Version:        "1",
	}
	require.NoError(t, s.Set("ibc/"+types.ChannelKey(portID, channelID), encodeChannelEnd(end)))
	seq := make([]byte, 8)
	binary.BigEndian.PutUint64(seq, nextRecv)
	require.NoError(t, s.Set("ibc/"+types.NextSequenceRecvKey(portID, channelID), seq))
}

func TestQueryPacketReceiptReportsPresence(t *testing.T) {
	st := store.New(0)
	k := newKeeper()
	s := scope.New(scope.Deliver, st.At(store.Latest))

	seedChannel(t, s, "transfer", "channel-0", types.Unordered, 1)
	require.NoError(t, s.Set("ibc/"+types.ReceiptKey("transfer", "channel-0", 3), []byte{0x01}))

	present, err := k.Query(s, module.QueryRequest{Path: "/ibc/packet_receipt/transfer/channel-0/3"})
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, present.Value)
	require.Equal(t, "ibc/"+types.ReceiptKey("transfer", "channel-0", 3), present.ProvenPath)

	absent, err := k.Query(s, module.QueryRequest{Path: "/ibc/packet_receipt/transfer/channel-0/4"})
	require.NoError(t, err)
	require.Equal(t, []byte{0x00}, absent.Value)
	require.Equal(t, "ibc/"+types.ReceiptKey("transfer", "channel-0", 4), absent.ProvenPath)
}

func TestQueryUnreceivedPacketsFiltersReceipts(t *testing.T) {
	st := store.New(0)
	k := newKeeper()
	s := scope.New(scope.Deliver, st.At(store.Latest))

	seedChannel(t, s, "transfer", "channel-0", types.Unordered, 1)
	for _, seq := range []uint64{1, 3} {
		require.NoError(t, s.Set("ibc/"+types.ReceiptKey("transfer", "channel-0", seq), []byte{0x01}))
	}

	resp, err := k.Query(s, module.QueryRequest{Path: "/ibc/unreceived_packets/transfer/channel-0/1,2,3,4"})
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 4}, decodeSequenceList(t, resp.Value))
}

func TestQueryUnreceivedPacketsOrderedUsesRecvCounter(t *testing.T) {
	st := store.New(0)
	k := newKeeper()
	s := scope.New(scope.Deliver, st.At(store.Latest))

	seedChannel(t, s, "transfer", "channel-0", types.Ordered, 3)

	resp, err := k.Query(s, module.QueryRequest{Path: "/ibc/unreceived_packets/transfer/channel-0/1,2,3,4"})
	require.NoError(t, err)
	require.Equal(t, []uint64{3, 4}, decodeSequenceList(t, resp.Value))
}

func TestQueryUnreceivedAcksKeepsPendingCommitments(t *testing.T) {
	st := store.New(0)
	k := newKeeper()
	s := scope.New(scope.Deliver, st.At(store.Latest))

	seedChannel(t, s, "transfer", "channel-0", types.Unordered, 1)
	require.NoError(t, s.Set("ibc/"+types.CommitmentKey("transfer", "channel-0", 2), []byte("commitment")))

	resp, err := k.Query(s, module.QueryRequest{Path: "/ibc/unreceived_acks/transfer/channel-0/1,2,3"})
	require.NoError(t, err)
	require.Equal(t, []uint64{2}, decodeSequenceList(t, resp.Value))

	list, err := k.Query(s, module.QueryRequest{Path: "/ibc/packet_commitments/transfer/channel-0"})
	require.NoError(t, err)
	entries := decodeEntryList(t, list.Value)
	require.Len(t, entries, 1)
	require.Equal(t, []byte("commitment"), entries["2"])
}

func TestQueryMissingEntitiesReportNotFound(t *testing.T) {
	st := store.New(0)
	k := newKeeper()
	s := scope.New(scope.Deliver, st.At(store.Latest))

	seedChannel(t, s, "transfer", "channel-0", types.Unordered, 1)

	_, err := k.Query(s, module.QueryRequest{Path: "/ibc/packet_acknowledgement/transfer/channel-0/9"})
	require.ErrorIs(t, err, module.ErrQueryNotFound)

	_, err = k.Query(s, module.QueryRequest{Path: "/ibc/client_state/no-such-client"})
	require.ErrorIs(t, err, module.ErrQueryNotFound)

	_, err = k.Query(s, module.QueryRequest{Path: "/ibc/upgraded_client_state"})
	require.ErrorIs(t, err, module.ErrQueryNotFound)
}

func TestQueryNextSequenceRecvReadsCounter(t *testing.T) {
	st := store.New(0)
	k := newKeeper()
	s := scope.New(scope.Deliver, st.At(store.Latest))

	seedChannel(t, s, "transfer", "channel-0", types.Ordered, 7)

	resp, err := k.Query(s, module.QueryRequest{Path: "/ibc/next_sequence_recv/transfer/channel-0"})
	require.NoError(t, err)
	want := make([]byte, 8)
	binary.BigEndian.PutUint64(want, 7)
	require.Equal(t, want, resp.Value)
	require.Equal(t, "ibc/"+types.NextSequenceRecvKey("transfer", "channel-0"), resp.ProvenPath)
}
