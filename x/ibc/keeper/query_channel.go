package keeper

import (
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/internal/substore"
	"github.com/tokenize-x/tx-chain/v6/internal/wire"
	"github.com/tokenize-x/tx-chain/v6/x/ibc/types"
)

func (k *Keeper) queryChannel(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	if len(segments) < 4 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrUnroutable, "ibc: channel query needs a port and channel id")
	}
	ch, err := k.channel(s, segments[2], segments[3])
	if err != nil {
		return module.QueryResponse{}, queryErr(err)
	}
	return module.QueryResponse{Value: encodeChannel(ch), Revision: req.Revision, ProvenPath: k.channels.Path(types.ChannelKey(segments[2], segments[3]))}, nil
}

// queryChannels lists every channel end. Keys are reported as
// "{port_id}/channels/{channel_id}", the ICS-24 tail of the channelEnds
// path, so a caller recovers both identifiers without a second lookup.
func (k *Keeper) queryChannels(s *scope.Scope, req module.QueryRequest) (module.QueryResponse, error) {
	prefix := types.ModuleName + "/channelEnds/ports/"
	w := newListWriter()
	for _, kv := range s.Range(prefix) {
		w.entry(strings.TrimPrefix(kv.Path, prefix), kv.Value)
	}
	return module.QueryResponse{Value: w.out(), Revision: req.Revision}, nil
}

// queryConnectionChannels lists every channel whose single connection hop
// is the given connection.
func (k *Keeper) queryConnectionChannels(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	if len(segments) < 3 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrUnroutable, "ibc: connection_channels query needs a connection id")
	}
	connectionID := segments[2]
	prefix := types.ModuleName + "/channelEnds/ports/"
	w := newListWriter()
	for _, kv := range s.Range(prefix) {
		ch := &types.ChannelEnd{}
		if err := ch.UnmarshalWire(wire.NewReader(kv.Value)); err != nil {
			return module.QueryResponse{}, err
		}
		if len(ch.ConnectionHops) == 1 && ch.ConnectionHops[0] == connectionID {
			w.entry(strings.TrimPrefix(kv.Path, prefix), kv.Value)
		}
	}
	return module.QueryResponse{Value: w.out(), Revision: req.Revision}, nil
}

func (k *Keeper) queryChannelClientState(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	if len(segments) < 4 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrUnroutable, "ibc: channel_client_state query needs a port and channel id")
	}
	ch, err := k.channel(s, segments[2], segments[3])
	if err != nil {
		return module.QueryResponse{}, queryErr(err)
	}
	conn, err := k.connectionForChannel(s, ch.ConnectionHops)
	if err != nil {
		return module.QueryResponse{}, queryErr(err)
	}
	cs, err := k.client(s, conn.ClientID)
	if err != nil {
		return module.QueryResponse{}, queryErr(err)
	}
	return module.QueryResponse{Value: encodeClientState(cs), Revision: req.Revision, ProvenPath: k.clientStates.Path(types.ClientStateKey(conn.ClientID))}, nil
}

func (k *Keeper) queryPacketCommitment(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	if len(segments) < 5 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrUnroutable, "ibc: packet_commitment query needs port, channel, sequence")
	}
	seq, err := parseSequence(segments[4])
	if err != nil {
		return module.QueryResponse{}, err
	}
	commitmentKey := types.CommitmentKey(segments[2], segments[3], seq)
	value, ok, err := k.commitments.Get(s, commitmentKey)
	if err != nil {
		return module.QueryResponse{}, err
	}
	if !ok {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrQueryNotFound, "ibc: no commitment for that packet")
	}
	return module.QueryResponse{Value: value, Revision: req.Revision, ProvenPath: k.commitments.Path(commitmentKey)}, nil
}

func (k *Keeper) queryPacketCommitments(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	return k.queryPacketEntryList(s, req, segments, "commitments")
}

func (k *Keeper) queryPacketAcknowledgements(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	return k.queryPacketEntryList(s, req, segments, "acks")
}

// queryPacketEntryList lists every per-sequence entry (commitments or
// acks) on one channel, keyed by sequence number.
func (k *Keeper) queryPacketEntryList(s *scope.Scope, req module.QueryRequest, segments []string, kind string) (module.QueryResponse, error) {
	if len(segments) < 4 {
		return module.QueryResponse{}, errorsmod.Wrapf(module.ErrUnroutable, "ibc: packet %s query needs port and channel", kind)
	}
	prefix := types.ModuleName + "/" + kind + "/ports/" + segments[2] + "/channels/" + segments[3] + "/sequences/"
	w := newListWriter()
	for _, kv := range s.Range(prefix) {
		w.entry(strings.TrimPrefix(kv.Path, prefix), kv.Value)
	}
	return module.QueryResponse{Value: w.out(), Revision: req.Revision}, nil
}

// queryPacketReceipt answers with a single boolean byte: 0x01 when the
// receipt exists, 0x00 when it does not. Either way ProvenPath names the
// receipt path, so a proving query yields a membership proof in the first
// case and a non-membership proof in the second — both are answers a
// relayer acts on (the second drives timeout submission).
func (k *Keeper) queryPacketReceipt(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	if len(segments) < 5 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrUnroutable, "ibc: packet_receipt query needs port, channel, sequence")
	}
	seq, err := parseSequence(segments[4])
	if err != nil {
		return module.QueryResponse{}, err
	}
	receiptKey := types.ReceiptKey(segments[2], segments[3], seq)
	_, ok, err := k.receipts.Get(s, receiptKey)
	if err != nil {
		return module.QueryResponse{}, err
	}
	value := []byte{0x00}
	if ok {
		value = []byte{0x01}
	}
	return module.QueryResponse{Value: value, Revision: req.Revision, ProvenPath: k.receipts.Path(receiptKey)}, nil
}

func (k *Keeper) queryPacketAcknowledgement(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	if len(segments) < 5 {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrUnroutable, "ibc: packet_acknowledgement query needs port, channel, sequence")
	}
	seq, err := parseSequence(segments[4])
	if err != nil {
		return module.QueryResponse{}, err
	}
	ackKey := types.AckKey(segments[2], segments[3], seq)
	value, ok, err := k.acks.Get(s, ackKey)
	if err != nil {
		return module.QueryResponse{}, err
	}
	if !ok {
		return module.QueryResponse{}, errorsmod.Wrap(module.ErrQueryNotFound, "ibc: no acknowledgement for that packet")
	}
	return module.QueryResponse{Value: value, Revision: req.Revision, ProvenPath: k.acks.Path(ackKey)}, nil
}

// queryUnreceivedPackets filters a relayer-supplied sequence list down to
// the ones this chain has not received: for UNORDERED channels, sequences
// with no receipt; for ORDERED channels, sequences at or above
// nextSequenceRecv (per-sequence receipts are never written there).
func (k *Keeper) queryUnreceivedPackets(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	portID, channelID, seqs, err := parseSequenceListQuery(segments, "unreceived_packets")
	if err != nil {
		return module.QueryResponse{}, err
	}
	ch, err := k.channel(s, portID, channelID)
	if err != nil {
		return module.QueryResponse{}, queryErr(err)
	}

	var unreceived []uint64
	if ch.Ordering == types.Ordered {
		next, _, err := k.nextSequenceRecv.Get(s, types.NextSequenceRecvKey(portID, channelID))
		if err != nil {
			return module.QueryResponse{}, err
		}
		for _, seq := range seqs {
			if seq >= next {
				unreceived = append(unreceived, seq)
			}
		}
	} else {
		for _, seq := range seqs {
			_, ok, err := k.receipts.Get(s, types.ReceiptKey(portID, channelID, seq))
			if err != nil {
				return module.QueryResponse{}, err
			}
			if !ok {
				unreceived = append(unreceived, seq)
			}
		}
	}
	return module.QueryResponse{Value: encodeSequenceList(unreceived), Revision: req.Revision}, nil
}

// queryUnreceivedAcks filters a relayer-supplied sequence list down to the
// ones whose acknowledgement this (sending) chain has not yet processed —
// exactly the sequences whose commitment is still present, since
// AcknowledgePacket deletes the commitment on success.
func (k *Keeper) queryUnreceivedAcks(s *scope.Scope, req module.QueryRequest, segments []string) (module.QueryResponse, error) {
	portID, channelID, seqs, err := parseSequenceListQuery(segments, "unreceived_acks")
	if err != nil {
		return module.QueryResponse{}, err
	}
	var unreceived []uint64
	for _, seq := range seqs {
		_, ok, err := k.commitments.Get(s, types.CommitmentKey(portID, channelID, seq))
		if err != nil {
			return module.QueryResponse{}, err
		}
		if ok {
			unreceived = append(unreceived, seq)
		}
	}
	return module.QueryResponse{Value: encodeSequenceList(unreceived), Revision: req.Revision}, nil
}

func (k *Keeper) querySequence(s *scope.Scope, req module.QueryRequest, segments []string, st *substore.Store[uint64], key func(portID, channelID string) string) (module.QueryResponse, error) {
	if len(segments) < 4 {
		return module.QueryResponse{}, errorsmod.Wrapf(module.ErrUnroutable, "ibc: %s query needs port and channel", segments[1])
	}
	seqKey := key(segments[2], segments[3])
	seq, _, err := st.Get(s, seqKey)
	if err != nil {
		return module.QueryResponse{}, err
	}
	return module.QueryResponse{Value: seqBytes(seq), Revision: req.Revision, ProvenPath: st.Path(seqKey)}, nil
}

// parseSequenceListQuery splits ".../{port}/{channel}/{seq,seq,...}", the
// path form UnreceivedPackets/UnreceivedAcks carry their candidate
// sequence list in.
func parseSequenceListQuery(segments []string, name string) (string, string, []uint64, error) {
	if len(segments) < 5 {
		return "", "", nil, errorsmod.Wrapf(module.ErrUnroutable, "ibc: %s query needs port, channel, sequence list", name)
	}
	var seqs []uint64
	for _, raw := range strings.Split(segments[4], ",") {
		seq, err := parseSequence(raw)
		if err != nil {
			return "", "", nil, err
		}
		seqs = append(seqs, seq)
	}
	return segments[2], segments[3], seqs, nil
}

func encodeSequenceList(seqs []uint64) []byte {
	w := wire.NewWriter()
	w.Uint64(uint64(len(seqs)))
	for _, seq := range seqs {
		w.Uint64(seq)
	}
	return w.Out()
}
