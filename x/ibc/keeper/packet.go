package keeper

import (
	"bytes"

	errorsmod "cosmossdk.io/errors"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/internal/substore"
	"github.com/tokenize-x/tx-chain/v6/x/ibc/types"
)

// SendPacket stages p's commitment and advances the channel's send
// sequence. It is not itself an external message (spec.md §4.7 only lists
// Recv/Acknowledge/Timeout/TimeoutOnClose as packet messages) — other
// modules call this directly to originate a packet over an OPEN channel.
func (k Keeper) SendPacket(s *scope.Scope, p types.Packet) ([]module.Event, error) {
	ch, err := k.channel(s, p.SourcePort, p.SourceChannel)
	if err != nil {
		return nil, err
	}
	if ch.State != types.ChanOpen {
		return nil, errorsmod.Wrap(types.ErrUnexpectedState, "channel is not OPEN")
	}

	next, _, err := k.nextSequenceSend.Get(s, types.NextSequenceSendKey(p.SourcePort, p.SourceChannel))
	if err != nil {
		return nil, err
	}
	if p.Sequence != next {
		return nil, errorsmod.Wrapf(types.ErrUnexpectedState, "packet sequence %d does not match next send sequence %d", p.Sequence, next)
	}

	if err := k.commitments.Set(s, types.CommitmentKey(p.SourcePort, p.SourceChannel, p.Sequence), types.CommitPacket(p)); err != nil {
		return nil, err
	}
	if err := k.nextSequenceSend.Set(s, types.NextSequenceSendKey(p.SourcePort, p.SourceChannel), next+1); err != nil {
		return nil, err
	}
	return nil, nil
}

// RecvPacket implements spec.md §4.7: delivers msg.Packet, verified by
// msg.ProofCommitment against the sender's commitment path. ORDERED
// channels require the packet sequence to equal nextSequenceRecv;
// UNORDERED channels record a receipt and tolerate out-of-order,
// idempotent delivery. Every successful (non-duplicate) receipt writes
// DefaultAcknowledgement to the acks path so AcknowledgePacket has
// something provable to verify on the sending chain.
func (k Keeper) RecvPacket(s *scope.Scope, msg types.MsgRecvPacket) ([]module.Event, error) {
	p := msg.Packet
	ch, err := k.channel(s, p.DestPort, p.DestChannel)
	if err != nil {
		return nil, err
	}
	if ch.State != types.ChanOpen {
		return nil, errorsmod.Wrap(types.ErrUnexpectedState, "channel is not OPEN")
	}
	conn, err := k.connectionForChannel(s, ch.ConnectionHops)
	if err != nil {
		return nil, err
	}

	commitPath := types.CommitmentKey(p.SourcePort, p.SourceChannel, p.Sequence)
	if err := k.verifyMembership(s, conn.ClientID, msg.ProofCommitment, commitPath, types.CommitPacket(p)); err != nil {
		return nil, err
	}

	if ch.Ordering == types.Ordered {
		next, _, err := k.nextSequenceRecv.Get(s, types.NextSequenceRecvKey(p.DestPort, p.DestChannel))
		if err != nil {
			return nil, err
		}
		if p.Sequence != next {
			return nil, errorsmod.Wrapf(types.ErrUnexpectedState, "packet sequence %d does not match next recv sequence %d", p.Sequence, next)
		}
		if err := k.nextSequenceRecv.Set(s, types.NextSequenceRecvKey(p.DestPort, p.DestChannel), next+1); err != nil {
			return nil, err
		}
	} else {
		receiptPath := types.ReceiptKey(p.DestPort, p.DestChannel, p.Sequence)
		if _, ok, err := k.receipts.Get(s, receiptPath); err != nil {
			return nil, err
		} else if ok {
			// Double receive: idempotent no-op success (spec.md §4.7).
			return []module.Event{types.NewPacketEvent(types.EventTypeRecvPacket, p)}, nil
		}
		if err := k.receipts.Set(s, receiptPath, types.ReceiptSentinel); err != nil {
			return nil, err
		}
	}

	ackPath := types.AckKey(p.DestPort, p.DestChannel, p.Sequence)
	if err := k.acks.Set(s, ackPath, types.CommitAck(types.DefaultAcknowledgement)); err != nil {
		return nil, err
	}

	return []module.Event{types.NewPacketEvent(types.EventTypeRecvPacket, p)}, nil
}

// AcknowledgePacket implements spec.md §4.7: on a valid ack proof,
// advances nextSequenceAck for ORDERED channels (P5) and deletes the
// sender-side commitment (the packet's lifecycle is complete).
func (k Keeper) AcknowledgePacket(s *scope.Scope, msg types.MsgAcknowledgePacket) ([]module.Event, error) {
	p := msg.Packet
	ch, err := k.channel(s, p.SourcePort, p.SourceChannel)
	if err != nil {
		return nil, err
	}
	conn, err := k.connectionForChannel(s, ch.ConnectionHops)
	if err != nil {
		return nil, err
	}

	commitment, ok, err := k.commitments.Get(s, types.CommitmentKey(p.SourcePort, p.SourceChannel, p.Sequence))
	if err != nil {
		return nil, err
	}
	if !ok {
		// Already acknowledged or never sent: idempotent no-op.
		return []module.Event{types.NewPacketEvent(types.EventTypeAcknowledgePacket, p)}, nil
	}
	if !bytes.Equal(commitment, types.CommitPacket(p)) {
		return nil, errorsmod.Wrap(types.ErrUnexpectedState, "commitment does not match packet")
	}

	ackPath := types.AckKey(p.DestPort, p.DestChannel, p.Sequence)
	if err := k.verifyMembership(s, conn.ClientID, msg.ProofAcked, ackPath, types.CommitAck(msg.Acknowledgement)); err != nil {
		return nil, err
	}

	if ch.Ordering == types.Ordered {
		next, _, err := k.nextSequenceAck.Get(s, types.NextSequenceAckKey(p.SourcePort, p.SourceChannel))
		if err != nil {
			return nil, err
		}
		if p.Sequence != next {
			return nil, errorsmod.Wrapf(types.ErrUnexpectedState, "packet sequence %d does not match next ack sequence %d", p.Sequence, next)
		}
		if err := k.nextSequenceAck.Set(s, types.NextSequenceAckKey(p.SourcePort, p.SourceChannel), next+1); err != nil {
			return nil, err
		}
	}

	if err := k.commitments.Delete(s, types.CommitmentKey(p.SourcePort, p.SourceChannel, p.Sequence)); err != nil {
		return nil, err
	}
	return []module.Event{types.NewPacketEvent(types.EventTypeAcknowledgePacket, p)}, nil
}

// TimeoutPacket implements spec.md §4.7: proves the counterparty never
// received p by its timeout and deletes the commitment, refunding
// whatever the sending module's packet semantics require (left to the
// caller — this keeper only manages commitment lifecycle).
func (k Keeper) TimeoutPacket(s *scope.Scope, msg types.MsgTimeoutPacket, blockTime blockTimeFunc, blockHeight types.Height) ([]module.Event, error) {
	p := msg.Packet
	if err := k.checkPacketTimedOut(p, blockTime, blockHeight); err != nil {
		return nil, err
	}

	ch, err := k.channel(s, p.SourcePort, p.SourceChannel)
	if err != nil {
		return nil, err
	}
	conn, err := k.connectionForChannel(s, ch.ConnectionHops)
	if err != nil {
		return nil, err
	}

	commitment, ok, err := k.commitments.Get(s, types.CommitmentKey(p.SourcePort, p.SourceChannel, p.Sequence))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []module.Event{types.NewPacketEvent(types.EventTypeTimeoutPacket, p)}, nil
	}
	if !bytes.Equal(commitment, types.CommitPacket(p)) {
		return nil, errorsmod.Wrap(types.ErrUnexpectedState, "commitment does not match packet")
	}

	if ch.Ordering == types.Ordered {
		if err := k.verifyMembership(s, conn.ClientID, msg.ProofUnreceived,
			types.NextSequenceRecvKey(p.DestPort, p.DestChannel), seqBytes(msg.NextSequenceRecv)); err != nil {
			return nil, err
		}
		if msg.NextSequenceRecv > p.Sequence {
			return nil, errorsmod.Wrap(types.ErrUnexpectedState, "packet was already received")
		}
	} else {
		if err := k.verifyNonMembership(s, conn.ClientID, msg.ProofUnreceived,
			types.ReceiptKey(p.DestPort, p.DestChannel, p.Sequence)); err != nil {
			return nil, err
		}
	}

	if err := k.commitments.Delete(s, types.CommitmentKey(p.SourcePort, p.SourceChannel, p.Sequence)); err != nil {
		return nil, err
	}
	return []module.Event{types.NewPacketEvent(types.EventTypeTimeoutPacket, p)}, nil
}

// TimeoutOnClose implements spec.md §4.7: MsgTimeoutPacket for a channel
// the counterparty has already closed, additionally proven by
// msg.ProofClosed — so it does not require the timeout height/timestamp
// to actually have elapsed yet.
func (k Keeper) TimeoutOnClose(s *scope.Scope, msg types.MsgTimeoutOnClose) ([]module.Event, error) {
	p := msg.Packet
	ch, err := k.channel(s, p.SourcePort, p.SourceChannel)
	if err != nil {
		return nil, err
	}
	conn, err := k.connectionForChannel(s, ch.ConnectionHops)
	if err != nil {
		return nil, err
	}

	commitment, ok, err := k.commitments.Get(s, types.CommitmentKey(p.SourcePort, p.SourceChannel, p.Sequence))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []module.Event{types.NewPacketEvent(types.EventTypeTimeoutPacket, p)}, nil
	}
	if !bytes.Equal(commitment, types.CommitPacket(p)) {
		return nil, errorsmod.Wrap(types.ErrUnexpectedState, "commitment does not match packet")
	}

	expectedClosed := &types.ChannelEnd{
		State:    types.ChanClosed,
		Ordering: ch.Ordering,
		Counterparty: types.ChannelCounterparty{
			PortID:    p.SourcePort,
			ChannelID: p.SourceChannel,
		},
		ConnectionHops: []string{conn.Counterparty.ConnectionID},
		Version:        ch.Version,
	}
	closedPath := types.ChannelKey(ch.Counterparty.PortID, ch.Counterparty.ChannelID)
	if err := k.verifyMembership(s, conn.ClientID, msg.ProofClosed, closedPath, encodeChannel(expectedClosed)); err != nil {
		return nil, err
	}

	if ch.Ordering == types.Ordered {
		if err := k.verifyMembership(s, conn.ClientID, msg.ProofUnreceived,
			types.NextSequenceRecvKey(p.DestPort, p.DestChannel), seqBytes(msg.NextSequenceRecv)); err != nil {
			return nil, err
		}
		if msg.NextSequenceRecv > p.Sequence {
			return nil, errorsmod.Wrap(types.ErrUnexpectedState, "packet was already received")
		}
	} else {
		if err := k.verifyNonMembership(s, conn.ClientID, msg.ProofUnreceived,
			types.ReceiptKey(p.DestPort, p.DestChannel, p.Sequence)); err != nil {
			return nil, err
		}
	}

	if err := k.commitments.Delete(s, types.CommitmentKey(p.SourcePort, p.SourceChannel, p.Sequence)); err != nil {
		return nil, err
	}
	return []module.Event{types.NewPacketEvent(types.EventTypeTimeoutPacket, p)}, nil
}

func (k Keeper) checkPacketTimedOut(p types.Packet, blockTime blockTimeFunc, blockHeight types.Height) error {
	if p.TimeoutTimestamp != 0 && uint64(blockTime().UnixNano()) < p.TimeoutTimestamp {
		if p.TimeoutHeight.IsZero() || blockHeight.LT(p.TimeoutHeight) {
			return errorsmod.Wrap(types.ErrTimeout, "packet has not yet timed out")
		}
	}
	if p.TimeoutTimestamp == 0 && !p.TimeoutHeight.IsZero() && blockHeight.LT(p.TimeoutHeight) {
		return errorsmod.Wrap(types.ErrTimeout, "packet has not yet timed out")
	}
	return nil
}

func seqBytes(seq uint64) []byte {
	b, _ := substore.Uint64Codec{}.Marshal(seq)
	return b
}
