package types

import (
	"strconv"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
)

// Event types emitted by the IBC module's handlers (spec.md §3).
const (
	EventTypeCreateClient    = "create_client"
	EventTypeUpdateClient    = "update_client"
	EventTypeUpgradeClient   = "upgrade_client"
	EventTypeRecoverClient   = "recover_client"
	EventTypeConnectionOpen  = "connection_open"
	EventTypeChannelOpen     = "channel_open"
	EventTypeChannelClose    = "channel_close"
	EventTypeRecvPacket      = "recv_packet"
	EventTypeAcknowledgePacket = "acknowledge_packet"
	EventTypeTimeoutPacket   = "timeout_packet"
)

func NewClientEvent(eventType, clientID string, height Height) module.Event {
	return module.NewEvent(eventType,
		module.Attr("client_id", clientID),
		module.Attr("height", height.String()),
	)
}

func NewConnectionEvent(connectionID, clientID string, state ConnState) module.Event {
	return module.NewEvent(EventTypeConnectionOpen,
		module.Attr("connection_id", connectionID),
		module.Attr("client_id", clientID),
		module.Attr("state", connStateString(state)),
	)
}

func NewChannelEvent(eventType, portID, channelID string, state ChanState) module.Event {
	return module.NewEvent(eventType,
		module.Attr("port_id", portID),
		module.Attr("channel_id", channelID),
		module.Attr("state", chanStateString(state)),
	)
}

func NewPacketEvent(eventType string, p Packet) module.Event {
	return module.NewEvent(eventType,
		module.Attr("src_port", p.SourcePort),
		module.Attr("src_channel", p.SourceChannel),
		module.Attr("dst_port", p.DestPort),
		module.Attr("dst_channel", p.DestChannel),
		module.Attr("sequence", strconv.FormatUint(p.Sequence, 10)),
	)
}

func connStateString(s ConnState) string {
	switch s {
	case ConnInit:
		return "INIT"
	case ConnTryOpen:
		return "TRYOPEN"
	case ConnOpen:
		return "OPEN"
	default:
		return "UNINIT"
	}
}

func chanStateString(s ChanState) string {
	switch s {
	case ChanInit:
		return "INIT"
	case ChanTryOpen:
		return "TRYOPEN"
	case ChanOpen:
		return "OPEN"
	case ChanClosed:
		return "CLOSED"
	default:
		return "UNINIT"
	}
}
