package types

import (
	errorsmod "cosmossdk.io/errors"
	ics23 "github.com/cosmos/ics23/go"
)

// Type URLs the router dispatches IBC messages on (spec.md §4.7's message
// list), namespaced the same way the bank module's are
// (x/bank/types/msg.go).
const (
	MsgCreateClientTypeURL  = "/tx-chain.ibc.v1.MsgCreateClient"
	MsgUpdateClientTypeURL  = "/tx-chain.ibc.v1.MsgUpdateClient"
	MsgUpgradeClientTypeURL = "/tx-chain.ibc.v1.MsgUpgradeClient"
	MsgRecoverClientTypeURL = "/tx-chain.ibc.v1.MsgRecoverClient"

	MsgConnOpenInitTypeURL    = "/tx-chain.ibc.v1.MsgConnectionOpenInit"
	MsgConnOpenTryTypeURL     = "/tx-chain.ibc.v1.MsgConnectionOpenTry"
	MsgConnOpenAckTypeURL     = "/tx-chain.ibc.v1.MsgConnectionOpenAck"
	MsgConnOpenConfirmTypeURL = "/tx-chain.ibc.v1.MsgConnectionOpenConfirm"

	MsgChanOpenInitTypeURL     = "/tx-chain.ibc.v1.MsgChannelOpenInit"
	MsgChanOpenTryTypeURL      = "/tx-chain.ibc.v1.MsgChannelOpenTry"
	MsgChanOpenAckTypeURL      = "/tx-chain.ibc.v1.MsgChannelOpenAck"
	MsgChanOpenConfirmTypeURL  = "/tx-chain.ibc.v1.MsgChannelOpenConfirm"
	MsgChanCloseInitTypeURL    = "/tx-chain.ibc.v1.MsgChannelCloseInit"
	MsgChanCloseConfirmTypeURL = "/tx-chain.ibc.v1.MsgChannelCloseConfirm"

	MsgRecvPacketTypeURL        = "/tx-chain.ibc.v1.MsgRecvPacket"
	MsgAcknowledgePacketTypeURL = "/tx-chain.ibc.v1.MsgAcknowledgePacket"
	MsgTimeoutPacketTypeURL     = "/tx-chain.ibc.v1.MsgTimeoutPacket"
	MsgTimeoutOnCloseTypeURL    = "/tx-chain.ibc.v1.MsgTimeoutOnClose"
)

// Proof bundles an ICS-23 existence (or non-existence) proof together with
// the height it was generated at and the raw path it proves, as carried on
// the wire by every handshake/packet message that needs one.
type Proof struct {
	Height Height
	Data   *ics23.CommitmentProof
	Path   string
}

// MsgCreateClient creates a new client that trusts ConsensusState at
// ClientState.LatestHeight (spec.md §4.7 Client: Create). An empty
// ClientID has one minted from the client counter.
type MsgCreateClient struct {
	ClientID       string
	ClientState    ClientState
	ConsensusState ConsensusState
}

func (MsgCreateClient) TypeURL() string { return MsgCreateClientTypeURL }

// MsgUpdateClient advances ClientID's trusted state using Header, verified
// by the client's bound HeaderVerifier.
type MsgUpdateClient struct {
	ClientID string
	Header   Header
}

func (MsgUpdateClient) TypeURL() string { return MsgUpdateClientTypeURL }

// MsgUpgradeClient replaces ClientID's state with UpgradedClient/
// UpgradedConsensusState once the counterparty chain has committed both
// under the fixed ICS-02 upgrade paths at the upgrade height, proven by
// ProofUpgradeClient/ProofUpgradeConsensusState against the client's
// current trusted root (spec.md §4.7 Client: Upgrade).
type MsgUpgradeClient struct {
	ClientID                   string
	UpgradedClient             ClientState
	UpgradedConsensusState     ConsensusState
	ProofUpgradeClient         Proof
	ProofUpgradeConsensusState Proof
}

func (MsgUpgradeClient) TypeURL() string { return MsgUpgradeClientTypeURL }

// MsgRecoverClient replaces Subject's client state with Substitute's,
// per spec.md §4.7's client-recovery algorithm.
type MsgRecoverClient struct {
	SubjectClientID    string
	SubstituteClientID string
}

func (MsgRecoverClient) TypeURL() string { return MsgRecoverClientTypeURL }

// MsgConnectionOpenInit begins a connection handshake from this chain.
type MsgConnectionOpenInit struct {
	ClientID     string
	Counterparty Counterparty
	Version      string
}

func (MsgConnectionOpenInit) TypeURL() string { return MsgConnOpenInitTypeURL }

// MsgConnectionOpenTry accepts a counterparty's OpenInit, proven by
// ProofInit: a membership proof of the counterparty's INIT connection end
// at ProofHeight.
type MsgConnectionOpenTry struct {
	ClientID     string
	Counterparty Counterparty
	Version      string
	ProofInit    Proof
}

func (MsgConnectionOpenTry) TypeURL() string { return MsgConnOpenTryTypeURL }

// MsgConnectionOpenAck moves a connection from INIT to OPEN, proven by
// ProofTry: a membership proof of the counterparty's TRYOPEN end.
type MsgConnectionOpenAck struct {
	ConnectionID           string
	CounterpartyConnection string
	Version                string
	ProofTry               Proof
}

func (MsgConnectionOpenAck) TypeURL() string { return MsgConnOpenAckTypeURL }

// MsgConnectionOpenConfirm moves a connection from TRYOPEN to OPEN, proven
// by ProofAck: a membership proof of the counterparty's now-OPEN end.
type MsgConnectionOpenConfirm struct {
	ConnectionID string
	ProofAck     Proof
}

func (MsgConnectionOpenConfirm) TypeURL() string { return MsgConnOpenConfirmTypeURL }

// MsgChannelOpenInit begins a channel handshake over an already-OPEN
// connection.
type MsgChannelOpenInit struct {
	PortID         string
	Ordering       Ordering
	ConnectionHops []string
	Counterparty   ChannelCounterparty
	Version        string
}

func (MsgChannelOpenInit) TypeURL() string { return MsgChanOpenInitTypeURL }

// MsgChannelOpenTry accepts a counterparty's channel OpenInit, proven by
// ProofInit.
type MsgChannelOpenTry struct {
	PortID         string
	Ordering       Ordering
	ConnectionHops []string
	Counterparty   ChannelCounterparty
	Version        string
	ProofInit      Proof
}

func (MsgChannelOpenTry) TypeURL() string { return MsgChanOpenTryTypeURL }

// MsgChannelOpenAck moves a channel to OPEN, proven by ProofTry.
type MsgChannelOpenAck struct {
	PortID                string
	ChannelID             string
	CounterpartyChannelID string
	Version               string
	ProofTry              Proof
}

func (MsgChannelOpenAck) TypeURL() string { return MsgChanOpenAckTypeURL }

// MsgChannelOpenConfirm completes a channel handshake, proven by ProofAck.
type MsgChannelOpenConfirm struct {
	PortID    string
	ChannelID string
	ProofAck  Proof
}

func (MsgChannelOpenConfirm) TypeURL() string { return MsgChanOpenConfirmTypeURL }

// MsgChannelCloseInit begins closing a channel from this chain.
type MsgChannelCloseInit struct {
	PortID    string
	ChannelID string
}

func (MsgChannelCloseInit) TypeURL() string { return MsgChanCloseInitTypeURL }

// MsgChannelCloseConfirm completes closing a channel, proven by the
// counterparty's CLOSED state.
type MsgChannelCloseConfirm struct {
	PortID    string
	ChannelID string
	ProofInit Proof
}

func (MsgChannelCloseConfirm) TypeURL() string { return MsgChanCloseConfirmTypeURL }

// MsgRecvPacket delivers Packet, proven by ProofCommitment: a membership
// proof of the packet's commitment on the sending chain.
type MsgRecvPacket struct {
	Packet          Packet
	ProofCommitment Proof
}

func (MsgRecvPacket) TypeURL() string { return MsgRecvPacketTypeURL }

// MsgAcknowledgePacket delivers Acknowledgement back to the packet's
// sender, proven by ProofAcked: a membership proof of the ack on the
// receiving chain.
type MsgAcknowledgePacket struct {
	Packet          Packet
	Acknowledgement []byte
	ProofAcked      Proof
}

func (MsgAcknowledgePacket) TypeURL() string { return MsgAcknowledgePacketTypeURL }

// MsgTimeoutPacket proves Packet was never received by its timeout, via
// ProofUnreceived: on UNORDERED channels a non-membership proof of the
// packet's receipt, on ORDERED channels a membership proof that the
// counterparty's nextSequenceRecv equals NextSequenceRecv.
type MsgTimeoutPacket struct {
	Packet          Packet
	ProofUnreceived Proof
	NextSequenceRecv uint64
}

func (MsgTimeoutPacket) TypeURL() string { return MsgTimeoutPacketTypeURL }

// MsgTimeoutOnClose is MsgTimeoutPacket for a channel the counterparty has
// already closed, additionally proven by ProofClosed.
type MsgTimeoutOnClose struct {
	Packet           Packet
	ProofUnreceived  Proof
	ProofClosed      Proof
	NextSequenceRecv uint64
}

func (MsgTimeoutOnClose) TypeURL() string { return MsgTimeoutOnCloseTypeURL }

// errInvalid is a small helper matching x/bank/types' ValidateBasic
// convention for wrapping a field-level validation failure.
func errInvalid(msg string) error {
	return errorsmod.Wrap(ErrInvalidMessage, msg)
}
