// Package types holds the IBC host module's (C7) domain types: client,
// connection, channel, and packet state, their messages, and the ICS-24
// path builders every sub-store key follows.
package types

import "fmt"

// ModuleName is the ibc module's store prefix and query-path segment.
const ModuleName = "ibc"

// Height identifies a consensus height within a revision, per ICS-02's
// (revision_number, revision_height) pair — the revision number changes
// only across a chain upgrade/fork, height monotonically increases within
// a revision.
type Height struct {
	RevisionNumber uint64
	RevisionHeight uint64
}

// IsZero reports whether h is the zero height (used as "not set").
func (h Height) IsZero() bool { return h.RevisionNumber == 0 && h.RevisionHeight == 0 }

// LT reports whether h is strictly less than other, comparing revision
// number first per ICS-02.
func (h Height) LT(other Height) bool {
	if h.RevisionNumber != other.RevisionNumber {
		return h.RevisionNumber < other.RevisionNumber
	}
	return h.RevisionHeight < other.RevisionHeight
}

// String renders height as "{revision}-{height}", ICS-24's path format.
func (h Height) String() string {
	return fmt.Sprintf("%d-%d", h.RevisionNumber, h.RevisionHeight)
}

// The following build the ICS-24 path segments spec.md §4.7 lists, rooted
// at the ibc sub-store's own prefix (the keeper's substore.Store already
// adds "ibc/" in front of whatever key these return, mirroring how
// x/bank/keeper paths are rooted at "bank/").

func ClientStateKey(clientID string) string {
	return fmt.Sprintf("clients/%s/clientState", clientID)
}

func ConsensusStateKey(clientID string, height Height) string {
	return fmt.Sprintf("clients/%s/consensusStates/%s", clientID, height)
}

func ConnectionKey(connectionID string) string {
	return fmt.Sprintf("connections/%s", connectionID)
}

func PortKey(portID string) string {
	return fmt.Sprintf("ports/%s", portID)
}

func ChannelKey(portID, channelID string) string {
	return fmt.Sprintf("channelEnds/ports/%s/channels/%s", portID, channelID)
}

func NextSequenceSendKey(portID, channelID string) string {
	return fmt.Sprintf("nextSequenceSend/ports/%s/channels/%s", portID, channelID)
}

func NextSequenceRecvKey(portID, channelID string) string {
	return fmt.Sprintf("nextSequenceRecv/ports/%s/channels/%s", portID, channelID)
}

func NextSequenceAckKey(portID, channelID string) string {
	return fmt.Sprintf("nextSequenceAck/ports/%s/channels/%s", portID, channelID)
}

func CommitmentKey(portID, channelID string, sequence uint64) string {
	return fmt.Sprintf("commitments/ports/%s/channels/%s/sequences/%d", portID, channelID, sequence)
}

func ReceiptKey(portID, channelID string, sequence uint64) string {
	return fmt.Sprintf("receipts/ports/%s/channels/%s/sequences/%d", portID, channelID, sequence)
}

func AckKey(portID, channelID string, sequence uint64) string {
	return fmt.Sprintf("acks/ports/%s/channels/%s/sequences/%d", portID, channelID, sequence)
}

// UpgradedClientKey and UpgradedConsensusStateKey are the counterparty-side
// paths a chain preparing for an upgrade commits its post-upgrade client and
// consensus state under (ICS-02), proven against the pre-upgrade client's
// trusted root by MsgUpgradeClient.
func UpgradedClientKey(height Height) string {
	return fmt.Sprintf("upgradedClient/%s", height)
}

func UpgradedConsensusStateKey(height Height) string {
	return fmt.Sprintf("upgradedConsState/%s", height)
}
