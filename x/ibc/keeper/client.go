package keeper

import (
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/internal/wire"
	"github.com/tokenize-x/tx-chain/v6/x/ibc/types"
)

func encodeClientState(cs *types.ClientState) []byte {
	w := wire.NewWriter()
	cs.MarshalWire(w)
	return w.Out()
}

func encodeConsensusState(cons *types.ConsensusState) []byte {
	w := wire.NewWriter()
	cons.MarshalWire(w)
	return w.Out()
}

func (k Keeper) nextClientID(s *scope.Scope) (string, error) {
	seq, _, err := k.nextClientSequence.Get(s, "client")
	if err != nil {
		return "", err
	}
	if err := k.nextClientSequence.Set(s, "client", seq+1); err != nil {
		return "", err
	}
	return fmt.Sprintf("07-tendermint-%d", seq), nil
}

func (k Keeper) client(s *scope.Scope, clientID string) (*types.ClientState, error) {
	cs, ok, err := k.clientStates.Get(s, types.ClientStateKey(clientID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrInvalidClient, "no client %s", clientID)
	}
	return cs, nil
}

func (k Keeper) consensusState(s *scope.Scope, clientID string, height types.Height) (*types.ConsensusState, error) {
	cons, ok, err := k.consensusStates.Get(s, types.ConsensusStateKey(clientID, height))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrInvalidClient, "no consensus state for %s at %s", clientID, height)
	}
	return cons, nil
}

func (k Keeper) setConsensusState(s *scope.Scope, clientID string, height types.Height, cons *types.ConsensusState) error {
	return k.consensusStates.Set(s, types.ConsensusStateKey(clientID, height), cons)
}

// CreateClient implements MsgCreateClient: registers a new client trusting
// ClientState as of ConsensusState (spec.md §4.7 Client: Create).
func (k Keeper) CreateClient(s *scope.Scope, msg types.MsgCreateClient) (string, []module.Event, error) {
	clientID := msg.ClientID
	if clientID == "" {
		var err error
		if clientID, err = k.nextClientID(s); err != nil {
			return "", nil, err
		}
	}
	cs := msg.ClientState
	if err := k.clientStates.Set(s, types.ClientStateKey(clientID), &cs); err != nil {
		return "", nil, err
	}
	cons := msg.ConsensusState
	if err := k.setConsensusState(s, clientID, cs.LatestHeight, &cons); err != nil {
		return "", nil, err
	}
	return clientID, []module.Event{types.NewClientEvent(types.EventTypeCreateClient, clientID, cs.LatestHeight)}, nil
}

// UpdateClient implements MsgUpdateClient: verifies Header against the
// client's bound HeaderVerifier and, on success, advances its latest
// trusted height (spec.md §4.7).
func (k Keeper) UpdateClient(s *scope.Scope, msg types.MsgUpdateClient) ([]module.Event, error) {
	cs, err := k.client(s, msg.ClientID)
	if err != nil {
		return nil, err
	}
	if !cs.FrozenHeight.IsZero() {
		return nil, errorsmod.Wrapf(types.ErrUnexpectedState, "client %s is frozen", msg.ClientID)
	}
	verifier, ok := k.verifiers[cs.ChainID]
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrInvalidClient, "no header verifier registered for chain %s", cs.ChainID)
	}
	trusted, err := k.consensusState(s, msg.ClientID, cs.LatestHeight)
	if err != nil {
		return nil, err
	}
	newConsensus, err := verifier.Verify(cs, trusted, msg.Header)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidProof, "header verification: %v", err)
	}

	if err := k.setConsensusState(s, msg.ClientID, msg.Header.Height, &newConsensus); err != nil {
		return nil, err
	}
	if cs.LatestHeight.LT(msg.Header.Height) {
		cs.LatestHeight = msg.Header.Height
	}
	if err := k.clientStates.Set(s, types.ClientStateKey(msg.ClientID), cs); err != nil {
		return nil, err
	}
	return []module.Event{types.NewClientEvent(types.EventTypeUpdateClient, msg.ClientID, msg.Header.Height)}, nil
}

// UpgradeClient implements MsgUpgradeClient: spec.md §4.7's Client: Upgrade
// transition. The counterparty chain commits its post-upgrade client and
// consensus state under the fixed ICS-02 upgrade paths before halting;
// this verifies both were committed (via membership proofs against the
// subject client's current trusted root) and then adopts them, keeping
// the client's own ID.
func (k Keeper) UpgradeClient(s *scope.Scope, msg types.MsgUpgradeClient) ([]module.Event, error) {
	cs, err := k.client(s, msg.ClientID)
	if err != nil {
		return nil, err
	}
	if !cs.FrozenHeight.IsZero() {
		return nil, errorsmod.Wrapf(types.ErrUnexpectedState, "client %s is frozen", msg.ClientID)
	}

	upgradeHeight := msg.UpgradedClient.LatestHeight
	clientPath := types.UpgradedClientKey(upgradeHeight)
	if err := k.verifyMembership(s, msg.ClientID, msg.ProofUpgradeClient, clientPath, encodeClientState(&msg.UpgradedClient)); err != nil {
		return nil, errorsmod.Wrap(err, "upgraded client state")
	}
	consPath := types.UpgradedConsensusStateKey(upgradeHeight)
	if err := k.verifyMembership(s, msg.ClientID, msg.ProofUpgradeConsensusState, consPath, encodeConsensusState(&msg.UpgradedConsensusState)); err != nil {
		return nil, errorsmod.Wrap(err, "upgraded consensus state")
	}

	newState := msg.UpgradedClient
	newState.FrozenHeight = types.Height{}
	if err := k.clientStates.Set(s, types.ClientStateKey(msg.ClientID), &newState); err != nil {
		return nil, err
	}
	newCons := msg.UpgradedConsensusState
	if err := k.setConsensusState(s, msg.ClientID, upgradeHeight, &newCons); err != nil {
		return nil, err
	}
	return []module.Event{types.NewClientEvent(types.EventTypeUpgradeClient, msg.ClientID, upgradeHeight)}, nil
}

// RecoverClient implements spec.md §4.7's client-recovery algorithm:
// replace an Expired or Frozen subject client's state with an Active
// substitute's, keeping the subject's ID.
func (k Keeper) RecoverClient(s *scope.Scope, msg types.MsgRecoverClient, blockTime blockTimeFunc) ([]module.Event, error) {
	subject, err := k.client(s, msg.SubjectClientID)
	if err != nil {
		return nil, err
	}
	substitute, err := k.client(s, msg.SubstituteClientID)
	if err != nil {
		return nil, err
	}

	subjectTrusted, err := k.consensusState(s, msg.SubjectClientID, subject.LatestHeight)
	if err != nil {
		return nil, err
	}
	now := blockTime()
	if subject.Status(subjectTrusted.Timestamp, now) == types.StatusActive {
		return nil, errorsmod.Wrap(types.ErrUnexpectedState, "subject client is Active, recovery not permitted")
	}
	substituteTrusted, err := k.consensusState(s, msg.SubstituteClientID, substitute.LatestHeight)
	if err != nil {
		return nil, err
	}
	if substitute.Status(substituteTrusted.Timestamp, now) != types.StatusActive {
		return nil, errorsmod.Wrap(types.ErrUnexpectedState, "substitute client is not Active")
	}
	if subject.ChainID != substitute.ChainID {
		return nil, errorsmod.Wrap(types.ErrInvalidClient, "subject and substitute track different chains")
	}

	if err := k.setConsensusState(s, msg.SubjectClientID, substitute.LatestHeight, substituteTrusted); err != nil {
		return nil, err
	}
	subject.LatestHeight = substitute.LatestHeight
	subject.FrozenHeight = types.Height{}
	if err := k.clientStates.Set(s, types.ClientStateKey(msg.SubjectClientID), subject); err != nil {
		return nil, err
	}
	return []module.Event{types.NewClientEvent(types.EventTypeRecoverClient, msg.SubjectClientID, subject.LatestHeight)}, nil
}

// blockTimeFunc supplies the consensus-reported block time a client's
// Active/Expired status is computed against (spec.md §4.7, §5: packet
// timeouts and client expiry use consensus time, never wall time).
type blockTimeFunc func() time.Time
