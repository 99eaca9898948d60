package keeper

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/tokenize-x/tx-chain/v6/internal/merkle"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/x/ibc/types"
)

// counterpartyPath roots an ICS-24 path (as the types package's key
// builders return it, e.g. "connections/{id}") at the counterparty
// chain's ibc sub-store prefix, mirroring how this chain's own substore.
// Store commits the same path under "ibc/" (keeper.go's substore.New(p,
// ...)). Both sides of a connection run the same module, so both commit
// and verify against this same rooted path.
func counterpartyPath(path string) string {
	return types.ModuleName + "/" + path
}

// verifyMembership checks that proof attests value is present at path in
// the counterparty chain's state as trusted by clientID's consensus state
// at proof.Height, using the same ICS-23 spec the local Merkle overlay
// commits to (internal/merkle), since both sides of a connection run this
// module's tree construction.
func (k Keeper) verifyMembership(s *scope.Scope, clientID string, proof types.Proof, path string, value []byte) error {
	cons, err := k.consensusState(s, clientID, proof.Height)
	if err != nil {
		return err
	}
	rooted := counterpartyPath(path)
	if !merkle.Verify(cons.Root, proof.Data, rooted, value) {
		return errorsmod.Wrapf(types.ErrInvalidProof, "membership proof failed for %s at %s", rooted, proof.Height)
	}
	return nil
}

// verifyNonMembership checks that proof attests path is absent from the
// counterparty's state, used by packet timeouts.
func (k Keeper) verifyNonMembership(s *scope.Scope, clientID string, proof types.Proof, path string) error {
	cons, err := k.consensusState(s, clientID, proof.Height)
	if err != nil {
		return err
	}
	rooted := counterpartyPath(path)
	if !merkle.Verify(cons.Root, proof.Data, rooted, nil) {
		return errorsmod.Wrapf(types.ErrInvalidProof, "non-membership proof failed for %s at %s", rooted, proof.Height)
	}
	return nil
}
