// Package app's abci.go is the ABCI transport adapter (ambient to the
// hard core, spec.md §1's "ABCI transport/codec... consumed as opaque
// operations"): it implements cometbft's abci/types.Application directly
// — the thing aggregator.go's own doc comment says is "this module['s]
// own entry point (cmd/txd)"'s job — translating cometbft v0.38's
// FinalizeBlock-era request/response shapes onto the eight named
// Aggregator calls spec.md §6 lists (InitChain, Info, Query, CheckTx,
// BeginBlock, DeliverTx, EndBlock, Commit). v0.37 differs only in
// splitting FinalizeBlock back into separate BeginBlock/DeliverTx/
// EndBlock ABCI calls; Aggregator already exposes those as separate
// methods for exactly that reason, so a v0.37 transport wrapper is a
// thinner version of this same file.
package app

import (
	"context"
	"encoding/json"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtcrypto "github.com/cometbft/cometbft/proto/tendermint/crypto"
	gogoproto "github.com/cosmos/gogoproto/proto"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/store"
)

// TxDecoder turns raw transaction bytes into the already-routable form
// Aggregator.CheckTx/DeliverTx expect. Signature verification is an
// external capability the decoder may call into before returning;
// ABCIApplication never inspects it.
type TxDecoder func(raw []byte) (Tx, error)

// ABCIApplication adapts an Aggregator to cometbft's abci/types.Application
// contract (C9's sibling on the consensus-facing side, as opposed to the
// client-facing gRPC query surface in grpcserver.go).
type ABCIApplication struct {
	agg        *Aggregator
	decodeTx   TxDecoder
	logger     log.Logger
	appVersion uint64
}

var _ abcitypes.Application = (*ABCIApplication)(nil)

// NewABCIApplication wires agg behind the ABCI boundary.
func NewABCIApplication(agg *Aggregator, decodeTx TxDecoder, logger log.Logger) *ABCIApplication {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &ABCIApplication{agg: agg, decodeTx: decodeTx, logger: logger, appVersion: 1}
}

// Info implements abci/types.Application.
func (a *ABCIApplication) Info(context.Context, *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	hash, rev, version := a.agg.Info()
	return &abcitypes.ResponseInfo{
		Data:             version,
		AppVersion:       a.appVersion,
		LastBlockHeight:  int64(rev),
		LastBlockAppHash: hash,
	}, nil
}

// InitChain implements abci/types.Application: the genesis JSON arrives as
// cometbft's AppStateBytes, passed straight through to Aggregator.InitChain
// (spec.md §6's genesis format).
func (a *ABCIApplication) InitChain(_ context.Context, req *abcitypes.RequestInitChain) (*abcitypes.ResponseInitChain, error) {
	if err := a.agg.InitChain(json.RawMessage(req.AppStateBytes)); err != nil {
		return nil, err
	}
	hash, _, _ := a.agg.Info()
	return &abcitypes.ResponseInitChain{AppHash: hash}, nil
}

// Query implements abci/types.Application, routing by leading path segment
// (spec.md §6) and attaching an ICS-23 proof when requested and available.
func (a *ABCIApplication) Query(_ context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	resp, err := a.agg.Query(module.QueryRequest{
		Path:     req.Path,
		Data:     req.Data,
		Revision: store.Revision(req.Height),
		Prove:    req.Prove,
	})
	if err != nil {
		codespace, code, log := errorsmod.ABCIInfo(err, false)
		if errorsmod.IsOf(err, module.ErrQueryNotFound) {
			code = 1
		}
		return &abcitypes.ResponseQuery{Code: code, Codespace: codespace, Log: log}, nil
	}

	out := &abcitypes.ResponseQuery{
		Code:   0,
		Value:  resp.Value,
		Height: int64(resp.Revision),
	}
	if resp.Proof != nil {
		data, merr := gogoproto.Marshal(resp.Proof)
		if merr != nil {
			return nil, fmt.Errorf("app: marshal ics23 proof: %w", merr)
		}
		out.ProofOps = &cmtcrypto.ProofOps{
			Ops: []cmtcrypto.ProofOp{{Type: "ics23:simple", Key: []byte(req.Path), Data: data}},
		}
	}
	return out, nil
}

// CheckTx implements abci/types.Application, decoding raw with the
// injected TxDecoder before dispatching to Aggregator.CheckTx.
func (a *ABCIApplication) CheckTx(_ context.Context, req *abcitypes.RequestCheckTx) (*abcitypes.ResponseCheckTx, error) {
	tx, err := a.decodeTx(req.Tx)
	if err != nil {
		return &abcitypes.ResponseCheckTx{Code: 1, Codespace: "router", Log: err.Error()}, nil
	}
	result := a.agg.CheckTx(tx)
	return txResultToCheckTx(result), nil
}

// FinalizeBlock implements abci/types.Application: cometbft 0.38 folds
// BeginBlock/DeliverTx*/EndBlock into one call. Aggregator still exposes
// them separately (spec.md §4.8), so this is the transport-level fold
// the doc comment at the top of this file describes.
func (a *ABCIApplication) FinalizeBlock(_ context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	header := module.BlockHeader{
		Height:          req.Height,
		Time:            req.Time,
		ProposerAddress: fmt.Sprintf("%X", req.ProposerAddress),
	}
	beginEvents := a.agg.BeginBlock(header)

	txResults := make([]*abcitypes.ExecTxResult, len(req.Txs))
	for i, raw := range req.Txs {
		tx, err := a.decodeTx(raw)
		if err != nil {
			txResults[i] = &abcitypes.ExecTxResult{Code: 1, Codespace: "router", Log: err.Error()}
			continue
		}
		result := a.agg.DeliverTx(tx)
		txResults[i] = txResultToExecTxResult(result)
	}
	a.agg.EndBlock()

	// cometbft 0.38 moved the app-hash from ResponseCommit to
	// ResponseFinalizeBlock, so the root that spec.md §4.8 describes
	// Commit as producing has to already exist by the time this method
	// returns. Since spec.md's Non-goals rule out on-disk persistence
	// beyond process lifetime, folding Aggregator.Commit into
	// FinalizeBlock (rather than staging a preview hash and only
	// flushing on the later Commit call) costs nothing a real
	// durable-storage backend would need to preserve.
	hash, err := a.agg.Commit()
	if err != nil {
		return nil, err
	}

	events := make([]abcitypes.Event, 0, len(beginEvents))
	for _, ev := range beginEvents {
		events = append(events, eventToABCI(ev))
	}

	return &abcitypes.ResponseFinalizeBlock{
		Events:    events,
		TxResults: txResults,
		AppHash:   hash,
	}, nil
}

// Commit implements abci/types.Application. The state mutation it
// nominally finalizes already happened in FinalizeBlock (see the comment
// there); this only resets the mempool check-scope for the next height.
func (a *ABCIApplication) Commit(context.Context, *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	a.agg.ResetCheckState()
	return &abcitypes.ResponseCommit{}, nil
}

// PrepareProposal implements abci/types.Application as the identity
// proposal builder: every consensus-supplied tx is included in order,
// capped at MaxTxBytes. Non-goals (spec.md §1) exclude mempool/proposer
// selection policy beyond this.
func (a *ABCIApplication) PrepareProposal(_ context.Context, req *abcitypes.RequestPrepareProposal) (*abcitypes.ResponsePrepareProposal, error) {
	var total int64
	txs := make([][]byte, 0, len(req.Txs))
	for _, tx := range req.Txs {
		total += int64(len(tx))
		if req.MaxTxBytes > 0 && total > req.MaxTxBytes {
			break
		}
		txs = append(txs, tx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

// ProcessProposal implements abci/types.Application, accepting every
// proposal: signature/proof validity is re-checked per-tx during
// FinalizeBlock, and spec.md has no separate proposer-slashing concept.
func (a *ABCIApplication) ProcessProposal(context.Context, *abcitypes.RequestProcessProposal) (*abcitypes.ResponseProcessProposal, error) {
	return &abcitypes.ResponseProcessProposal{Status: abcitypes.PROCESS_PROPOSAL_STATUS_ACCEPT}, nil
}

// ExtendVote/VerifyVoteExtension implement abci/types.Application as
// no-ops: vote extensions are a validator-set concern, and spec.md's
// Non-goals exclude "validator-set management beyond echoing
// consensus-supplied updates".
func (a *ABCIApplication) ExtendVote(context.Context, *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (a *ABCIApplication) VerifyVoteExtension(context.Context, *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.RESPONSE_VERIFY_VOTE_EXTENSION_STATUS_ACCEPT}, nil
}

// Snapshot RPCs implement abci/types.Application as empty responses:
// spec.md's Non-goals rule out "on-disk persistence beyond process
// lifetime", so there is nothing to snapshot.
func (a *ABCIApplication) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (a *ABCIApplication) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{Result: abcitypes.OFFER_SNAPSHOT_RESULT_ABORT}, nil
}

func (a *ABCIApplication) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (a *ABCIApplication) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{Result: abcitypes.APPLY_SNAPSHOT_CHUNK_RESULT_ABORT}, nil
}

func txResultToCheckTx(r TxResult) *abcitypes.ResponseCheckTx {
	if r.Error != nil {
		codespace, code, log := errorsmod.ABCIInfo(r.Error, false)
		return &abcitypes.ResponseCheckTx{Code: code, Codespace: codespace, Log: log}
	}
	return &abcitypes.ResponseCheckTx{Code: 0, Events: eventsToABCI(r.Events)}
}

func txResultToExecTxResult(r TxResult) *abcitypes.ExecTxResult {
	if r.Error != nil {
		codespace, code, log := errorsmod.ABCIInfo(r.Error, false)
		return &abcitypes.ExecTxResult{Code: code, Codespace: codespace, Log: log}
	}
	return &abcitypes.ExecTxResult{Code: 0, Events: eventsToABCI(r.Events)}
}

func eventsToABCI(evs []module.Event) []abcitypes.Event {
	out := make([]abcitypes.Event, 0, len(evs))
	for _, ev := range evs {
		out = append(out, eventToABCI(ev))
	}
	return out
}

func eventToABCI(ev module.Event) abcitypes.Event {
	attrs := make([]abcitypes.EventAttribute, 0, len(ev.Attributes))
	for _, a := range ev.Attributes {
		attrs = append(attrs, abcitypes.EventAttribute{Key: a.Key, Value: a.Value, Index: true})
	}
	return abcitypes.Event{Type: ev.Type, Attributes: attrs}
}
