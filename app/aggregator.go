// Package app implements the application aggregator (C8): the component
// that holds every module in fixed order and drives them through the
// init_chain/info/query/check_tx/begin_block/deliver_tx/commit lifecycle
// spec.md §4.8 and §6 describe. It deliberately does not implement
// cometbft's abci.Application interface directly — spec.md §1 scopes "the
// ABCI transport/codec" out as "consumed as opaque operations", and the
// exact ABCI++ (FinalizeBlock-era) method set is a transport detail this
// module is free to wrap however its own entry point (cmd/txd) chooses.
// Aggregator exposes the same eight operations under its own names so a
// thin adapter can bind them to whichever ABCI wire version a deployment
// needs.
package app

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/log"

	"github.com/tokenize-x/tx-chain/v6/internal/merkle"
	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/internal/store"
)

// TxResult is one transaction's outcome within a DeliverTx batch: either
// every message's events, or the error that aborted it (spec.md §7: "no
// unwinding is used for control flow... handler errors at tx-level are
// equivalent from the ledger's perspective").
type TxResult struct {
	Events []module.Event
	Error  error
}

// Tx is the already-decoded unit of work DeliverTx/CheckTx execute.
// Signature verification happens upstream of the aggregator (spec.md §4.8:
// "validates signatures externally"); a Tx here is just an ordered list of
// routable messages.
type Tx struct {
	Messages []module.Msg
}

// Aggregator wires the router, the versioned store, and the Merkle
// overlay into the block-execution lifecycle.
type Aggregator struct {
	router *module.Router
	store  *store.Store
	logger log.Logger

	provablePrefixes    []string
	nonProvablePrefixes []string

	deliverScope *scope.Scope
	checkScope   *scope.Scope

	tree *merkle.Tree
}

// New constructs an Aggregator over router's fixed module order and a
// fresh store with the given retention policy (spec.md's Open Question on
// historical-snapshot retention: resolved here as a caller-supplied,
// configurable bound — 0 keeps everything, see DESIGN.md).
func New(router *module.Router, retain int, logger log.Logger) *Aggregator {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	st := store.New(retain)
	prefixes := make([]string, 0, len(router.Modules()))
	var excluded []string
	for _, m := range router.Modules() {
		prefixes = append(prefixes, m.StorePrefix())
		excluded = append(excluded, m.NonProvablePrefixes()...)
	}
	a := &Aggregator{
		router:              router,
		store:               st,
		logger:              logger,
		provablePrefixes:    prefixes,
		nonProvablePrefixes: excluded,
		tree:                merkle.Build(nil),
	}
	a.resetScopes()
	return a
}

func (a *Aggregator) resetScopes() {
	base := a.store.At(store.Latest)
	a.deliverScope = scope.New(scope.Deliver, base)
	a.checkScope = scope.New(scope.Check, base)
}

// InitChain parses the chain-wide genesis JSON and calls every module's
// InitGenesis in fixed registration order (spec.md §4.8).
func (a *Aggregator) InitChain(genesisJSON json.RawMessage) error {
	for _, m := range a.router.Modules() {
		if err := m.InitGenesis(a.deliverScope, genesisJSON); err != nil {
			return fmt.Errorf("app: init_chain: module %s: %w", m.Name(), err)
		}
	}
	if _, err := a.Commit(); err != nil {
		return fmt.Errorf("app: init_chain: commit genesis state: %w", err)
	}
	return nil
}

// Info reports the current app-hash, revision, and a fixed version string
// (spec.md §4.8, §6).
func (a *Aggregator) Info() (appHash []byte, revision store.Revision, version string) {
	return a.tree.Root(), a.store.LatestRevision(), "tx-chain/1"
}

// CheckTx runs every message in tx against the mempool check-scope,
// returning on the first handler error (spec.md §4.8: "dispatches each
// message to check").
func (a *Aggregator) CheckTx(tx Tx) TxResult {
	txScope := a.checkScope.Child()
	events, err := a.runMessages(txScope, tx, false)
	if err != nil {
		txScope.Drop()
		return TxResult{Error: err}
	}
	txScope.Merge(a.checkScope)
	return TxResult{Events: events}
}

// ResetCheckState discards the mempool check-scope's overlay, used
// between blocks once check_tx candidates have been re-validated against
// newly committed state.
func (a *Aggregator) ResetCheckState() {
	a.checkScope = scope.New(scope.Check, a.store.At(store.Latest))
}

// BeginBlock updates block context and calls every module's BeginBlock
// hook in fixed order, accumulating their events.
func (a *Aggregator) BeginBlock(header module.BlockHeader) []module.Event {
	var events []module.Event
	for _, m := range a.router.Modules() {
		evs, err := m.BeginBlock(a.deliverScope, header)
		if err != nil {
			a.logger.Error("begin_block hook failed", "module", m.Name(), "err", err)
			continue
		}
		events = append(events, evs...)
	}
	return events
}

// DeliverTx executes tx's messages against a per-transaction child of the
// block's deliver scope, merging its writes into the deliver scope on
// success or dropping them entirely on failure (spec.md §4.4, I5).
func (a *Aggregator) DeliverTx(tx Tx) TxResult {
	txScope := a.deliverScope.Child()
	events, err := a.runMessages(txScope, tx, true)
	if err != nil {
		txScope.Drop()
		return TxResult{Error: err}
	}
	txScope.Merge(a.deliverScope)
	return TxResult{Events: events}
}

func (a *Aggregator) runMessages(s *scope.Scope, tx Tx, deliver bool) ([]module.Event, error) {
	var events []module.Event
	for _, msg := range tx.Messages {
		m, err := a.router.Route(msg.TypeURL())
		if err != nil {
			return nil, err
		}
		var evs []module.Event
		if deliver {
			evs, err = m.Deliver(s, msg)
		} else {
			evs, err = m.Check(s, msg)
		}
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}
	return events, nil
}

// EndBlock is a no-op hook point: spec.md's module contract has no
// end_block method of its own (only begin_block), so there is nothing for
// modules to run here; it exists so the aggregator's lifecycle mirrors
// ABCI's eight named calls one-for-one (spec.md §6).
func (a *Aggregator) EndBlock() {}

// Commit flushes the deliver scope into the store, rebuilds the Merkle
// overlay from every provable prefix's committed entries, commits the
// store, and returns the new app-hash (spec.md §4.8).
func (a *Aggregator) Commit() ([]byte, error) {
	for _, op := range a.deliverScope.Ops() {
		if op.Deleted {
			a.store.Delete(op.Path)
		} else {
			a.store.Set(op.Path, op.Value)
		}
	}
	rev := a.store.Commit()

	tree, err := a.buildTree(rev)
	if err != nil {
		return nil, fmt.Errorf("app: commit: rebuild merkle overlay: %w", err)
	}
	a.tree = tree

	a.resetScopes()
	return a.tree.Root(), nil
}

// buildTree rebuilds the Merkle overlay for rev from the store's provable
// entries, excluding any path under a module's declared
// NonProvablePrefixes (I2) even though it shares a provable module's
// StorePrefix textually — e.g. the ibc module's "ibc/counters/..." ID
// sequences, which start with the provable "ibc" prefix but must never
// affect the app-hash.
func (a *Aggregator) buildTree(rev store.Revision) (*merkle.Tree, error) {
	entries, err := a.store.SnapshotEntries(rev, a.provablePrefixes)
	if err != nil {
		return nil, err
	}
	merkleEntries := make([]merkle.Entry, 0, len(entries))
	for _, e := range entries {
		if hasAnyPrefix(e.Path, a.nonProvablePrefixes) {
			continue
		}
		merkleEntries = append(merkleEntries, merkle.Entry{Path: e.Path, Value: e.Value})
	}
	return merkle.Build(merkleEntries), nil
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if len(path) >= len(p) && path[:len(p)] == p {
			return true
		}
	}
	return false
}

// Query routes a read request to the owning module and, if prove was
// requested against a provable path, attaches an ICS-23 proof from the
// tree of the requested revision (spec.md §4.8: "query routes by leading
// path segment").
func (a *Aggregator) Query(req module.QueryRequest) (module.QueryResponse, error) {
	m, err := a.router.RouteQuery(req.Path)
	if err != nil {
		return module.QueryResponse{}, err
	}

	revision := req.Revision
	if revision == store.Latest {
		revision = a.store.LatestRevision()
	}
	base := a.store.At(revision)
	qs := scope.New(scope.Query, base)

	resp, err := m.Query(qs, module.QueryRequest{Path: req.Path, Data: req.Data, Revision: revision, Prove: req.Prove})
	if err != nil {
		return module.QueryResponse{}, err
	}
	resp.Revision = revision

	if req.Prove {
		fullPath := resp.ProvenPath
		if fullPath == "" {
			fullPath = m.StorePrefix() + "/" + trimModulePrefix(req.Path, m.StorePrefix())
		}
		tree := a.tree
		if revision != a.store.LatestRevision() {
			// A proof must verify against the app-hash of the revision it
			// was generated at (P3), not the latest one this Aggregator
			// happens to be holding in memory.
			historical, err := a.buildTree(revision)
			if err != nil {
				return module.QueryResponse{}, fmt.Errorf("app: query: rebuild merkle overlay at revision %d: %w", revision, err)
			}
			tree = historical
		}
		resp.Proof = tree.Prove(fullPath)
	}
	return resp, nil
}

func trimModulePrefix(path, prefix string) string {
	trimmed := path
	for len(trimmed) > 0 && trimmed[0] == '/' {
		trimmed = trimmed[1:]
	}
	if len(trimmed) > len(prefix) && trimmed[:len(prefix)] == prefix {
		trimmed = trimmed[len(prefix):]
	}
	for len(trimmed) > 0 && trimmed[0] == '/' {
		trimmed = trimmed[1:]
	}
	return trimmed
}
