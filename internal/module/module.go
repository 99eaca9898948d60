// Package module implements the module trait and router (C5) described in
// spec.md §4.5: an abstract module contract and a dispatcher that routes
// ABCI messages and queries to exactly one module by fully-qualified
// message type URL or leading query-path segment.
package module

import (
	"encoding/json"
	"time"

	errorsmod "cosmossdk.io/errors"
	ics23 "github.com/cosmos/ics23/go"

	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/internal/store"
)

// codespace for router-level errors (UNROUTABLE, see spec.md §7).
const codespace = "router"

// ErrUnroutable is returned when no registered module recognizes a
// message's type URL or a query's leading path segment.
var ErrUnroutable = errorsmod.Register(codespace, 1, "unroutable")

// ErrDuplicatePrefix is returned by a Router if two modules are
// registered with the same store prefix, violating I3.
var ErrDuplicatePrefix = errorsmod.Register(codespace, 2, "duplicate module store prefix")

// ErrDuplicateMessageType is returned by a Router if two modules claim the
// same fully-qualified message type URL.
var ErrDuplicateMessageType = errorsmod.Register(codespace, 3, "duplicate message type claimed by two modules")

// ErrQueryNotFound is returned by module Query implementations when the
// addressed entity does not exist at the requested revision (spec.md §7:
// QUERY_NOT_FOUND, surfaced as gRPC NOT_FOUND / ABCI code 1).
var ErrQueryNotFound = errorsmod.Register(codespace, 4, "query target not found")

// Msg is any application message a module can execute. TypeURL is the
// fully-qualified type name the router keys dispatch on (spec.md §4.5:
// "the router inspects each message's fully-qualified type URL").
type Msg interface {
	TypeURL() string
}

// EventAttribute is one key/value pair attached to an Event.
type EventAttribute struct {
	Key   string
	Value string
}

// Event is a module-emitted side effect of executing a message, surfaced
// to clients via ABCI tx results (spec.md §3).
type Event struct {
	Type       string
	Attributes []EventAttribute
}

// NewEvent is a small constructor for the common case of a handful of
// attributes known at the call site.
func NewEvent(eventType string, attrs ...EventAttribute) Event {
	return Event{Type: eventType, Attributes: attrs}
}

// Attr builds one EventAttribute.
func Attr(key, value string) EventAttribute { return EventAttribute{Key: key, Value: value} }

// BlockHeader carries the consensus-supplied context a module's
// begin_block hook needs (spec.md §4.5, §5).
type BlockHeader struct {
	Height          int64
	Time            time.Time
	ProposerAddress string
}

// QueryRequest describes a read against one module's query surface.
type QueryRequest struct {
	Path     string
	Data     []byte
	Revision store.Revision
	Prove    bool
}

// QueryResponse is a module query's result, with an optional ICS-23 proof
// when the request asked for one and the underlying sub-store is
// provable.
type QueryResponse struct {
	Value    []byte
	Proof    *ics23.CommitmentProof
	Revision store.Revision

	// ProvenPath is the exact Merkle-tree path Value was read from, set
	// by modules whose query-path naming (the external URL) diverges
	// from their sub-store key naming (e.g. IBC's ICS-24 paths). When
	// empty, the aggregator falls back to deriving a path from the
	// query URL and the module's store prefix.
	ProvenPath string
}

// Module is the abstract capability every module (bank, ibc, ...)
// implements (spec.md §4.5). The router holds modules behind this
// interface — a closed, compile-time-checked contract, not a
// string-keyed reflection table (spec.md §9).
type Module interface {
	Name() string
	StorePrefix() string
	MessageDomain() []string

	InitGenesis(s *scope.Scope, genesisJSON json.RawMessage) error
	Check(s *scope.Scope, msg Msg) ([]Event, error)
	Deliver(s *scope.Scope, msg Msg) ([]Event, error)
	BeginBlock(s *scope.Scope, header BlockHeader) ([]Event, error)
	Query(s *scope.Scope, req QueryRequest) (QueryResponse, error)

	// NonProvablePrefixes names the full store paths, nested under
	// StorePrefix, this module keeps out of the Merkle overlay (I2) —
	// e.g. sequence counters minted only for fresh IDs, never proven to
	// a relayer. The aggregator excludes these from every revision's
	// tree even though they share the module's StorePrefix textually.
	// A module with nothing to exclude returns nil.
	NonProvablePrefixes() []string
}

// Router dispatches by message type URL and by query-path leading
// segment. Module order is fixed at construction time (spec.md §4.5:
// "ordering of modules... is fixed at aggregator construction").
type Router struct {
	modules  []Module
	byType   map[string]Module
	byPrefix map[string]Module
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{
		byType:   make(map[string]Module),
		byPrefix: make(map[string]Module),
	}
}

// Register adds m to the router, appending it to the fixed module order.
// It fails if m's store prefix or any of its message types collides with
// an already-registered module (I3).
func (r *Router) Register(m Module) error {
	prefix := m.StorePrefix()
	if _, exists := r.byPrefix[prefix]; exists {
		return errorsmod.Wrapf(ErrDuplicatePrefix, "prefix %q claimed by %s and %s", prefix, r.byPrefix[prefix].Name(), m.Name())
	}
	for _, typeURL := range m.MessageDomain() {
		if owner, exists := r.byType[typeURL]; exists {
			return errorsmod.Wrapf(ErrDuplicateMessageType, "type %q claimed by %s and %s", typeURL, owner.Name(), m.Name())
		}
	}

	r.byPrefix[prefix] = m
	for _, typeURL := range m.MessageDomain() {
		r.byType[typeURL] = m
	}
	r.modules = append(r.modules, m)
	return nil
}

// Modules returns every registered module in fixed registration order.
func (r *Router) Modules() []Module {
	out := make([]Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// Route resolves the module that owns typeURL.
func (r *Router) Route(typeURL string) (Module, error) {
	m, ok := r.byType[typeURL]
	if !ok {
		return nil, errorsmod.Wrapf(ErrUnroutable, "no module handles message type %q", typeURL)
	}
	return m, nil
}

// RouteQuery resolves the module owning the leading path segment of path,
// per spec.md §6: "/store/{module}/key" or a module-specific namespace
// such as "/bank/balance/{account}" — in both cases the first segment
// after the optional "/store/" wrapper names the module.
func (r *Router) RouteQuery(path string) (Module, error) {
	segment := firstSegment(path)
	m, ok := r.byPrefix[segment]
	if !ok {
		return nil, errorsmod.Wrapf(ErrUnroutable, "no module owns query path %q", path)
	}
	return m, nil
}

func firstSegment(path string) string {
	trimmed := path
	for len(trimmed) > 0 && trimmed[0] == '/' {
		trimmed = trimmed[1:]
	}
	const storeWrapper = "store/"
	if len(trimmed) >= len(storeWrapper) && trimmed[:len(storeWrapper)] == storeWrapper {
		trimmed = trimmed[len(storeWrapper):]
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] == '/' {
			return trimmed[:i]
		}
	}
	return trimmed
}
