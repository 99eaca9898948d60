package module_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/scope"
)

type stubModule struct {
	name   string
	prefix string
	types  []string
}

func (s stubModule) Name() string          { return s.name }
func (s stubModule) StorePrefix() string   { return s.prefix }
func (s stubModule) MessageDomain() []string { return s.types }
func (s stubModule) InitGenesis(*scope.Scope, json.RawMessage) error { return nil }
func (s stubModule) Check(*scope.Scope, module.Msg) ([]module.Event, error)   { return nil, nil }
func (s stubModule) Deliver(*scope.Scope, module.Msg) ([]module.Event, error) { return nil, nil }
func (s stubModule) BeginBlock(*scope.Scope, module.BlockHeader) ([]module.Event, error) {
	return nil, nil
}
func (s stubModule) Query(*scope.Scope, module.QueryRequest) (module.QueryResponse, error) {
	return module.QueryResponse{}, nil
}
func (s stubModule) NonProvablePrefixes() []string { return nil }

func TestRouteByTypeURL(t *testing.T) {
	r := module.NewRouter()
	bank := stubModule{name: "bank", prefix: "bank", types: []string{"/tx-chain.bank.v1.MsgSend"}}
	require.NoError(t, r.Register(bank))

	m, err := r.Route("/tx-chain.bank.v1.MsgSend")
	require.NoError(t, err)
	require.Equal(t, "bank", m.Name())

	_, err = r.Route("/does.not.Exist")
	require.ErrorIs(t, err, module.ErrUnroutable)
}

func TestRouteQueryByLeadingSegment(t *testing.T) {
	r := module.NewRouter()
	require.NoError(t, r.Register(stubModule{name: "bank", prefix: "bank"}))

	m, err := r.RouteQuery("/bank/balance/alice")
	require.NoError(t, err)
	require.Equal(t, "bank", m.Name())

	m, err = r.RouteQuery("/store/bank/key")
	require.NoError(t, err)
	require.Equal(t, "bank", m.Name())
}

func TestDuplicatePrefixRejected(t *testing.T) {
	r := module.NewRouter()
	require.NoError(t, r.Register(stubModule{name: "bank", prefix: "bank"}))
	err := r.Register(stubModule{name: "bank2", prefix: "bank"})
	require.ErrorIs(t, err, module.ErrDuplicatePrefix)
}

func TestModuleOrderIsRegistrationOrder(t *testing.T) {
	r := module.NewRouter()
	require.NoError(t, r.Register(stubModule{name: "bank", prefix: "bank"}))
	require.NoError(t, r.Register(stubModule{name: "ibc", prefix: "ibc"}))

	names := make([]string, 0, 2)
	for _, m := range r.Modules() {
		names = append(names, m.Name())
	}
	require.Equal(t, []string{"bank", "ibc"}, names)
}
