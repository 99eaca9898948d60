package substore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/internal/store"
	"github.com/tokenize-x/tx-chain/v6/internal/substore"
	"github.com/tokenize-x/tx-chain/v6/internal/wire"
)

type sample struct {
	Name  string
	Count uint64
}

func (s *sample) MarshalWire(w *wire.Writer) {
	w.String(s.Name)
	w.Uint64(s.Count)
}

func (s *sample) UnmarshalWire(r *wire.Reader) error {
	var err error
	if s.Name, err = r.String(); err != nil {
		return err
	}
	if s.Count, err = r.Uint64(); err != nil {
		return err
	}
	return nil
}

func TestTypedGetSetDelete(t *testing.T) {
	st := substore.New("bank/balances", true, substore.WireCodec[*sample]{New: func() *sample { return &sample{} }})

	s := scope.New(scope.Deliver, store.New(0).At(store.Latest))
	require.NoError(t, st.Set(s, "alice", &sample{Name: "alice", Count: 900}))

	v, ok, err := st.Get(s, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(900), v.Count)

	require.NoError(t, st.Delete(s, "alice"))
	_, ok, err = st.Get(s, "alice")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRangeDecodesRelativeKeys(t *testing.T) {
	st := substore.New("bank/balances", true, substore.WireCodec[*sample]{New: func() *sample { return &sample{} }})
	s := scope.New(scope.Deliver, store.New(0).At(store.Latest))

	require.NoError(t, st.Set(s, "alice", &sample{Name: "alice", Count: 1}))
	require.NoError(t, st.Set(s, "bob", &sample{Name: "bob", Count: 2}))

	kvs, err := st.Range(s, "")
	require.NoError(t, err)
	require.Len(t, kvs, 2)
	require.Equal(t, "alice", kvs[0].Key)
	require.Equal(t, "bob", kvs[1].Key)
}

func TestUint64CounterCodec(t *testing.T) {
	st := substore.New("ibc/nextClientSequence", false, substore.Uint64Codec{})
	s := scope.New(scope.Deliver, store.New(0).At(store.Latest))

	require.NoError(t, st.Set(s, "", 7))
	v, ok, err := st.Get(s, "")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7), v)
}
