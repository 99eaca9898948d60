package scope_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokenize-x/tx-chain/v6/internal/scope"
	"github.com/tokenize-x/tx-chain/v6/internal/store"
)

func TestChildMergeIsInvisibleUntilMerged(t *testing.T) {
	s := store.New(0)
	s.Set("bank/alice", []byte("100"))
	s.Commit()

	deliver := scope.New(scope.Deliver, s.At(store.Latest))
	tx := deliver.Child()

	require.NoError(t, tx.Set("bank/alice", []byte("90")))
	_, ok := deliver.Get("bank/alice")
	require.True(t, ok)
	v, _ := deliver.Get("bank/alice")
	require.Equal(t, []byte("100"), v, "parent must not see child writes before Merge")

	tx.Merge(deliver)
	v, _ = deliver.Get("bank/alice")
	require.Equal(t, []byte("90"), v)
}

func TestDroppedChildNeverAffectsParent(t *testing.T) {
	s := store.New(0)
	s.Set("bank/alice", []byte("100"))
	s.Commit()

	deliver := scope.New(scope.Deliver, s.At(store.Latest))
	tx := deliver.Child()
	require.NoError(t, tx.Set("bank/alice", []byte("0")))
	tx.Drop()

	v, _ := deliver.Get("bank/alice")
	require.Equal(t, []byte("100"), v)
}

func TestCheckScopeNeverVisibleToDeliver(t *testing.T) {
	s := store.New(0)
	s.Set("bank/alice", []byte("100"))
	s.Commit()

	check := scope.New(scope.Check, s.At(store.Latest))
	require.NoError(t, check.Set("bank/alice", []byte("999")))

	deliver := scope.New(scope.Deliver, s.At(store.Latest))
	v, _ := deliver.Get("bank/alice")
	require.Equal(t, []byte("100"), v)
}

func TestQueryScopeRejectsWrites(t *testing.T) {
	s := store.New(0)
	q := scope.New(scope.Query, s.At(store.Latest))
	require.ErrorIs(t, q.Set("k", []byte("v")), scope.ErrReadOnly)
}

func TestRangeMergesOverlayDeterministically(t *testing.T) {
	s := store.New(0)
	s.Set("bank/a", []byte("1"))
	s.Set("bank/b", []byte("2"))
	s.Commit()

	deliver := scope.New(scope.Deliver, s.At(store.Latest))
	require.NoError(t, deliver.Set("bank/c", []byte("3")))
	require.NoError(t, deliver.Delete("bank/a"))

	kvs := deliver.Range("bank/")
	require.Len(t, kvs, 2)
	require.Equal(t, "bank/b", kvs[0].Path)
	require.Equal(t, "bank/c", kvs[1].Path)
}
