package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetCommitGet(t *testing.T) {
	s := New(0)
	s.Set("bank/balances/alice", []byte("100"))
	rev := s.Commit()
	require.Equal(t, Revision(1), rev)

	v, ok := s.Get("bank/balances/alice", Latest)
	require.True(t, ok)
	require.Equal(t, []byte("100"), v)

	// Revision 0 is the Latest sentinel, so it reads the newest commit.
	v, ok = s.Get("bank/balances/alice", 0)
	require.True(t, ok)
	require.Equal(t, []byte("100"), v)
}

func TestResetDiscardsPendingWrites(t *testing.T) {
	s := New(0)
	s.Set("k", []byte("v"))
	s.Reset()

	_, ok := s.GetPending("k")
	require.False(t, ok)
}

func TestRangeIsLexicographicAndPrefixScoped(t *testing.T) {
	s := New(0)
	s.Set("bank/a", []byte("1"))
	s.Set("bank/c", []byte("3"))
	s.Set("bank/b", []byte("2"))
	s.Set("ibc/x", []byte("x"))
	s.Commit()

	kvs, err := s.Range("bank/", Latest)
	require.NoError(t, err)
	require.Len(t, kvs, 3)
	require.Equal(t, []string{"bank/a", "bank/b", "bank/c"}, []string{kvs[0].Path, kvs[1].Path, kvs[2].Path})
}

func TestHistoricalRevisionIsStable(t *testing.T) {
	s := New(0)
	s.Set("k", []byte("v1"))
	r1 := s.Commit()
	s.Set("k", []byte("v2"))
	s.Commit()

	v, ok := s.Get("k", r1)
	require.True(t, ok)
	require.Equal(t, []byte("v1"), v)

	v, ok = s.Get("k", Latest)
	require.True(t, ok)
	require.Equal(t, []byte("v2"), v)
}

func TestRetentionReclaimsOldSnapshots(t *testing.T) {
	s := New(2)
	s.Set("k", []byte("v0"))
	s.Commit() // rev 1
	s.Set("k", []byte("v1"))
	s.Commit() // rev 2
	s.Set("k", []byte("v2"))
	s.Commit() // rev 3, retain=2 keeps revs {2,3}

	_, err := s.Range("k", 1)
	require.Error(t, err)

	kvs, err := s.Range("k", 2)
	require.NoError(t, err)
	require.Len(t, kvs, 1)
}
