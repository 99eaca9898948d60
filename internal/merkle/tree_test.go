package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyTreeHasFixedRoot(t *testing.T) {
	tree := Build(nil)
	require.Equal(t, EmptyRoot(), tree.Root())
}

func TestRootIsOrderIndependent(t *testing.T) {
	entries := []Entry{
		{Path: "bank/balances/alice/coin", Value: []byte("900")},
		{Path: "bank/balances/bob/coin", Value: []byte("100")},
		{Path: "ibc/clients/07-tendermint-0/clientState", Value: []byte("client")},
	}
	reversed := []Entry{entries[2], entries[1], entries[0]}

	require.Equal(t, Build(entries).Root(), Build(reversed).Root())
}

func TestExistenceProofRoundTrips(t *testing.T) {
	entries := []Entry{
		{Path: "a", Value: []byte("1")},
		{Path: "b", Value: []byte("2")},
		{Path: "c", Value: []byte("3")},
		{Path: "d", Value: []byte("4")},
	}
	tree := Build(entries)
	root := tree.Root()

	for _, e := range entries {
		proof := tree.Prove(e.Path)
		require.True(t, Verify(root, proof, e.Path, e.Value), "path %s", e.Path)
	}
}

func TestNonExistenceProofBracketsNeighbors(t *testing.T) {
	entries := []Entry{
		{Path: "a", Value: []byte("1")},
		{Path: "c", Value: []byte("3")},
	}
	tree := Build(entries)
	root := tree.Root()

	proof := tree.Prove("b")
	require.True(t, Verify(root, proof, "b", nil))

	proof = tree.Prove("0")
	require.True(t, Verify(root, proof, "0", nil))

	proof = tree.Prove("z")
	require.True(t, Verify(root, proof, "z", nil))
}

func TestChangedValueChangesRoot(t *testing.T) {
	entries := []Entry{{Path: "a", Value: []byte("1")}}
	r1 := Build(entries).Root()

	entries[0].Value = []byte("2")
	r2 := Build(entries).Root()

	require.NotEqual(t, r1, r2)
}
