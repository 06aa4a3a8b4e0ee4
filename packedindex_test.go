package forkjoin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackedIndexRoundTrip(t *testing.T) {
	cases := []PackedIndex{
		{},
		{Top: 1, Bottom: 2, Count: 3, Tag: 4},
		{Top: 65535, Bottom: 65535, Count: 65535, Tag: 65535},
		{Top: 0, Bottom: 65535, Count: 32768, Tag: 1},
	}
	for _, c := range cases {
		got := UnpackIndex(c.Pack())
		require.Equal(t, c, got)
	}
}

func TestPackedIndexFieldPlacement(t *testing.T) {
	// top occupies the highest 16 bits, tag the lowest, matching the
	// original WSQIndex::u64 layout bit-for-bit.
	i := PackedIndex{Top: 1}
	require.Equal(t, uint64(1)<<48, i.Pack())

	i = PackedIndex{Tag: 1}
	require.Equal(t, uint64(1), i.Pack())
}
