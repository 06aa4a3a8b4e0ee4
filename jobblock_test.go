package forkjoin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJobBlockRefCountLifecycle(t *testing.T) {
	ctx := NewSystem()
	b := newJobBlock(ctx)
	require.Equal(t, int32(blockJobSlots+1), b.refCount.Load())

	// issuing a slot does not itself change the ref count — shares are
	// pre-reserved for every potentially-issued slot.
	j := b.newJob()
	require.NotNil(t, j)
	require.Equal(t, int32(blockJobSlots+1), b.refCount.Load())

	before := ctx.Snapshot().BlocksFreed
	for i := int32(0); i < blockJobSlots; i++ {
		b.deref()
	}
	require.Equal(t, before, ctx.Snapshot().BlocksFreed)

	// the final, worker-retention share brings it to zero.
	b.deref()
	require.Equal(t, before+1, ctx.Snapshot().BlocksFreed)
}

func TestJobBlockExhaustion(t *testing.T) {
	ctx := NewSystem()
	b := newJobBlock(ctx)
	for i := 0; i < blockJobSlots; i++ {
		require.NotNil(t, b.newJob())
	}
	require.Nil(t, b.newJob())
}

// Cascaded Finish calls (see job.go) can deref a parent's block more times
// than its initial share count when that parent has more live children
// than its own block has slots; deref must not panic in that case, and
// the freed metric must still fire exactly once.
func TestJobBlockDerefBeyondShareCountDoesNotDoubleCount(t *testing.T) {
	ctx := NewSystem()
	b := newJobBlock(ctx)
	for i := 0; i < blockJobSlots+1; i++ {
		b.deref()
	}
	before := ctx.Snapshot().BlocksFreed
	require.NotPanics(t, func() { b.deref() })
	require.Equal(t, before, ctx.Snapshot().BlocksFreed)
}
