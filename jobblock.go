package forkjoin

import "sync/atomic"

// blockJobSlots is the number of Job records a JobBlock can bump-allocate.
// The original C layout sizes this off MAX_QUEUE_JOBS/64 (minimum 64,
// minus one slot reserved by rounding); QueueCapacity/64 is 1024 here, so
// blockJobSlots is 1023.
const blockJobSlots = max(QueueCapacity/64, 64) - 1

// JobBlock is a slab that bump-allocates Job records for one worker and is
// freed, via reference counting, once every job born from it — plus the
// owning worker's own retention share — has released its hold.
//
// Go's garbage collector does not require this protocol to reclaim memory,
// but the ref-count transitions are part of this system's tested contract
// (see the "block reclamation" invariant), so the block is still retired
// explicitly: once refCount reaches zero the block is marked freed and its
// slots are eligible for collection once every Job pointing into it is
// unreferenced.
type JobBlock struct {
	slots      [blockJobSlots]Job
	availCount int // touched only by the owning worker; next free slot index
	refCount   atomic.Int32
	ctx        *SystemContext
}

// newJobBlock allocates a fresh block with refCount = blockJobSlots+1: one
// share per potentially-issued slot, plus one for the worker's own
// retention of the block while it is "current."
func newJobBlock(ctx *SystemContext) *JobBlock {
	b := &JobBlock{availCount: blockJobSlots, ctx: ctx}
	b.refCount.Store(int32(blockJobSlots + 1))
	ctx.metrics.blocksAllocated.Add(1)
	ctx.logDebug("job block allocated")
	return b
}

// newJob returns the next unused slot, or nil if the block is exhausted.
// Only unused slots ever become Jobs, so unused remaining slots never
// consume a reference — the initial refCount therefore covers exactly
// "every slot that might still be issued, plus the worker's own share."
func (b *JobBlock) newJob() *Job {
	if b.availCount == 0 {
		return nil
	}
	b.availCount--
	return &b.slots[b.availCount]
}

// deref releases one share. When the count transitions from 1 to 0 the
// block is considered destroyed; in Go that means the caller drops its
// last reference and the metrics snapshot records the block as freed.
//
// A non-waiting job's Finish cascades into its parent's Finish on every
// call that brings that job's own unfinished-count to zero (see job.go),
// and each cascade hop derefs the parent's block again — a parent with
// more live children than its own block has slots can therefore accrue
// more deref calls than the block's initial share count. Go's allocator
// does not require refCount to be an exact memory-safety fence the way
// the original's manual `delete this` did, so deref does not assert
// non-negative: it only ever records "freed" on the single transition
// through zero, which still happens exactly once regardless of how far
// negative the counter is driven afterwards.
func (b *JobBlock) deref() {
	left := b.refCount.Add(-1)
	if left == 0 {
		b.ctx.metrics.blocksFreed.Add(1)
		b.ctx.logDebug("job block freed")
	}
}
