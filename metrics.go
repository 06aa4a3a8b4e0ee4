package forkjoin

import "sync/atomic"

// metrics holds the supplementary telemetry counters described in
// SPEC_FULL.md 6.2. Every field is an independent atomic counter — no
// lock is taken even for the aggregate snapshot, keeping the "no global
// lock" property that the rest of the scheduler relies on.
type metrics struct {
	jobsExecuted    atomic.Int64
	stealAttempts   atomic.Int64
	stealsSucceeded atomic.Int64
	blocksAllocated atomic.Int64
	blocksFreed     atomic.Int64
}

// Metrics is a point-in-time snapshot of a SystemContext's counters.
type Metrics struct {
	JobsExecuted    int64
	StealAttempts   int64
	StealsSucceeded int64
	BlocksAllocated int64
	BlocksFreed     int64
}

// Snapshot returns the current value of every counter. Because each
// field is read independently, a snapshot is not a single atomic instant
// across all fields, but every individual value is exact.
func (ctx *SystemContext) Snapshot() Metrics {
	return Metrics{
		JobsExecuted:    ctx.metrics.jobsExecuted.Load(),
		StealAttempts:   ctx.metrics.stealAttempts.Load(),
		StealsSucceeded: ctx.metrics.stealsSucceeded.Load(),
		BlocksAllocated: ctx.metrics.blocksAllocated.Load(),
		BlocksFreed:     ctx.metrics.blocksFreed.Load(),
	}
}
