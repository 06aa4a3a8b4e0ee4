package forkjoin

import "sync/atomic"

// JobFunction is the work performed by a Job. It receives the worker that
// is executing it (for creating further child jobs) and the job itself.
type JobFunction func(w *Worker, j *Job)

// Job is a single schedulable unit of fork-join work.
//
// Invariants: Unfinished never goes negative and reaches zero exactly
// once; Function is invoked at most once; IsDone is set by every Finish
// call, including the calls a completing child cascades into its parent,
// so a parent can read as done while its Function is still running; a
// child job increments its parent's Unfinished on
// construction and decrements it exactly once, via Finish, on its own
// completion.
type Job struct {
	owner      *Worker
	Function   JobFunction
	Parent     *Job
	Data       any
	allocBlock *JobBlock
	JobID      uint64

	unfinished atomic.Int32

	ExecuteWorkerID uint16
	IsDone          bool
	IsWaiting       bool
}

// initJob fills in a slot already bump-allocated from block, owned by w,
// with an optional parent. The job id is drawn from the system's
// monotonic counter and the unfinished count starts at one (representing
// the job itself, before any children exist).
func initJob(j *Job, w *Worker, block *JobBlock, fn JobFunction, data any, parent *Job) *Job {
	// fields are set individually, not via a struct-literal assignment,
	// because Job embeds an atomic.Int32 and copying one by value (even
	// a still-zero one) trips the copylocks check.
	j.owner = w
	j.Function = fn
	j.Parent = parent
	j.Data = data
	j.allocBlock = block
	j.JobID = w.ctx.nextJobID()
	j.ExecuteWorkerID = 0
	j.IsDone = false
	j.IsWaiting = false
	j.unfinished.Store(1)
	if parent != nil {
		parent.unfinished.Add(1)
	}
	return j
}

// TryKick attempts to publish the job into its owning worker's queue
// without blocking. It returns false if the queue currently has no
// head-room.
func (j *Job) TryKick() bool {
	return j.owner.queue.TryPush(j)
}

// Kick publishes the job into its owning worker's queue, spinning with a
// pause hint until space is available. Space is always eventually
// available because consuming workers drain their queues while the
// system is active.
func (j *Job) Kick() {
	for !j.TryKick() {
		pauseThread()
	}
}

// Finish performs post-execution bookkeeping: it decrements Unfinished,
// cascades into the parent once this job's own count reaches zero, marks
// IsDone, and releases the job's hold on its allocation block — unless a
// waiter has asked to defer that release (see IsWaiting) so that the
// waiter's read of IsDone cannot race the block's destruction.
func (j *Job) Finish() {
	res := j.unfinished.Add(-1)
	if res < 0 {
		panic("forkjoin: Job.Unfinished went negative")
	}
	if res == 0 && j.Parent != nil {
		j.Parent.Finish()
	}
	j.IsDone = true
	if !j.IsWaiting {
		j.allocBlock.deref()
	}
}

// Unfinished returns the current unfinished-descendants count.
func (j *Job) Unfinished() int32 {
	return j.unfinished.Load()
}
