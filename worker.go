package forkjoin

import "sync/atomic"

// Worker is a per-goroutine scheduling context: it owns a WSQ, a PRNG
// used for victim selection, the current bump-allocation block, and an
// opaque per-worker datum supplied at registration.
type Worker struct {
	queue    *WSQ
	rng      xoroshiro128Plus
	ctx      *SystemContext
	curBlock *JobBlock
	Data     any
	ID       uint16

	// waitCount is incremented on entry to a waiting loop
	// (WaitForTermination or KickAndWait) and decremented on exit. It is
	// the worker-state counter left undefined by the original header
	// (spec.md's open question); this is the chosen definition.
	waitCount atomic.Int32
}

func newWorker(ctx *SystemContext, id uint16, seed uint64, data any) *Worker {
	return &Worker{
		queue: NewWSQ(id),
		rng:   newXoroshiro128Plus(uint64(id), seed),
		ctx:   ctx,
		Data:  data,
		ID:    id,
	}
}

// allocJob returns the next free Job slot, installing a fresh JobBlock
// first if the current one is nil or exhausted. The worker releases its
// own retention share of an abandoned block via deref.
func (w *Worker) allocJob() *Job {
	if w.curBlock != nil {
		if j := w.curBlock.newJob(); j != nil {
			return j
		}
		w.curBlock.deref()
	}
	w.curBlock = newJobBlock(w.ctx)
	return w.curBlock.newJob()
}

// CreateJob allocates and constructs a job with no parent. It is not
// eligible for execution until Kick or TryKick publishes it.
func (w *Worker) CreateJob(fn JobFunction, data any) *Job {
	return w.constructJob(fn, data, nil)
}

// CreateChildJob allocates and constructs a job as a child of parent, so
// that parent remains unfinished until this job (and all of its own
// descendants) complete.
func (w *Worker) CreateChildJob(parent *Job, fn JobFunction, data any) *Job {
	return w.constructJob(fn, data, parent)
}

func (w *Worker) constructJob(fn JobFunction, data any, parent *Job) *Job {
	slot := w.allocJob()
	return initJob(slot, w, w.curBlock, fn, data, parent)
}

// Execute runs job's function exactly once and performs its completion
// bookkeeping. Re-executing an already-done job is an invariant
// violation and panics.
func (w *Worker) Execute(job *Job) {
	if job.IsDone {
		panic("forkjoin: attempted to execute a job that is already done")
	}
	job.ExecuteWorkerID = w.ID
	job.Function(w, job)
	job.Finish()
	w.ctx.metrics.jobsExecuted.Add(1)
}

// GetValidJob implements the scheduling decision: pop from the worker's
// own queue first; failing that, pick a random starting victim and scan
// all peers round-robin, stealing up to a locally-safe budget plus one
// and requeuing any surplus locally.
func (w *Worker) GetValidJob() *Job {
	if j := w.queue.Pop(); j != nil {
		return j
	}

	n := w.queue.MultiPushAvail(63)
	count := uint32(w.ctx.WorkerCount())
	if count == 0 {
		return nil
	}
	next := uint32(w.rng.next() % uint64(count))

	jar := make([]*Job, 64)
	for k := uint32(0); k < count; k++ {
		victim := w.ctx.workers[next]
		if victim != w {
			w.ctx.metrics.stealAttempts.Add(1)
			got := victim.queue.Steal(n+1, jar)
			if got > 0 {
				w.ctx.metrics.stealsSucceeded.Add(1)
				if got > 1 {
					w.queue.MultiPush(jar[1:got])
				}
				return jar[0]
			}
		}
		next++
		if next == count {
			next = 0
		}
	}
	return nil
}

// WaitForTermination runs jobs, pulled via GetValidJob, until the system
// is deactivated. This is the goroutine main loop for every non-main
// worker; the idle path pauses between failed pulls rather than busy-
// looping at full rate.
func (w *Worker) WaitForTermination() {
	w.waitCount.Add(1)
	defer w.waitCount.Add(-1)
	for w.ctx.Active() {
		if j := w.GetValidJob(); j != nil {
			w.Execute(j)
		} else {
			pauseThread()
		}
	}
}

// WaitCount reports how many nested waiting loops this worker is
// currently inside (1 while it runs WaitForTermination's job-pull loop,
// plus one for each KickAndWait in progress; 0 when it is in neither).
func (w *Worker) WaitCount() int32 {
	return w.waitCount.Load()
}

// RunUntilInactive is the exported name for the worker main loop (see
// SPEC_FULL.md section 6); it is identical to WaitForTermination.
func (w *Worker) RunUntilInactive() {
	w.WaitForTermination()
}

// KickAndWait publishes job and then, rather than sleeping, participates
// as a worker — executing any job it can find — until job's entire
// fork-join subtree has completed. This is how blocking fork-join waits
// are implemented without OS-level synchronization primitives.
func (w *Worker) KickAndWait(job *Job) {
	job.IsWaiting = true
	job.Kick()
	w.waitCount.Add(1)
	defer w.waitCount.Add(-1)
	for job.Unfinished() != 0 {
		if k := w.GetValidJob(); k != nil {
			w.Execute(k)
		} else {
			pauseThread()
		}
	}
	// job is fully done; the waiter, not Job.Finish, releases the block
	// since IsWaiting deferred that release.
	job.allocBlock.deref()
}

// KickMany bulk-publishes jobs, falling back to a single blocking Kick
// whenever the queue has no more safe bulk-push budget.
func (w *Worker) KickMany(jobs []*Job) {
	for i := 0; i < len(jobs); {
		rem := len(jobs) - i
		if rem > fullQueueJobs {
			rem = fullQueueJobs
		}
		avail := w.queue.MultiPushAvail(uint16(rem))
		if avail == 0 {
			jobs[i].Kick()
			i++
			continue
		}
		w.queue.MultiPush(jobs[i : i+int(avail)])
		i += int(avail)
	}
}
