package forkjoin

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SystemContext is the global, process-wide registry for one fork-join
// computation: the set of registered workers, the monotonic job-id
// counter, and the active/inactive flag that drives cooperative worker
// shutdown. It must be fully populated (every worker registered) before
// any worker begins stealing, since workers scan the registry by index.
type SystemContext struct {
	workers    [MaxWorkers]*Worker
	workerCnt  atomic.Uint32
	jobCounter atomic.Uint64
	active     atomic.Bool

	metrics metrics

	// Logger is an optional diagnostics sink; its zero value is a no-op
	// logger, so attaching one is opt-in and free when unset.
	Logger zerolog.Logger
	// RunID correlates this context's log lines across workers.
	RunID uuid.UUID
}

// NewSystem constructs an empty, inactive context with a no-op logger.
func NewSystem() *SystemContext {
	return &SystemContext{
		Logger: zerolog.Nop(),
		RunID:  uuid.New(),
	}
}

// Activate marks the system active; workers in WaitForTermination begin
// (or continue) pulling jobs.
func (ctx *SystemContext) Activate() {
	ctx.active.Store(true)
	ctx.logDebug("system activated")
}

// Deactivate marks the system inactive. Workers observe this cooperatively
// between jobs — in-flight jobs are never preempted.
func (ctx *SystemContext) Deactivate() {
	ctx.active.Store(false)
	ctx.logDebug("system deactivated")
}

// Active reports whether the system is currently accepting work.
func (ctx *SystemContext) Active() bool {
	return ctx.active.Load()
}

// RegisterWorker appends a new Worker to the registry, using the current
// worker count as its id, and returns it. Registration is the caller's
// startup-phase responsibility: it must complete for every worker before
// any of them calls GetValidJob.
func (ctx *SystemContext) RegisterWorker(seed uint64, data any) *Worker {
	id := ctx.workerCnt.Load()
	w := newWorker(ctx, uint16(id), seed, data)
	ctx.workers[id] = w
	ctx.workerCnt.Store(id + 1)
	ctx.logDebug("worker registered")
	return w
}

// WorkerCount returns the number of currently registered workers.
func (ctx *SystemContext) WorkerCount() int {
	return int(ctx.workerCnt.Load())
}

// nextJobID returns a fresh, contiguous, monotonically increasing job id.
func (ctx *SystemContext) nextJobID() uint64 {
	return ctx.jobCounter.Add(1) - 1
}

func (ctx *SystemContext) logDebug(msg string) {
	ctx.Logger.Debug().Str("run_id", ctx.RunID.String()).Msg(msg)
}
