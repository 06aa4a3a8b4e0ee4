package forkjoin

import "sync/atomic"

const (
	// MaxWorkers is the maximum number of workers a SystemContext can hold.
	MaxWorkers = 64
	// QueueCapacity is the number of slots in each worker's WSQ (power of two).
	QueueCapacity = 64 * 1024

	maskJobs      = QueueCapacity - 1
	fullQueueJobs = QueueCapacity - MaxWorkers
)

// WSQ is a bounded, lock-free work-stealing deque of *Job pointers. The
// owning worker pushes and pops at the bottom; any other worker may steal
// from the top. All state transitions happen through a single
// compare-and-swap on a packed 64-bit index word; slot publication is a
// second, decoupled step using atomic exchanges, so both owner and thief
// loop on a transiently nil slot.
type WSQ struct {
	entries  [QueueCapacity]atomic.Pointer[Job]
	idx      atomic.Uint64
	WorkerID uint16
}

// NewWSQ constructs an empty queue owned by the given worker id.
func NewWSQ(workerID uint16) *WSQ {
	q := &WSQ{WorkerID: workerID}
	q.idx.Store(PackedIndex{}.Pack())
	return q
}

// TryPush reserves the next bottom slot and publishes job into it. It may
// only be called by the owning worker. It returns false if the queue has
// no head-room left (count == fullQueueJobs) or if a racing CAS beat it
// to the index word; the caller is expected to retry at a higher level
// (see Job.Kick).
func (q *WSQ) TryPush(job *Job) bool {
	v := q.idx.Load()
	i := UnpackIndex(v)
	if i.Count == fullQueueJobs {
		return false
	}
	next := PackedIndex{
		Top:    i.Top,
		Bottom: (i.Bottom + 1) & maskJobs,
		Count:  i.Count + 1,
		Tag:    uint16(job.JobID),
	}
	if !q.idx.CompareAndSwap(v, next.Pack()) {
		return false
	}
	slot := &q.entries[i.Bottom]
	for {
		old := slot.Swap(nil)
		if old == nil {
			prev := slot.Swap(job)
			if prev != nil {
				panic("forkjoin: WSQ slot was not empty after publish retry")
			}
			return true
		}
		// a lagging thief has not yet picked up the previous occupant;
		// put it back and retry.
		slot.Swap(old)
		pauseThread()
	}
}

// MultiPush bulk-publishes n jobs starting at the current bottom. The
// caller must have already reserved the space via MultiPushAvail.
func (q *WSQ) MultiPush(jobs []*Job) {
	n := uint16(len(jobs))
	for {
		v := q.idx.Load()
		i := UnpackIndex(v)
		next := PackedIndex{
			Top:    i.Top,
			Bottom: (i.Bottom + n) & maskJobs,
			Count:  i.Count + n,
			Tag:    2,
		}
		if q.idx.CompareAndSwap(v, next.Pack()) {
			for k, job := range jobs {
				q.entries[(i.Bottom+uint16(k))&maskJobs].Store(job)
			}
			return
		}
	}
}

// Pop removes and returns the job at the bottom of the queue. It may only
// be called by the owning worker. It returns nil if the queue is empty.
func (q *WSQ) Pop() *Job {
	for {
		v := q.idx.Load()
		i := UnpackIndex(v)
		if i.Count == 0 {
			return nil
		}
		next := PackedIndex{
			Top:    i.Top,
			Bottom: (i.Bottom - 1) & maskJobs,
			Count:  i.Count - 1,
			Tag:    1,
		}
		if q.idx.CompareAndSwap(v, next.Pack()) {
			job := q.entries[next.Bottom].Swap(nil)
			if job == nil {
				panic("forkjoin: WSQ owner pop found an empty slot")
			}
			return job
		}
	}
}

// Steal removes up to n jobs (clamped to at most count/2+1) from the top
// of the queue and writes them into out, returning the number copied.
// Steal must be called only by a worker that does not own this queue.
func (q *WSQ) Steal(n uint16, out []*Job) uint16 {
	for {
		v := q.idx.Load()
		i := UnpackIndex(v)
		if i.Count == 0 {
			return 0
		}
		if max := i.Count/2 + 1; n > max {
			n = max
		}
		next := PackedIndex{
			Top:    (i.Top + n) & maskJobs,
			Bottom: i.Bottom,
			Count:  i.Count - n,
			Tag:    0,
		}
		if q.idx.CompareAndSwap(v, next.Pack()) {
			var k uint16
			for k < n {
				job := q.entries[(i.Top+k)&maskJobs].Swap(nil)
				if job == nil {
					// owner is still mid-publish at this index; retry it.
					pauseThread()
					continue
				}
				out[k] = job
				k++
			}
			return k
		}
	}
}

// MultiPushAvail returns the largest prefix of length <= maxN, starting at
// the current top, whose slots are all currently nil — the owner's
// safe bulk-push budget, bounded also by remaining head-room.
func (q *WSQ) MultiPushAvail(maxN uint16) uint16 {
	i := UnpackIndex(q.idx.Load())
	if room := fullQueueJobs - i.Count; maxN > room {
		maxN = room
	}
	var k uint16
	for k < maxN {
		if q.entries[(i.Top+k)&maskJobs].Load() != nil {
			break
		}
		k++
	}
	return k
}
