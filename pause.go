package forkjoin

import "runtime"

// pauseThread is the spin-with-pause primitive used by every busy-wait
// loop in this package (Job.Kick, WSQ.TryPush's republish loop, WSQ.Steal's
// repick loop, and Worker.WaitForTermination's idle path). Go exposes no
// portable inline CPU pause/yield opcode without assembly, so the
// mechanical pause is always runtime.Gosched; spinBudget (set per-arch in
// pause_amd64.go / pause_arm64.go / pause_other.go from a one-time
// golang.org/x/sys/cpu capability probe) controls how many cheap
// no-op spins are burned before paying for that scheduler yield, which
// approximates "pause hint where available, otherwise yield."
var spinBudget = 0

func pauseThread() {
	for i := 0; i < spinBudget; i++ {
		// cheap spin: give a racing CAS/exchange a chance to land before
		// we pay for an OS-level yield.
	}
	runtime.Gosched()
}
