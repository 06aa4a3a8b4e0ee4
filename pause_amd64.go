//go:build amd64

package forkjoin

import "golang.org/x/sys/cpu"

// On amd64, SSE2 (present on every amd64 CPU Go supports) is used as the
// signal that a tight spin before yielding is worth the cycles, following
// the capability-probe-at-init idiom of the pack's SIMD dispatch code
// rather than checking a feature flag on every call.
func init() {
	if cpu.X86.HasSSE2 {
		spinBudget = 32
	}
}
