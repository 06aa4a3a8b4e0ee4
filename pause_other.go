//go:build !amd64 && !arm64

package forkjoin

// No capability probe on other architectures: go straight to the OS
// yield, matching the spec's "otherwise the thread yields to the OS"
// fallback.
func init() {
	spinBudget = 0
}
