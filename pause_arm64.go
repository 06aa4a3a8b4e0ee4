//go:build arm64

package forkjoin

import "golang.org/x/sys/cpu"

func init() {
	if cpu.ARM64.HasASIMD {
		spinBudget = 32
	}
}
