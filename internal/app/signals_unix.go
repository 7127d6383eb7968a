//go:build !windows

package app

import (
	"os"
	"syscall"
)

// contSignals are delivered when the process resumes after a job-control stop.
func contSignals() []os.Signal {
	return []os.Signal{syscall.SIGCONT}
}
