//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals lists the OS signals that cancel a run.
// On Unix systems, this includes both SIGINT and SIGTERM.
func shutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
