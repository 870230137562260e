//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals stop serve gracefully: Ctrl-C and the SIGTERM sent by
// process managers and container runtimes.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
