//go:build windows

package main

import "os"

// shutdownSignals stop serve gracefully.
// syscall.SIGTERM is not delivered on Windows.
var shutdownSignals = []os.Signal{os.Interrupt}
