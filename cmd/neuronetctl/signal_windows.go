//go:build windows

package main

import "os"

// shutdownSignals are the signals that cancel a running command.
// SIGTERM does not exist on Windows.
func shutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
