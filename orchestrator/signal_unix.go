//go:build !windows

package orchestrator

import (
	"os"
	"syscall"
)

func terminateSignal() os.Signal {
	return syscall.SIGTERM
}
