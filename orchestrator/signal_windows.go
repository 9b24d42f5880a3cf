//go:build windows

package orchestrator

import "os"

func terminateSignal() os.Signal {
	return os.Kill
}
