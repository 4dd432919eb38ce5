//go:build windows

package runner

import (
	"os"
	"os/exec"
	"strconv"

	"github.com/ruffel/sshrpc"
)

// Windows has no SIGTERM; the only portable termination is a kill.
var defaultTerminateSignal os.Signal = os.Kill

// setProcessGroup sets the process group for the given command.
func setProcessGroup(_ *exec.Cmd) {
	// TODO(windows): Nothing to do until we use Job Objects.
}

// signalProcessGroup delivers sig to proc. Any signal other than os.Interrupt
// is treated as a tree kill.
func signalProcessGroup(proc *os.Process, sig os.Signal) error {
	if sig == os.Interrupt {
		return proc.Signal(sig)
	}

	return killProcessGroup(proc)
}

// killProcessGroup kills the process tree rooted at proc.
func killProcessGroup(proc *os.Process) error {
	return exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(proc.Pid)).Run()
}

func exitCode(state *os.ProcessState) int {
	if state == nil {
		return sshrpc.NoExitCode
	}

	return state.ExitCode()
}
