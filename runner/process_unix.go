//go:build !windows

package runner

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/ruffel/sshrpc"
	"golang.org/x/sys/unix"
)

// defaultTerminateSignal mirrors a polite terminate request.
var defaultTerminateSignal os.Signal = unix.SIGTERM

// setProcessGroup sets the process group for the given command.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalProcessGroup delivers sig to the whole process group led by proc.
func signalProcessGroup(proc *os.Process, sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok || proc.Pid <= 0 {
		return proc.Signal(sig)
	}

	if err := unix.Kill(-proc.Pid, s); err != nil {
		// The group may be gone while the leader is still being reaped.
		return proc.Signal(sig)
	}

	return nil
}

// killProcessGroup kills the process group led by proc.
func killProcessGroup(proc *os.Process) error {
	return signalProcessGroup(proc, unix.SIGKILL)
}

// exitCode maps a process state to an exit code. Death by signal is reported
// the way shells do (128+n) so it never collides with sshrpc.NoExitCode.
func exitCode(state *os.ProcessState) int {
	if state == nil {
		return sshrpc.NoExitCode
	}

	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}

	return state.ExitCode()
}
