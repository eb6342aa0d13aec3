//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// configureProcAttr sets up process group isolation so the automation
// process and any children it spawns can be signaled as a group.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate signals the whole process group. Cancellation is fire and
// forget: the supervisor does not await a graceful shutdown, the exit
// event settles the pending run.
func terminate(cmd *exec.Cmd) error {
	pid := cmd.Process.Pid
	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		// Process group already gone; fall back to a direct kill.
		return cmd.Process.Kill()
	}

	if err := syscall.Kill(-pgid, syscall.SIGKILL); err != nil {
		if err == syscall.ESRCH {
			return nil
		}
		return err
	}
	return nil
}
