//go:build windows

package supervisor

import (
	"os/exec"
	"strconv"
)

// configureProcAttr is a no-op on Windows (Setpgid not supported).
func configureProcAttr(_ *exec.Cmd) {}

// terminate kills the automation process tree. taskkill /T takes the
// chromedriver and browser children down with the script.
func terminate(cmd *exec.Cmd) error {
	kill := exec.Command("taskkill", "/PID", strconv.Itoa(cmd.Process.Pid), "/T", "/F")
	if err := kill.Run(); err != nil {
		// taskkill fails when the tree is already gone; direct kill as
		// a last resort.
		return cmd.Process.Kill()
	}
	return nil
}
