//go:build !unix

package proc

import (
	"os"
	"os/exec"
)

func prepare(*exec.Cmd) {}

func interrupt(cmd *exec.Cmd) error {
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		return cmd.Process.Kill()
	}
	return nil
}

func kill(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
