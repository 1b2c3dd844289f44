//go:build !windows

package main

import (
	"os/exec"
	"syscall"
)

const exeSuffix = ""

// detach puts the server in its own session so it outlives the terminal
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
