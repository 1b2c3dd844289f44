//go:build windows

package infrastructure

import (
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/windows"
)

// configureCommand keeps yt-dlp from flashing a console window
func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}

// killProcessTree runs taskkill /T /F, which walks the child tree
func killProcessTree(pid int) error {
	kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid))
	configureCommand(kill)
	return kill.Run()
}
