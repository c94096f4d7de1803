// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenBrowser opens a URL in the default browser for the OS. The command is
// started, not waited on; callers treat failure as advisory since the URL
// is always shown for manual use.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		// Quoted empty string is the window title; the URL must be last.
		cmd = exec.Command("cmd", "/c", "start", `""`, url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
