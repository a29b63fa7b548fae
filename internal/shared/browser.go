package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var (
	getRuntime   = func() string { return runtime.GOOS }
	startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }
)

// browserCommand returns the platform command that opens url in the default browser.
func browserCommand(goos, url string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// OpenBrowser opens the default system browser to the specified URL.
func OpenBrowser(url string) error {
	cmd, err := browserCommand(getRuntime(), url)
	if err != nil {
		return err
	}

	if err := startCommand(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
