package connection

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// httpStrategy opens a target URL in the host's default web browser.
type httpStrategy struct{}

func (httpStrategy) Description() string { return "Open in web browser" }

func (httpStrategy) Connect(target string) error {
	url := target
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("connection: open browser for %s: %w", url, err)
	}
	return nil
}
