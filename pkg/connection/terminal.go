package connection

import (
	"fmt"
	"os/exec"
	"runtime"
)

// spawnTerminal launches cmdLine in a new interactive terminal window,
// trying progressively more generic fallbacks until one of them starts.
func spawnTerminal(cmdLine string) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application "Terminal"
activate
do script "%s"
end tell`, cmdLine)
		return exec.Command("osascript", "-e", script).Start()

	case "windows":
		if err := exec.Command("wt", "new-tab", "--", "cmd", "/k", cmdLine).Start(); err == nil {
			return nil
		}
		return exec.Command("cmd", "/c", "start", "cmd", "/k", cmdLine).Start()

	default:
		emulators := []struct {
			name string
			args []string
		}{
			{"gnome-terminal", []string{"--", "bash", "-c", cmdLine + "; read -p 'Press Enter to close...'"}},
			{"konsole", []string{"-e", cmdLine}},
			{"xfce4-terminal", []string{"-e", cmdLine}},
			{"xterm", []string{"-e", cmdLine}},
		}
		var lastErr error
		for _, emu := range emulators {
			if err := exec.Command(emu.name, emu.args...).Start(); err == nil {
				return nil
			} else {
				lastErr = err
			}
		}
		return fmt.Errorf("connection: no suitable terminal emulator found: %w", lastErr)
	}
}
