package input

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// FindXdotool attempts to locate the xdotool executable
func FindXdotool(preferredPath string) (string, error) {
	// Try preferred path first
	if preferredPath != "" {
		candidate := preferredPath
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			candidate = filepath.Join(candidate, "xdotool")
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	// Try common paths
	commonPaths := []string{
		"/usr/bin/xdotool",
		"/usr/local/bin/xdotool",
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	// PATH
	if path, err := exec.LookPath("xdotool"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("xdotool not found (install xdotool or set its path)")
}
