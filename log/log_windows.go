//go:build windows

package log

import (
	"os"
	"path/filepath"
)

// Windows builds only run the desktop simulator.
func getDefaultDir() (string, error) {
	base := os.Getenv("LOCALAPPDATA")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, "AppData", "Local")
	}
	return filepath.Join(base, "earshot", "logs"), nil
}
