//go:build windows

package storage

import (
	"os"
	"path/filepath"
)

// Config roams with the profile; data stays on the machine.
func defaultConfigDir() string {
	return filepath.Join(os.Getenv("APPDATA"), appName)
}

func defaultDataDir() string {
	return filepath.Join(os.Getenv("LOCALAPPDATA"), appName)
}
