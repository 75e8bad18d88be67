//go:build !windows

package storage

import (
	"os"
	"path/filepath"
)

func defaultConfigDir() string {
	return filepath.Join(home(), ".config", appName)
}

func defaultDataDir() string {
	return filepath.Join(home(), ".local", "share", appName)
}

func home() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return "."
}
