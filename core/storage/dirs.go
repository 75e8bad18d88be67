// Package storage resolves where the bot keeps its configuration and data.
package storage

import (
	"os"
	"path/filepath"
)

const appName = "para"

// Dirs is the pair of per-user directories the bot uses. Config holds
// config.yaml and .env; Data holds the sqlite files.
type Dirs struct {
	Config string
	Data   string
}

// ProjectDirs are the overrides a checkout may carry under .para/.
type ProjectDirs struct {
	Root   string // .para/
	Config string // .para/config.yaml
	Local  string // .para/local/, kept out of version control
}

// Resolve returns the user directories. XDG_CONFIG_HOME and XDG_DATA_HOME
// win over the platform defaults on every OS.
func Resolve() *Dirs {
	return &Dirs{
		Config: fromEnv("XDG_CONFIG_HOME", defaultConfigDir),
		Data:   fromEnv("XDG_DATA_HOME", defaultDataDir),
	}
}

func fromEnv(name string, fallback func() string) string {
	if base := os.Getenv(name); base != "" {
		return filepath.Join(base, appName)
	}
	return fallback()
}

// WithData returns a copy of d whose data directory is dir. An empty dir
// leaves d unchanged.
func (d *Dirs) WithData(dir string) *Dirs {
	if dir == "" {
		return d
	}
	out := *d
	out.Data = dir
	return &out
}

func ResolveProjectDirs(projectRoot string) *ProjectDirs {
	root := filepath.Join(projectRoot, "."+appName)
	return &ProjectDirs{
		Root:   root,
		Config: filepath.Join(root, "config.yaml"),
		Local:  filepath.Join(root, "local"),
	}
}

func (d *Dirs) ConfigDir(elem ...string) string {
	return filepath.Join(append([]string{d.Config}, elem...)...)
}

func (d *Dirs) DataDir(elem ...string) string {
	return filepath.Join(append([]string{d.Data}, elem...)...)
}

// EnsureAll creates both directories. The config directory may hold API
// tokens, so only the owner can read it.
func (d *Dirs) EnsureAll() error {
	if err := os.MkdirAll(d.Config, 0o700); err != nil {
		return err
	}
	return os.MkdirAll(d.Data, 0o755)
}
