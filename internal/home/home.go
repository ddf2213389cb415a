package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the n8ntools home directory.
	DefaultDirName = ".n8ntools"

	// QdrantDirName is the subdirectory mounted as Qdrant storage.
	QdrantDirName = "qdrant"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// PidFileName is written by a running server.
	PidFileName = "n8ntools.pid"
)

// Dir represents the n8ntools home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.n8ntools).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// QdrantPath returns the host directory for the local Qdrant container.
func (d *Dir) QdrantPath() string {
	return filepath.Join(d.path, QdrantDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// PidPath returns the server pid file path.
func (d *Dir) PidPath() string {
	return filepath.Join(d.path, PidFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.QdrantPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create qdrant directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// RunningPid returns the pid recorded in the pid file if that process is
// still alive. A stale pid file is removed.
func (d *Dir) RunningPid() (int, bool) {
	pid, err := ReadPidFile(d.PidPath())
	if err != nil {
		return 0, false
	}
	if !IsProcessAlive(pid) {
		RemovePidFile(d.PidPath())
		return 0, false
	}
	return pid, true
}
