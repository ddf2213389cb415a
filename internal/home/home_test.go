package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-n8ntools")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-n8ntools" {
			t.Errorf("expected path /tmp/test-n8ntools, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-n8ntools")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"QdrantPath", dir.QdrantPath(), "/tmp/test-n8ntools/qdrant"},
		{"ConfigPath", dir.ConfigPath(), "/tmp/test-n8ntools/config.yaml"},
		{"PidPath", dir.PidPath(), "/tmp/test-n8ntools/n8ntools.pid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}

func TestDir_EnsureExists(t *testing.T) {
	dir, err := New(filepath.Join(t.TempDir(), "n8ntools-test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir.Exists() {
		t.Error("directory should not exist before EnsureExists")
	}
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	if !dir.Exists() {
		t.Error("directory should exist after EnsureExists")
	}
	if _, err := os.Stat(dir.QdrantPath()); os.IsNotExist(err) {
		t.Error("qdrant directory should exist after EnsureExists")
	}
}

func TestDir_ConfigExists(t *testing.T) {
	dir, _ := New(t.TempDir())

	if dir.ConfigExists() {
		t.Error("config should not exist initially")
	}
	if err := os.WriteFile(dir.ConfigPath(), []byte("test: true\n"), 0o644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if !dir.ConfigExists() {
		t.Error("config should exist after creation")
	}
}

func TestPidFile(t *testing.T) {
	dir, _ := New(t.TempDir())

	if _, ok := dir.RunningPid(); ok {
		t.Fatal("no pid file should mean no running server")
	}

	if err := WritePidFile(dir.PidPath()); err != nil {
		t.Fatalf("WritePidFile() error = %v", err)
	}
	pid, ok := dir.RunningPid()
	if !ok || pid != os.Getpid() {
		t.Errorf("RunningPid() = %d, %v, want %d, true", pid, ok, os.Getpid())
	}

	RemovePidFile(dir.PidPath())
	if _, err := ReadPidFile(dir.PidPath()); err == nil {
		t.Error("expected error reading removed pid file")
	}
}

func TestPidFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pid")
	if err := os.WriteFile(path, []byte("not-a-pid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPidFile(path); err == nil {
		t.Error("expected error for invalid pid contents")
	}
	if IsProcessAlive(0) {
		t.Error("pid 0 should not be reported alive")
	}
}
