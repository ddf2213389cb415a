package qdrant

import (
	"context"
	"testing"
	"time"

	"github.com/jackzampolin/n8ntools/internal/testutil"
)

func TestDockerConfig_Defaults(t *testing.T) {
	if DefaultContainerName != "n8ntools-qdrant" {
		t.Errorf("unexpected default container name: %s", DefaultContainerName)
	}
	if DefaultImage != "qdrant/qdrant:latest" {
		t.Errorf("unexpected default image: %s", DefaultImage)
	}
	if DefaultPort != "6333" {
		t.Errorf("unexpected default port: %s", DefaultPort)
	}
}

func TestGenerateContainerName(t *testing.T) {
	tests := []struct {
		homePath string
		want     string
	}{
		{"/home/user/.n8ntools", "n8ntools-qdrant-ffe91ff2"},
		{"/Users/jo/.n8ntools", "n8ntools-qdrant-f6603b0e"},
		{"", "n8ntools-qdrant-e3b0c442"},
	}
	for _, tt := range tests {
		if got := GenerateContainerName(tt.homePath); got != tt.want {
			t.Errorf("GenerateContainerName(%q) = %q, want %q", tt.homePath, got, tt.want)
		}
	}
	if GenerateContainerName("/a") == GenerateContainerName("/b") {
		t.Error("different homes must get different names")
	}
}

func TestNewDockerManager_ContainerNaming(t *testing.T) {
	tests := []struct {
		name string
		cfg  DockerConfig
		want string
	}{
		{"explicit name wins", DockerConfig{ContainerName: "custom", HomePath: "/h/.n8ntools"}, "custom"},
		{"derived from home", DockerConfig{HomePath: "/h/.n8ntools"}, GenerateContainerName("/h/.n8ntools")},
		{"default", DockerConfig{}, DefaultContainerName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, err := NewDockerManager(tt.cfg)
			if err != nil {
				t.Fatalf("NewDockerManager() error = %v", err)
			}
			defer mgr.Close()
			if mgr.ContainerName() != tt.want {
				t.Errorf("ContainerName() = %q, want %q", mgr.ContainerName(), tt.want)
			}
			if mgr.URL() != "http://localhost:6333" {
				t.Errorf("URL() = %q", mgr.URL())
			}
		})
	}
}

func TestDockerManager_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping docker test in short mode")
	}
	cli := testutil.RequireDocker(t)

	ctx := context.Background()
	port, err := testutil.FindFreePort()
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}

	mgr, err := NewDockerManager(DockerConfig{
		ContainerName: testutil.UniqueContainerName(t, "qdrant"),
		DataPath:      t.TempDir(),
		HostPort:      port,
		APIKey:        "integration-key",
		Labels:        map[string]string{"n8ntools.test": t.Name()},
	})
	if err != nil {
		t.Fatalf("NewDockerManager() error = %v", err)
	}
	defer mgr.Close()

	t.Run("Start", func(t *testing.T) {
		if err := mgr.Start(ctx); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if status, _ := mgr.Status(ctx); status != StatusRunning {
			t.Errorf("status = %s, want running", status)
		}
		if err := mgr.ValidateExisting(ctx); err != nil {
			t.Errorf("ValidateExisting() error = %v", err)
		}
		inspect, err := cli.ContainerInspect(ctx, mgr.ContainerName())
		if err != nil {
			t.Fatalf("ContainerInspect() error = %v", err)
		}
		if inspect.Config.Labels[Label] != "true" || inspect.Config.Labels["n8ntools.test"] != "TestDockerManager_Integration" {
			t.Errorf("labels = %v", inspect.Config.Labels)
		}
	})

	t.Run("Collections", func(t *testing.T) {
		c := NewClient(ClientConfig{URL: mgr.URL(), APIKey: "integration-key"})
		if _, err := c.CreateCollection(ctx, CollectionSpec{Name: "it_docs", VectorSize: 4, Distance: DistanceEuclidean}); err != nil {
			t.Fatalf("CreateCollection() error = %v", err)
		}
		d, err := c.GetCollection(ctx, "it_docs")
		if err != nil {
			t.Fatalf("GetCollection() error = %v", err)
		}
		if d.DistanceMetric != DistanceEuclidean || d.VectorSize != 4 {
			t.Errorf("details = %+v", d)
		}
	})

	t.Run("Stop", func(t *testing.T) {
		if err := mgr.Stop(ctx); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
		if status, _ := mgr.Status(ctx); status != StatusStopped {
			t.Errorf("status = %s, want stopped", status)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := mgr.Remove(ctx); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		if status, _ := mgr.Status(ctx); status != StatusNotFound {
			t.Errorf("status = %s, want not_found", status)
		}
		if _, err := mgr.Logs(ctx, "10"); err == nil {
			t.Error("expected error for removed container")
		}
	})
}

func TestDockerManager_WaitReadyTimeout(t *testing.T) {
	port, err := testutil.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	mgr, err := NewDockerManager(DockerConfig{HostPort: port})
	if err != nil {
		t.Fatalf("NewDockerManager() error = %v", err)
	}
	defer mgr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := mgr.WaitReady(ctx, time.Second); err == nil {
		t.Error("expected error with nothing listening")
	}
}
