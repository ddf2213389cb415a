package qdrant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

const (
	DefaultImage         = "qdrant/qdrant:latest"
	DefaultContainerName = "n8ntools-qdrant"
	ContainerNamePrefix  = "n8ntools-qdrant-"
	DefaultPort          = "6333"
	ContainerPort        = "6333/tcp"
	DataDir              = "/qdrant/storage"
	Label                = "n8ntools-qdrant"
)

// ContainerStatus represents the state of the Qdrant container.
type ContainerStatus string

const (
	StatusRunning   ContainerStatus = "running"
	StatusStopped   ContainerStatus = "stopped"
	StatusNotFound  ContainerStatus = "not_found"
	StatusUnhealthy ContainerStatus = "unhealthy"
	StatusStarting  ContainerStatus = "starting"
)

// GenerateContainerName derives a per-home container name so two homes on
// one machine do not share a container.
func GenerateContainerName(homePath string) string {
	sum := sha256.Sum256([]byte(homePath))
	return ContainerNamePrefix + hex.EncodeToString(sum[:])[:8]
}

// DockerManager manages the Qdrant Docker container lifecycle.
type DockerManager struct {
	cli           *client.Client
	containerName string
	imageName     string
	dataPath      string // host path for storage (~/.n8ntools/qdrant)
	hostPort      string
	apiKey        string
	labels        map[string]string
}

// DockerConfig holds configuration for the Docker manager.
type DockerConfig struct {
	ContainerName string
	HomePath      string
	Image         string
	DataPath      string
	HostPort      string
	APIKey        string            // passed to Qdrant as QDRANT__SERVICE__API_KEY
	Labels        map[string]string // added to the container next to Label
}

// NewDockerManager creates a new Docker manager for Qdrant.
func NewDockerManager(cfg DockerConfig) (*DockerManager, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	if cfg.ContainerName == "" {
		if cfg.HomePath != "" {
			cfg.ContainerName = GenerateContainerName(cfg.HomePath)
		} else {
			cfg.ContainerName = DefaultContainerName
		}
	}
	if cfg.Image == "" {
		cfg.Image = DefaultImage
	}
	if cfg.HostPort == "" {
		cfg.HostPort = DefaultPort
	}

	labels := map[string]string{Label: "true"}
	for k, v := range cfg.Labels {
		labels[k] = v
	}

	return &DockerManager{
		cli:           cli,
		containerName: cfg.ContainerName,
		imageName:     cfg.Image,
		dataPath:      cfg.DataPath,
		hostPort:      cfg.HostPort,
		apiKey:        cfg.APIKey,
		labels:        labels,
	}, nil
}

// Close closes the Docker client.
func (m *DockerManager) Close() error {
	return m.cli.Close()
}

// ContainerName returns the managed container's name.
func (m *DockerManager) ContainerName() string {
	return m.containerName
}

// APIKey returns the key the container is started with.
func (m *DockerManager) APIKey() string {
	return m.apiKey
}

// Start starts the container, creating it if needed. A running container
// is left alone.
func (m *DockerManager) Start(ctx context.Context) error {
	if _, err := m.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker is not running: %w", err)
	}

	status, containerID, err := m.getContainerStatus(ctx)
	if err != nil {
		return err
	}

	switch status {
	case StatusRunning:
		return nil
	case StatusStopped:
		if err := m.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
			return fmt.Errorf("failed to start existing container: %w", err)
		}
		return m.waitForReady(ctx, 30*time.Second)
	case StatusNotFound:
		return m.createAndStart(ctx)
	default:
		return fmt.Errorf("container in unexpected state: %s", status)
	}
}

// Stop stops the container.
func (m *DockerManager) Stop(ctx context.Context) error {
	status, containerID, err := m.getContainerStatus(ctx)
	if err != nil {
		return err
	}
	if status == StatusNotFound {
		return nil
	}

	timeout := 10
	if err := m.cli.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	return nil
}

// Remove stops and removes the container. Host storage is kept.
func (m *DockerManager) Remove(ctx context.Context) error {
	status, containerID, err := m.getContainerStatus(ctx)
	if err != nil {
		return err
	}
	if status == StatusNotFound {
		return nil
	}

	if status == StatusRunning {
		if err := m.Stop(ctx); err != nil {
			return err
		}
	}

	if err := m.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// Status returns the current status of the container.
func (m *DockerManager) Status(ctx context.Context) (ContainerStatus, error) {
	status, _, err := m.getContainerStatus(ctx)
	return status, err
}

// Logs returns the last tail lines of container output.
func (m *DockerManager) Logs(ctx context.Context, tail string) (string, error) {
	status, containerID, err := m.getContainerStatus(ctx)
	if err != nil {
		return "", err
	}
	if status == StatusNotFound {
		return "", fmt.Errorf("container %s not found", m.containerName)
	}

	logs, err := m.cli.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       tail,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get logs: %w", err)
	}
	defer logs.Close()

	logBytes, err := io.ReadAll(logs)
	if err != nil {
		return "", fmt.Errorf("failed to read logs: %w", err)
	}
	return string(logBytes), nil
}

// URL returns the Qdrant REST URL on the host.
func (m *DockerManager) URL() string {
	return fmt.Sprintf("http://localhost:%s", m.hostPort)
}

// ValidateExisting checks that an existing container uses the configured
// port and storage mount.
func (m *DockerManager) ValidateExisting(ctx context.Context) error {
	status, containerID, err := m.getContainerStatus(ctx)
	if err != nil {
		return err
	}
	if status == StatusNotFound {
		return nil
	}

	info, err := m.cli.ContainerInspect(ctx, containerID)
	if err != nil {
		return fmt.Errorf("failed to inspect container: %w", err)
	}

	bindings := info.HostConfig.PortBindings[ContainerPort]
	if len(bindings) == 0 {
		return fmt.Errorf("existing container has no port binding for %s", ContainerPort)
	}
	if bound := bindings[0].HostPort; bound != m.hostPort {
		return fmt.Errorf("existing container bound to port %s, expected %s", bound, m.hostPort)
	}

	if m.dataPath != "" {
		found := false
		for _, mnt := range info.Mounts {
			if mnt.Destination == DataDir {
				if mnt.Source != m.dataPath {
					return fmt.Errorf("existing container mounts %s, expected %s", mnt.Source, m.dataPath)
				}
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("existing container has no mount for %s", DataDir)
		}
	}
	return nil
}

// WaitReady waits for Qdrant to accept requests.
func (m *DockerManager) WaitReady(ctx context.Context, timeout time.Duration) error {
	return m.waitForReady(ctx, timeout)
}

func (m *DockerManager) createAndStart(ctx context.Context) error {
	if err := m.ensureImage(ctx); err != nil {
		return err
	}

	containerConfig := &container.Config{
		Image:  m.imageName,
		Labels: m.labels,
		ExposedPorts: nat.PortSet{
			ContainerPort: struct{}{},
		},
	}
	if m.apiKey != "" {
		containerConfig.Env = []string{"QDRANT__SERVICE__API_KEY=" + m.apiKey}
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			ContainerPort: []nat.PortBinding{
				{HostIP: "127.0.0.1", HostPort: m.hostPort},
			},
		},
	}
	if m.dataPath != "" {
		hostConfig.Mounts = []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: m.dataPath,
				Target: DataDir,
			},
		}
	}

	resp, err := m.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, m.containerName)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	if err := m.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = m.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return fmt.Errorf("failed to start container: %w", err)
	}

	return m.waitForReady(ctx, 30*time.Second)
}

func (m *DockerManager) getContainerStatus(ctx context.Context) (ContainerStatus, string, error) {
	filterArgs := filters.NewArgs()
	filterArgs.Add("name", m.containerName)

	containers, err := m.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to list containers: %w", err)
	}

	// The name filter matches substrings; pick the exact name.
	for _, c := range containers {
		for _, name := range c.Names {
			if name != "/"+m.containerName {
				continue
			}
			switch c.State {
			case "running":
				return StatusRunning, c.ID, nil
			case "exited", "dead":
				return StatusStopped, c.ID, nil
			case "created", "restarting":
				return StatusStarting, c.ID, nil
			default:
				return ContainerStatus(c.State), c.ID, nil
			}
		}
	}
	return StatusNotFound, "", nil
}

// waitForReady polls /readyz. The image ships without curl, so there is no
// container healthcheck to rely on.
func (m *DockerManager) waitForReady(ctx context.Context, timeout time.Duration) error {
	httpClient := &http.Client{Timeout: 2 * time.Second}
	url := m.URL() + "/readyz"

	attempts := uint(timeout.Seconds())
	if attempts == 0 {
		attempts = 1
	}

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := httpClient.Do(req)
			if err != nil {
				return err
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unhealthy status: %d", resp.StatusCode)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(1*time.Second),
		retry.DelayType(retry.FixedDelay),
	)
}

func (m *DockerManager) ensureImage(ctx context.Context) error {
	if _, err := m.cli.ImageInspect(ctx, m.imageName); err == nil {
		return nil
	}

	reader, err := m.cli.ImagePull(ctx, m.imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	_, err = io.Copy(io.Discard, reader)
	return err
}
