package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// ContainerPrefix starts the name of every container a test creates.
const ContainerPrefix = "n8ntools-test-"

func newDockerClient() (*client.Client, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

// RequireDocker skips the test unless a Docker daemon answers. The
// returned client is closed when the test ends.
func RequireDocker(t testing.TB) *client.Client {
	t.Helper()

	cli, err := newDockerClient()
	if err != nil {
		t.Skipf("docker client unavailable: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		t.Skipf("docker is not running: %v", err)
	}
	t.Cleanup(func() { cli.Close() })
	return cli
}

// UniqueContainerName returns a fresh Qdrant container name for the test,
// e.g. n8ntools-test-qdrant-TestServer-ManagedQdrant-1a2b3c4d. The
// container and its volumes are removed when the test ends, whoever
// created it.
func UniqueContainerName(t testing.TB, prefix string) string {
	t.Helper()
	name := fmt.Sprintf("%s%s-%s-%s", ContainerPrefix, prefix, sanitizeName(t.Name()), randString(4))
	t.Cleanup(func() {
		if err := removeContainer(name); err != nil {
			t.Logf("failed to remove container %s: %v", name, err)
		}
	})
	return name
}

func removeContainer(name string) error {
	cli, err := newDockerClient()
	if err != nil {
		return err
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true, RemoveVolumes: true})
	if err != nil && !client.IsErrNotFound(err) {
		return err
	}
	return nil
}

// RemoveStaleContainers removes test containers left behind by
// interrupted runs. It does nothing when Docker is not reachable.
func RemoveStaleContainers(ctx context.Context) (int, error) {
	cli, err := newDockerClient()
	if err != nil {
		return 0, nil
	}
	defer cli.Close()
	if _, err := cli.Ping(ctx); err != nil {
		return 0, nil
	}

	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", ContainerPrefix)),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list containers: %w", err)
	}

	removed := 0
	for _, c := range containers {
		// The name filter matches substrings.
		if len(c.Names) == 0 || !strings.HasPrefix(strings.TrimPrefix(c.Names[0], "/"), ContainerPrefix) {
			continue
		}
		if err := cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil && !client.IsErrNotFound(err) {
			return removed, fmt.Errorf("failed to remove container %s: %w", c.Names[0], err)
		}
		removed++
	}
	return removed, nil
}

func randString(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// sanitizeName converts a test name to a valid container name component.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == '/' || c == '_' || c == '-':
			b.WriteByte('-')
		}
		if b.Len() == 30 {
			break
		}
	}
	return b.String()
}
