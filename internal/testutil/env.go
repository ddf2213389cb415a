package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ServerConfig holds the values a test needs to stand up a server. It
// avoids importing the server package directly.
type ServerConfig struct {
	Host       string
	Port       string
	HomePath   string
	ConfigFile string
	Logger     *slog.Logger
}

// NewServerConfig creates a temp home directory and a config file bound to
// a free port. extra is appended to the generated YAML and may add sections
// such as qdrant or rate_limit.
func NewServerConfig(t *testing.T, extra string) ServerConfig {
	t.Helper()

	httpPort, err := FindFreePort()
	if err != nil {
		t.Fatalf("failed to find free port for HTTP: %v", err)
	}

	home := t.TempDir()
	yaml := fmt.Sprintf("server:\n  host: 127.0.0.1\n  port: %q\n", httpPort) + extra
	return ServerConfig{
		Host:       "127.0.0.1",
		Port:       httpPort,
		HomePath:   home,
		ConfigFile: WriteConfig(t, home, yaml),
		Logger:     QuietLogger(),
	}
}

// URL returns the server URL for the given config.
func (c ServerConfig) URL() string {
	return fmt.Sprintf("http://%s:%s", c.Host, c.Port)
}

// WriteConfig writes yaml to dir/config.yaml and returns its path.
func WriteConfig(t testing.TB, dir, yaml string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// QuietLogger discards everything below warn. Set N8NTOOLS_TEST_LOG=1 to
// see debug output on stderr.
func QuietLogger() *slog.Logger {
	if os.Getenv("N8NTOOLS_TEST_LOG") != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// WaitForServer polls /health until the server answers.
func WaitForServer(url string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server not ready after %v", timeout)
}

// WaitForShutdown waits for a channel to receive a value or timeout.
func WaitForShutdown(done <-chan error, timeout time.Duration) error {
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for shutdown")
	}
}

// HTTPClient returns an HTTP client for making requests.
func HTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// FindFreePort finds an available TCP port and returns it as a string.
func FindFreePort() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer listener.Close()
	return fmt.Sprintf("%d", listener.Addr().(*net.TCPAddr).Port), nil
}

// StartServer is a helper type for managing server lifecycle in tests.
// Usage:
//
//	cfg := testutil.NewServerConfig(t, "")
//	srv, err := server.New(server.Config{...from cfg...})
//	starter := testutil.StartServer{Cancel: cancel, Done: done}
//	t.Cleanup(func() { starter.Stop() })
type StartServer struct {
	Cancel context.CancelFunc
	Done   <-chan error
}

// Stop cancels the server context and waits for shutdown.
func (s *StartServer) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
	if s.Done != nil {
		<-s.Done
	}
}

// StatusResponse matches the fields of GET /status that tests check.
type StatusResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
	Qdrant  struct {
		URL       string `json:"url"`
		Health    string `json:"health"`
		Container string `json:"container"`
	} `json:"qdrant"`
}

// GetStatus fetches the /status endpoint and returns the parsed response.
func GetStatus(url string) (*StatusResponse, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url + "/status")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}
