package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/n8ntools/internal/home"
	"github.com/jackzampolin/n8ntools/internal/qdrant"
)

var qdrantCmd = &cobra.Command{
	Use:   "qdrant",
	Short: "Manage the local Qdrant container",
	Long: `Manage a local Qdrant container for development.

The container uses the qdrant.docker settings from the config file and
stores data in ~/.n8ntools/qdrant/. 'n8ntools serve' manages the same
container when qdrant.docker.enabled is set.

Examples:
  n8ntools qdrant start   # Start the Qdrant container
  n8ntools qdrant stop    # Stop the container (data preserved)
  n8ntools qdrant status  # Check container status
  n8ntools qdrant logs    # View container logs`,
}

var qdrantStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Qdrant container",
	Long: `Start the Qdrant container.

If the container doesn't exist, it will be created and started.
If it exists but is stopped, it will be started.
If it's already running, this is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := getQdrantManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Starting Qdrant...")
		if err := mgr.Start(cmd.Context()); err != nil {
			return fmt.Errorf("failed to start Qdrant: %w", err)
		}

		fmt.Printf("Qdrant is running at %s\n", mgr.URL())
		return nil
	},
}

var qdrantStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the Qdrant container",
	Long: `Stop the Qdrant container.

This stops the container but preserves data. Use 'n8ntools qdrant start'
to restart it later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := getQdrantManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Stopping Qdrant...")
		if err := mgr.Stop(cmd.Context()); err != nil {
			return fmt.Errorf("failed to stop Qdrant: %w", err)
		}

		fmt.Println("Qdrant stopped")
		return nil
	},
}

var qdrantStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Qdrant container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getQdrantManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		status, err := mgr.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}

		switch status {
		case qdrant.StatusRunning:
			fmt.Printf("Status: %s\n", status)
			fmt.Printf("URL: %s\n", mgr.URL())

			client := qdrant.NewClient(qdrant.ClientConfig{URL: mgr.URL(), APIKey: mgr.APIKey()})
			if err := client.HealthCheck(ctx); err != nil {
				fmt.Printf("Health: unhealthy (%v)\n", err)
			} else {
				fmt.Println("Health: healthy")
			}
		case qdrant.StatusStopped:
			fmt.Printf("Status: %s (use 'n8ntools qdrant start' to start)\n", status)
		case qdrant.StatusNotFound:
			fmt.Printf("Status: %s (use 'n8ntools qdrant start' to create)\n", status)
		default:
			fmt.Printf("Status: %s\n", status)
		}

		return nil
	},
}

var logsTail string

var qdrantLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show Qdrant container logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := getQdrantManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		logs, err := mgr.Logs(cmd.Context(), logsTail)
		if err != nil {
			return fmt.Errorf("failed to get logs: %w", err)
		}

		fmt.Print(logs)
		return nil
	},
}

var qdrantRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the Qdrant container",
	Long: `Remove the Qdrant container.

This stops and removes the container. Data in ~/.n8ntools/qdrant/
is NOT deleted - only the container is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := getQdrantManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Removing Qdrant container...")
		if err := mgr.Remove(cmd.Context()); err != nil {
			return fmt.Errorf("failed to remove container: %w", err)
		}

		fmt.Println("Qdrant container removed (data preserved)")
		return nil
	},
}

var qdrantWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for Qdrant to be ready",
	Long: `Wait for Qdrant to be ready to accept connections.

This is useful in scripts to ensure Qdrant is fully started
before creating collections.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := getQdrantManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		timeout, _ := cmd.Flags().GetDuration("timeout")
		fmt.Printf("Waiting for Qdrant (timeout: %s)...\n", timeout)

		if err := mgr.WaitReady(cmd.Context(), timeout); err != nil {
			return fmt.Errorf("Qdrant not ready: %w", err)
		}

		fmt.Println("Qdrant is ready")
		return nil
	},
}

func init() {
	qdrantCmd.AddCommand(qdrantStartCmd)
	qdrantCmd.AddCommand(qdrantStopCmd)
	qdrantCmd.AddCommand(qdrantStatusCmd)
	qdrantCmd.AddCommand(qdrantLogsCmd)
	qdrantCmd.AddCommand(qdrantRemoveCmd)
	qdrantCmd.AddCommand(qdrantWaitCmd)

	qdrantLogsCmd.Flags().StringVar(&logsTail, "tail", "100", "Number of lines to show from the end")
	qdrantWaitCmd.Flags().Duration("timeout", 30*time.Second, "Timeout waiting for Qdrant")

	rootCmd.AddCommand(qdrantCmd)
}

// getHome returns the home directory manager.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

// getQdrantManager creates a DockerManager from the qdrant.docker settings.
func getQdrantManager() (*qdrant.DockerManager, error) {
	h, err := getHome()
	if err != nil {
		return nil, err
	}
	cfgMgr, err := loadConfig(h)
	if err != nil {
		return nil, err
	}
	cfg := cfgMgr.Get()

	return qdrant.NewDockerManager(qdrant.DockerConfig{
		ContainerName: cfg.Qdrant.Docker.ContainerName,
		Image:         cfg.Qdrant.Docker.Image,
		HostPort:      cfg.Qdrant.Docker.Port,
		APIKey:        cfg.QdrantAPIKey(),
		HomePath:      h.Path(),
		DataPath:      h.QdrantPath(),
	})
}
