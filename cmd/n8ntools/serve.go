package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/n8ntools/internal/config"
	"github.com/jackzampolin/n8ntools/internal/home"
	"github.com/jackzampolin/n8ntools/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the n8ntools server",
	Long: `Start the n8ntools HTTP server.

Configuration is read from --config, then ~/.n8ntools/config.yaml, then
./config.yaml. Changes to the file are applied without a restart.

With qdrant.docker.enabled set, a local Qdrant container is started first
and stopped again when the server shuts down (Ctrl+C or SIGTERM).

The server provides:
  - /health       - Liveness check
  - /ready        - Readiness check (OCR provider and Qdrant)
  - /api/pdf/...  - Split, merge and inspect PDFs
  - /api/ocr/...  - Mistral OCR
  - /api/rag/...  - Qdrant collections
  - /swagger      - API documentation

Examples:
  n8ntools serve                    # Start on the configured port (8080)
  n8ntools serve --port 3000        # Start on custom port
  n8ntools serve --host 127.0.0.1   # Bind to loopback only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := getHome()
		if err != nil {
			return err
		}
		if pid, running := h.RunningPid(); running {
			return fmt.Errorf("server already running (pid %d)", pid)
		}

		cfgMgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			if err := cfgMgr.Override("server.host", serveHost); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("port") {
			if err := cfgMgr.Override("server.port", servePort); err != nil {
				return err
			}
		}

		level := new(slog.LevelVar)
		level.Set(parseLevel(cfgMgr.Get().Logging.Level))
		logger := newLogger(cfgMgr.Get().Logging.Format, level)
		slog.SetDefault(logger)
		cfgMgr.OnChange(func(c *config.Config) {
			level.Set(parseLevel(c.Logging.Level))
		})
		cfgMgr.SetLogger(logger)
		if used := cfgMgr.ConfigFileUsed(); used != "" {
			logger.Info("using config file", "path", used)
			cfgMgr.WatchConfig()
		}

		srv, err := server.New(server.Config{
			ConfigManager: cfgMgr,
			Home:          h,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		if err := home.WritePidFile(h.PidPath()); err != nil {
			logger.Warn("failed to write pid file", "error", err)
		}
		defer home.RemovePidFile(h.PidPath())

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "Host to bind to (overrides server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on (overrides server.port)")

	rootCmd.AddCommand(serveCmd)
}

// loadConfig prefers --config, then the home directory's config file,
// then viper's search path.
func loadConfig(h *home.Dir) (*config.Manager, error) {
	path := cfgFile
	if path == "" && h.ConfigExists() {
		path = h.ConfigPath()
	}
	return config.NewManager(path)
}

// newLogger builds the slog handler named by logging.format. The level
// is shared so config reloads can change it.
func newLogger(format string, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
