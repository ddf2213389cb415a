package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/n8ntools/internal/api"
	"github.com/jackzampolin/n8ntools/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and initialize the local configuration",
	Long: `Work with the configuration file without a running server.

Examples:
  n8ntools config init                  # Write defaults to ~/.n8ntools/config.yaml
  n8ntools config show                  # Print the effective configuration
  n8ntools config get qdrant.url        # Print a single setting`,
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		path := cfgFile
		if path == "" {
			path = h.ConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (API keys masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		cfgMgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		flat, err := config.Flatten(cfgMgr.Get())
		if err != nil {
			return err
		}
		for key, value := range flat {
			flat[key] = config.MaskSecret(key, value)
		}
		return api.Output(flat)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a single setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		cfgMgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		entry, err := config.Lookup(cfgMgr.Get(), strings.TrimSpace(args[0]))
		if err != nil {
			return err
		}
		entry.Value = config.MaskSecret(entry.Key, entry.Value)
		return api.Output(entry)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)

	rootCmd.AddCommand(configCmd)
}
