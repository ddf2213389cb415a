package main

import (
	"github.com/jackzampolin/n8ntools/internal/server/endpoints"
)

var serverURL string

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	apiCmd := endpoints.NewRegistry().BuildCommands(getServerURL)

	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	rootCmd.AddCommand(apiCmd)
}
