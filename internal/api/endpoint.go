package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Endpoint defines both an HTTP route and its corresponding CLI command.
// This provides a single source of truth for API operations.
type Endpoint interface {
	// Route returns the HTTP method, path, and handler for this endpoint.
	Route() (method, path string, handler http.HandlerFunc)

	// RequiresInit returns true if this endpoint needs the server's managed
	// dependencies, i.e. the local Qdrant container, to be up.
	RequiresInit() bool

	// Command returns a Cobra command that calls this endpoint via HTTP.
	// getServerURL is called at runtime to get the server URL (deferred evaluation).
	// A nil command means the endpoint has no CLI form.
	Command(getServerURL func() string) *cobra.Command
}

// Grouped endpoints choose their CLI parent commands explicitly, e.g.
// []string{"rag", "collections"}. Other endpoints are grouped by the
// first path segment after /api.
type Grouped interface {
	CommandGroup() []string
}
