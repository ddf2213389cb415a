package api

import (
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a new endpoint registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an endpoint to the registry.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// RegisterRoutes registers all endpoint HTTP routes with the given mux.
// initMiddleware wraps handlers that require full server initialization.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, initMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = initMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// BuildCommands returns a cobra.Command tree for all registered endpoints.
// Commands are organized by their URL path structure: /api/pdf/... lands
// under "api pdf", routes outside /api sit directly under "api".
// getServerURL is called at runtime to get the server URL.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running n8ntools server via HTTP.

These commands require a running server (n8ntools serve).
Use --server to specify a custom server URL.

Examples:
  n8ntools api health                                   # Check server health
  n8ntools api pdf split-ranges doc.pdf --ranges 1-3,5  # Split into a ZIP
  n8ntools api rag collections list                     # List Qdrant collections`,
	}

	groups := map[string]*cobra.Command{}
	for _, ep := range r.endpoints {
		cmd := ep.Command(getServerURL)
		if cmd == nil {
			continue
		}
		parent := apiCmd
		key := ""
		for _, name := range commandGroup(ep) {
			key += "/" + name
			g, ok := groups[key]
			if !ok {
				g = &cobra.Command{Use: name, Short: strings.ToUpper(name[:1]) + name[1:] + " commands"}
				groups[key] = g
				parent.AddCommand(g)
			}
			parent = g
		}
		parent.AddCommand(cmd)
	}

	return apiCmd
}

func commandGroup(ep Endpoint) []string {
	if g, ok := ep.(Grouped); ok {
		return g.CommandGroup()
	}
	_, path, _ := ep.Route()
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return nil
	}
	group, _, _ := strings.Cut(rest, "/")
	if group == "" {
		return nil
	}
	return []string{group}
}

// Endpoints returns all registered endpoints.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}
