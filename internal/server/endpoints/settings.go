package endpoints

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/n8ntools/internal/api"
	"github.com/jackzampolin/n8ntools/internal/config"
	"github.com/jackzampolin/n8ntools/internal/svcctx"
)

// SettingsResponse contains the effective configuration.
type SettingsResponse struct {
	ConfigFile string         `json:"config_file,omitempty"`
	Settings   []config.Entry `json:"settings"`
}

// SettingResponse contains a single config entry.
type SettingResponse struct {
	Entry   *config.Entry `json:"entry"`
	Default any           `json:"default"`
}

// maskEntry hides credential values. Unset keys and ${ENV_VAR}
// references are shown as written.
func maskEntry(e *config.Entry) {
	e.Value = config.MaskSecret(e.Key, e.Value)
}

// ListSettingsEndpoint handles GET /api/settings.
type ListSettingsEndpoint struct{}

var _ api.Endpoint = (*ListSettingsEndpoint)(nil)

func (e *ListSettingsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings", e.handler
}

func (e *ListSettingsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		List all settings
//	@Description	Effective configuration as dotted keys. API keys are masked.
//	@Tags			settings
//	@Produce		json
//	@Param			prefix	query		string	false	"Only keys starting with prefix, e.g. ocr."
//	@Success		200		{object}	SettingsResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/settings [get]
func (e *ListSettingsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	entries, err := config.Entries(svcctx.ConfigFrom(r.Context()))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	prefix := r.URL.Query().Get("prefix")
	resp := SettingsResponse{Settings: make([]config.Entry, 0, len(entries))}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Key, prefix) {
			continue
		}
		maskEntry(&entry)
		resp.Settings = append(resp.Settings, entry)
	}
	if services := svcctx.ServicesFrom(r.Context()); services != nil && services.Config != nil {
		resp.ConfigFile = services.Config.ConfigFileUsed()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListSettingsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the server's effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/settings"
			if prefix != "" {
				path += "?prefix=" + url.QueryEscape(prefix)
			}
			var resp SettingsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Filter by key prefix (e.g., 'ocr.')")
	return cmd
}

// GetSettingEndpoint handles GET /api/settings/{key...}.
type GetSettingEndpoint struct{}

var _ api.Endpoint = (*GetSettingEndpoint)(nil)

func (e *GetSettingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings/{key...}", e.handler
}

func (e *GetSettingEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Get a setting
//	@Description	Get a single configuration setting and its default by dotted key
//	@Tags			settings
//	@Produce		json
//	@Param			key	path		string	true	"Setting key, e.g. pdf.max_merge_sources"
//	@Success		200	{object}	SettingResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/settings/{key} [get]
func (e *GetSettingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil {
		writeErr(w, r, invalidInput("key", r.PathValue("key"), "", "invalid key encoding"))
		return
	}
	entry, err := config.Lookup(svcctx.ConfigFrom(r.Context()), key)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	maskEntry(entry)
	resp := SettingResponse{Entry: entry}
	if def := config.GetDefault(key); def != nil {
		maskEntry(def)
		resp.Default = def.Value
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *GetSettingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a setting by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SettingResponse
			if err := client.Get(cmd.Context(), "/api/settings/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
