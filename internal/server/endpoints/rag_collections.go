package endpoints

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/n8ntools/internal/api"
	"github.com/jackzampolin/n8ntools/internal/qdrant"
	"github.com/jackzampolin/n8ntools/internal/svcctx"
)

var collectionsGroup = []string{"rag", "collections"}

// CollectionResponse is returned by create and delete.
type CollectionResponse struct {
	Status           string                    `json:"status"`
	CollectionName   string                    `json:"collection_name"`
	Message          string                    `json:"message"`
	Details          *qdrant.CollectionDetails `json:"details,omitempty"`
	ProcessingTimeMS float64                   `json:"processing_time_ms"`
}

// CollectionListResponse lists collection names.
type CollectionListResponse struct {
	Status      string   `json:"status"`
	Collections []string `json:"collections"`
	Count       int      `json:"count"`
}

// CollectionInfoResponse describes one collection.
type CollectionInfoResponse struct {
	Status  string                    `json:"status"`
	Exists  bool                      `json:"exists"`
	Details *qdrant.CollectionDetails `json:"details"`
	Message string                    `json:"message"`
}

// CreateCollectionEndpoint handles POST /api/rag/collections.
type CreateCollectionEndpoint struct{}

var _ api.Endpoint = (*CreateCollectionEndpoint)(nil)

func (e *CreateCollectionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/rag/collections", e.handler
}

func (e *CreateCollectionEndpoint) RequiresInit() bool { return true }

func (e *CreateCollectionEndpoint) CommandGroup() []string { return collectionsGroup }

// handler godoc
//
//	@Summary		Create a collection
//	@Description	Creates a Qdrant collection. With verify_embeddings the embedding model's
//	@Description	dimension must match vector_size. An existing collection is a 409 unless
//	@Description	force_recreate is set.
//	@Tags			rag
//	@Accept			json
//	@Produce		json
//	@Param			request	body		qdrant.CreateCollectionRequest	true	"Collection definition"
//	@Success		201		{object}	CollectionResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/rag/collections [post]
func (e *CreateCollectionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeErr(w, r, invalidInput("body", "", "JSON object", "failed to read request body: %v", err))
		return
	}
	req, err := qdrant.DecodeCreateRequest(body)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	spec, err := req.Spec()
	if err != nil {
		writeErr(w, r, err)
		return
	}
	client, err := qdrantFor(ctx, req.QdrantURL, req.QdrantAPIKey)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	if req.VerifyEmbeddings {
		if err := verifyDimension(ctx, req.MistralAPIKey, spec.VectorSize); err != nil {
			writeErr(w, r, err)
			return
		}
	}

	details, err := client.CreateCollection(ctx, spec)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	svcctx.LoggerFrom(ctx).Info("collection created",
		"collection", spec.Name,
		"vector_size", spec.VectorSize,
		"distance", spec.Distance,
		"qdrant", client.URL())

	writeJSON(w, http.StatusCreated, CollectionResponse{
		Status:           "success",
		CollectionName:   spec.Name,
		Message:          fmt.Sprintf("Collection '%s' created successfully", spec.Name),
		Details:          details,
		ProcessingTimeMS: msSince(start),
	})
}

// verifyDimension embeds a probe string and checks the vector length.
func verifyDimension(ctx context.Context, apiKey string, size int) error {
	registry := svcctx.RegistryFrom(ctx)
	if registry == nil {
		return errUnavailable
	}
	embedder, err := registry.Embedder()
	if err != nil {
		return err
	}
	dim, err := embedder.Dimension(ctx, apiKey)
	if err != nil {
		return fmt.Errorf("verify embeddings: %w", err)
	}
	if dim != size {
		return invalidInput("vector_size", fmt.Sprint(size), fmt.Sprint(dim),
			"vector_size %d does not match %s dimension %d", size, embedder.Model(), dim)
	}
	return nil
}

func (e *CreateCollectionEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req qdrant.CreateCollectionRequest
	var file string
	cmd := &cobra.Command{
		Use:   "create [NAME]",
		Short: "Create a Qdrant collection",
		Long: `Create a Qdrant collection.

The definition comes from flags, or from a JSON file with --file:

  n8ntools api rag collections create docs --vector-size 1024 --distance cosine
  n8ntools api rag collections create --file collection.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				decoded, err := qdrant.DecodeCreateRequest(data)
				if err != nil {
					return err
				}
				req = *decoded
			}
			if len(args) == 1 {
				req.CollectionName = args[0]
			}
			if req.CollectionName == "" {
				return fmt.Errorf("collection name is required")
			}
			client := api.NewClient(getServerURL())
			var resp CollectionResponse
			if err := client.Post(cmd.Context(), "/api/rag/collections", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with the collection definition")
	cmd.Flags().IntVar(&req.VectorSize, "vector-size", qdrant.DefaultVectorSize, "Vector dimension (1-4096)")
	cmd.Flags().StringVar(&req.DistanceMetric, "distance", "cosine", "cosine, euclidean or dot")
	cmd.Flags().BoolVar(&req.ForceRecreate, "force", false, "Delete and recreate an existing collection")
	cmd.Flags().BoolVar(&req.OnDisk, "on-disk", false, "Store vectors on disk")
	cmd.Flags().BoolVar(&req.VerifyEmbeddings, "verify-embeddings", false, "Check vector size against the embedding model")
	cmd.Flags().StringVar(&req.MistralAPIKey, "mistral-api-key", "", "Mistral key for --verify-embeddings")
	qdrantFlags(cmd, &req.QdrantURL, &req.QdrantAPIKey)
	return cmd
}

// ListCollectionsEndpoint handles GET /api/rag/collections.
type ListCollectionsEndpoint struct{}

var _ api.Endpoint = (*ListCollectionsEndpoint)(nil)

func (e *ListCollectionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/rag/collections", e.handler
}

func (e *ListCollectionsEndpoint) RequiresInit() bool { return true }

func (e *ListCollectionsEndpoint) CommandGroup() []string { return collectionsGroup }

// handler godoc
//
//	@Summary		List collections
//	@Tags			rag
//	@Produce		json
//	@Param			qdrant_url			query		string	false	"Qdrant server override"
//	@Param			X-Qdrant-Api-Key	header		string	false	"Qdrant API key override"
//	@Success		200					{object}	CollectionListResponse
//	@Failure		401					{object}	ErrorResponse
//	@Failure		502					{object}	ErrorResponse
//	@Router			/api/rag/collections [get]
func (e *ListCollectionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	client, err := qdrantFromRequest(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	names, err := client.ListCollections(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, CollectionListResponse{Status: "success", Collections: names, Count: len(names)})
}

func (e *ListCollectionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var qurl, qkey string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List Qdrant collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, path := withQdrant(api.NewClient(getServerURL()), "/api/rag/collections", qurl, qkey)
			var resp CollectionListResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	qdrantFlags(cmd, &qurl, &qkey)
	return cmd
}

// GetCollectionEndpoint handles GET /api/rag/collections/{name}.
type GetCollectionEndpoint struct{}

var _ api.Endpoint = (*GetCollectionEndpoint)(nil)

func (e *GetCollectionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/rag/collections/{name}", e.handler
}

func (e *GetCollectionEndpoint) RequiresInit() bool { return true }

func (e *GetCollectionEndpoint) CommandGroup() []string { return collectionsGroup }

// handler godoc
//
//	@Summary		Collection details
//	@Tags			rag
//	@Produce		json
//	@Param			name				path		string	true	"Collection name"
//	@Param			qdrant_url			query		string	false	"Qdrant server override"
//	@Param			X-Qdrant-Api-Key	header		string	false	"Qdrant API key override"
//	@Success		200					{object}	CollectionInfoResponse
//	@Failure		400					{object}	ErrorResponse
//	@Failure		404					{object}	ErrorResponse
//	@Failure		502					{object}	ErrorResponse
//	@Router			/api/rag/collections/{name} [get]
func (e *GetCollectionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	client, err := qdrantFromRequest(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	details, err := client.GetCollection(r.Context(), name)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CollectionInfoResponse{
		Status:  "success",
		Exists:  true,
		Details: details,
		Message: fmt.Sprintf("Collection '%s' found", name),
	})
}

func (e *GetCollectionEndpoint) Command(getServerURL func() string) *cobra.Command {
	var qurl, qkey string
	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Show a Qdrant collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, path := withQdrant(api.NewClient(getServerURL()), "/api/rag/collections/"+url.PathEscape(args[0]), qurl, qkey)
			var resp CollectionInfoResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	qdrantFlags(cmd, &qurl, &qkey)
	return cmd
}

// DeleteCollectionEndpoint handles DELETE /api/rag/collections/{name}.
type DeleteCollectionEndpoint struct{}

var _ api.Endpoint = (*DeleteCollectionEndpoint)(nil)

func (e *DeleteCollectionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/rag/collections/{name}", e.handler
}

func (e *DeleteCollectionEndpoint) RequiresInit() bool { return true }

func (e *DeleteCollectionEndpoint) CommandGroup() []string { return collectionsGroup }

// handler godoc
//
//	@Summary		Delete a collection
//	@Tags			rag
//	@Produce		json
//	@Param			name				path		string	true	"Collection name"
//	@Param			qdrant_url			query		string	false	"Qdrant server override"
//	@Param			X-Qdrant-Api-Key	header		string	false	"Qdrant API key override"
//	@Success		200					{object}	CollectionResponse
//	@Failure		404					{object}	ErrorResponse
//	@Failure		502					{object}	ErrorResponse
//	@Router			/api/rag/collections/{name} [delete]
func (e *DeleteCollectionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name := r.PathValue("name")
	client, err := qdrantFromRequest(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	deleted, err := client.DeleteCollection(r.Context(), name)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if !deleted {
		writeErr(w, r, fmt.Errorf("%w: %s", qdrant.ErrNotFound, name))
		return
	}
	svcctx.LoggerFrom(r.Context()).Info("collection deleted", "collection", name, "qdrant", client.URL())
	writeJSON(w, http.StatusOK, CollectionResponse{
		Status:           "success",
		CollectionName:   name,
		Message:          fmt.Sprintf("Collection '%s' deleted successfully", name),
		ProcessingTimeMS: msSince(start),
	})
}

func (e *DeleteCollectionEndpoint) Command(getServerURL func() string) *cobra.Command {
	var qurl, qkey string
	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a Qdrant collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, path := withQdrant(api.NewClient(getServerURL()), "/api/rag/collections/"+url.PathEscape(args[0]), qurl, qkey)
			var resp CollectionResponse
			if err := client.Delete(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	qdrantFlags(cmd, &qurl, &qkey)
	return cmd
}
