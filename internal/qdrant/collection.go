package qdrant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	DefaultVectorSize = 1024
	MaxVectorSize     = 4096
	MaxNameLength     = 255
)

// ErrInvalidRequest is returned when a collection request fails validation.
var ErrInvalidRequest = errors.New("invalid collection request")

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Distance is the similarity metric of a collection.
type Distance string

const (
	DistanceCosine    Distance = "cosine"
	DistanceEuclidean Distance = "euclidean"
	DistanceDot       Distance = "dot"
)

// ParseDistance accepts the API names and Qdrant's own spelling.
func ParseDistance(s string) (Distance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cosine":
		return DistanceCosine, nil
	case "euclidean", "euclid":
		return DistanceEuclidean, nil
	case "dot":
		return DistanceDot, nil
	}
	return "", fmt.Errorf("%w: distance_metric %q is not one of cosine, euclidean, dot", ErrInvalidRequest, s)
}

// Qdrant returns the name Qdrant's REST API uses.
func (d Distance) Qdrant() string {
	switch d {
	case DistanceEuclidean:
		return "Euclid"
	case DistanceDot:
		return "Dot"
	default:
		return "Cosine"
	}
}

// ValidateCollectionName checks the name Qdrant will accept in a path.
func ValidateCollectionName(name string) error {
	if name == "" || len(name) > MaxNameLength {
		return fmt.Errorf("%w: collection_name must be 1-%d characters", ErrInvalidRequest, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: collection_name may contain only letters, digits, '_' and '-'", ErrInvalidRequest)
	}
	return nil
}

// CollectionSpec is a validated create request.
type CollectionSpec struct {
	Name          string
	VectorSize    int
	Distance      Distance
	ForceRecreate bool
	OnDisk        bool
}

func (s CollectionSpec) payload() map[string]any {
	return map[string]any{
		"vectors": map[string]any{
			"size":     s.VectorSize,
			"distance": s.Distance.Qdrant(),
			"on_disk":  s.OnDisk,
		},
		"optimizers_config": map[string]any{
			"default_segment_number": 2,
			"indexing_threshold":     20000,
		},
		"hnsw_config": map[string]any{
			"m":                   16,
			"ef_construct":        100,
			"full_scan_threshold": 10000,
			"on_disk":             s.OnDisk,
		},
		"wal_config": map[string]any{
			"wal_capacity_mb": 32,
		},
	}
}

func (s CollectionSpec) details() *CollectionDetails {
	return NewCollectionDetails(s.Name, s.VectorSize, s.Distance, "green", 0, 0, 0, s.OnDisk)
}

// CollectionDetails describes a collection.
type CollectionDetails struct {
	Name                string   `json:"name"`
	VectorSize          int      `json:"vector_size"`
	DistanceMetric      Distance `json:"distance_metric"`
	Status              string   `json:"status"`
	PointsCount         int64    `json:"points_count"`
	IndexedVectorsCount int64    `json:"indexed_vectors_count"`
	SegmentsCount       int      `json:"segments_count"`
	StorageType         string   `json:"storage_type"`
}

// NewCollectionDetails fills every field.
func NewCollectionDetails(name string, size int, distance Distance, status string, points, indexed int64, segments int, onDisk bool) *CollectionDetails {
	storage := "memory"
	if onDisk {
		storage = "disk"
	}
	return &CollectionDetails{
		Name:                name,
		VectorSize:          size,
		DistanceMetric:      distance,
		Status:              status,
		PointsCount:         points,
		IndexedVectorsCount: indexed,
		SegmentsCount:       segments,
		StorageType:         storage,
	}
}

// collectionInfo is the result of GET /collections/{name}.
type collectionInfo struct {
	Status              string `json:"status"`
	PointsCount         *int64 `json:"points_count"`
	IndexedVectorsCount *int64 `json:"indexed_vectors_count"`
	SegmentsCount       int    `json:"segments_count"`
	Config              struct {
		Params struct {
			Vectors json.RawMessage `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
	OnDisk   bool   `json:"on_disk"`
}

// details handles both the single unnamed vector config and named vectors,
// reporting the first named vector in sorted order.
func (ci collectionInfo) details(name string) *CollectionDetails {
	var vp vectorParams
	if err := json.Unmarshal(ci.Config.Params.Vectors, &vp); err != nil || vp.Size == 0 {
		var named map[string]vectorParams
		if json.Unmarshal(ci.Config.Params.Vectors, &named) == nil {
			first := ""
			for k := range named {
				if first == "" || k < first {
					first = k
				}
			}
			vp = named[first]
		}
	}
	distance, err := ParseDistance(vp.Distance)
	if err != nil {
		distance = Distance(strings.ToLower(vp.Distance))
	}
	var points, indexed int64
	if ci.PointsCount != nil {
		points = *ci.PointsCount
	}
	if ci.IndexedVectorsCount != nil {
		indexed = *ci.IndexedVectorsCount
	}
	return NewCollectionDetails(name, vp.Size, distance, ci.Status, points, indexed, ci.SegmentsCount, vp.OnDisk)
}

// CreateCollectionRequest is the body of a create request.
type CreateCollectionRequest struct {
	CollectionName   string `json:"collection_name"`
	VectorSize       int    `json:"vector_size,omitempty"`
	DistanceMetric   string `json:"distance_metric,omitempty"`
	ForceRecreate    bool   `json:"force_recreate,omitempty"`
	OnDisk           bool   `json:"on_disk,omitempty"`
	QdrantURL        string `json:"qdrant_url,omitempty"`
	QdrantAPIKey     string `json:"qdrant_api_key,omitempty"`
	MistralAPIKey    string `json:"mistral_api_key,omitempty"`
	VerifyEmbeddings bool   `json:"verify_embeddings,omitempty"`
}

// Spec converts the request, applying defaults.
func (r CreateCollectionRequest) Spec() (CollectionSpec, error) {
	distance, err := ParseDistance(r.DistanceMetric)
	if err != nil {
		return CollectionSpec{}, err
	}
	size := r.VectorSize
	if size == 0 {
		size = DefaultVectorSize
	}
	if size < 1 || size > MaxVectorSize {
		return CollectionSpec{}, fmt.Errorf("%w: vector_size must be 1-%d", ErrInvalidRequest, MaxVectorSize)
	}
	name := strings.TrimSpace(r.CollectionName)
	if err := ValidateCollectionName(name); err != nil {
		return CollectionSpec{}, err
	}
	return CollectionSpec{
		Name:          name,
		VectorSize:    size,
		Distance:      distance,
		ForceRecreate: r.ForceRecreate,
		OnDisk:        r.OnDisk,
	}, nil
}

const createCollectionSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["collection_name"],
	"additionalProperties": false,
	"properties": {
		"collection_name": {"type": "string", "minLength": 1, "maxLength": 255, "pattern": "^\\s*[a-zA-Z0-9_-]+\\s*$"},
		"vector_size": {"type": "integer", "minimum": 1, "maximum": 4096},
		"distance_metric": {"type": "string", "enum": ["cosine", "euclidean", "dot", "Cosine", "Euclid", "Dot"]},
		"force_recreate": {"type": "boolean"},
		"on_disk": {"type": "boolean"},
		"qdrant_url": {"type": "string", "pattern": "^https?://"},
		"qdrant_api_key": {"type": "string"},
		"mistral_api_key": {"type": "string"},
		"verify_embeddings": {"type": "boolean"}
	}
}`

var createSchema = mustCompile("create_collection.json", createCollectionSchema)

func mustCompile(name, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("load %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// DecodeCreateRequest validates a JSON body against the request schema and
// decodes it.
func DecodeCreateRequest(data []byte) (*CreateCollectionRequest, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := createSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, schemaMessage(err))
	}
	var req CreateCollectionRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return &req, nil
}

// schemaMessage flattens a validation error to its leaf causes.
func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var msgs []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := strings.TrimPrefix(e.InstanceLocation, "/")
			if loc == "" {
				msgs = append(msgs, e.Message)
			} else {
				msgs = append(msgs, loc+": "+e.Message)
			}
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}
