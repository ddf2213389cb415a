package endpoints

import (
	"github.com/jackzampolin/n8ntools/internal/api"
)

// All returns all endpoint instances. Dependencies come from the request
// context, so endpoints carry no configuration of their own.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// PDF endpoints
		&PDFStatusEndpoint{},
		&PDFValidateEndpoint{},
		&PDFInfoEndpoint{},
		&PDFMetadataEndpoint{},
		&SplitRangesEndpoint{},
		&SplitPagesEndpoint{},
		&SplitBatchEndpoint{},
		&BatchPreviewEndpoint{},
		&MergeEndpoint{},

		// OCR endpoints
		&OCRStatusEndpoint{},
		&OCRHealthEndpoint{},
		&OCRAuthTestEndpoint{},
		&OCRValidateEndpoint{},
		&OCRFileEndpoint{},
		&OCRURLEndpoint{},

		// RAG endpoints
		&RAGStatusEndpoint{},
		&TestConnectionEndpoint{},
		&CreateCollectionEndpoint{},
		&ListCollectionsEndpoint{},
		&GetCollectionEndpoint{},
		&DeleteCollectionEndpoint{},

		// Settings endpoints
		&ListSettingsEndpoint{},
		&GetSettingEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}

// NewRegistry returns an api.Registry holding every endpoint.
func NewRegistry() *api.Registry {
	registry := api.NewRegistry()
	for _, ep := range All() {
		registry.Register(ep)
	}
	return registry
}
