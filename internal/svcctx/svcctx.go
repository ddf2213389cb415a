// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/jackzampolin/n8ntools/internal/config"
	"github.com/jackzampolin/n8ntools/internal/home"
	"github.com/jackzampolin/n8ntools/internal/ocr"
	"github.com/jackzampolin/n8ntools/internal/pdfops"
	"github.com/jackzampolin/n8ntools/internal/providers"
	"github.com/jackzampolin/n8ntools/internal/qdrant"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	PDF        *pdfops.Service
	Registry   *providers.Registry
	Qdrant     *qdrant.Client
	QdrantDock *qdrant.DockerManager // nil unless qdrant.docker.enabled
	KeyLimiter *ocr.KeyLimiter
	OCRHealth  *ocr.HealthTracker
	Jobs       *semaphore.Weighted // bounds concurrent split, merge and OCR work
	Config     *config.Manager
	Logger     *slog.Logger
	Home       *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// PDFFrom extracts the PDF service from context.
func PDFFrom(ctx context.Context) *pdfops.Service {
	if s := ServicesFrom(ctx); s != nil {
		return s.PDF
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// QdrantFrom extracts the configured Qdrant client from context.
func QdrantFrom(ctx context.Context) *qdrant.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.Qdrant
	}
	return nil
}

// QdrantDockerFrom extracts the local Qdrant container manager.
func QdrantDockerFrom(ctx context.Context) *qdrant.DockerManager {
	if s := ServicesFrom(ctx); s != nil {
		return s.QdrantDock
	}
	return nil
}

// KeyLimiterFrom extracts the per-API-key limiter from context.
func KeyLimiterFrom(ctx context.Context) *ocr.KeyLimiter {
	if s := ServicesFrom(ctx); s != nil {
		return s.KeyLimiter
	}
	return nil
}

// OCRHealthFrom extracts the OCR outcome tracker from context.
func OCRHealthFrom(ctx context.Context) *ocr.HealthTracker {
	if s := ServicesFrom(ctx); s != nil {
		return s.OCRHealth
	}
	return nil
}

// JobsFrom extracts the heavy-work semaphore from context.
func JobsFrom(ctx context.Context) *semaphore.Weighted {
	if s := ServicesFrom(ctx); s != nil {
		return s.Jobs
	}
	return nil
}

// ConfigFrom returns the current configuration, or defaults when no
// manager is attached.
func ConfigFrom(ctx context.Context) *config.Config {
	if s := ServicesFrom(ctx); s != nil && s.Config != nil {
		return s.Config.Get()
	}
	return config.DefaultConfig()
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

type requestIDKey struct{}

// WithRequestID attaches the request id assigned by the server.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id, or "" outside a request.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
