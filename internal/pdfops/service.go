package pdfops

import (
	"context"
	"log/slog"
	"time"
)

// Service runs the PDF operations end to end. It is safe for concurrent
// use; every call works on request-local state.
type Service struct {
	codec      Codec
	splitter   *Splitter
	combiner   *Combiner
	maxSources int
	logger     *slog.Logger
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Codec      Codec
	MaxSources int
	Logger     *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Codec == nil {
		cfg.Codec = NewPDFCodec()
	}
	if cfg.MaxSources <= 0 {
		cfg.MaxSources = DefaultMaxSources
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		codec:      cfg.Codec,
		splitter:   NewSplitter(cfg.Codec),
		combiner:   NewCombiner(cfg.Codec),
		maxSources: cfg.MaxSources,
		logger:     cfg.Logger,
	}
}

// MaxSources is the merge source limit.
func (s *Service) MaxSources() int { return s.maxSources }

// Open parses an uploaded document.
func (s *Service) Open(name string, data []byte) (*SourceDocument, error) {
	return s.codec.Open(name, data)
}

// Info describes a document.
func (s *Service) Info(src *SourceDocument) (DocumentInfo, error) {
	return s.codec.Info(src)
}

// SplitRanges produces one output per range in spec, in spec order.
func (s *Service) SplitRanges(ctx context.Context, src *SourceDocument, spec, prefix string) (*Archive, error) {
	started := time.Now()
	ranges, err := ParseRanges(spec, src.PageCount())
	if err != nil {
		return nil, err
	}
	return s.split(ctx, src, RangeGroups(ranges), UnitRange, prefix, started)
}

// SplitPages produces one single-page output per page.
func (s *Service) SplitPages(ctx context.Context, src *SourceDocument, prefix string) (*Archive, error) {
	started := time.Now()
	return s.split(ctx, src, PageGroups(src.PageCount()), UnitPage, prefix, started)
}

// SplitBatches produces fixed-size contiguous chunks.
func (s *Service) SplitBatches(ctx context.Context, src *SourceDocument, batchSize int, prefix string) (*Archive, error) {
	started := time.Now()
	batches, err := Partition(src.PageCount(), batchSize)
	if err != nil {
		return nil, err
	}
	return s.split(ctx, src, BatchGroups(batches), UnitBatch, prefix, started)
}

// PreviewBatches is the dry run of SplitBatches.
func (s *Service) PreviewBatches(src *SourceDocument, batchSize int, prefix string) (*BatchPlan, error) {
	return PreviewBatches(src.PageCount(), batchSize, prefix)
}

func (s *Service) split(ctx context.Context, src *SourceDocument, groups []PageGroup, unit Unit, prefix string, started time.Time) (*Archive, error) {
	outputs, err := s.splitter.Split(ctx, src, groups)
	if err != nil {
		return nil, err
	}
	archive, err := Assemble(prefix, unit, src, outputs, started)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("split complete",
		"unit", unit,
		"source", src.Name(),
		"pages", src.PageCount(),
		"outputs", archive.Summary.TotalOutputs,
		"archive_bytes", len(archive.Data),
		"duration_ms", archive.Summary.ProcessingTimeMS)
	return archive, nil
}

// Merge combines sources. The configured source limit applies unless spec
// sets a lower one.
func (s *Service) Merge(ctx context.Context, sources []*SourceDocument, spec MergeSpec) (*MergeResult, error) {
	if spec.MaxSources <= 0 || spec.MaxSources > s.maxSources {
		spec.MaxSources = s.maxSources
	}
	result, err := s.combiner.Merge(ctx, sources, spec)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("merge complete",
		"strategy", spec.Strategy,
		"sources", result.Sources,
		"pages", result.TotalPages,
		"bytes", len(result.Data))
	return result, nil
}
