package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/popstat/internal/logging"
)

// Recorder receives pipeline measurements. internal/metrics implements it.
type Recorder interface {
	ObservePipelineRun(variant, outcome string, d time.Duration, records int)
	ObserveRowsDropped(variant, reason string, n int)
	SetActiveRuns(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObservePipelineRun(string, string, time.Duration, int) {}
func (nopRecorder) ObserveRowsDropped(string, string, int)                {}
func (nopRecorder) SetActiveRuns(int)                                     {}

// ServiceConfig holds everything a Service needs to run the pipeline.
type ServiceConfig struct {
	SourcePath     string
	DefaultVariant string
	Load           LoadOptions

	// HeaderOffsets overrides every variant's candidate offsets when non-empty.
	HeaderOffsets []int

	MaxConcurrent int
	MaxWait       time.Duration
}

// Service runs the pipeline on request for the HTTP boundary.
type Service struct {
	cfg      ServiceConfig
	limiter  *PipelineLimiter
	recorder Recorder
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService creates a Service. The default variant must be registered.
func NewService(cfg ServiceConfig, opts ...ServiceOption) (*Service, error) {
	if cfg.SourcePath == "" {
		return nil, errors.New("source path is required")
	}
	if _, err := GetVariant(cfg.DefaultVariant); err != nil {
		return nil, fmt.Errorf("default variant: %w", err)
	}
	if err := cfg.Load.Validate(); err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}

	s := &Service{
		cfg:      cfg,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.limiter = NewPipelineLimiter(cfg.MaxConcurrent, cfg.MaxWait, s.recorder.SetActiveRuns)
	return s, nil
}

// AnalyzeRequest selects a variant and a year. Empty fields use the default
// variant and the first year of the source.
type AnalyzeRequest struct {
	Variant string
	Year    string
}

// Analysis is a finished run plus the selected year's slice.
type Analysis struct {
	Frame *Frame
	Spec  CategorySpec
	Year  string
	Slice YearSlice
}

// Variants returns the registered variants.
func (s *Service) Variants() []Variant {
	return Variants()
}

// DefaultVariant returns the configured default variant key.
func (s *Service) DefaultVariant() string {
	return s.cfg.DefaultVariant
}

// LimiterStatus reports the pipeline limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// Drain waits for in-flight runs to finish.
func (s *Service) Drain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Analyze runs the pipeline and slices the requested year.
//
// A year that is not among the source's labels yields an empty slice, not an
// error. A source that yields no records at all returns the (empty) analysis
// together with ErrNoData.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	key := req.Variant
	if key == "" {
		key = s.cfg.DefaultVariant
	}
	variant, err := GetVariant(key)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	p := Pipeline{
		Variant:       variant,
		Load:          s.cfg.Load,
		HeaderOffsets: s.cfg.HeaderOffsets,
	}

	start := time.Now()
	frame, err := p.Run(ctx, s.cfg.SourcePath)
	elapsed := time.Since(start)
	logger := logging.WithFields(ctx, "variant", variant.Key)
	if err != nil {
		s.recorder.ObservePipelineRun(variant.Key, outcome(err), elapsed, 0)
		logger.Error("pipeline failed",
			"error", err,
			"duration_ms", elapsed.Milliseconds(),
		)
		return nil, err
	}

	s.recorder.ObservePipelineRun(variant.Key, "ok", elapsed, len(frame.Records))
	s.recorder.ObserveRowsDropped(variant.Key, "malformed_line", len(frame.Diagnostics.Warnings))
	s.recorder.ObserveRowsDropped(variant.Key, "category", frame.Diagnostics.Filter.CategoryMismatch)
	s.recorder.ObserveRowsDropped(variant.Key, "sentinel", frame.Diagnostics.Filter.Sentinel)
	s.recorder.ObserveRowsDropped(variant.Key, "missing_age", frame.Diagnostics.Filter.MissingAge)

	logger = logger.With("run_id", frame.RunID)
	logger.Info("pipeline completed",
		"header_offset", frame.Diagnostics.HeaderOffset,
		"records", len(frame.Records),
		"years", len(frame.Labels),
		"duration_ms", elapsed.Milliseconds(),
	)

	year := req.Year
	if year == "" && len(frame.Labels) > 0 {
		year = frame.Labels[0]
	}
	an := &Analysis{
		Frame: frame,
		Spec:  variant.Spec,
		Year:  year,
		Slice: frame.Slice(year),
	}
	if len(frame.Records) == 0 {
		return an, ErrNoData
	}
	return an, nil
}

// Export writes the requested slice as CSV to w and returns the suggested
// download file name.
func (s *Service) Export(ctx context.Context, req AnalyzeRequest, w io.Writer) (string, error) {
	an, err := s.Analyze(ctx, req)
	if err != nil && !errors.Is(err, ErrNoData) {
		return "", err
	}
	if err := WriteCSV(w, an.Slice, an.Spec); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return ExportFileName(an.Year), nil
}

// outcome is the metrics label for a failed run.
func outcome(err error) string {
	switch {
	case errors.Is(err, ErrSourceNotFound):
		return "source_not_found"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, ErrMalformedSource):
		return "malformed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
