package core

// pipeline.go chains the stages of one run:
//
//	Load (retrying header offsets) -> NormalizeHeaders -> FilterRows -> Coerce
//
// A run is synchronous and single-threaded. Its output, a Frame, is a
// derived view and is never shared between runs; slicing a year is cheap and
// done on demand from the frame.

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/popstat/internal/logging"
	"github.com/google/uuid"
)

// Pipeline runs one variant against a source.
type Pipeline struct {
	Variant Variant
	Load    LoadOptions

	// HeaderOffsets overrides Variant.HeaderOffsets when non-empty.
	HeaderOffsets []int
}

// Diagnostics describe how a run went, for logs and the presentation layer.
type Diagnostics struct {
	Source        string        `json:"source"`
	HeaderOffset  int           `json:"headerOffset"`
	Columns       []string      `json:"columns"`
	ValueColumn   string        `json:"valueColumn"`
	Warnings      []LoadWarning `json:"warnings,omitempty"`
	Filter        FilterStats   `json:"filter"`
	MissingAges   int           `json:"missingAges"`
	MissingValues int           `json:"missingValues"`
	BytesRead     int64         `json:"bytesRead"`
}

// Frame is the normalized output of a run.
type Frame struct {
	RunID       string             `json:"runId"`
	Variant     string             `json:"variant"`
	Records     []NormalizedRecord `json:"-"`
	Labels      []string           `json:"years"`
	Diagnostics Diagnostics        `json:"diagnostics"`
}

// Slice returns the YearSlice for label. See SliceYear.
func (f *Frame) Slice(label string) YearSlice {
	return SliceYear(f.Records, label)
}

// HasLabel reports whether label is one of the frame's time labels.
func (f *Frame) HasLabel(label string) bool {
	for _, l := range f.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func (p Pipeline) offsets() []int {
	if len(p.HeaderOffsets) > 0 {
		return p.HeaderOffsets
	}
	return p.Variant.HeaderOffsets
}

// Run executes the pipeline against path. ctx is checked between stages.
func (p Pipeline) Run(ctx context.Context, path string) (*Frame, error) {
	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithFields(ctx, "variant", p.Variant.Key, "source", path)
	spec := p.Variant.Spec

	table, err := LoadNormalized(path, p.Load, p.offsets(), spec)
	if err != nil {
		return nil, err
	}
	logger.Debug("source loaded",
		"header_offset", table.HeaderOffset,
		"rows", len(table.Rows),
		"bytes", table.BytesRead,
	)
	for _, w := range table.Warnings {
		logger.Warn("dropped malformed line", "line", w.Line, "reason", w.Reason)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filtered, stats, err := FilterRows(table, spec)
	if err != nil {
		return nil, err
	}
	logger.Debug("rows filtered",
		"input", stats.Input,
		"kept", stats.Kept,
		"category_mismatch", stats.CategoryMismatch,
		"sentinel", stats.Sentinel,
		"missing_age", stats.MissingAge,
	)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	valueCol, err := ResolveValueColumn(filtered, spec)
	if err != nil {
		return nil, err
	}
	records, err := Coerce(filtered, spec)
	if err != nil {
		return nil, fmt.Errorf("coerce: %w", err)
	}

	diag := Diagnostics{
		Source:       path,
		HeaderOffset: table.HeaderOffset,
		Columns:      table.Columns,
		ValueColumn:  valueCol,
		Warnings:     table.Warnings,
		Filter:       stats,
		BytesRead:    table.BytesRead,
	}
	for _, r := range records {
		if !r.Age.Valid {
			diag.MissingAges++
		}
		if !r.Value.Valid {
			diag.MissingValues++
		}
	}

	frame := &Frame{
		RunID:       runID,
		Variant:     p.Variant.Key,
		Records:     records,
		Labels:      TimeLabels(records),
		Diagnostics: diag,
	}
	logger.Debug("records coerced",
		"records", len(records),
		"value_column", valueCol,
		"missing_ages", diag.MissingAges,
		"missing_values", diag.MissingValues,
		"years", len(frame.Labels),
	)
	return frame, nil
}
