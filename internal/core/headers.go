package core

// headers.go is the Header Normalizer.
//
// e-Stat exports put a variable amount of metadata above the header line,
// so the header position is not known in advance. LoadNormalized reloads the
// source at each candidate offset until the trimmed header contains every
// column the CategorySpec needs.

import (
	"errors"
)

// DefaultHeaderOffsets are the header positions observed across e-Stat
// export variants. Offset 0 covers files that were already cleaned up.
var DefaultHeaderOffsets = []int{0, 12, 13, 14, 15}

// NormalizeHeaders returns a table whose column names are trimmed of
// surrounding whitespace (including U+3000) and stray BOM or ="..." wrappers.
// Rows are shared with t.
func NormalizeHeaders(t *RawTable) *RawTable {
	out := t.derive(t.Rows)
	out.Columns = trimmedColumns(t.Columns)
	return out
}

// MissingColumn returns the first required column of spec not present in
// columns, or "" when all are present.
func MissingColumn(columns []string, spec CategorySpec) string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	for _, req := range spec.RequiredColumns() {
		if !present[req] {
			return req
		}
	}
	return ""
}

// LoadNormalized loads path at each offset in turn and returns the first
// normalized table holding all of spec's required columns. opts.HeaderOffset
// is ignored. A nil or empty offsets list means DefaultHeaderOffsets.
//
// A missing source aborts at once. An offset whose load yields nothing
// usable is skipped, unless its header already had the required columns:
// then the data itself is empty, or a strict load hit a bad data line, and
// the MalformedError is returned as is.
// When no offset works the result is a *SchemaError naming the first
// missing column of the last header seen.
func LoadNormalized(path string, opts LoadOptions, offsets []int, spec CategorySpec) (*RawTable, error) {
	if len(offsets) == 0 {
		offsets = DefaultHeaderOffsets
	}

	var (
		firstMalformed error
		found          []string
		missing        string
		sawHeader      bool
		tried          []int
	)

	for _, off := range offsets {
		opts.HeaderOffset = off
		tried = append(tried, off)

		t, err := Load(path, opts)
		if err != nil {
			var me *MalformedError
			if !errors.As(err, &me) {
				return nil, err
			}
			if firstMalformed == nil {
				firstMalformed = err
			}
			if len(me.Columns) > 0 {
				if MissingColumn(me.Columns, spec) == "" {
					return nil, err
				}
				sawHeader = true
				found = me.Columns
				missing = MissingColumn(me.Columns, spec)
			}
			continue
		}

		t = NormalizeHeaders(t)
		m := MissingColumn(t.Columns, spec)
		if m == "" {
			return t, nil
		}
		sawHeader = true
		found = t.Columns
		missing = m
	}

	if !sawHeader && firstMalformed != nil {
		return nil, firstMalformed
	}
	return nil, &SchemaError{
		Column:  missing,
		Found:   found,
		Offsets: tried,
	}
}
