package core

// errors.go defines the pipeline's error taxonomy.
//
// Structural failures abort a run and carry their diagnostics as data
// (the path that was missing, the columns that were actually found, the
// header offsets that were tried). Cell-level failures never surface here:
// they become missing Age/Value markers instead.
//
// Every structured error unwraps to one of the sentinels below so callers
// can branch with errors.Is without knowing the concrete type.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceNotFound means the input file or resource does not exist.
	ErrSourceNotFound = errors.New("source not found")

	// ErrSchemaMismatch means a required column is absent after every
	// candidate header offset was tried.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrMalformedSource means no usable rows survived tolerant parsing.
	ErrMalformedSource = errors.New("malformed source")

	// ErrRemoteUnavailable means the remote endpoint answered with a
	// non-success status or could not be reached.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrNoData is not a failure: the source was reachable and well formed
	// but holds nothing to show. It is always returned alongside an empty,
	// non-nil result.
	ErrNoData = errors.New("no data")

	// ErrUnknownVariant is returned when a schema variant key is not registered.
	ErrUnknownVariant = errors.New("unknown variant")

	// ErrInvalidQuery marks request parameters that cannot be used.
	ErrInvalidQuery = errors.New("invalid query")
)

// SourceError reports a missing input source.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source not found: %s", e.Path)
}

func (e *SourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSourceNotFound}
	}
	return []error{ErrSourceNotFound, e.Err}
}

// SchemaError reports a required column that could not be located.
type SchemaError struct {
	Column     string   // the missing column
	Candidates []string // alternative names that were also accepted, if any
	Found      []string // columns actually present in the last attempt
	Offsets    []int    // header offsets that were tried
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema mismatch: column ")
	if len(e.Candidates) > 1 {
		b.WriteString(fmt.Sprintf("%q (any of %s)", e.Column, quoteList(e.Candidates)))
	} else {
		b.WriteString(fmt.Sprintf("%q", e.Column))
	}
	b.WriteString(" not found")
	if len(e.Offsets) > 0 {
		b.WriteString(fmt.Sprintf(" at header offsets %v", e.Offsets))
	}
	b.WriteString("; found columns: ")
	if len(e.Found) == 0 {
		b.WriteString("(none)")
	} else {
		b.WriteString(quoteList(e.Found))
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }

// MalformedError reports a source that yielded no usable rows, or a
// malformed line when tolerant parsing is disabled.
type MalformedError struct {
	Path    string
	Offset  int
	Line    int // offending physical line, 0 when not line specific
	Reason  string
	Dropped int      // lines dropped before giving up
	Columns []string // trimmed header seen at Offset, if one was read
}

func (e *MalformedError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed source %s: line %d: %s", e.Path, e.Line, e.Reason)
	}
	msg := "malformed source " + e.Path
	if e.Offset > 0 {
		msg += fmt.Sprintf(" (header offset %d)", e.Offset)
	}
	msg += ": " + e.Reason
	if e.Dropped > 0 {
		msg += fmt.Sprintf(" (%d lines dropped)", e.Dropped)
	}
	return msg
}

func (e *MalformedError) Unwrap() error { return ErrMalformedSource }

// RemoteError reports a non-success answer from a remote endpoint.
// StatusCode is 0 when the request never got a response.
type RemoteError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("remote unavailable: %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("remote unavailable: %s returned status %d", e.URL, e.StatusCode)
}

func (e *RemoteError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRemoteUnavailable}
	}
	return []error{ErrRemoteUnavailable, e.Err}
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}

// VariantError reports a schema variant key that is not registered.
type VariantError struct {
	Key string
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("unknown variant %q", e.Key)
}

func (e *VariantError) Unwrap() error { return ErrUnknownVariant }

// QueryError reports an unusable request parameter.
type QueryError struct {
	Param  string
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid query: %s %s", e.Param, e.Reason)
}

func (e *QueryError) Unwrap() error { return ErrInvalidQuery }
