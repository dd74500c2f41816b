package core

// loader.go is the Raw Loader: it turns a file on disk into a RawTable.
//
// Lines before the header offset are skipped unconditionally; e-Stat puts
// 12-15 lines of descriptive metadata (table name, survey, units, notes)
// above the real header and those lines never hold data. Counting is done on
// physical lines for delimited text and on sheet rows for spreadsheets.
//
// Structurally malformed records are dropped with a LoadWarning when
// TolerateBadLines is set; otherwise the first one fails the load.

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// DefaultMaxSourceSize is the default limit for a source file (50MB).
const DefaultMaxSourceSize int64 = 50 * 1024 * 1024

// LoadOptions control how a source is read.
type LoadOptions struct {
	Format           Format   // FormatAuto picks by file extension
	Encoding         Encoding // delimited text only
	Delimiter        rune     // delimited text only
	Quote            rune     // delimited text only
	HeaderOffset     int      // 0-based line (or sheet row) holding the column names
	TolerateBadLines bool
	MaxSize          int64
}

// DefaultLoadOptions returns options matching a typical e-Stat CSV download.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Encoding:         EncodingAuto,
		Delimiter:        ',',
		Quote:            '"',
		TolerateBadLines: true,
		MaxSize:          DefaultMaxSourceSize,
	}
}

// Validate checks option consistency.
func (o LoadOptions) Validate() error {
	if o.HeaderOffset < 0 {
		return fmt.Errorf("header offset must be non-negative, got %d", o.HeaderOffset)
	}
	if o.Delimiter == 0 || o.Delimiter == '\r' || o.Delimiter == '\n' {
		return fmt.Errorf("invalid delimiter %q", o.Delimiter)
	}
	if o.Quote == 0 || o.Quote == '\r' || o.Quote == '\n' {
		return fmt.Errorf("invalid quote character %q", o.Quote)
	}
	if o.Quote == o.Delimiter {
		return fmt.Errorf("quote character and delimiter must differ (both %q)", o.Quote)
	}
	return nil
}

// ResolveFormat returns the concrete format for path.
func ResolveFormat(f Format, path string) Format {
	if f != FormatAuto {
		return f
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	default:
		return FormatCSV
	}
}

// Load reads the source at path into a RawTable whose header is the line at
// opts.HeaderOffset. Column names are returned as found; see NormalizeHeaders.
//
// Fails with a *SourceError when path does not exist and with a
// *MalformedError when no usable rows remain.
func Load(path string, opts LoadOptions) (*RawTable, error) {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSourceSize
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &SourceError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.IsDir() {
		return nil, &SourceError{Path: path, Err: fmt.Errorf("%s is a directory", path)}
	}

	switch ResolveFormat(opts.Format, path) {
	case FormatXLSX, FormatXLS:
		return loadSpreadsheet(f, path, ResolveFormat(opts.Format, path), opts)
	default:
		return loadDelimited(f, path, opts)
	}
}

// loadDelimited parses delimited text from r.
func loadDelimited(r io.Reader, path string, opts LoadOptions) (*RawTable, error) {
	text, counter, _ := WrapForDecoding(io.LimitReader(r, opts.MaxSize+1), opts.Encoding)
	lines := bufio.NewReader(text)

	for i := 0; i < opts.HeaderOffset; i++ {
		if _, err := lines.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil, &MalformedError{
					Path:   path,
					Offset: opts.HeaderOffset,
					Reason: fmt.Sprintf("source has only %d lines", i),
				}
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	var in io.Reader = lines
	swap := quoteSwapper(opts.Quote)
	if swap != nil {
		in = transform.NewReader(lines, runes.Map(swap))
	}

	cr := csv.NewReader(in)
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = opts.TolerateBadLines

	header, err := cr.Read()
	if err != nil {
		if counter.BytesRead > opts.MaxSize {
			return nil, tooLarge(path, opts)
		}
		reason := "no header line"
		if err != io.EOF {
			reason = fmt.Sprintf("header line: %v", err)
		}
		return nil, &MalformedError{Path: path, Offset: opts.HeaderOffset, Reason: reason}
	}
	header = swapFields(header, swap)
	columns := trimmedColumns(header)

	// encoding/csv skips blank lines, so the header may sit below the offset.
	headerLine, _ := cr.FieldPos(0)
	table := &RawTable{
		Source:       path,
		HeaderOffset: opts.HeaderOffset + headerLine - 1,
		Columns:      header,
	}

	var lastOffset int64 = -1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			line := opts.HeaderOffset + pe.StartLine
			if !opts.TolerateBadLines {
				return nil, &MalformedError{Path: path, Offset: opts.HeaderOffset, Line: line, Reason: pe.Err.Error(), Columns: columns}
			}
			table.Warnings = append(table.Warnings, LoadWarning{Line: line, Reason: pe.Err.Error()})
			// A parse error that consumed nothing would repeat forever.
			off := cr.InputOffset()
			if off == lastOffset {
				break
			}
			lastOffset = off
			continue
		}
		lastOffset = cr.InputOffset()

		line, _ := cr.FieldPos(0)
		line += opts.HeaderOffset
		if len(rec) != len(header) {
			reason := fmt.Sprintf("expected %d fields, got %d", len(header), len(rec))
			if !opts.TolerateBadLines {
				return nil, &MalformedError{Path: path, Offset: opts.HeaderOffset, Line: line, Reason: reason, Columns: columns}
			}
			table.Warnings = append(table.Warnings, LoadWarning{Line: line, Reason: reason})
			continue
		}
		table.Rows = append(table.Rows, swapFields(rec, swap))
	}

	table.BytesRead = counter.BytesRead
	if table.BytesRead > opts.MaxSize {
		return nil, tooLarge(path, opts)
	}
	if len(table.Rows) == 0 {
		return nil, &MalformedError{
			Path:    path,
			Offset:  opts.HeaderOffset,
			Reason:  "no usable rows",
			Dropped: len(table.Warnings),
			Columns: columns,
		}
	}
	return table, nil
}

func tooLarge(path string, opts LoadOptions) error {
	return &MalformedError{
		Path:   path,
		Offset: opts.HeaderOffset,
		Reason: fmt.Sprintf("source exceeds %d byte limit", opts.MaxSize),
	}
}

// quoteSwapper returns a rune mapping that exchanges quote and '"', or nil
// when quote already is '"'. encoding/csv only understands '"', so a custom
// quote character is mapped onto it before parsing and every field is mapped
// back afterwards. The swap is its own inverse, which keeps doubled quotes
// and literal '"' characters intact.
func quoteSwapper(quote rune) func(rune) rune {
	if quote == '"' {
		return nil
	}
	return func(r rune) rune {
		switch r {
		case quote:
			return '"'
		case '"':
			return quote
		}
		return r
	}
}

func swapFields(rec []string, swap func(rune) rune) []string {
	if swap == nil {
		return rec
	}
	for i, f := range rec {
		rec[i] = strings.Map(swap, f)
	}
	return rec
}

func trimmedColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = CleanCell(c)
	}
	return out
}
