package core

import (
	"encoding/json"
	"strconv"
	"strings"
)

// HeaderIndex maps trimmed column names to their position in a row.
// Matching is exact: e-Stat column names are localized and case has no meaning.
type HeaderIndex map[string]int

// LoadWarning records a line that was dropped during tolerant parsing.
type LoadWarning struct {
	Line   int    `json:"line"` // 1-indexed physical line (sheet row for spreadsheets)
	Reason string `json:"reason"`
}

// RawTable is the unparsed source table: a header row plus string cells.
// It is created once per load and never mutated afterwards; stages that
// narrow it return a new RawTable sharing the row slices.
type RawTable struct {
	Source       string
	HeaderOffset int
	Columns      []string
	Rows         [][]string
	Warnings     []LoadWarning
	BytesRead    int64
}

// Index builds a HeaderIndex for the table's columns. When a name appears
// twice the first position wins.
func (t *RawTable) Index() HeaderIndex {
	idx := make(HeaderIndex, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	return idx
}

// Has reports whether the table has a column with exactly this name.
func (t *RawTable) Has(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// derive returns a copy of t's metadata holding rows instead of t.Rows.
func (t *RawTable) derive(rows [][]string) *RawTable {
	return &RawTable{
		Source:       t.Source,
		HeaderOffset: t.HeaderOffset,
		Columns:      t.Columns,
		Rows:         rows,
		Warnings:     t.Warnings,
		BytesRead:    t.BytesRead,
	}
}

// CategorySpec describes where a schema variant keeps its categories and which
// literal means "total" in each. It must be supplied per variant; nothing here
// is inferred from the data.
type CategorySpec struct {
	SexColumn string // e.g. 男女別・性比
	SexTotal  string // e.g. 男女計

	// PopulationColumn is optional. When empty, or when the loaded table has no
	// such column, the population-type clause of the filter is skipped.
	PopulationColumn string
	PopulationTotal  string

	AgeColumn  string // e.g. 年齢各歳
	TimeColumn string // e.g. 時間軸（年月日現在）

	// ValueColumns lists accepted names for the measurement column in order of
	// precedence. The first one present in the table is used.
	ValueColumns []string

	// AgeSentinels are age labels meaning "all ages" or "unknown". Rows carrying
	// one are excluded. A nil slice disables the exclusion.
	AgeSentinels []string
}

// RequiredColumns returns the columns that must exist for the header row to
// be considered found.
func (s CategorySpec) RequiredColumns() []string {
	return []string{s.SexColumn, s.AgeColumn, s.TimeColumn}
}

// Age is a non-negative numeric age that may be missing.
type Age struct {
	Int   int
	Valid bool
}

// MarshalJSON renders a missing age as null.
func (a Age) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(a.Int)), nil
}

// UnmarshalJSON accepts null or an integer.
func (a *Age) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Age{}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if n < 0 {
		*a = Age{}
		return nil
	}
	*a = Age{Int: n, Valid: true}
	return nil
}

// Value is a measurement that may be missing. Missing values propagate as
// "no data" downstream, never as a failure.
type Value struct {
	Float64 float64
	Valid   bool
}

// MarshalJSON renders a missing value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return []byte(FormatValue(v)), nil
}

// UnmarshalJSON accepts null or a number.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Value{Float64: f, Valid: true}
	return nil
}

// FormatValue renders v with the shortest representation that parses back to
// the same float64. Missing values render as "".
func FormatValue(v Value) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

// NormalizedRecord is a filtered, coerced row.
type NormalizedRecord struct {
	TimeLabel string `json:"timeLabel"`
	AgeLabel  string `json:"ageLabel"`
	Age       Age    `json:"age"`
	Value     Value  `json:"value"`
}

// YearSlice holds the records of one time label ordered by ascending age,
// with no two records sharing an age.
type YearSlice struct {
	TimeLabel string             `json:"timeLabel"`
	Records   []NormalizedRecord `json:"records"`
}

// Len returns the number of records in the slice.
func (s YearSlice) Len() int { return len(s.Records) }

// Format identifies how a source file is laid out on disk.
type Format string

const (
	FormatAuto Format = ""
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// Encoding identifies the character set of a delimited text source.
type Encoding string

const (
	EncodingAuto     Encoding = "auto"
	EncodingUTF8     Encoding = "utf-8"
	EncodingShiftJIS Encoding = "shift_jis"
	EncodingEUCJP    Encoding = "euc-jp"
)

// ParseEncoding maps a configuration string to an Encoding.
func ParseEncoding(s string) (Encoding, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return EncodingAuto, true
	case "utf-8", "utf8":
		return EncodingUTF8, true
	case "shift_jis", "shift-jis", "sjis", "cp932":
		return EncodingShiftJIS, true
	case "euc-jp", "eucjp":
		return EncodingEUCJP, true
	default:
		return "", false
	}
}
