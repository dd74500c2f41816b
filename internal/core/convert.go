package core

// convert.go provides the cell-level conversions of the Field Coercer.
//
// These functions handle the messy reality of statistical exports:
//   - Age labels such as "0歳", "100歳以上" or full-width "１５歳"
//   - Thousands separators ("12,345", full-width "１２，３４５")
//   - Placeholder cells ("-", "…", "***", "x") meaning "not available"
//   - Excel formula wrappers (="value") left behind by spreadsheet round-trips
//
// Conversions never fail: anything unparsable yields an invalid Age or Value,
// so one bad cell cannot abort a run.

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// digitRun matches the first maximal run of ASCII decimal digits.
var digitRun = regexp.MustCompile(`[0-9]+`)

// ParseAge extracts a numeric age from an age label by taking the first
// maximal run of ASCII digits found anywhere in it. Full-width digits are
// folded to ASCII first; other digit forms (①, ²) are not digits here.
// Labels without digits yield an invalid Age.
//
// ParseAge is idempotent over its own output:
// ParseAge(strconv.Itoa(ParseAge(s).Int)) == ParseAge(s) for any valid result.
func ParseAge(label string) Age {
	s := width.Narrow.String(label)
	run := digitRun.FindString(s)
	if run == "" {
		return Age{}
	}
	n, err := strconv.Atoi(run)
	if err != nil {
		return Age{}
	}
	return Age{Int: n, Valid: true}
}

// ParseValue converts a measurement cell into a Value.
// Thousands separators and inner spaces are stripped before conversion;
// non-numeric content yields an invalid Value.
func ParseValue(raw string) Value {
	s := CleanCell(width.Narrow.String(raw))
	if s == "" {
		return Value{}
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	if !numericRegex.MatchString(s) {
		return Value{}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}
	}
	return Value{Float64: f, Valid: true}
}

// CleanCell removes common artifacts from a cell value:
//   - Trims Unicode whitespace (including the ideographic space U+3000)
//   - Removes an Excel formula wrapper (="...")
//   - Removes a BOM that leaked into the cell
func CleanCell(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}

	return s
}

// cell returns the cleaned cell at pos, or "" when the row is too short.
func cell(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}
