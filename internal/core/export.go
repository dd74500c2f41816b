package core

// export.go writes a YearSlice back out as CSV for download.
//
// The file is UTF-8 with a BOM so spreadsheet applications pick the right
// encoding. Category columns carry the spec's total literals, which makes an
// export loadable by the same pipeline through ExportSpec.

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Export column names for the parsed age and value.
const (
	ExportAgeColumn   = "age"
	ExportValueColumn = "value"
)

// WriteCSV writes s to w as comma-delimited UTF-8 with a BOM and a header row.
func WriteCSV(w io.Writer, s YearSlice, spec CategorySpec) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	header := []string{spec.TimeColumn, spec.SexColumn}
	if spec.PopulationColumn != "" {
		header = append(header, spec.PopulationColumn)
	}
	header = append(header, spec.AgeColumn, ExportAgeColumn, ExportValueColumn)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range s.Records {
		row := []string{r.TimeLabel, spec.SexTotal}
		if spec.PopulationColumn != "" {
			row = append(row, spec.PopulationTotal)
		}
		age := ""
		if r.Age.Valid {
			age = strconv.Itoa(r.Age.Int)
		}
		row = append(row, r.AgeLabel, age, FormatValue(r.Value))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportSpec returns the CategorySpec and header offsets that load a file
// produced by WriteCSV with spec. Sentinel exclusion is disabled.
func ExportSpec(spec CategorySpec) (CategorySpec, []int) {
	out := spec
	out.ValueColumns = []string{ExportValueColumn}
	out.AgeSentinels = nil
	return out, []int{0}
}

// ExportFileName returns the download name for a slice of label.
func ExportFileName(label string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '\u3000', '\t':
			return '_'
		}
		return r
	}, label)
	if clean == "" {
		clean = "all"
	}
	return "population_" + clean + ".csv"
}
