package core

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
)

// generatePopulationCSV builds a full single-age export: ages 0-100 plus the
// total row for both sexes and the combined sex, over the given years.
func generatePopulationCSV(years int) []byte {
	var b bytes.Buffer
	b.WriteString(metadata(13))
	b.WriteString(testHeader + "\n")
	for y := 0; y < years; y++ {
		label := fmt.Sprintf("%d年10月1日現在", 2020-y)
		for _, sex := range []string{"男女計", "男", "女"} {
			fmt.Fprintf(&b, "%s,総人口,総数,%s,\"126,146,099\"\n", sex, label)
			for age := 0; age <= 100; age++ {
				fmt.Fprintf(&b, "%s,総人口,%d歳,%s,\"%d,%03d\"\n", sex, age, label, 800+age, age)
			}
		}
	}
	return b.Bytes()
}

// ============================================================================
// Conversion Benchmarks
// ============================================================================

// BenchmarkParseAge benchmarks age label parsing.
// Called once per kept row.
func BenchmarkParseAge(b *testing.B) {
	testCases := []string{
		"0歳",
		"100歳以上",
		"１２歳", // Full-width digits
		"総数",
		"  45歳  ",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseAge(tc)
		}
	}
}

// BenchmarkParseValue benchmarks numeric cell parsing.
func BenchmarkParseValue(b *testing.B) {
	testCases := []string{
		"835832",
		"835,832",
		"１２,３４５", // Full-width
		"104.8",
		"-",
		"N/A",
		"***",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseValue(tc)
		}
	}
}

// BenchmarkParseValue_Simple benchmarks the common case: a plain integer.
func BenchmarkParseValue_Simple(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseValue("835832")
	}
}

// BenchmarkCleanCell benchmarks cell cleaning.
// Called for every cell during load, so it stays cheap.
func BenchmarkCleanCell(b *testing.B) {
	testCases := []string{
		"男女計",
		`="12345"`,
		`"quoted"`,
		"  whitespace  ",
		"\ufeff男女別・性比",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			CleanCell(tc)
		}
	}
}

// ============================================================================
// Encoding Benchmarks
// ============================================================================

// BenchmarkDetectEncoding benchmarks sniffing a file head.
func BenchmarkDetectEncoding(b *testing.B) {
	sample := generatePopulationCSV(1)
	if len(sample) > detectSampleSize {
		sample = sample[:detectSampleSize]
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		DetectEncoding(sample)
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

// BenchmarkLoad benchmarks reading a ten year export into a RawTable.
func BenchmarkLoad(b *testing.B) {
	path := writeSource(b, "pop.csv", generatePopulationCSV(10))
	opts := DefaultLoadOptions()
	opts.HeaderOffset = 13

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Load(path, opts); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFilterAndCoerce benchmarks the in-memory stages on a loaded table.
func BenchmarkFilterAndCoerce(b *testing.B) {
	spec := testSpec()
	path := writeSource(b, "pop.csv", generatePopulationCSV(10))
	opts := DefaultLoadOptions()
	opts.HeaderOffset = 13
	raw, err := Load(path, opts)
	if err != nil {
		b.Fatal(err)
	}
	raw = NormalizeHeaders(raw)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		kept, _, err := FilterRows(raw, spec)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := Coerce(kept, spec); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPipelineRun benchmarks a full run including the header offset
// search, which retries offsets 0 and 12 before finding the header at 13.
func BenchmarkPipelineRun(b *testing.B) {
	for _, years := range []int{1, 10} {
		b.Run(fmt.Sprintf("years_%d", years), func(b *testing.B) {
			v := registerTestVariant(b, "pop")
			path := writeSource(b, "pop.csv", generatePopulationCSV(years))
			p := Pipeline{Variant: v, Load: DefaultLoadOptions()}

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := p.Run(context.Background(), path); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkSliceYear benchmarks selecting one year out of a ten year frame.
func BenchmarkSliceYear(b *testing.B) {
	var records []NormalizedRecord
	for y := 0; y < 10; y++ {
		label := fmt.Sprintf("%d年10月1日現在", 2020-y)
		for age := 100; age >= 0; age-- {
			records = append(records, rec(label, fmt.Sprintf("%d歳", age), float64(age)))
		}
	}
	target := records[len(records)/2].TimeLabel

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s := SliceYear(records, target)
		if s.Len() != 101 {
			b.Fatalf("Len() = %d", s.Len())
		}
	}
}

// BenchmarkWriteCSV benchmarks the export of one year.
func BenchmarkWriteCSV(b *testing.B) {
	var records []NormalizedRecord
	for age := 0; age <= 100; age++ {
		records = append(records, rec(year20, fmt.Sprintf("%d歳", age), float64(800000+age)))
	}
	s := SliceYear(records, year20)
	spec := testSpec()

	var buf strings.Builder
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := WriteCSV(&buf, s, spec); err != nil {
			b.Fatal(err)
		}
	}
}
