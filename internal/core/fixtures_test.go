package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Column names of the single-age population export used across tests.
const (
	colSex  = "男女別・性比"
	colPop  = "人口"
	colAge  = "年齢各歳"
	colTime = "時間軸（年月日現在）"
	year20  = "2020年10月1日現在"
	year15  = "2015年10月1日現在"
)

var testHeader = colSex + "," + colPop + "," + colAge + "," + colTime + ",value"

func testSpec() CategorySpec {
	return CategorySpec{
		SexColumn:        colSex,
		SexTotal:         "男女計",
		PopulationColumn: colPop,
		PopulationTotal:  "総人口",
		AgeColumn:        colAge,
		TimeColumn:       colTime,
		ValueColumns:     []string{"value"},
		AgeSentinels:     DefaultAgeSentinels,
	}
}

// metadata returns n descriptive lines of the kind e-Stat puts above the header.
func metadata(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "\"統計表名：人口推計 注記%d\"\n", i+1)
	}
	return b.String()
}

// csvRows joins data rows after a header line.
func csvRows(header string, rows ...string) string {
	return header + "\n" + strings.Join(rows, "\n") + "\n"
}

func writeSource(t testing.TB, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// populationCSV is a small but realistic single-age export.
func populationCSV() string {
	return csvRows(testHeader,
		"男女計,総人口,総数,"+year20+",126146099",
		"男女計,総人口,1歳,"+year20+",\"856,374\"",
		"男女計,総人口,0歳,"+year20+",\"835,832\"",
		"男,総人口,0歳,"+year20+",428000",
		"男女計,日本人人口,0歳,"+year20+",800000",
		"男女計,総人口,不詳,"+year20+",12",
		"男女計,総人口,2歳,"+year20+",N/A",
		"男女計,総人口,0歳,"+year15+",\"976,979\"",
	)
}

// registerTestVariant installs a single variant for the duration of a test.
func registerTestVariant(t testing.TB, key string) Variant {
	t.Helper()
	ClearVariants()
	t.Cleanup(ClearVariants)
	v := Variant{Key: key, Label: "test", Spec: testSpec()}
	RegisterVariant(v)
	got, err := GetVariant(key)
	if err != nil {
		t.Fatalf("GetVariant(%q): %v", key, err)
	}
	return got
}
