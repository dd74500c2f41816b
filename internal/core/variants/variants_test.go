package variants

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/popstat/internal/core"
)

func TestVariantsRegistered(t *testing.T) {
	for _, key := range []string{SingleAge, LabeledValues} {
		v, err := core.GetVariant(key)
		if err != nil {
			t.Fatalf("GetVariant(%q) error = %v", key, err)
		}
		if v.Label == "" {
			t.Errorf("%s: Label is empty", key)
		}
		if len(v.HeaderOffsets) == 0 {
			t.Errorf("%s: HeaderOffsets is empty", key)
		}
	}
}

func TestLabeledValues_PrefersLabeledColumn(t *testing.T) {
	content := "男女別,年齢各歳,時間軸（年月日現在）,value,男女計【千人】\n" +
		"男女計,総数,2020年10月1日現在,1,126146\n" +
		"男女計,0歳,2020年10月1日現在,1,836\n" +
		"男女計,1歳,2020年10月1日現在,2,856\n" +
		"男,0歳,2020年10月1日現在,3,428\n"
	path := filepath.Join(t.TempDir(), "labeled.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := core.GetVariant(LabeledValues)
	if err != nil {
		t.Fatal(err)
	}
	frame, err := core.Pipeline{Variant: v, Load: core.DefaultLoadOptions()}.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if frame.Diagnostics.ValueColumn != "男女計【千人】" {
		t.Errorf("ValueColumn = %q, want 男女計【千人】", frame.Diagnostics.ValueColumn)
	}
	s := frame.Slice("2020年10月1日現在")
	if s.Len() != 2 || s.Records[0].Value.Float64 != 836 || s.Records[1].Value.Float64 != 856 {
		t.Errorf("slice = %+v", s.Records)
	}
}

func TestSingleAge_RequiresPopulationTotal(t *testing.T) {
	content := "男女別・性比,人口,年齢各歳,時間軸（年月日現在）,value\n" +
		"男女計,総人口,0歳,2020年10月1日現在,835832\n" +
		"男女計,日本人人口,0歳,2020年10月1日現在,800000\n" +
		"性比,総人口,0歳,2020年10月1日現在,104.8\n"
	path := filepath.Join(t.TempDir(), "single.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := core.GetVariant(SingleAge)
	if err != nil {
		t.Fatal(err)
	}
	frame, err := core.Pipeline{Variant: v, Load: core.DefaultLoadOptions()}.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(frame.Records) != 1 || frame.Records[0].Value.Float64 != 835832 {
		t.Errorf("records = %+v", frame.Records)
	}
}
