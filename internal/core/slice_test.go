package core

import (
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func rec(year, label string, value float64) NormalizedRecord {
	return NormalizedRecord{
		TimeLabel: year,
		AgeLabel:  label,
		Age:       ParseAge(label),
		Value:     Value{Float64: value, Valid: true},
	}
}

func ages(s YearSlice) []int {
	out := make([]int, 0, s.Len())
	for _, r := range s.Records {
		out = append(out, r.Age.Int)
	}
	return out
}

func TestTimeLabels(t *testing.T) {
	records := []NormalizedRecord{
		rec(year20, "0歳", 1),
		rec(year15, "0歳", 2),
		rec(year20, "1歳", 3),
		rec("", "2歳", 4),
	}

	got := TimeLabels(records)
	want := []string{year20, year15}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TimeLabels() = %q, want %q", got, want)
	}
	if TimeLabels(nil) != nil {
		t.Error("TimeLabels(nil) should be nil")
	}
}

func TestSliceYear(t *testing.T) {
	records := []NormalizedRecord{
		rec(year20, "2歳", 20),
		rec(year15, "0歳", 99),
		rec(year20, "0歳", 0),
		rec(year20, "年齢不明", 5),
		rec(year20, "1歳", 10),
	}

	got := SliceYear(records, year20)

	if got.TimeLabel != year20 {
		t.Errorf("TimeLabel = %q, want %q", got.TimeLabel, year20)
	}
	if want := []int{0, 1, 2}; !reflect.DeepEqual(ages(got), want) {
		t.Errorf("ages = %v, want %v", ages(got), want)
	}
	for _, r := range got.Records {
		if r.TimeLabel != year20 {
			t.Errorf("record from %q leaked into slice", r.TimeLabel)
		}
	}
}

// Duplicate ages keep the first record, which drops restated aggregate rows
// that repeat an age already seen.
func TestSliceYear_DuplicateAgeFirstWins(t *testing.T) {
	records := []NormalizedRecord{
		rec(year20, "15歳", 100),
		rec(year20, "（再掲）15歳未満", 999),
		rec(year20, "14歳", 90),
	}

	got := SliceYear(records, year20)
	if got.Len() != 2 {
		t.Fatalf("Len() = %d, want 2\n%s", got.Len(), spew.Sdump(got))
	}
	if got.Records[1].Value.Float64 != 100 {
		t.Errorf("age 15 value = %v, want first record's 100", got.Records[1].Value.Float64)
	}
}

func TestSliceYear_UnknownLabel(t *testing.T) {
	got := SliceYear([]NormalizedRecord{rec(year20, "0歳", 1)}, "1900年")
	if got.Records == nil {
		t.Error("Records should be empty, not nil")
	}
	if got.Len() != 0 {
		t.Errorf("Len() = %d, want 0", got.Len())
	}
}

func TestSliceYear_ExactMatch(t *testing.T) {
	records := []NormalizedRecord{rec("2020年", "0歳", 1)}
	if SliceYear(records, "2020").Len() != 0 {
		t.Error("labels must match exactly")
	}
}

func TestSliceYear_Properties(t *testing.T) {
	var records []NormalizedRecord
	labels := []string{"3歳", "0歳", "3歳", "1歳", "不詳", "2歳", "0歳"}
	for i, l := range labels {
		records = append(records, rec(year20, l, float64(i)))
	}

	s := SliceYear(records, year20)
	seen := map[int]bool{}
	for i, r := range s.Records {
		if !r.Age.Valid {
			t.Errorf("record %d has no age", i)
		}
		if seen[r.Age.Int] {
			t.Errorf("age %d appears twice", r.Age.Int)
		}
		seen[r.Age.Int] = true
		if i > 0 && s.Records[i-1].Age.Int >= r.Age.Int {
			t.Errorf("ages not strictly ascending at %d: %v", i, ages(s))
		}
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
}
