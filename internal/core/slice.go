package core

import "sort"

// TimeLabels returns the distinct, non-empty time labels of records in order
// of first appearance. These are the only valid arguments to SliceYear.
func TimeLabels(records []NormalizedRecord) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, r := range records {
		if r.TimeLabel == "" || seen[r.TimeLabel] {
			continue
		}
		seen[r.TimeLabel] = true
		labels = append(labels, r.TimeLabel)
	}
	return labels
}

// SliceYear returns the records whose time label equals label exactly,
// ordered by ascending age. Records without an age are left out. When two
// records share an age the one appearing first in records is kept.
// An unknown label yields an empty slice.
func SliceYear(records []NormalizedRecord, label string) YearSlice {
	out := YearSlice{TimeLabel: label, Records: []NormalizedRecord{}}
	seen := make(map[int]bool)
	for _, r := range records {
		if r.TimeLabel != label || !r.Age.Valid || seen[r.Age.Int] {
			continue
		}
		seen[r.Age.Int] = true
		out.Records = append(out.Records, r)
	}

	sort.SliceStable(out.Records, func(i, j int) bool {
		return out.Records[i].Age.Int < out.Records[j].Age.Int
	})
	return out
}
