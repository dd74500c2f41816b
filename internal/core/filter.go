package core

// DefaultAgeSentinels are the e-Stat age labels meaning "all ages",
// "unknown (restated)" and "unknown".
var DefaultAgeSentinels = []string{"総数", "（再掲）不詳", "不詳"}

// FilterStats counts what the Row Filter did with each input row.
type FilterStats struct {
	Input            int `json:"input"`
	Kept             int `json:"kept"`
	CategoryMismatch int `json:"categoryMismatch"`
	MissingAge       int `json:"missingAge"`
	Sentinel         int `json:"sentinel"`
}

// FilterRows keeps the rows whose sex category equals spec.SexTotal and,
// when the variant has one, whose population type equals spec.PopulationTotal.
// Rows with an empty age label or a sentinel age label are excluded.
// All comparisons are exact on trimmed cells.
//
// The population clause is a no-op when spec.PopulationColumn is empty or
// the table has no such column. The sex and age columns must exist.
func FilterRows(t *RawTable, spec CategorySpec) (*RawTable, FilterStats, error) {
	stats := FilterStats{Input: len(t.Rows)}
	idx := t.Index()

	sexPos, ok := idx[spec.SexColumn]
	if !ok {
		return nil, stats, &SchemaError{Column: spec.SexColumn, Found: t.Columns}
	}
	agePos, ok := idx[spec.AgeColumn]
	if !ok {
		return nil, stats, &SchemaError{Column: spec.AgeColumn, Found: t.Columns}
	}
	popPos := -1
	if spec.PopulationColumn != "" {
		if p, ok := idx[spec.PopulationColumn]; ok {
			popPos = p
		}
	}

	sentinels := make(map[string]bool, len(spec.AgeSentinels))
	for _, s := range spec.AgeSentinels {
		sentinels[s] = true
	}

	kept := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if cell(row, sexPos) != spec.SexTotal {
			stats.CategoryMismatch++
			continue
		}
		if popPos >= 0 && cell(row, popPos) != spec.PopulationTotal {
			stats.CategoryMismatch++
			continue
		}

		age := cell(row, agePos)
		if age == "" {
			stats.MissingAge++
			continue
		}
		if sentinels[age] {
			stats.Sentinel++
			continue
		}
		kept = append(kept, row)
	}

	stats.Kept = len(kept)
	return t.derive(kept), stats, nil
}
