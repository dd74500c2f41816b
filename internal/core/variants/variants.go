// Package variants registers the known e-Stat population export layouts with
// the core variant registry. Import it for side effects:
//
//	import _ "github.com/JonMunkholm/popstat/internal/core/variants"
package variants

import "github.com/JonMunkholm/popstat/internal/core"

// Variant keys.
const (
	SingleAge     = "population_single_age"
	LabeledValues = "population_labeled_value"
)

// Column names shared by the e-Stat "年齢各歳別人口" exports.
const (
	colAge        = "年齢各歳"
	colTime       = "時間軸（年月日現在）"
	colPopulation = "人口"
	totalSex      = "男女計"
	totalPop      = "総人口"
)

func init() {
	// Database download: one generic value column, sex column carries the
	// sex ratio rows as well.
	core.RegisterVariant(core.Variant{
		Key:   SingleAge,
		Label: "年齢各歳別人口 (value)",
		Spec: core.CategorySpec{
			SexColumn:        "男女別・性比",
			SexTotal:         totalSex,
			PopulationColumn: colPopulation,
			PopulationTotal:  totalPop,
			AgeColumn:        colAge,
			TimeColumn:       colTime,
			ValueColumns:     []string{"value"},
			AgeSentinels:     core.DefaultAgeSentinels,
		},
		HeaderOffsets: core.DefaultHeaderOffsets,
	})

	// Later layout: sex-specific labeled value columns. The population column
	// is missing from some files, which turns that filter clause off.
	// When both the labeled column and "value" exist the labeled one wins.
	core.RegisterVariant(core.Variant{
		Key:   LabeledValues,
		Label: "年齢各歳別人口 (男女計【千人】)",
		Spec: core.CategorySpec{
			SexColumn:        "男女別",
			SexTotal:         totalSex,
			PopulationColumn: colPopulation,
			PopulationTotal:  totalPop,
			AgeColumn:        colAge,
			TimeColumn:       colTime,
			ValueColumns:     []string{"男女計【千人】", "value"},
			AgeSentinels:     core.DefaultAgeSentinels,
		},
		HeaderOffsets: core.DefaultHeaderOffsets,
	})
}
