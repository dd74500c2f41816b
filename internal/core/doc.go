// Package core normalizes e-Stat style population exports into a canonical
// (time, age, value) shape.
//
// This package has no UI or transport dependencies. It can be used by the
// web handlers, by tools, or by tests without modification.
//
// # Pipeline
//
// A run chains five stages, each a plain function over immutable values:
//
//  1. Raw Loader ([Load]): reads CSV, XLSX or XLS with a header offset,
//     decoding Shift_JIS or EUC-JP and dropping malformed lines with a
//     [LoadWarning] when tolerant parsing is on.
//  2. Header Normalizer ([NormalizeHeaders], [LoadNormalized]): trims column
//     names and retries candidate header offsets until the columns named by
//     the [CategorySpec] are present.
//  3. Row Filter ([FilterRows]): keeps the total/total category rows and
//     drops aggregate and unknown age labels.
//  4. Field Coercer ([Coerce]): extracts numeric ages and values; anything
//     unparsable becomes a missing marker.
//  5. Year Slicer ([SliceYear]): one time label, sorted by age, one record
//     per age.
//
// [Pipeline] runs stages 1 to 4 and returns a [Frame]; [Service] adds the
// concurrency limit, metrics and year selection used by the HTTP boundary.
//
// # Variants
//
// Each known export layout is a [Variant] registered at init time with
// [RegisterVariant]; see internal/core/variants.
//
//	core.RegisterVariant(core.Variant{
//	    Key:   "population_single_age",
//	    Label: "Population by single year of age",
//	    Spec: core.CategorySpec{
//	        SexColumn: "男女別・性比", SexTotal: "男女計",
//	        AgeColumn: "年齢各歳", TimeColumn: "時間軸（年月日現在）",
//	        ValueColumns: []string{"value"},
//	        AgeSentinels: core.DefaultAgeSentinels,
//	    },
//	})
//
// # Error Handling
//
// Structural failures are returned as [SourceError], [SchemaError],
// [MalformedError] and [RemoteError], which unwrap to the sentinels in
// errors.go. [MapError] turns any of them into a single user-facing message
// with a support code.
package core
