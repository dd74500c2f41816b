package core

// ResolveValueColumn returns the measurement column to read for t.
// spec.ValueColumns is checked in order and the first name present wins, so
// a variant listing a labeled column before "value" prefers the labeled one
// when both exist.
func ResolveValueColumn(t *RawTable, spec CategorySpec) (string, error) {
	for _, name := range spec.ValueColumns {
		if t.Has(name) {
			return name, nil
		}
	}
	column := ""
	if len(spec.ValueColumns) > 0 {
		column = spec.ValueColumns[0]
	}
	return "", &SchemaError{
		Column:     column,
		Candidates: spec.ValueColumns,
		Found:      t.Columns,
	}
}

// Coerce converts filtered rows into NormalizedRecords. Unparsable ages and
// values become missing markers; only absent columns are errors.
func Coerce(t *RawTable, spec CategorySpec) ([]NormalizedRecord, error) {
	idx := t.Index()

	timePos, ok := idx[spec.TimeColumn]
	if !ok {
		return nil, &SchemaError{Column: spec.TimeColumn, Found: t.Columns}
	}
	agePos, ok := idx[spec.AgeColumn]
	if !ok {
		return nil, &SchemaError{Column: spec.AgeColumn, Found: t.Columns}
	}
	valueCol, err := ResolveValueColumn(t, spec)
	if err != nil {
		return nil, err
	}
	valuePos := idx[valueCol]

	records := make([]NormalizedRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		label := cell(row, agePos)
		records = append(records, NormalizedRecord{
			TimeLabel: cell(row, timePos),
			AgeLabel:  label,
			Age:       ParseAge(label),
			Value:     ParseValue(cell(row, valuePos)),
		})
	}
	return records, nil
}
