package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/anrid/xls"
	"github.com/xuri/excelize/v2"
)

// loadSpreadsheet reads the first sheet of an XLSX or XLS workbook.
// Sheet rows play the role of physical lines for the header offset.
func loadSpreadsheet(r io.Reader, path string, format Format, opts LoadOptions) (*RawTable, error) {
	data, err := io.ReadAll(io.LimitReader(r, opts.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(data)) > opts.MaxSize {
		return nil, tooLarge(path, opts)
	}

	var rows [][]string
	switch format {
	case FormatXLS:
		rows, err = readXLS(data)
	default:
		rows, err = readXLSX(data)
	}
	if err != nil {
		return nil, &MalformedError{Path: path, Offset: opts.HeaderOffset, Reason: err.Error()}
	}

	table, err := tableFromRows(path, rows, opts)
	if err != nil {
		return nil, err
	}
	table.BytesRead = int64(len(data))
	return table, nil
}

func readXLSX(data []byte) ([][]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("workbook has no sheets")
	}

	// Missing rows are kept as empty rows so that row positions, and with
	// them the header offset, stay meaningful.
	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		var cols []string
		for j := 0; j <= row.LastCol(); j++ {
			cols = append(cols, row.Col(j))
		}
		rows = append(rows, cols)
	}
	return rows, nil
}

// tableFromRows applies the header offset and row-shape rules to rows read
// from a spreadsheet. Spreadsheets do not store trailing empty cells, so
// short rows are padded; rows with extra non-empty cells are malformed.
func tableFromRows(path string, rows [][]string, opts LoadOptions) (*RawTable, error) {
	if opts.HeaderOffset >= len(rows) {
		return nil, &MalformedError{
			Path:   path,
			Offset: opts.HeaderOffset,
			Reason: fmt.Sprintf("sheet has only %d rows", len(rows)),
		}
	}

	header := trimTrailingEmpty(rows[opts.HeaderOffset])
	table := &RawTable{
		Source:       path,
		HeaderOffset: opts.HeaderOffset,
		Columns:      header,
	}

	for i, row := range rows[opts.HeaderOffset+1:] {
		line := opts.HeaderOffset + i + 2 // 1-indexed, after header
		if isEmptyRow(row) {
			continue
		}

		row = trimTrailingEmpty(row)
		if len(row) > len(header) {
			reason := fmt.Sprintf("expected %d fields, got %d", len(header), len(row))
			if !opts.TolerateBadLines {
				return nil, &MalformedError{Path: path, Offset: opts.HeaderOffset, Line: line, Reason: reason, Columns: trimmedColumns(header)}
			}
			table.Warnings = append(table.Warnings, LoadWarning{Line: line, Reason: reason})
			continue
		}

		padded := make([]string, len(header))
		copy(padded, row)
		table.Rows = append(table.Rows, padded)
	}

	if len(table.Rows) == 0 {
		return nil, &MalformedError{
			Path:    path,
			Offset:  opts.HeaderOffset,
			Reason:  "no usable rows",
			Dropped: len(table.Warnings),
			Columns: trimmedColumns(header),
		}
	}
	return table, nil
}

func trimTrailingEmpty(row []string) []string {
	n := len(row)
	for n > 0 && CleanCell(row[n-1]) == "" {
		n--
	}
	return row[:n]
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if CleanCell(v) != "" {
			return false
		}
	}
	return true
}
