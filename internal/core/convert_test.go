package core

import (
	"strconv"
	"testing"
)

// ----------------------------------------------------------------------------
// ParseAge Tests
// ----------------------------------------------------------------------------

func TestParseAge(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantAge   int
	}{
		// Valid: plain labels
		{name: "zero", input: "0歳", wantValid: true, wantAge: 0},
		{name: "two digits", input: "15歳", wantValid: true, wantAge: 15},
		{name: "bare number", input: "42", wantValid: true, wantAge: 42},
		{name: "open ended bracket", input: "100歳以上", wantValid: true, wantAge: 100},

		// Valid: width and padding
		{name: "full-width digits", input: "１５歳", wantValid: true, wantAge: 15},
		{name: "ideographic space", input: "　7歳　", wantValid: true, wantAge: 7},
		{name: "leading zeros", input: "007歳", wantValid: true, wantAge: 7},

		// First digit run wins
		{name: "range takes lower bound", input: "0～4歳", wantValid: true, wantAge: 0},
		{name: "prefix text", input: "（再掲）15歳未満", wantValid: true, wantAge: 15},

		// Invalid
		{name: "empty", input: "", wantValid: false},
		{name: "total", input: "総数", wantValid: false},
		{name: "unknown", input: "不詳", wantValid: false},
		{name: "circled digit", input: "①歳", wantValid: false},
		{name: "superscript digit", input: "²", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAge(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ParseAge(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if got.Valid && got.Int != tt.wantAge {
				t.Errorf("ParseAge(%q) = %d, want %d", tt.input, got.Int, tt.wantAge)
			}
		})
	}
}

func TestParseAge_Idempotent(t *testing.T) {
	for _, label := range []string{"0歳", "１５歳", "100歳以上", "0～4歳", "007"} {
		first := ParseAge(label)
		if !first.Valid {
			t.Fatalf("ParseAge(%q) should be valid", label)
		}
		second := ParseAge(strconv.Itoa(first.Int))
		if second != first {
			t.Errorf("ParseAge not idempotent for %q: %+v then %+v", label, first, second)
		}
	}
}

// ----------------------------------------------------------------------------
// ParseValue Tests
// ----------------------------------------------------------------------------

func TestParseValue(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue float64
	}{
		// Valid: numbers
		{name: "integer", input: "835832", wantValid: true, wantValue: 835832},
		{name: "decimal", input: "126.1", wantValid: true, wantValue: 126.1},
		{name: "negative", input: "-3", wantValid: true, wantValue: -3},
		{name: "exponent", input: "1.5e3", wantValid: true, wantValue: 1500},

		// Valid: separators and wrappers
		{name: "thousands separator", input: "12,345", wantValid: true, wantValue: 12345},
		{name: "full-width separator", input: "１２，３４５", wantValid: true, wantValue: 12345},
		{name: "inner spaces", input: "1 234", wantValid: true, wantValue: 1234},
		{name: "excel wrapper", input: `="976979"`, wantValid: true, wantValue: 976979},
		{name: "surrounding whitespace", input: "  42  ", wantValid: true, wantValue: 42},

		// Invalid: placeholders
		{name: "empty", input: "", wantValid: false},
		{name: "not available", input: "N/A", wantValid: false},
		{name: "dash", input: "-", wantValid: false},
		{name: "ellipsis", input: "…", wantValid: false},
		{name: "masked", input: "***", wantValid: false},
		{name: "letter x", input: "x", wantValid: false},
		{name: "two decimal points", input: "1.2.3", wantValid: false},
		{name: "circled digit", input: "①", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseValue(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ParseValue(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if got.Valid && got.Float64 != tt.wantValue {
				t.Errorf("ParseValue(%q) = %v, want %v", tt.input, got.Float64, tt.wantValue)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{Value{}, ""},
		{Value{Float64: 835832, Valid: true}, "835832"},
		{Value{Float64: 126.1, Valid: true}, "126.1"},
		{Value{Float64: 0, Valid: true}, "0"},
	}

	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%+v) = %q, want %q", tt.in, got, tt.want)
		}
		if tt.in.Valid {
			if back := ParseValue(FormatValue(tt.in)); back != tt.in {
				t.Errorf("ParseValue(FormatValue(%+v)) = %+v", tt.in, back)
			}
		}
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// Basic cleaning
		{
			name:  "simple string unchanged",
			input: "年齢各歳",
			want:  "年齢各歳",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},

		// Whitespace trimming
		{
			name:  "surrounded by whitespace",
			input: "  value  ",
			want:  "value",
		},
		{
			name:  "ideographic space",
			input: "　人口　",
			want:  "人口",
		},

		// Excel formula prefix handling
		{
			name:  "Excel formula with quotes",
			input: `="男女計"`,
			want:  "男女計",
		},
		{
			name:  "Excel formula number as text",
			input: `="12345"`,
			want:  "12345",
		},
		{
			name:  "bare equals sign kept",
			input: "=SUM(A1)",
			want:  "=SUM(A1)",
		},

		// BOM
		{
			name:  "leaked BOM",
			input: "\ufeff男女別・性比",
			want:  "男女別・性比",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanCell(tt.input)
			if got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCell_ShortRow(t *testing.T) {
	row := []string{" a ", "b"}
	if got := cell(row, 0); got != "a" {
		t.Errorf("cell(row, 0) = %q, want a", got)
	}
	if got := cell(row, 5); got != "" {
		t.Errorf("cell(row, 5) = %q, want empty", got)
	}
	if got := cell(row, -1); got != "" {
		t.Errorf("cell(row, -1) = %q, want empty", got)
	}
}
