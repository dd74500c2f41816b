package core

import (
	"errors"
	"testing"
)

func TestRegisterVariant(t *testing.T) {
	ClearVariants()
	t.Cleanup(ClearVariants)

	RegisterVariant(Variant{Key: "b", Label: "B", Spec: testSpec()})
	RegisterVariant(Variant{Key: "a", Label: "A", Spec: testSpec(), HeaderOffsets: []int{3}})

	all := Variants()
	if len(all) != 2 || all[0].Key != "a" || all[1].Key != "b" {
		t.Fatalf("Variants() = %+v, want a, b sorted", all)
	}

	b, err := GetVariant("b")
	if err != nil {
		t.Fatalf("GetVariant() error = %v", err)
	}
	if len(b.HeaderOffsets) != len(DefaultHeaderOffsets) {
		t.Errorf("HeaderOffsets = %v, want defaults", b.HeaderOffsets)
	}
	a, _ := GetVariant("a")
	if len(a.HeaderOffsets) != 1 || a.HeaderOffsets[0] != 3 {
		t.Errorf("HeaderOffsets = %v, want [3]", a.HeaderOffsets)
	}
}

func TestGetVariant_Unknown(t *testing.T) {
	ClearVariants()
	t.Cleanup(ClearVariants)

	_, err := GetVariant("missing")
	if !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("GetVariant() error = %v, want ErrUnknownVariant", err)
	}
	var ve *VariantError
	if !errors.As(err, &ve) || ve.Key != "missing" {
		t.Errorf("VariantError = %+v", ve)
	}
}

func TestRegisterVariant_Panics(t *testing.T) {
	noValue := testSpec()
	noValue.ValueColumns = nil
	noAge := testSpec()
	noAge.AgeColumn = ""

	tests := []struct {
		name string
		v    Variant
	}{
		{name: "empty key", v: Variant{Spec: testSpec()}},
		{name: "no value columns", v: Variant{Key: "x", Spec: noValue}},
		{name: "no age column", v: Variant{Key: "x", Spec: noAge}},
		{name: "negative offset", v: Variant{Key: "x", Spec: testSpec(), HeaderOffsets: []int{-1}}},
		{name: "duplicate key", v: Variant{Key: "dup", Spec: testSpec()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ClearVariants()
			t.Cleanup(ClearVariants)
			RegisterVariant(Variant{Key: "dup", Spec: testSpec()})

			defer func() {
				if recover() == nil {
					t.Error("RegisterVariant() should panic")
				}
			}()
			RegisterVariant(tt.v)
		})
	}
}
