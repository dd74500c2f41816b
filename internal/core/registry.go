package core

import (
	"fmt"
	"sort"
	"sync"
)

// Variant is one known schema variant of an export family: the categories
// it uses and where its header line may sit.
type Variant struct {
	Key           string       `json:"key"`
	Label         string       `json:"label"`
	Spec          CategorySpec `json:"-"`
	HeaderOffsets []int        `json:"headerOffsets"`
}

// Validate reports configuration mistakes in a variant definition.
func (v Variant) Validate() error {
	if v.Key == "" {
		return fmt.Errorf("variant key is required")
	}
	if v.Spec.SexColumn == "" || v.Spec.AgeColumn == "" || v.Spec.TimeColumn == "" {
		return fmt.Errorf("variant %s: sex, age and time columns are required", v.Key)
	}
	if len(v.Spec.ValueColumns) == 0 {
		return fmt.Errorf("variant %s: at least one value column is required", v.Key)
	}
	for _, off := range v.HeaderOffsets {
		if off < 0 {
			return fmt.Errorf("variant %s: negative header offset %d", v.Key, off)
		}
	}
	return nil
}

var (
	variants   = make(map[string]Variant)
	variantsMu sync.RWMutex
)

// RegisterVariant adds a variant to the registry.
// Panics if the variant is invalid or its key is already registered.
func RegisterVariant(v Variant) {
	if err := v.Validate(); err != nil {
		panic(err.Error())
	}

	variantsMu.Lock()
	defer variantsMu.Unlock()

	if _, exists := variants[v.Key]; exists {
		panic(fmt.Sprintf("variant already registered: %s", v.Key))
	}

	if len(v.HeaderOffsets) == 0 {
		v.HeaderOffsets = DefaultHeaderOffsets
	}
	variants[v.Key] = v
}

// GetVariant returns a variant by key.
// Returns a *VariantError if not found.
func GetVariant(key string) (Variant, error) {
	variantsMu.RLock()
	defer variantsMu.RUnlock()

	v, ok := variants[key]
	if !ok {
		return Variant{}, &VariantError{Key: key}
	}
	return v, nil
}

// Variants returns all registered variants sorted by key.
func Variants() []Variant {
	variantsMu.RLock()
	defer variantsMu.RUnlock()

	result := make([]Variant, 0, len(variants))
	for _, v := range variants {
		result = append(result, v)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// ClearVariants removes all registered variants.
// Primarily useful for testing.
func ClearVariants() {
	variantsMu.Lock()
	defer variantsMu.Unlock()
	variants = make(map[string]Variant)
}
