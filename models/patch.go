package models

import (
	"encoding/json"
	"fmt"
)

// FieldUpdate is a single column assignment produced by a partial update
type FieldUpdate struct {
	Field string
	Value any
}

type patchField struct {
	name   string
	decode func(json.RawMessage) (any, error)
}

// patchOrder is the order in which partial update keys are checked. Only
// the first key present in a request is applied.
var patchOrder = []patchField{
	{"title", decodeAs[string]},
	{"description", decodeAs[string]},
	{"trailer", decodeAs[string]},
	{"year", decodeAs[int]},
	{"rating", decodeAs[float64]},
	{"genre_id", decodeAs[int64]},
	{"director_id", decodeAs[int64]},
}

// PatchFields returns the updatable column names in check order
func PatchFields() []string {
	names := make([]string, len(patchOrder))
	for i, f := range patchOrder {
		names[i] = f.name
	}
	return names
}

// ParsePatch selects the update to apply from a partial update body. The
// first known key in check order wins and the remaining keys are ignored.
// It returns nil when the body carries no known key.
func ParsePatch(body map[string]json.RawMessage) (*FieldUpdate, error) {
	for _, f := range patchOrder {
		raw, ok := body[f.name]
		if !ok {
			continue
		}

		value, err := f.decode(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", f.name, err)
		}
		return &FieldUpdate{Field: f.name, Value: value}, nil
	}
	return nil, nil
}

// decodeAs unmarshals raw into T. JSON null decodes to a nil value.
func decodeAs[T any](raw json.RawMessage) (any, error) {
	var v *T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return *v, nil
}
