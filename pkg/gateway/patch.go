package gateway

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/unowned-ai/duet/pkg/records"
)

var immutableFields = map[string]bool{
	"id":         true,
	"author_id":  true,
	"created_at": true,
}

// patchElement overlays patch onto the JSON form of el and decodes the result.
func patchElement[T records.Element](el T, patch map[string]any) (T, error) {
	var zero T

	raw, err := json.Marshal(el)
	if err != nil {
		return zero, fmt.Errorf("encode element %s: %w", el.ElementID(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return zero, fmt.Errorf("decode element %s: %w", el.ElementID(), err)
	}

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if immutableFields[k] {
			return zero, fmt.Errorf("field %q: %w", k, ErrImmutableField)
		}
		if _, ok := fields[k]; !ok {
			return zero, fmt.Errorf("%w: unknown field %q", records.ErrInvalidElement, k)
		}
		v, err := json.Marshal(patch[k])
		if err != nil {
			return zero, fmt.Errorf("%w: field %q: %v", records.ErrInvalidElement, k, err)
		}
		fields[k] = v
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("encode patched element %s: %w", el.ElementID(), err)
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return zero, fmt.Errorf("%w: %v", records.ErrInvalidElement, err)
	}
	return out, nil
}
