package store

import (
	"encoding/json"
	"fmt"
)

// mergeDocument overlays the top-level fields of payload onto existing.
// With no fields named, every payload field wins; otherwise only the named
// ones do. Fields absent from the payload keep their stored value.
func mergeDocument(existing, payload []byte, fields []string) ([]byte, error) {
	incoming := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &incoming); err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}

	base := map[string]json.RawMessage{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &base); err != nil {
			return nil, fmt.Errorf("stored document: %w", err)
		}
	}

	if len(fields) == 0 {
		for k, v := range incoming {
			base[k] = v
		}
	} else {
		for _, k := range fields {
			if v, ok := incoming[k]; ok {
				base[k] = v
			}
		}
		// The key is always carried so a first write is addressable.
		if v, ok := incoming["id"]; ok {
			base["id"] = v
		}
	}

	return json.Marshal(base)
}
