// Package vehicle implements the shallow JSON merge-apply used to update a
// player's stored vehicle configuration from an incoming edit delta.
//
// The merge is deliberately non-recursive (spec.md §4.4, §9): a nested
// object in the delta replaces the corresponding nested object in the base
// wholesale, it is never merged key-by-key into it. This preserves the
// original server's rapidjson-based member-by-member overwrite exactly.
package vehicle

import (
	"encoding/json"
	"fmt"
)

// Merge applies delta onto base as a shallow overwrite: every top-level
// member of delta is written into base, replacing whatever was there
// (including a JSON null placeholder) or inserting it if absent. base and
// delta must each be a JSON object; anything else is an error.
func Merge(base, delta string) (string, error) {
	var baseObj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(base), &baseObj); err != nil {
		return "", fmt.Errorf("vehicle: parse base config: %w", err)
	}
	if baseObj == nil {
		baseObj = make(map[string]json.RawMessage)
	}

	var deltaObj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(delta), &deltaObj); err != nil {
		return "", fmt.Errorf("vehicle: parse delta config: %w", err)
	}

	for member, value := range deltaObj {
		baseObj[member] = value
	}

	merged, err := json.Marshal(baseObj)
	if err != nil {
		return "", fmt.Errorf("vehicle: serialize merged config: %w", err)
	}
	return string(merged), nil
}

// IsUnicycle reports whether carJSON describes a unicycle, i.e. it has a
// top-level string member "jbm" equal to "unicycle" (spec.md §4.3).
// A parse failure is treated as "not a unicycle" — the caller is
// responsible for logging the malformed payload if it cares to.
func IsUnicycle(carJSON string) bool {
	var car struct {
		JBM string `json:"jbm"`
	}
	if err := json.Unmarshal([]byte(carJSON), &car); err != nil {
		return false
	}
	return car.JBM == "unicycle"
}
