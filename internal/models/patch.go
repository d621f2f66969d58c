package models

import (
	"encoding/json"
	"fmt"
)

// Patch is a partial update keyed by JSON attribute name. A nil value clears
// the attribute. The "id" key is never applied: IDs are immutable.
type Patch map[string]any

// Sanitized returns a copy of p without the id key.
func (p Patch) Sanitized() Patch {
	out := make(Patch, len(p))
	for k, v := range p {
		if k == "id" {
			continue
		}
		out[k] = v
	}
	return out
}

// Apply merges p into a copy of v. On error v is returned unchanged.
func Apply[T any](v T, p Patch) (T, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("models: apply patch: %w", err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return v, fmt.Errorf("models: apply patch: %w", err)
	}
	for k, val := range p.Sanitized() {
		if val == nil {
			delete(m, k)
			continue
		}
		m[k] = val
	}
	merged, err := json.Marshal(m)
	if err != nil {
		return v, fmt.Errorf("models: apply patch: %w", err)
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return v, fmt.Errorf("models: apply patch: %w", err)
	}
	return out, nil
}
