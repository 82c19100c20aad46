// Package source provides stream.Iterable adapters for host inputs
// beyond Go's own slices/arrays/channels (which the core package's
// asIterable already understands directly): JSON-decoded request
// bodies and pgx-backed SQL result sets.
package source

import "encoding/json"

// FromJSON decodes a JSON array into a []any, suitable for passing
// directly to stream.Map/stream.Filter or pipelinereg.Build. Each
// element decodes via encoding/json's default rules (numbers become
// float64, which is what internal/pipelinereg's builtin callables
// expect).
func FromJSON(data []byte) ([]any, error) {
	var out []any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
