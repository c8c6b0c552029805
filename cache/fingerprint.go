package cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Fingerprint derives a stable cache key from an endpoint and its parameters.
// Parameter order does not affect the result: keys are sorted and values are
// JSON-encoded, so two logically identical requests always map to the same
// key. Nested maps are handled by encoding/json's own key ordering.
//
// Fingerprints are prefixed with the endpoint, so InvalidatePrefix(endpoint)
// removes every variant of an endpoint's cached responses.
func Fingerprint(endpoint string, params map[string]interface{}) string {
	if len(params) == 0 {
		return endpoint
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(encodeValue(params[k]))
	}
	return b.String()
}

func encodeValue(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Non-serializable values still need a deterministic representation.
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
