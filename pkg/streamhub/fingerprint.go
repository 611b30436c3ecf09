package streamhub

import (
	"encoding/json"
	"fmt"
	"sort"
)

// fingerprint returns a canonical representation of payload suitable for
// change detection: canonical (sorted-key) JSON, or a deterministic
// fallback if payload contains a value json.Marshal rejects.
func fingerprint(payload map[string]any) string {
	if encoded, err := json.Marshal(payload); err == nil {
		return string(encoded)
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, payload[k]))
	}
	return fmt.Sprintf("%v", parts)
}

func clonePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	cloned := make(map[string]any, len(payload))
	for k, v := range payload {
		cloned[k] = v
	}
	return cloned
}
