package cache

import "encoding/json"

// resultListFields are the top-level keys the upstream API uses for its
// result list, in the order they are checked.
var resultListFields = []string{"games", "results"}

// CacheablePayload reports whether an upstream payload is worth persisting:
// a JSON object carrying a recognized result-list field with at least one
// element. Empty or shape-mismatched payloads are valid responses but must
// never be cached, or later identical queries would be served a false
// negative.
func CacheablePayload(payload []byte) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
		return false
	}
	for _, field := range resultListFields {
		raw, ok := obj[field]
		if !ok {
			continue
		}
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return false
		}
		return len(list) > 0
	}
	return false
}
