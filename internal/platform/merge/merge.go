// Package merge applies partial JSON-shaped documents onto existing ones.
package merge

// Deep merges patch into dst field by field and returns dst.
//
// Nested objects are merged recursively. Arrays and primitives replace the
// existing value wholesale. A nil dst is allocated. The patch is never
// mutated and dst never aliases it.
func Deep(dst, patch map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(patch))
	}
	for key, value := range patch {
		incoming, ok := value.(map[string]any)
		if !ok {
			dst[key] = copyValue(value)
			continue
		}
		existing, ok := dst[key].(map[string]any)
		if !ok {
			existing = nil
		}
		dst[key] = Deep(existing, incoming)
	}
	return dst
}

// Copy returns a deep copy of a JSON-shaped object.
func Copy(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = copyValue(value)
	}
	return out
}

func copyValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return Copy(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = copyValue(item)
		}
		return out
	default:
		return value
	}
}
