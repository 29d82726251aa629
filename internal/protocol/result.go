package protocol

// Result is one snapshot of a live query: a JSON-compatible tree shaped like
// the query that produced it.
type Result map[string]any

// Normalize rewrites v so that it only contains the types structpb and
// encoding/json agree on: map[string]any, []any and scalars.
func Normalize(v any) any {
	switch t := v.(type) {
	case Result:
		return Normalize(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	default:
		return v
	}
}
