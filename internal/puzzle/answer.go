package puzzle

import "encoding/json"

// Answers arrive from callers, snapshots, and scenario files, so the
// same logical answer may show up as []int, []any of json.Number, or
// []float64. The coercions below accept any JSON-compatible shape and
// report ok=false for anything else; the evaluator turns that into a
// correct:false result with a message, never a panic.

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asIntSet(v any) (map[int]bool, bool) {
	set := make(map[int]bool)
	switch vv := v.(type) {
	case []int:
		for _, n := range vv {
			set[n] = true
		}
		return set, true
	case []any:
		for _, el := range vv {
			f, ok := asFloat(el)
			if !ok || f != float64(int(f)) {
				return nil, false
			}
			set[int(f)] = true
		}
		return set, true
	case []float64:
		for _, f := range vv {
			if f != float64(int(f)) {
				return nil, false
			}
			set[int(f)] = true
		}
		return set, true
	default:
		return nil, false
	}
}

func asStringSlice(v any) ([]string, bool) {
	switch vv := v.(type) {
	case []string:
		return vv, true
	case []any:
		out := make([]string, len(vv))
		for i, el := range vv {
			s, ok := el.(string)
			if !ok {
				return nil, false
			}
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func asStringMap(v any) (map[string]string, bool) {
	switch vv := v.(type) {
	case map[string]string:
		return vv, true
	case map[string]any:
		out := make(map[string]string, len(vv))
		for k, el := range vv {
			s, ok := el.(string)
			if !ok {
				return nil, false
			}
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}
