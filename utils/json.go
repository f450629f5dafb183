package utils

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"time"
)

// Marshal encodes v as compact JSON after normalizing value types that
// encoding/json does not render the way API payloads expect: time.Time
// and netip.Addr become strings, maps and slices are walked recursively.
func Marshal(v any) ([]byte, error) {
	normalized, err := normalizeJSON(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

func normalizeJSON(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return val.Format(time.RFC3339Nano), nil
	case *time.Time:
		if val == nil {
			return nil, nil
		}
		return val.Format(time.RFC3339Nano), nil
	case netip.Addr:
		return val.String(), nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			norm, err := normalizeJSON(item)
			if err != nil {
				return nil, err
			}
			out[k] = norm
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			norm, err := normalizeJSON(item)
			if err != nil {
				return nil, err
			}
			out[i] = norm
		}
		return out, nil
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			norm, err := normalizeJSON(item)
			if err != nil {
				return nil, err
			}
			out[i] = norm
		}
		return out, nil
	case float64:
		// allow_nan=false in the original encoder
		if val != val {
			return nil, fmt.Errorf("NaN is not JSON serializable")
		}
		return val, nil
	default:
		return val, nil
	}
}
