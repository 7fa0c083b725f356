package supplier

import (
	"strconv"
	"strings"
)

// The supplier's field presence is dynamic and its scalar types are loose
// (numbers as strings, booleans as "1"/"true"). These helpers read the typed
// core fields defensively; everything unrecognized goes into Extra maps.

// lookupAny resolves a dot path inside nested maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func lookupStr(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if v := lookupAny(m, p); v != nil {
			switch s := v.(type) {
			case string:
				if s != "" {
					return s
				}
			case float64:
				return strconv.FormatFloat(s, 'f', -1, 64)
			}
		}
	}
	return ""
}

func lookupF64(m map[string]any, paths ...string) (float64, bool) {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func lookupI64(m map[string]any, paths ...string) (int64, bool) {
	if f, ok := lookupF64(m, paths...); ok {
		return int64(f), true
	}
	return 0, false
}

func lookupBool(m map[string]any, paths ...string) (bool, bool) {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case bool:
			return v, true
		case float64:
			return v != 0, true
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "1", "yes":
				return true, true
			case "false", "0", "no", "":
				return false, true
			}
		}
	}
	return false, false
}

func lookupInts(m map[string]any, paths ...string) []int {
	for _, p := range paths {
		raw, ok := lookupAny(m, p).([]any)
		if !ok {
			continue
		}
		out := make([]int, 0, len(raw))
		for _, it := range raw {
			switch n := it.(type) {
			case float64:
				out = append(out, int(n))
			case string:
				if x, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
					out = append(out, x)
				}
			}
		}
		return out
	}
	return nil
}

// extraFields copies every top-level key not in known, preserving supplier
// passthrough fields untouched.
func extraFields(m map[string]any, known ...string) map[string]any {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[k] = struct{}{}
	}
	var out map[string]any
	for k, v := range m {
		if _, ok := set[k]; ok {
			continue
		}
		if out == nil {
			out = make(map[string]any, 4)
		}
		out[k] = v
	}
	return out
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ptrInt(n int) *int { return &n }

func ptrF64(f float64) *float64 { return &f }
