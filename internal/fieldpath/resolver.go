package fieldpath

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Resolve looks up a string value at a possibly-nested path in a raw lead
// record. Paths use dot notation ("customer.contact.phone"); a flat key is a
// path with no dots. The primary path is tried first, then each fallback in
// order, and the first non-empty match wins. Missing keys, nil values, empty
// strings and wrong-typed intermediates all resolve to absent (ok == false),
// never an error.
func Resolve(record map[string]interface{}, path string, fallbacks ...string) (string, bool) {
	if value, ok := lookupString(record, path); ok {
		return value, true
	}
	for _, fb := range fallbacks {
		if value, ok := lookupString(record, fb); ok {
			return value, true
		}
	}
	return "", false
}

// ResolveMap looks up a nested object at the given path. A missing key or a
// value that is not a JSON object resolves to nil.
func ResolveMap(record map[string]interface{}, path string) map[string]interface{} {
	value, ok := descend(record, path)
	if !ok {
		return nil
	}
	nested, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	return nested
}

// ResolveList looks up a sequence of strings at the given path. JSON arrays
// arrive as []interface{}; non-string members are skipped. A missing key or
// a non-sequence value resolves to nil.
func ResolveList(record map[string]interface{}, path string) []string {
	value, ok := descend(record, path)
	if !ok {
		return nil
	}
	switch seq := value.(type) {
	case []string:
		return seq
	case []interface{}:
		var items []string
		for _, member := range seq {
			if s, ok := stringify(member); ok {
				items = append(items, s)
			}
		}
		return items
	}
	return nil
}

func lookupString(record map[string]interface{}, path string) (string, bool) {
	value, ok := descend(record, path)
	if !ok {
		return "", false
	}
	return stringify(value)
}

// descend walks the dotted path through nested maps. Every intermediate
// segment must be a map; anything else terminates the walk as absent.
func descend(record map[string]interface{}, path string) (interface{}, bool) {
	if record == nil || path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	current := record
	for i, segment := range segments {
		value, exists := current[segment]
		if !exists || value == nil {
			return nil, false
		}
		if i == len(segments)-1 {
			return value, true
		}
		next, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// stringify renders a scalar leaf the way it arrived from JSON. Empty
// strings and non-scalar values count as absent.
func stringify(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case float64:
		// JSON numbers decode as float64; integral values print without a
		// fractional part so numeric ids stay stable.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), true
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		if v.String() == "" {
			return "", false
		}
		return v.String(), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}
