package backend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is one backend entity as decoded from JSON. Numbers are kept as
// json.Number so identifiers and prices survive without float rounding.
type Record map[string]any

// Get resolves a dotted path such as "brand.name". It returns nil when any
// segment is missing or not an object.
func (r Record) Get(path string) any {
	var cur any = map[string]any(r)
	for _, key := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil
		}
		cur, ok = m[key]
		if !ok {
			return nil
		}
	}
	return cur
}

// String returns the value at path formatted for display, or "" when absent.
func (r Record) String(path string) string {
	return Stringify(r.Get(path))
}

// Float returns the numeric value at path. Numeric strings are accepted
// since some backend decimals are serialized as strings.
func (r Record) Float(path string) (float64, bool) {
	return toFloat(r.Get(path))
}

// Bool returns the boolean value at path.
func (r Record) Bool(path string) bool {
	switch v := r.Get(path).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// ID returns the record identifier as a string.
func (r Record) ID() string {
	return r.String("id")
}

// Stringify formats a decoded JSON value for display.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	}
	return nil, false
}
