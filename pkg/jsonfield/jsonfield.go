package jsonfield

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Type classifies a JSON value into one of six tags.
type Type int

const (
	// TypeNull is the JSON null value.
	TypeNull Type = iota
	// TypeBoolean is a JSON true/false.
	TypeBoolean
	// TypeNumber is any JSON number.
	TypeNumber
	// TypeString is a JSON string.
	TypeString
	// TypeArray is a JSON array.
	TypeArray
	// TypeObject is a JSON object.
	TypeObject
)

// String returns the lowercase tag name.
func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// TypeOf classifies a decoded JSON value (the interface{} shapes
// produced by encoding/json: nil, bool, float64, string, []any,
// map[string]any).
func TypeOf(v any) Type {
	switch v.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBoolean
	case float64, json.Number:
		return TypeNumber
	case string:
		return TypeString
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	default:
		return TypeNull
	}
}

// Parse decodes payload as JSON. Returns false for anything that is not
// valid JSON.
func Parse(payload []byte) (any, bool) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, false
	}
	return v, true
}

// Resolve walks a dot-separated path through nested JSON objects.
// Returns false if any path element is missing or a non-object is
// encountered before the path is consumed.
func Resolve(v any, path string) (any, bool) {
	current := v
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Numeric resolves path and coerces the result to a float64. JSON
// numbers are accepted directly; strings are accepted when they parse
// as a number. Anything else returns false.
func Numeric(v any, path string) (float64, bool) {
	resolved, ok := Resolve(v, path)
	if !ok {
		return 0, false
	}
	return asNumber(resolved)
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Flatten produces a field-path to type map for a decoded JSON value.
// Objects recurse with dotted paths; arrays record their own tag and
// recurse into the first element only, path-suffixed "[0]". Inspecting
// a single element bounds cost; heterogeneous arrays under-report.
func Flatten(v any) map[string]Type {
	fields := make(map[string]Type)
	flattenInto(v, "", fields)
	return fields
}

func flattenInto(v any, prefix string, fields map[string]Type) {
	switch val := v.(type) {
	case map[string]any:
		if prefix != "" {
			fields[prefix] = TypeObject
		}
		for key, child := range val {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			flattenInto(child, path, fields)
		}
	case []any:
		if prefix != "" {
			fields[prefix] = TypeArray
		}
		if len(val) > 0 {
			path := "[0]"
			if prefix != "" {
				path = prefix + "[0]"
			}
			flattenInto(val[0], path, fields)
		}
	default:
		if prefix != "" {
			fields[prefix] = TypeOf(v)
		}
	}
}

// NumericField is a discovered numeric leaf in a payload.
type NumericField struct {
	Path  string
	Value float64
}

// NumericFields lists every field path in v whose value is numeric
// (or a numeric string), sorted by path. Used for metric field
// discovery.
func NumericFields(v any) []NumericField {
	var fields []NumericField
	collectNumeric(v, "", &fields)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Path < fields[j].Path })
	return fields
}

func collectNumeric(v any, prefix string, fields *[]NumericField) {
	switch val := v.(type) {
	case map[string]any:
		for key, child := range val {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			collectNumeric(child, path, fields)
		}
	default:
		if f, ok := asNumber(v); ok && prefix != "" {
			*fields = append(*fields, NumericField{Path: prefix, Value: f})
		}
	}
}

// Timestamp field names checked in priority order.
var timestampFields = []string{"timestamp", "ts", "time", "t"}

// millisThreshold separates epoch seconds from epoch milliseconds: any
// value above it is already in milliseconds.
const millisThreshold = 1_000_000_000_000

// Timestamp extracts an embedded capture time from a decoded JSON
// payload. It checks the fields "timestamp", "ts", "time" and "t" in
// that order and accepts a number or numeric string, treated as epoch
// milliseconds when greater than 10^12 and epoch seconds otherwise.
func Timestamp(v any) (time.Time, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return time.Time{}, false
	}

	for _, name := range timestampFields {
		raw, present := obj[name]
		if !present {
			continue
		}
		f, numeric := asNumber(raw)
		if !numeric {
			return time.Time{}, false
		}
		millis := int64(f)
		if millis <= millisThreshold {
			millis *= 1000
		}
		return time.UnixMilli(millis), true
	}
	return time.Time{}, false
}
