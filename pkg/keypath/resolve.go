// Package keypath resolves dotted key paths against decoded JSON values.
package keypath

import "strings"

// Separator splits a key path into segments.
const Separator = "."

// Resolve follows path through nested maps and returns the value found there.
//
// An empty path returns v unchanged. If any segment is missing, or the value
// at that point is not a map, Resolve returns (nil, false) without looking at
// the remaining segments.
//
// Example:
//
//	Resolve(map[string]any{"a": map[string]any{"b": 2}}, "a.b") // 2, true
func Resolve(v any, path string) (any, bool) {
	if path == "" {
		return v, true
	}

	current := v
	for _, segment := range strings.Split(path, Separator) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := m[segment]
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Lookup is Resolve without the presence flag. Missing paths yield nil.
func Lookup(v any, path string) any {
	out, _ := Resolve(v, path)
	return out
}
