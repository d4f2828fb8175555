package common

import "strings"

// UnknownStr is returned by String methods for out-of-range enum values.
const UnknownStr = "unknown"

// KeySeparator joins column values into row keys and child keys.
const KeySeparator = ":"

// JoinValues joins values looked up by name with sep.
// A missing name contributes an empty segment.
func JoinValues(values map[string]string, names []string, sep string) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = values[name]
	}

	return strings.Join(parts, sep)
}
