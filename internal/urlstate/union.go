package urlstate

import (
	"slices"
	"strings"
)

// ReadStringUnion returns the value of key when it is one of values, else the
// first of values.
func ReadStringUnion(port Port, key string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	raw := strings.TrimSpace(port.Query().Get(key))
	if slices.Contains(values, raw) {
		return raw
	}
	return values[0]
}

// SetStringUnion returns the href holding value for key.
func SetStringUnion(port Port, key, value string) string {
	values := port.Query()
	values.Set(key, value)
	return port.Href(values)
}
