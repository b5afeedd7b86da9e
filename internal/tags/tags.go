// Package tags parses content metadata tags once at registration time and
// serves typed, case-insensitive lookups afterward.
package tags

import "strings"

// #region map

// Value is a parsed tag value: bool or string.
type Value interface{}

// Map holds parsed tags for one storylet id. Keys are stored lowercased.
type Map map[string]Value

// Get looks up key case-insensitively and returns fallback when absent.
func (m Map) Get(key string, fallback Value) Value {
	if m == nil {
		return fallback
	}
	v, ok := m[strings.ToLower(key)]
	if !ok {
		return fallback
	}
	return v
}

// Has reports whether key is present, case-insensitively.
func (m Map) Has(key string) bool {
	_, ok := m[strings.ToLower(key)]
	return ok
}

// #endregion map

// #region parse

// onceKey marks a storylet as discard-after-play.
const onceKey = "once"

// Parse converts raw tag strings into a Map and reports whether the once key
// was set. A bare tag becomes true; "key: value" becomes a trimmed string,
// except the literals "true" and "false" which coerce to bool.
func Parse(raw []string) (Map, bool) {
	m := make(Map, len(raw))
	for _, tag := range raw {
		key, value := parseOne(tag)
		if key == "" {
			continue
		}
		m[key] = value
	}

	once := false
	if v, ok := m[onceKey]; ok {
		if b, isBool := v.(bool); isBool {
			once = b
		} else {
			once = true
		}
	}
	return m, once
}

func parseOne(tag string) (string, Value) {
	idx := strings.Index(tag, ":")
	if idx < 0 {
		return strings.ToLower(strings.TrimSpace(tag)), true
	}
	key := strings.ToLower(strings.TrimSpace(tag[:idx]))
	val := strings.TrimSpace(tag[idx+1:])
	switch val {
	case "true":
		return key, true
	case "false":
		return key, false
	}
	return key, val
}

// #endregion parse
