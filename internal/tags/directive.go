package tags

import "strings"

// #region directive

// Directive is a parsed register directive from content metadata:
// register:<name>[,<pool>].
type Directive struct {
	Name string
	Pool string
}

const registerPrefix = "register:"

// ParseDirective parses a single global directive. The pool segment defaults
// to "default" when omitted. Returns false for directives of other kinds.
func ParseDirective(s string) (Directive, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(strings.ToLower(trimmed), registerPrefix) {
		return Directive{}, false
	}
	body := trimmed[len(registerPrefix):]
	name, pool := body, ""
	if idx := strings.Index(body, ","); idx >= 0 {
		name = body[:idx]
		pool = body[idx+1:]
	}
	name = strings.TrimSpace(name)
	pool = strings.TrimSpace(pool)
	if name == "" {
		return Directive{}, false
	}
	if pool == "" {
		pool = "default"
	}
	return Directive{Name: name, Pool: pool}, true
}

// #endregion directive
