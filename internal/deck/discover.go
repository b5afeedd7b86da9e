package deck

import "strings"

// #region naming

// Naming convention for content and predicates. A storylet group named
// "street" owns content ids like "street_market"; the predicate for
// "street_market" is the function "fn_street_market"; the group gate, when
// present, is a function named exactly "street".
const (
	// Separator joins a group name to the storylet-specific suffix.
	Separator = "_"
	// FunctionPrefix turns a content id into its predicate function id.
	FunctionPrefix = "fn_"
)

// FunctionID returns the predicate function id for a content unit.
func FunctionID(id string) string { return FunctionPrefix + id }

// Discover filters the full content id list to the candidates belonging to a
// named group: ids beginning with name + Separator. Pure function so the
// convention is testable without a live evaluator. Input order is preserved.
func Discover(allIDs []string, name string) []string {
	prefix := name + Separator
	var out []string
	for _, id := range allIDs {
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	return out
}

// #endregion naming
