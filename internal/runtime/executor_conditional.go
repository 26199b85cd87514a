package runtime

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/arbor/pkg/domain"
)

// executeConditional passes its input through and reports the branch taken.
func executeConditional(cfg domain.ConditionalConfig, input string) domain.NodeExecutionResult {
	ok := evaluate(cfg.Operator, input, cfg.ConditionValue)

	res := completed(input)
	res.Branch = domain.HandleFalse
	if ok {
		res.Branch = domain.HandleTrue
	}
	res.Metadata = map[string]any{
		"operator":       cfg.Operator,
		"conditionValue": cfg.ConditionValue,
		"result":         ok,
	}
	return res
}

// evaluate applies operator to input. Unknown operators and lengths without
// leading digits evaluate to false.
func evaluate(operator, input, value string) bool {
	switch operator {
	case domain.OpContains:
		return strings.Contains(strings.ToLower(input), strings.ToLower(value))
	case domain.OpNotContains:
		return !strings.Contains(strings.ToLower(input), strings.ToLower(value))
	case domain.OpLengthGT:
		n, ok := leadingInt(value)
		return ok && utf8.RuneCountInString(input) > n
	case domain.OpLengthLT:
		n, ok := leadingInt(value)
		return ok && utf8.RuneCountInString(input) < n
	case domain.OpEquals:
		return strings.EqualFold(strings.TrimSpace(input), strings.TrimSpace(value))
	}
	return false
}

// leadingInt reads an optionally signed integer from the start of s, after
// leading whitespace, and ignores whatever follows it: "5.5" and "5abc" are
// both 5.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}
