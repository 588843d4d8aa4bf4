package filter

import (
	"regexp"
	"strings"
)

// Operator is one of the comparison operators a client may prefix a
// filter value with, as in "LIKE:web".
type Operator string

const (
	OpEq    Operator = "="
	OpGt    Operator = ">"
	OpLt    Operator = "<"
	OpLike  Operator = "LIKE"
	OpILike Operator = "ILIKE"
)

// operators is scanned in order; the first matching prefix wins.
var operators = []Operator{OpEq, OpGt, OpLt, OpLike, OpILike}

var prefixShape = regexp.MustCompile(`^[A-Za-z=<>!~]{1,8}$`)

// ParseOperator splits raw into its operator and value. Without a known
// prefix the operator is "=" and raw comes back untouched. A LIKE value
// without a '%' is wrapped as %value%.
func ParseOperator(raw string) (Operator, string) {
	prefix, rest, ok := splitPrefix(raw)
	if !ok {
		return OpEq, raw
	}
	op, known := lookupOperator(prefix)
	if !known {
		return OpEq, raw
	}
	value := strings.TrimSpace(rest)
	if op == OpLike && !strings.Contains(value, "%") {
		value = "%" + value + "%"
	}
	return op, value
}

// splitPrefix returns the text before the first ':' when it looks like an
// operator token. Values such as "2024-01-01T10:00" or "12:30" are not
// treated as prefixed.
func splitPrefix(raw string) (string, string, bool) {
	i := strings.IndexByte(raw, ':')
	if i <= 0 {
		return "", "", false
	}
	prefix := raw[:i]
	if !prefixShape.MatchString(prefix) {
		return "", "", false
	}
	return prefix, raw[i+1:], true
}

// lookupOperator matches case-sensitively: "like" is not an operator.
func lookupOperator(s string) (Operator, bool) {
	for _, op := range operators {
		if string(op) == s {
			return op, true
		}
	}
	return "", false
}

func wildcard(v string) string {
	if strings.Contains(v, "%") {
		return v
	}
	return "%" + v + "%"
}
