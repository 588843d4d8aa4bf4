// Package query is a small composable SELECT builder for Postgres.
// Values always travel as positional parameters; identifiers are
// validated and quoted, and operators come from a fixed list.
package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
)

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidOperator   = errors.New("invalid operator")
)

var identPart = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var operators = map[string]struct{}{
	"=": {}, "<>": {}, "!=": {}, ">": {}, "<": {}, ">=": {}, "<=": {},
	"LIKE": {}, "ILIKE": {}, "NOT LIKE": {}, "NOT ILIKE": {},
}

// params numbers placeholders across a statement and its sub-queries.
type params struct {
	args []any
}

func (p *params) add(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

// Cond renders one boolean SQL expression.
type Cond func(p *params) (string, error)

// Ident quotes a possibly qualified identifier such as p.created_at.
func Ident(name string) (string, error) {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		if !identPart.MatchString(part) {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
		parts[i] = pq.QuoteIdentifier(part)
	}
	return strings.Join(parts, "."), nil
}

// NormalizeOperator upper-cases and checks op against the allowed list.
func NormalizeOperator(op string) (string, error) {
	op = strings.ToUpper(strings.TrimSpace(op))
	if _, ok := operators[op]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidOperator, op)
	}
	return op, nil
}

// Compare renders "col op $n".
func Compare(col, op string, value any) Cond {
	return func(p *params) (string, error) {
		id, err := Ident(col)
		if err != nil {
			return "", err
		}
		o, err := NormalizeOperator(op)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", id, o, p.add(value)), nil
	}
}

// CompareDate renders "col::date op $n::date". date must be YYYY-MM-DD.
func CompareDate(col, op, date string) Cond {
	return func(p *params) (string, error) {
		id, err := Ident(col)
		if err != nil {
			return "", err
		}
		o, err := NormalizeOperator(op)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s::date %s %s::date", id, o, p.add(date)), nil
	}
}

// Columns renders "left op right" for correlated sub-queries.
func Columns(left, op, right string) Cond {
	return func(p *params) (string, error) {
		l, err := Ident(left)
		if err != nil {
			return "", err
		}
		r, err := Ident(right)
		if err != nil {
			return "", err
		}
		o, err := NormalizeOperator(op)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", l, o, r), nil
	}
}

func IsNull(col string) Cond {
	return func(p *params) (string, error) {
		id, err := Ident(col)
		if err != nil {
			return "", err
		}
		return id + " IS NULL", nil
	}
}

func IsNotNull(col string) Cond {
	return func(p *params) (string, error) {
		id, err := Ident(col)
		if err != nil {
			return "", err
		}
		return id + " IS NOT NULL", nil
	}
}

// In renders "col IN ($1, $2, ...)". An empty list never matches.
func In(col string, values ...any) Cond {
	return func(p *params) (string, error) {
		id, err := Ident(col)
		if err != nil {
			return "", err
		}
		if len(values) == 0 {
			return "FALSE", nil
		}
		ph := make([]string, len(values))
		for i, v := range values {
			ph[i] = p.add(v)
		}
		return fmt.Sprintf("%s IN (%s)", id, strings.Join(ph, ", ")), nil
	}
}

// Raw renders expr with every "?" replaced by the next placeholder.
// Identifiers inside expr are the caller's responsibility.
func Raw(expr string, args ...any) Cond {
	return func(p *params) (string, error) {
		if n := strings.Count(expr, "?"); n != len(args) {
			return "", fmt.Errorf("raw expression %q: %d placeholders, %d args", expr, n, len(args))
		}
		var sb strings.Builder
		i := 0
		for _, r := range expr {
			if r == '?' {
				sb.WriteString(p.add(args[i]))
				i++
				continue
			}
			sb.WriteRune(r)
		}
		return sb.String(), nil
	}
}

func And(conds ...Cond) Cond { return join(" AND ", conds) }

func Or(conds ...Cond) Cond { return join(" OR ", conds) }

func join(sep string, conds []Cond) Cond {
	return func(p *params) (string, error) {
		parts := make([]string, 0, len(conds))
		for _, c := range conds {
			s, err := c(p)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		if len(parts) == 1 {
			return parts[0], nil
		}
		return "(" + strings.Join(parts, sep) + ")", nil
	}
}

// Exists renders "EXISTS (sub)" sharing the outer placeholder sequence.
func Exists(sub *Builder) Cond {
	return func(p *params) (string, error) {
		s, err := sub.render(p, false)
		if err != nil {
			return "", err
		}
		return "EXISTS (" + s + ")", nil
	}
}

func NotExists(sub *Builder) Cond {
	return func(p *params) (string, error) {
		s, err := sub.render(p, false)
		if err != nil {
			return "", err
		}
		return "NOT EXISTS (" + s + ")", nil
	}
}
