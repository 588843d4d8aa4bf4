package query

import (
	"fmt"
	"strings"
)

// Builder accumulates a single-table SELECT.
type Builder struct {
	table   string
	alias   string
	columns []string
	where   []Cond
	having  []Cond
	orders  []string
	limit   int
	offset  int
	err     error
}

func New(table string) *Builder {
	return &Builder{table: table}
}

func (b *Builder) As(alias string) *Builder {
	b.alias = alias
	return b
}

// Alias returns the alias, or the table name when none was set.
func (b *Builder) Alias() string {
	if b.alias != "" {
		return b.alias
	}
	return b.table
}

// Col qualifies a column with the builder's alias.
func (b *Builder) Col(name string) string {
	return b.Alias() + "." + name
}

// Select sets the projected columns. Entries are identifiers, or "1".
func (b *Builder) Select(cols ...string) *Builder {
	b.columns = append(b.columns[:0], cols...)
	return b
}

func (b *Builder) WhereCond(c Cond) *Builder {
	b.where = append(b.where, c)
	return b
}

func (b *Builder) Where(col, op string, value any) *Builder {
	return b.WhereCond(Compare(col, op, value))
}

func (b *Builder) WhereDate(col, op, date string) *Builder {
	return b.WhereCond(CompareDate(col, op, date))
}

func (b *Builder) WhereColumn(left, op, right string) *Builder {
	return b.WhereCond(Columns(left, op, right))
}

func (b *Builder) WhereIn(col string, values ...any) *Builder {
	return b.WhereCond(In(col, values...))
}

func (b *Builder) WhereNull(col string) *Builder {
	return b.WhereCond(IsNull(col))
}

func (b *Builder) WhereExists(sub *Builder) *Builder {
	return b.WhereCond(Exists(sub))
}

func (b *Builder) WhereNotExists(sub *Builder) *Builder {
	return b.WhereCond(NotExists(sub))
}

func (b *Builder) WhereRaw(expr string, args ...any) *Builder {
	return b.WhereCond(Raw(expr, args...))
}

// HavingRaw adds an aggregate filter. Without GROUP BY Postgres treats
// the whole filtered set as one group.
func (b *Builder) HavingRaw(expr string, args ...any) *Builder {
	b.having = append(b.having, Raw(expr, args...))
	return b
}

func (b *Builder) OrderBy(col, dir string) *Builder {
	id, err := Ident(col)
	if err != nil {
		b.setErr(err)
		return b
	}
	switch d := strings.ToUpper(strings.TrimSpace(dir)); d {
	case "", "ASC":
		b.orders = append(b.orders, id+" ASC")
	case "DESC":
		b.orders = append(b.orders, id+" DESC")
	default:
		b.setErr(fmt.Errorf("invalid order direction %q", dir))
	}
	return b
}

func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

func (b *Builder) Offset(n int) *Builder {
	b.offset = n
	return b
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// ToSQL renders the full statement with ordering and paging.
func (b *Builder) ToSQL() (string, []any, error) {
	p := &params{}
	s, err := b.render(p, true)
	if err != nil {
		return "", nil, err
	}
	return s, p.args, nil
}

// CountSQL renders SELECT COUNT(*) over the same filters.
func (b *Builder) CountSQL() (string, []any, error) {
	c := *b
	c.columns = []string{"COUNT(*)"}
	c.orders = nil
	c.limit, c.offset = 0, 0
	p := &params{}
	s, err := c.render(p, true)
	if err != nil {
		return "", nil, err
	}
	return s, p.args, nil
}

func (b *Builder) render(p *params, paging bool) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	from, err := Ident(b.table)
	if err != nil {
		return "", err
	}
	if b.alias != "" {
		a, err := Ident(b.alias)
		if err != nil {
			return "", err
		}
		from += " " + a
	}

	cols, err := b.renderColumns()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(from)

	if len(b.where) > 0 {
		parts, err := renderAll(p, b.where)
		if err != nil {
			return "", err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}
	if len(b.having) > 0 {
		parts, err := renderAll(p, b.having)
		if err != nil {
			return "", err
		}
		sb.WriteString(" HAVING ")
		sb.WriteString(strings.Join(parts, " AND "))
	}
	if paging {
		if len(b.orders) > 0 {
			sb.WriteString(" ORDER BY ")
			sb.WriteString(strings.Join(b.orders, ", "))
		}
		if b.limit > 0 {
			sb.WriteString(" LIMIT " + p.add(b.limit))
		}
		if b.offset > 0 {
			sb.WriteString(" OFFSET " + p.add(b.offset))
		}
	}
	return sb.String(), nil
}

func (b *Builder) renderColumns() (string, error) {
	if len(b.columns) == 0 {
		return b.quotedAlias() + ".*", nil
	}
	out := make([]string, len(b.columns))
	for i, c := range b.columns {
		switch c {
		case "1", "COUNT(*)":
			out[i] = c
			continue
		}
		id, err := Ident(c)
		if err != nil {
			return "", err
		}
		out[i] = id
	}
	return strings.Join(out, ", "), nil
}

func (b *Builder) quotedAlias() string {
	id, err := Ident(b.Alias())
	if err != nil {
		return b.Alias()
	}
	return id
}

func renderAll(p *params, conds []Cond) ([]string, error) {
	out := make([]string, 0, len(conds))
	for _, c := range conds {
		s, err := c(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
