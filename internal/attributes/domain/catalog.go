package domain

import (
	"strings"
	"unicode"
)

// Catalog is an in-memory snapshot of attribute definitions keyed for
// case-insensitive lookup.
type Catalog struct {
	byName  map[string]Attribute
	byShape map[string]Attribute
	byID    map[int64]Attribute
}

func NewCatalog(attrs []Attribute) *Catalog {
	c := &Catalog{
		byName:  make(map[string]Attribute, len(attrs)),
		byShape: make(map[string]Attribute, len(attrs)),
		byID:    make(map[int64]Attribute, len(attrs)),
	}
	for _, a := range attrs {
		c.byName[strings.ToLower(strings.TrimSpace(a.Name))] = a
		shape := Shape(a.Name)
		if _, taken := c.byShape[shape]; !taken {
			c.byShape[shape] = a
		}
		c.byID[a.ID] = a
	}
	return c
}

// LookupAttribute matches name case-insensitively, then by Shape so that
// "start_date" finds "Start Date".
func (c *Catalog) LookupAttribute(name string) (Attribute, bool) {
	if c == nil {
		return Attribute{}, false
	}
	if a, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return a, true
	}
	a, ok := c.byShape[Shape(name)]
	return a, ok
}

func (c *Catalog) ByID(id int64) (Attribute, bool) {
	if c == nil {
		return Attribute{}, false
	}
	a, ok := c.byID[id]
	return a, ok
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}

// Shape folds a field or attribute name to lower snake case:
// "createdAt", "Created At" and "created-at" all become "created_at".
func Shape(name string) string {
	var sb strings.Builder
	prevSep := true
	prevLower := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == ' ' || r == '-' || r == '_' || r == '.':
			if !prevSep {
				sb.WriteByte('_')
				prevSep = true
			}
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower && !prevSep {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			prevSep = false
			prevLower = false
		default:
			sb.WriteRune(r)
			prevSep = false
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}
