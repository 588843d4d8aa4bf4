// Package filter turns client supplied filters[field]=OP:value pairs into
// validated, parameterized query predicates, including predicates over
// dynamic EAV attributes.
package filter

import (
	"sort"
	"strings"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
)

// Filters maps a field name to its raw value. A nil value is a null filter.
type Filters map[string]*string

// FromQuery converts gin's QueryMap("filters") output. Empty strings
// become null.
func FromQuery(m map[string]string) Filters {
	out := make(Filters, len(m))
	for k, v := range m {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if v == "" {
			out[k] = nil
			continue
		}
		v := v
		out[k] = &v
	}
	return out
}

// Fields returns the filter names sorted, so validation and SQL come out
// in a stable order.
func (f Filters) Fields() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Parsed is a filter after operator parsing. Attribute is set for EAV
// fields.
type Parsed struct {
	Field     string
	Operator  Operator
	Value     *string
	Attribute *domain.Attribute
}

// AttributeLookup resolves a filter field to an attribute definition,
// ignoring case.
type AttributeLookup interface {
	LookupAttribute(name string) (domain.Attribute, bool)
}

type noAttributes struct{}

func (noAttributes) LookupAttribute(string) (domain.Attribute, bool) {
	return domain.Attribute{}, false
}

// ValidationError lists every rejected filter with its message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid filter parameters: " + strings.Join(parts, "; ")
}
