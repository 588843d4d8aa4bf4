package filter

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
)

// FieldKind classifies a static (column backed) filter field.
type FieldKind int

const (
	Text FieldKind = iota + 1
	ExactText
	Numeric
	Date
)

const maxTextLength = 255

const (
	msgNumeric     = "Value must be numeric"
	msgDate        = "Invalid date format"
	msgOption      = "Invalid option value"
	msgTextTooLong = "The value field must not be greater than 255 characters."
)

var yearMonth = regexp.MustCompile(`^\d{4}(-\d{1,2})?$`)

// Validator checks a filter map before any query is composed. It reports
// every offending field rather than stopping at the first.
type Validator struct {
	fields map[string]FieldKind
}

func NewValidator(fields []Field) *Validator {
	v := &Validator{fields: make(map[string]FieldKind, len(fields))}
	for _, f := range fields {
		v.fields[domain.Shape(f.Name)] = f.Kind
	}
	return v
}

// Validate returns a *ValidationError listing each rejected field.
func (v *Validator) Validate(filters Filters, attrs AttributeLookup) error {
	if attrs == nil {
		attrs = noAttributes{}
	}
	errs := make(map[string]string)
	for _, field := range filters.Fields() {
		if msg := v.check(field, filters[field], attrs); msg != "" {
			errs[field] = msg
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func (v *Validator) check(field string, raw *string, attrs AttributeLookup) string {
	op := OpEq
	value := ""
	if raw != nil {
		value = *raw
		if prefix, rest, ok := splitPrefix(value); ok {
			known, found := lookupOperator(prefix)
			if !found {
				return "Invalid operator: " + prefix
			}
			op = known
			value = strings.TrimSpace(rest)
		}
	}

	if kind, ok := v.fields[domain.Shape(field)]; ok {
		return checkStatic(kind, value)
	}
	if a, ok := attrs.LookupAttribute(field); ok {
		if raw == nil || value == "" {
			return ""
		}
		return checkAttribute(a, op, value)
	}
	return "Unknown filter field: " + field
}

func checkStatic(kind FieldKind, value string) string {
	if value == "" {
		return ""
	}
	switch kind {
	case Numeric:
		if !isNumeric(value) {
			return msgNumeric
		}
	case Date:
		if _, ok := ParseDate(strings.Trim(value, "%")); !ok {
			return msgDate
		}
	default:
		if utf8.RuneCountInString(value) > maxTextLength {
			return msgTextTooLong
		}
	}
	return ""
}

func checkAttribute(a domain.Attribute, op Operator, value string) string {
	switch a.Type {
	case domain.TypeDate:
		if op == OpLike || op == OpILike {
			partial := strings.Trim(value, "%")
			if _, ok := ParseDate(partial); ok || yearMonth.MatchString(partial) {
				return ""
			}
			return msgDate
		}
		if _, ok := ParseDate(value); !ok {
			return msgDate
		}
	case domain.TypeNumber:
		if !isNumeric(value) {
			return msgNumeric
		}
	case domain.TypeSelect:
		if !a.HasOption(value) {
			return msgOption
		}
	default:
		if utf8.RuneCountInString(value) > maxTextLength {
			return msgTextTooLong
		}
	}
	return ""
}

func isNumeric(s string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return false
	}
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
