package eav

import (
	"fmt"
	"strconv"
	"strings"

	attrdomain "github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
)

// Names of the two date attributes whose order is enforced.
const (
	StartDate = "Start Date"
	EndDate   = "End Date"
)

const (
	msgMissingID   = "Each attribute must have an ID."
	msgUnknown     = "One or more selected attributes do not exist."
	msgMissing     = "Each attribute must have a value."
	msgDate        = "The value must be a valid date."
	msgNumber      = "The value must be a number."
	msgOption      = "The selected value is not a valid option."
	msgEndAfter    = "The end date must be after the start date."
	msgValueTooBig = "The value cannot exceed 255 characters."
)

// Catalog resolves attribute ids to definitions.
type Catalog interface {
	ByID(id int64) (attrdomain.Attribute, bool)
}

// Check validates values against their definitions and returns messages
// keyed "attributes.<i>.attribute_id" or "attributes.<i>.value". current
// holds the owner's stored values so that an End Date sent alone is still
// compared with the stored Start Date.
func Check(catalog Catalog, values []Value, current []AttributeValue) map[string]string {
	errs := make(map[string]string)
	var start, end *string
	endIdx := -1

	for i, v := range values {
		idKey := fmt.Sprintf("attributes.%d.attribute_id", i)
		valKey := fmt.Sprintf("attributes.%d.value", i)

		if v.AttributeID <= 0 {
			errs[idKey] = msgMissingID
			continue
		}
		a, ok := catalog.ByID(v.AttributeID)
		if !ok {
			errs[idKey] = msgUnknown
			continue
		}
		if v.Value == nil || strings.TrimSpace(*v.Value) == "" {
			errs[valKey] = msgMissing
			continue
		}
		if msg := checkValue(a, *v.Value); msg != "" {
			errs[valKey] = msg
			continue
		}

		switch a.Name {
		case StartDate:
			start = v.Value
		case EndDate:
			end, endIdx = v.Value, i
		}
	}

	if end != nil && start == nil {
		for _, cv := range current {
			if cv.Name == StartDate {
				start = cv.Value
			}
		}
	}
	if start != nil && end != nil {
		s, okS := attrdomain.ParseDate(*start)
		e, okE := attrdomain.ParseDate(*end)
		if okS && okE && !e.After(s) {
			errs[fmt.Sprintf("attributes.%d.value", endIdx)] = msgEndAfter
		}
	}
	return errs
}

// Normalize rewrites values in place into their stored form: dates in
// attrdomain.DateLayout so the text always casts to a date, numbers
// trimmed. Call it after Check reported no errors.
func Normalize(catalog Catalog, values []Value) {
	for i, v := range values {
		if v.Value == nil {
			continue
		}
		a, ok := catalog.ByID(v.AttributeID)
		if !ok {
			continue
		}
		switch a.Type {
		case attrdomain.TypeDate:
			if t, ok := attrdomain.ParseDate(*v.Value); ok {
				s := t.Format(attrdomain.DateLayout)
				values[i].Value = &s
			}
		case attrdomain.TypeNumber:
			s := strings.TrimSpace(*v.Value)
			values[i].Value = &s
		}
	}
}

func checkValue(a attrdomain.Attribute, v string) string {
	switch a.Type {
	case attrdomain.TypeDate:
		if _, ok := attrdomain.ParseDate(v); !ok {
			return msgDate
		}
	case attrdomain.TypeNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return msgNumber
		}
	case attrdomain.TypeSelect:
		if !a.HasOption(v) {
			return msgOption
		}
	default:
		if len([]rune(v)) > 255 {
			return msgValueTooBig
		}
	}
	return ""
}
