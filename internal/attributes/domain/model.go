package domain

import (
	"strings"
	"time"
)

// Type is the value type of a dynamic attribute.
type Type string

const (
	TypeText   Type = "text"
	TypeNumber Type = "number"
	TypeDate   Type = "date"
	TypeSelect Type = "select"
)

var Types = []Type{TypeText, TypeNumber, TypeDate, TypeSelect}

func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate, TypeSelect:
		return true
	}
	return false
}

// Attribute is a runtime-defined field that projects and users can carry.
type Attribute struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      Type      `json:"type"`
	Options   []string  `json:"options,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasOption reports whether v is one of the select options, ignoring case.
func (a Attribute) HasOption(v string) bool {
	for _, o := range a.Options {
		if strings.EqualFold(o, v) {
			return true
		}
	}
	return false
}

type CreateRequest struct {
	Name    string   `json:"name"`
	Type    Type     `json:"type"`
	Options []string `json:"options"`
}

// UpdateRequest carries optional changes; nil fields are left alone.
type UpdateRequest struct {
	Name    *string   `json:"name"`
	Type    *Type     `json:"type"`
	Options *[]string `json:"options"`
}
