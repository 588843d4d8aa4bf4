// Package eav stores attribute values attached to projects and users.
package eav

import "fmt"

// OwnerKind identifies which table an attribute value belongs to. It is
// persisted in attribute_values.owner_type.
type OwnerKind string

const (
	OwnerProject OwnerKind = "project"
	OwnerUser    OwnerKind = "user"
)

func (k OwnerKind) Valid() bool {
	return k == OwnerProject || k == OwnerUser
}

// OwnerRef points at the entity that owns a set of attribute values.
type OwnerRef struct {
	Kind OwnerKind
	ID   int64
}

func Project(id int64) OwnerRef { return OwnerRef{Kind: OwnerProject, ID: id} }

func User(id int64) OwnerRef { return OwnerRef{Kind: OwnerUser, ID: id} }

func (o OwnerRef) String() string {
	return fmt.Sprintf("%s:%d", o.Kind, o.ID)
}
