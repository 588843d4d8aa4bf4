package domain

import (
	"time"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/eav"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusOnHold    Status = "on-hold"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

// Project is a unit of work users log time against. Attributes carries
// its dynamic attribute values.
type Project struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	Description *string              `json:"description"`
	Status      Status               `json:"status"`
	Attributes  []eav.AttributeValue `json:"attributes"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type CreateRequest struct {
	Name        string      `json:"name"`
	Description *string     `json:"description"`
	Status      Status      `json:"status"`
	Attributes  []eav.Value `json:"attributes"`
}

// UpdateRequest changes only what is present. Attributes, when present,
// replaces the whole set; an empty list clears it.
type UpdateRequest struct {
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	Status      *Status      `json:"status"`
	Attributes  *[]eav.Value `json:"attributes"`
}
