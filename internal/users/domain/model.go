package domain

import (
	"errors"
	"time"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/eav"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// User is an account. PasswordHash is only loaded for credential checks
// and never serialized.
type User struct {
	ID           int64                `json:"id"`
	FirstName    string               `json:"first_name"`
	LastName     string               `json:"last_name"`
	Email        string               `json:"email"`
	PasswordHash string               `json:"-"`
	Attributes   []eav.AttributeValue `json:"attributes"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

type CreateRequest struct {
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	Attributes []eav.Value `json:"attributes"`
}

// UpdateRequest changes only what is present. A present but empty
// password is ignored.
type UpdateRequest struct {
	FirstName  *string      `json:"first_name"`
	LastName   *string      `json:"last_name"`
	Email      *string      `json:"email"`
	Password   *string      `json:"password"`
	Attributes *[]eav.Value `json:"attributes"`
}
