package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("timesheet not found")
	ErrForbidden   = errors.New("timesheet belongs to another user")
	// ErrProjectGone means the project was deleted between validation and write.
	ErrProjectGone = errors.New("timesheet project no longer exists")
)

// Timesheet is one block of hours a user logged on a project. Date is a
// calendar date in YYYY-MM-DD form.
type Timesheet struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	UserID    int64     `json:"user_id"`
	Date      string    `json:"date"`
	Hours     float64   `json:"hours"`
	TaskName  string    `json:"task_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateRequest struct {
	ProjectID int64    `json:"project_id"`
	UserID    *int64   `json:"user_id"`
	Date      string   `json:"date"`
	Hours     *float64 `json:"hours"`
	TaskName  string   `json:"task_name"`
}

type UpdateRequest struct {
	ProjectID *int64   `json:"project_id"`
	UserID    *int64   `json:"user_id"`
	Date      *string  `json:"date"`
	Hours     *float64 `json:"hours"`
	TaskName  *string  `json:"task_name"`
}
