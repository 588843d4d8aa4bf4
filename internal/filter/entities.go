package filter

import (
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/eav"
)

// ProjectFields are the column backed project filters. Anything else is
// resolved against the attribute catalog.
var ProjectFields = []Field{
	{Name: "name", Kind: Text},
	{Name: "description", Kind: Text},
	{Name: "status", Kind: Text},
	{Name: "created_at", Kind: Date},
	{Name: "updated_at", Kind: Date},
}

var TimesheetFields = []Field{
	{Name: "hours", Kind: Numeric},
	{Name: "project_id", Kind: Numeric},
	{Name: "task_name", Kind: Text},
	{Name: "date", Kind: Date},
	{Name: "created_at", Kind: Date},
	{Name: "updated_at", Kind: Date},
}

var AttributeFields = []Field{
	{Name: "name", Kind: Text},
	{Name: "type", Kind: ExactText},
}

var UserFields = []Field{
	{Name: "first_name", Kind: Text},
	{Name: "last_name", Kind: Text},
	{Name: "email", Kind: Text},
	{Name: "created_at", Kind: Date},
	{Name: "updated_at", Kind: Date},
}

func NewProjectEngine(logger *zap.Logger, strictDates bool) *Engine {
	return NewEngine(Config{
		Entity:      "project",
		Owner:       eav.OwnerProject,
		Fields:      ProjectFields,
		StrictDates: strictDates,
	}, logger)
}

func NewTimesheetEngine(logger *zap.Logger, strictDates bool) *Engine {
	return NewEngine(Config{
		Entity:      "timesheet",
		Fields:      TimesheetFields,
		StrictDates: strictDates,
	}, logger)
}

func NewAttributeEngine(logger *zap.Logger) *Engine {
	return NewEngine(Config{
		Entity: "attribute",
		Fields: AttributeFields,
	}, logger)
}

func NewUserEngine(logger *zap.Logger, strictDates bool) *Engine {
	return NewEngine(Config{
		Entity:      "user",
		Owner:       eav.OwnerUser,
		Fields:      UserFields,
		StrictDates: strictDates,
	}, logger)
}
