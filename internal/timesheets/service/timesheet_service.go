package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/apperr"
	attrdomain "github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/filter"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/logging"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/pagination"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/timesheets/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/timesheets/repository"
)

const maxHours = 24

type CatalogSource interface {
	Catalog(ctx context.Context) (*attrdomain.Catalog, error)
}

// Assignments answers whether a user is assigned to a project.
type Assignments interface {
	IsAssigned(ctx context.Context, projectID, userID int64) (bool, error)
}

// TimesheetService enforces that users only see and change their own
// timesheets, on projects they are assigned to.
type TimesheetService struct {
	repo        *repository.TimesheetRepository
	assignments Assignments
	catalog     CatalogSource
	engine      *filter.Engine
	logger      *zap.Logger
}

func NewTimesheetService(repo *repository.TimesheetRepository, assignments Assignments, catalog CatalogSource, engine *filter.Engine, logger *zap.Logger) *TimesheetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimesheetService{repo: repo, assignments: assignments, catalog: catalog, engine: engine, logger: logger}
}

func (s *TimesheetService) List(ctx context.Context, userID int64, filters filter.Filters, page pagination.Page) ([]domain.Timesheet, int64, error) {
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, 0, err
	}
	b := s.repo.Query(userID)
	if err := s.engine.Apply(ctx, b, filters, catalog); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, b, page.PerPage, page.Offset())
}

// Get returns ErrForbidden when the timesheet is not userID's.
func (s *TimesheetService) Get(ctx context.Context, userID, id int64) (*domain.Timesheet, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		logging.For(ctx, s.logger).Warn("timesheet access denied",
			zap.Int64("timesheet_id", id),
			zap.Int64("user_id", userID),
		)
		return nil, domain.ErrForbidden
	}
	return t, nil
}

func (s *TimesheetService) Create(ctx context.Context, userID int64, req domain.CreateRequest) (*domain.Timesheet, error) {
	t := domain.Timesheet{
		ProjectID: req.ProjectID,
		UserID:    userID,
		Date:      req.Date,
		TaskName:  strings.TrimSpace(req.TaskName),
	}
	verr := apperr.Validation()
	if req.Hours == nil {
		verr.Add("hours", "The hours field is required.")
	} else {
		t.Hours = *req.Hours
	}
	if err := s.validate(ctx, &t, req.UserID, verr); err != nil {
		return nil, err
	}

	out, err := s.repo.Create(ctx, t)
	if err != nil {
		return nil, translate(err)
	}
	logging.For(ctx, s.logger).Info("timesheet created", zap.Int64("timesheet_id", out.ID), zap.Int64("user_id", userID))
	return out, nil
}

func (s *TimesheetService) Update(ctx context.Context, userID, id int64, req domain.UpdateRequest) (*domain.Timesheet, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	t := *current
	if req.ProjectID != nil {
		t.ProjectID = *req.ProjectID
	}
	if req.Date != nil {
		t.Date = *req.Date
	}
	if req.Hours != nil {
		t.Hours = *req.Hours
	}
	if req.TaskName != nil {
		t.TaskName = strings.TrimSpace(*req.TaskName)
	}
	if err := s.validate(ctx, &t, req.UserID, apperr.Validation()); err != nil {
		return nil, err
	}

	out, err := s.repo.Update(ctx, t)
	if err != nil {
		return nil, translate(err)
	}
	logging.For(ctx, s.logger).Info("timesheet updated", zap.Int64("timesheet_id", id))
	return out, nil
}

func (s *TimesheetService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logging.For(ctx, s.logger).Info("timesheet deleted", zap.Int64("timesheet_id", id))
	return nil
}

// validate checks t, normalizes its date and adds to verr. claimedUser is
// the user_id the client sent, if any.
func (s *TimesheetService) validate(ctx context.Context, t *domain.Timesheet, claimedUser *int64, verr *apperr.Error) error {
	if strings.TrimSpace(t.Date) == "" {
		verr.Add("date", "The date field is required.")
	} else if d, ok := attrdomain.ParseDate(t.Date); ok {
		t.Date = d.Format(attrdomain.DateLayout)
	} else {
		verr.Add("date", "The date must be a valid date.")
	}

	switch {
	case t.Hours < 0:
		verr.Add("hours", "The hours must be at least 0.")
	case t.Hours > maxHours:
		verr.Add("hours", "The hours cannot exceed 24.")
	}

	switch {
	case t.TaskName == "":
		verr.Add("task_name", "The task name field is required.")
	case utf8.RuneCountInString(t.TaskName) > 255:
		verr.Add("task_name", "The task name cannot exceed 255 characters.")
	}

	if claimedUser != nil && *claimedUser != t.UserID {
		verr.Add("user_id", "You can only create timesheets for yourself.")
	}

	if t.ProjectID <= 0 {
		verr.Add("project_id", "The project ID is required.")
	} else {
		ok, err := s.assignments.IsAssigned(ctx, t.ProjectID, t.UserID)
		if err != nil {
			return err
		}
		if !ok {
			verr.Add("project_id", "You can only create timesheets for projects you are assigned to.")
		}
	}

	if verr.HasFields() {
		return verr
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, domain.ErrProjectGone) {
		return apperr.Conflict("TIMESHEET_PROJECT_CONFLICT", "The selected project no longer exists.", err)
	}
	return err
}
