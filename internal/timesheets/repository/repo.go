package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/db"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/query"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/timesheets/domain"
)

const dateLayout = "2006-01-02"

type TimesheetRepository struct {
	db db.Querier
}

func NewTimesheetRepository(q db.Querier) *TimesheetRepository {
	return &TimesheetRepository{db: q}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (domain.Timesheet, error) {
	var t domain.Timesheet
	var date time.Time
	if err := row.Scan(&t.ID, &t.ProjectID, &t.UserID, &date, &t.Hours, &t.TaskName, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return domain.Timesheet{}, err
	}
	t.Date = date.Format(dateLayout)
	return t, nil
}

func collect(row pgx.CollectableRow) (domain.Timesheet, error) { return scan(row) }

// Query starts a list query scoped to userID.
func (r *TimesheetRepository) Query(userID int64) *query.Builder {
	b := query.New("timesheets").As("t").
		Select("t.id", "t.project_id", "t.user_id", "t.date", "t.hours", "t.task_name", "t.created_at", "t.updated_at")
	return b.Where(b.Col("user_id"), "=", userID)
}

// List orders by date, then creation time, then id, all newest first.
func (r *TimesheetRepository) List(ctx context.Context, b *query.Builder, limit, offset int) ([]domain.Timesheet, int64, error) {
	b.OrderBy("t.date", "desc").OrderBy("t.created_at", "desc").OrderBy("t.id", "desc")
	items, total, err := db.Page(ctx, r.db, b, limit, offset, collect)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list timesheets: %w", err)
	}
	return items, total, nil
}

func (r *TimesheetRepository) Get(ctx context.Context, id int64) (*domain.Timesheet, error) {
	const q = `
select id, project_id, user_id, date, hours, task_name, created_at, updated_at
from timesheets
where id = $1
`
	t, err := scan(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get timesheet: %w", err)
	}
	return &t, nil
}

func (r *TimesheetRepository) Create(ctx context.Context, t domain.Timesheet) (*domain.Timesheet, error) {
	const q = `
insert into timesheets (project_id, user_id, date, hours, task_name, created_at, updated_at)
values ($1, $2, $3::date, $4, $5, now(), now())
returning id, project_id, user_id, date, hours, task_name, created_at, updated_at
`
	out, err := scan(r.db.QueryRow(ctx, q, t.ProjectID, t.UserID, t.Date, t.Hours, t.TaskName))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, domain.ErrProjectGone
		}
		return nil, fmt.Errorf("failed to create timesheet: %w", err)
	}
	return &out, nil
}

func (r *TimesheetRepository) Update(ctx context.Context, t domain.Timesheet) (*domain.Timesheet, error) {
	const q = `
update timesheets
set project_id = $2, date = $3::date, hours = $4, task_name = $5, updated_at = now()
where id = $1
returning id, project_id, user_id, date, hours, task_name, created_at, updated_at
`
	out, err := scan(r.db.QueryRow(ctx, q, t.ID, t.ProjectID, t.Date, t.Hours, t.TaskName))
	if err != nil {
		switch {
		case db.IsNoRows(err):
			return nil, domain.ErrNotFound
		case db.IsForeignKeyViolation(err):
			return nil, domain.ErrProjectGone
		}
		return nil, fmt.Errorf("failed to update timesheet: %w", err)
	}
	return &out, nil
}

func (r *TimesheetRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `delete from timesheets where id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete timesheet: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
