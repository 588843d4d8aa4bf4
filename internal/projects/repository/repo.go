package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/db"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/eav"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/query"
)

// ProjectRepository persists projects and, through the eav store, their
// attribute values.
type ProjectRepository struct {
	db     db.Querier
	values *eav.Store
}

func NewProjectRepository(q db.Querier, values *eav.Store) *ProjectRepository {
	return &ProjectRepository{db: q, values: values}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (domain.Project, error) {
	var p domain.Project
	var status string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Project{}, err
	}
	p.Status = domain.Status(status)
	return p, nil
}

func collect(row pgx.CollectableRow) (domain.Project, error) { return scan(row) }

// Query starts a list query the filter engine can extend.
func (r *ProjectRepository) Query() *query.Builder {
	return query.New("projects").As("p").
		Select("p.id", "p.name", "p.description", "p.status", "p.created_at", "p.updated_at")
}

// List runs b newest first and loads the attribute values of the page.
func (r *ProjectRepository) List(ctx context.Context, b *query.Builder, limit, offset int) ([]domain.Project, int64, error) {
	b.OrderBy("p.created_at", "desc").OrderBy("p.id", "desc")
	items, total, err := db.Page(ctx, r.db, b, limit, offset, collect)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	if err := r.attach(ctx, r.db, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ProjectRepository) Get(ctx context.Context, id int64) (*domain.Project, error) {
	return r.get(ctx, r.db, id)
}

func (r *ProjectRepository) get(ctx context.Context, c db.Conn, id int64) (*domain.Project, error) {
	const q = `
select id, name, description, status, created_at, updated_at
from projects
where id = $1
`
	p, err := scan(c.QueryRow(ctx, q, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	items := []domain.Project{p}
	if err := r.attach(ctx, c, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// Create inserts the project, assigns it to userID and writes its
// attribute values in one transaction.
func (r *ProjectRepository) Create(ctx context.Context, p domain.Project, userID int64, values []eav.Value) (*domain.Project, error) {
	var out *domain.Project
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const insert = `
insert into projects (name, description, status, created_at, updated_at)
values ($1, $2, $3, now(), now())
returning id
`
		var id int64
		if err := tx.QueryRow(ctx, insert, p.Name, p.Description, string(p.Status)).Scan(&id); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		const assign = `insert into project_user (project_id, user_id, created_at) values ($1, $2, now())`
		if _, err := tx.Exec(ctx, assign, id, userID); err != nil {
			return fmt.Errorf("failed to assign project: %w", err)
		}

		if err := r.values.Replace(ctx, tx, eav.Project(id), values); err != nil {
			return err
		}

		var err error
		out, err = r.get(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes p's columns and, when values is not nil, replaces the
// attribute values, all in one transaction.
func (r *ProjectRepository) Update(ctx context.Context, p domain.Project, values *[]eav.Value) (*domain.Project, error) {
	var out *domain.Project
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
update projects
set name = $2, description = $3, status = $4, updated_at = now()
where id = $1
`
		ct, err := tx.Exec(ctx, q, p.ID, p.Name, p.Description, string(p.Status))
		if err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return domain.ErrNotFound
		}

		if values != nil {
			if err := r.values.Replace(ctx, tx, eav.Project(p.ID), *values); err != nil {
				return err
			}
		}

		out, err = r.get(ctx, tx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the project together with its attribute values and
// timesheets. Assignments go through the foreign key cascade.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := r.values.DeleteOwner(ctx, tx, eav.Project(id)); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `delete from timesheets where project_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete project timesheets: %w", err)
		}
		ct, err := tx.Exec(ctx, `delete from projects where id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// IsAssigned reports whether userID may log time against projectID.
func (r *ProjectRepository) IsAssigned(ctx context.Context, projectID, userID int64) (bool, error) {
	const q = `select exists(select 1 from project_user where project_id = $1 and user_id = $2)`
	var ok bool
	if err := r.db.QueryRow(ctx, q, projectID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check project assignment: %w", err)
	}
	return ok, nil
}

func (r *ProjectRepository) attach(ctx context.Context, c db.Conn, items []domain.Project) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	for i, p := range items {
		ids[i] = p.ID
	}
	byOwner, err := r.values.ListForOwners(ctx, c, eav.OwnerProject, ids)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].Attributes = byOwner[items[i].ID]
		if items[i].Attributes == nil {
			items[i].Attributes = []eav.AttributeValue{}
		}
	}
	return nil
}
