package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/db"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/query"
)

// Repository persists attribute definitions.
type Repository struct {
	db db.Querier
}

func New(q db.Querier) *Repository {
	return &Repository{db: q}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (domain.Attribute, error) {
	var a domain.Attribute
	var typ string
	if err := row.Scan(&a.ID, &a.Name, &typ, &a.Options, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return domain.Attribute{}, err
	}
	a.Type = domain.Type(typ)
	return a, nil
}

func collect(row pgx.CollectableRow) (domain.Attribute, error) { return scan(row) }

// Query starts a list query the filter engine can extend.
func (r *Repository) Query() *query.Builder {
	return query.New("attributes").As("a").
		Select("a.id", "a.name", "a.type", "a.options", "a.created_at", "a.updated_at")
}

// List runs b ordered by name then id.
func (r *Repository) List(ctx context.Context, b *query.Builder) ([]domain.Attribute, error) {
	b.OrderBy("a.name", "asc").OrderBy("a.id", "asc")
	out, err := db.All(ctx, r.db, b, collect)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}
	return out, nil
}

// All loads every definition; it backs the lookup catalog.
func (r *Repository) All(ctx context.Context) ([]domain.Attribute, error) {
	return r.List(ctx, r.Query())
}

func (r *Repository) Get(ctx context.Context, id int64) (*domain.Attribute, error) {
	const q = `
select id, name, type, options, created_at, updated_at
from attributes
where id = $1
`
	a, err := scan(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get attribute: %w", err)
	}
	return &a, nil
}

// NameTaken reports whether another attribute already uses name,
// ignoring case. exceptID excludes the attribute being updated.
func (r *Repository) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	const q = `select exists(select 1 from attributes where lower(name) = lower($1) and id <> $2)`
	var taken bool
	if err := r.db.QueryRow(ctx, q, strings.TrimSpace(name), exceptID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check attribute name: %w", err)
	}
	return taken, nil
}

func (r *Repository) Create(ctx context.Context, a domain.Attribute) (*domain.Attribute, error) {
	const q = `
insert into attributes (name, type, options, created_at, updated_at)
values ($1, $2, $3, now(), now())
returning id, name, type, options, created_at, updated_at
`
	out, err := scan(r.db.QueryRow(ctx, q, a.Name, string(a.Type), a.Options))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create attribute: %w", err)
	}
	return &out, nil
}

func (r *Repository) Update(ctx context.Context, a domain.Attribute) (*domain.Attribute, error) {
	const q = `
update attributes
set name = $2, type = $3, options = $4, updated_at = now()
where id = $1
returning id, name, type, options, created_at, updated_at
`
	out, err := scan(r.db.QueryRow(ctx, q, a.ID, a.Name, string(a.Type), a.Options))
	if err != nil {
		switch {
		case db.IsNoRows(err):
			return nil, domain.ErrNotFound
		case db.IsUniqueViolation(err):
			return nil, domain.ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update attribute: %w", err)
	}
	return &out, nil
}

// Delete removes the definition; its values go with it through the
// foreign key cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	const q = `delete from attributes where id = $1`
	ct, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("failed to delete attribute: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
