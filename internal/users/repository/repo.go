package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/db"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/eav"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/query"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/users/domain"
)

type UserRepository struct {
	db     db.Querier
	values *eav.Store
}

func NewUserRepository(q db.Querier, values *eav.Store) *UserRepository {
	return &UserRepository{db: q, values: values}
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func collect(row pgx.CollectableRow) (domain.User, error) { return scan(row) }

// Query starts a list query the filter engine can extend. The password
// hash is never selected here.
func (r *UserRepository) Query() *query.Builder {
	return query.New("users").As("u").
		Select("u.id", "u.first_name", "u.last_name", "u.email", "u.created_at", "u.updated_at")
}

func (r *UserRepository) List(ctx context.Context, b *query.Builder, limit, offset int) ([]domain.User, int64, error) {
	b.OrderBy("u.id", "asc")
	items, total, err := db.Page(ctx, r.db, b, limit, offset, collect)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	if err := r.attach(ctx, r.db, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *UserRepository) Get(ctx context.Context, id int64) (*domain.User, error) {
	return r.get(ctx, r.db, id)
}

func (r *UserRepository) get(ctx context.Context, c db.Conn, id int64) (*domain.User, error) {
	const q = `
select id, first_name, last_name, email, created_at, updated_at
from users
where id = $1
`
	u, err := scan(c.QueryRow(ctx, q, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	items := []domain.User{u}
	if err := r.attach(ctx, c, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// GetByEmail loads the user with its password hash for a credential
// check. Attribute values are not loaded.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `
select id, first_name, last_name, email, password_hash, created_at, updated_at
from users
where lower(email) = lower($1)
`
	var u domain.User
	err := r.db.QueryRow(ctx, q, email).
		Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// EmailTaken reports whether another user already holds email.
func (r *UserRepository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	const q = `select exists(select 1 from users where lower(email) = lower($1) and id <> $2)`
	var taken bool
	if err := r.db.QueryRow(ctx, q, email, exceptID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return taken, nil
}

// Create inserts the user and its attribute values in one transaction.
func (r *UserRepository) Create(ctx context.Context, u domain.User, values []eav.Value) (*domain.User, error) {
	var out *domain.User
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const insert = `
insert into users (first_name, last_name, email, password_hash, created_at, updated_at)
values ($1, $2, $3, $4, now(), now())
returning id
`
		var id int64
		if err := tx.QueryRow(ctx, insert, u.FirstName, u.LastName, u.Email, u.PasswordHash).Scan(&id); err != nil {
			if db.IsUniqueViolation(err) {
				return domain.ErrEmailTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		if err := r.values.Replace(ctx, tx, eav.User(id), values); err != nil {
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

// Update writes u's columns. An empty PasswordHash keeps the stored one.
// values, when not nil, replaces the attribute values.
func (r *UserRepository) Update(ctx context.Context, u domain.User, values *[]eav.Value) (*domain.User, error) {
	var out *domain.User
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
update users
set first_name = $2, last_name = $3, email = $4,
    password_hash = coalesce(nullif($5, ''), password_hash),
    updated_at = now()
where id = $1
`
		ct, err := tx.Exec(ctx, q, u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return domain.ErrEmailTaken
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return domain.ErrNotFound
		}

		if values != nil {
			if err := r.values.Replace(ctx, tx, eav.User(u.ID), *values); err != nil {
				return err
			}
		}

		out, err = r.get(ctx, tx, u.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the user and its attribute values. Timesheets and
// project assignments go through the foreign key cascade.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := r.values.DeleteOwner(ctx, tx, eav.User(id)); err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, `delete from users where id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *UserRepository) attach(ctx context.Context, c db.Conn, items []domain.User) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	for i, u := range items {
		ids[i] = u.ID
	}
	byOwner, err := r.values.ListForOwners(ctx, c, eav.OwnerUser, ids)
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
