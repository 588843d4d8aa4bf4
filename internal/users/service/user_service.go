package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/apperr"
	attrdomain "github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/auth"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/eav"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/filter"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/logging"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/pagination"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/users/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/users/repository"
)

const msgEmailTaken = "This email is already registered."

type CatalogSource interface {
	Catalog(ctx context.Context) (*attrdomain.Catalog, error)
}

// UserService handles user accounts and their attribute values.
type UserService struct {
	repo    *repository.UserRepository
	catalog CatalogSource
	engine  *filter.Engine
	logger  *zap.Logger
}

func NewUserService(repo *repository.UserRepository, catalog CatalogSource, engine *filter.Engine, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, catalog: catalog, engine: engine, logger: logger}
}

func (s *UserService) List(ctx context.Context, filters filter.Filters, page pagination.Page) ([]domain.User, int64, error) {
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, 0, err
	}
	b := s.repo.Query()
	if err := s.engine.Apply(ctx, b, filters, catalog); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, b, page.PerPage, page.Offset())
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.Get(ctx, id)
}

// Create validates req, hashes the password and stores the user.
func (s *UserService) Create(ctx context.Context, req domain.CreateRequest) (*domain.User, error) {
	u := domain.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
	}
	if err := s.validate(ctx, u, &req.Password, req.Attributes, nil); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	u.PasswordHash = hash

	out, err := s.repo.Create(ctx, u, req.Attributes)
	if err != nil {
		return nil, s.translate(err)
	}
	logging.For(ctx, s.logger).Info("user created",
		zap.Int64("user_id", out.ID),
		zap.String("email", out.Email),
	)
	return out, nil
}

func (s *UserService) Update(ctx context.Context, id int64, req domain.UpdateRequest) (*domain.User, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	u := *current
	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		u.Email = strings.TrimSpace(*req.Email)
	}
	var password *string
	if req.Password != nil && *req.Password != "" {
		password = req.Password
	}
	var values []eav.Value
	if req.Attributes != nil {
		values = *req.Attributes
	}
	if err := s.validate(ctx, u, password, values, current.Attributes); err != nil {
		return nil, err
	}

	if password != nil {
		hash, err := auth.HashPassword(*password)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		u.PasswordHash = hash
	}

	out, err := s.repo.Update(ctx, u, req.Attributes)
	if err != nil {
		return nil, s.translate(err)
	}
	logging.For(ctx, s.logger).Info("user updated", zap.Int64("user_id", id))
	return out, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logging.For(ctx, s.logger).Info("user deleted", zap.Int64("user_id", id))
	return nil
}

// translate turns a lost race on the unique email index into the same
// validation error the pre-check produces.
func (s *UserService) translate(err error) error {
	if errors.Is(err, domain.ErrEmailTaken) {
		return apperr.Invalid("email", msgEmailTaken)
	}
	return err
}

// validate checks u. password is nil when it is not being changed. Valid
// attribute values are rewritten in place into their stored form.
func (s *UserService) validate(ctx context.Context, u domain.User, password *string, values []eav.Value, stored []eav.AttributeValue) error {
	verr := apperr.Validation()

	switch {
	case u.FirstName == "":
		verr.Add("first_name", "The first name is required.")
	case utf8.RuneCountInString(u.FirstName) > 255:
		verr.Add("first_name", "The first name cannot exceed 255 characters.")
	}
	switch {
	case u.LastName == "":
		verr.Add("last_name", "The last name is required.")
	case utf8.RuneCountInString(u.LastName) > 255:
		verr.Add("last_name", "The last name cannot exceed 255 characters.")
	}

	switch {
	case u.Email == "":
		verr.Add("email", "The email is required.")
	case !validEmail(u.Email):
		verr.Add("email", "The email must be a valid email address.")
	default:
		taken, err := s.repo.EmailTaken(ctx, u.Email, u.ID)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("email", msgEmailTaken)
		}
	}

	if password != nil {
		switch {
		case *password == "":
			verr.Add("password", "The password is required.")
		case utf8.RuneCountInString(*password) < auth.MinPasswordLength:
			verr.Add("password", "The password must be at least 8 characters.")
		}
	}

	if len(values) > 0 {
		catalog, err := s.catalog.Catalog(ctx)
		if err != nil {
			return err
		}
		errs := eav.Check(catalog, values, stored)
		for field, msg := range errs {
			verr.Add(field, msg)
		}
		if len(errs) == 0 {
			eav.Normalize(catalog, values)
		}
	}

	if verr.HasFields() {
		return verr
	}
	return nil
}

func validEmail(s string) bool {
	if utf8.RuneCountInString(s) > 255 {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
