package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/apperr"
	attrdomain "github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/eav"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/filter"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/logging"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/pagination"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/projects/repository"
)

// CatalogSource provides the current attribute definitions.
type CatalogSource interface {
	Catalog(ctx context.Context) (*attrdomain.Catalog, error)
}

// ProjectService handles project business rules.
type ProjectService struct {
	repo    *repository.ProjectRepository
	catalog CatalogSource
	engine  *filter.Engine
	logger  *zap.Logger
}

func NewProjectService(repo *repository.ProjectRepository, catalog CatalogSource, engine *filter.Engine, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{repo: repo, catalog: catalog, engine: engine, logger: logger}
}

// List applies filters, including attribute filters, and returns one page.
func (s *ProjectService) List(ctx context.Context, filters filter.Filters, page pagination.Page) ([]domain.Project, int64, error) {
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

func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	return s.repo.Get(ctx, id)
}

// Create validates req and stores it assigned to userID.
func (s *ProjectService) Create(ctx context.Context, userID int64, req domain.CreateRequest) (*domain.Project, error) {
	p := domain.Project{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      req.Status,
	}
	if err := s.validate(ctx, p, req.Attributes, nil); err != nil {
		return nil, err
	}

	out, err := s.repo.Create(ctx, p, userID, req.Attributes)
	if err != nil {
		return nil, err
	}
	logging.For(ctx, s.logger).Info("project created",
		zap.Int64("project_id", out.ID),
		zap.Int64("user_id", userID),
		zap.Int("attributes", len(req.Attributes)),
	)
	return out, nil
}

func (s *ProjectService) Update(ctx context.Context, id int64, req domain.UpdateRequest) (*domain.Project, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p := *current
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	var values []eav.Value
	if req.Attributes != nil {
		values = *req.Attributes
	}
	if err := s.validate(ctx, p, values, current.Attributes); err != nil {
		return nil, err
	}

	out, err := s.repo.Update(ctx, p, req.Attributes)
	if err != nil {
		return nil, err
	}
	logging.For(ctx, s.logger).Info("project updated", zap.Int64("project_id", id))
	return out, nil
}

func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logging.For(ctx, s.logger).Info("project deleted", zap.Int64("project_id", id))
	return nil
}

// validate checks p and values. Valid attribute values are rewritten in
// place into their stored form.
func (s *ProjectService) validate(ctx context.Context, p domain.Project, values []eav.Value, stored []eav.AttributeValue) error {
	verr := apperr.Validation()

	switch {
	case p.Name == "":
		verr.Add("name", "The project name is required.")
	case utf8.RuneCountInString(p.Name) > 255:
		verr.Add("name", "The project name cannot exceed 255 characters.")
	}
	switch {
	case p.Status == "":
		verr.Add("status", "The project status is required.")
	case !p.Status.Valid():
		verr.Add("status", "The project status must be one of: active, completed, on-hold.")
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
