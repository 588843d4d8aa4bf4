package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/repository"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/filter"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/logging"
)

const maxLen = 255

const catalogTimeout = 10 * time.Second

// AttributeService validates definitions and serves the lookup catalog
// the filter layer and the entity services use.
type AttributeService struct {
	repo   *repository.Repository
	engine *filter.Engine
	logger *zap.Logger
	loads  singleflight.Group
}

func NewAttributeService(repo *repository.Repository, engine *filter.Engine, logger *zap.Logger) *AttributeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttributeService{repo: repo, engine: engine, logger: logger}
}

// Catalog loads every definition. Concurrent callers share one query,
// which runs detached from the first caller's cancellation so one client
// going away does not fail the others.
func (s *AttributeService) Catalog(ctx context.Context) (*domain.Catalog, error) {
	v, err, shared := s.loads.Do("catalog", func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalogTimeout)
		defer cancel()
		attrs, err := s.repo.All(lctx)
		if err != nil {
			return nil, err
		}
		return domain.NewCatalog(attrs), nil
	})
	if err != nil {
		return nil, fmt.Errorf("load attribute catalog: %w", err)
	}
	if shared {
		logging.For(ctx, s.logger).Debug("attribute catalog load shared")
	}
	return v.(*domain.Catalog), nil
}

func (s *AttributeService) List(ctx context.Context, filters filter.Filters) ([]domain.Attribute, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	b := s.repo.Query()
	if err := s.engine.Apply(ctx, b, filters, catalog); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, b)
}

func (s *AttributeService) Get(ctx context.Context, id int64) (*domain.Attribute, error) {
	return s.repo.Get(ctx, id)
}

func (s *AttributeService) Create(ctx context.Context, req domain.CreateRequest) (*domain.Attribute, error) {
	a := domain.Attribute{
		Name:    strings.TrimSpace(req.Name),
		Type:    req.Type,
		Options: req.Options,
	}
	if err := s.validate(ctx, &a); err != nil {
		return nil, err
	}
	out, err := s.repo.Create(ctx, a)
	if errors.Is(err, domain.ErrDuplicateName) {
		return nil, apperr.Invalid("name", "This attribute name is already in use.")
	}
	if err != nil {
		return nil, err
	}
	logging.For(ctx, s.logger).Info("attribute created", zap.Int64("attribute_id", out.ID), zap.String("name", out.Name))
	return out, nil
}

// Update applies the non-nil fields of req and validates the result as a
// whole, so changing the type to select also requires options.
func (s *AttributeService) Update(ctx context.Context, id int64, req domain.UpdateRequest) (*domain.Attribute, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		a.Name = strings.TrimSpace(*req.Name)
	}
	if req.Type != nil {
		a.Type = *req.Type
	}
	if req.Options != nil {
		a.Options = *req.Options
	}
	if err := s.validate(ctx, a); err != nil {
		return nil, err
	}

	out, err := s.repo.Update(ctx, *a)
	if errors.Is(err, domain.ErrDuplicateName) {
		return nil, apperr.Invalid("name", "This attribute name is already in use.")
	}
	if err != nil {
		return nil, err
	}
	logging.For(ctx, s.logger).Info("attribute updated", zap.Int64("attribute_id", id))
	return out, nil
}

func (s *AttributeService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logging.For(ctx, s.logger).Info("attribute deleted", zap.Int64("attribute_id", id))
	return nil
}

// validate checks a and drops options for non-select types.
func (s *AttributeService) validate(ctx context.Context, a *domain.Attribute) error {
	verr := apperr.Validation()

	switch {
	case a.Name == "":
		verr.Add("name", "The attribute name is required.")
	case utf8.RuneCountInString(a.Name) > maxLen:
		verr.Add("name", "The attribute name cannot exceed 255 characters.")
	default:
		taken, err := s.repo.NameTaken(ctx, a.Name, a.ID)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("name", "This attribute name is already in use.")
		}
	}

	switch {
	case a.Type == "":
		verr.Add("type", "The attribute type is required.")
	case !a.Type.Valid():
		verr.Add("type", "The attribute type must be one of: text, number, date, select.")
	}

	if a.Type == domain.TypeSelect {
		checkOptions(verr, a.Options)
	} else {
		a.Options = nil
	}

	if verr.HasFields() {
		return verr
	}
	return nil
}

func checkOptions(verr *apperr.Error, options []string) {
	if len(options) == 0 {
		verr.Add("options", "Options are required when type is select.")
		return
	}
	seen := make(map[string]struct{}, len(options))
	for i, o := range options {
		field := fmt.Sprintf("options.%d", i)
		switch {
		case strings.TrimSpace(o) == "":
			verr.Add(field, "Each option value is required when type is select.")
		case utf8.RuneCountInString(o) > maxLen:
			verr.Add(field, "Each option value cannot exceed 255 characters.")
		}
		key := strings.ToLower(strings.TrimSpace(o))
		if _, dup := seen[key]; dup {
			verr.Add(field, "All options must be unique.")
			continue
		}
		seen[key] = struct{}{}
	}
}
