package filter

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/eav"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/logging"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/query"
)

// Field declares a column backed filter.
type Field struct {
	Name   string
	Column string
	Kind   FieldKind
}

// Config describes one entity's filterable surface. Owner is empty for
// entities that carry no attribute values.
type Config struct {
	Entity      string
	Owner       eav.OwnerKind
	Fields      []Field
	StrictDates bool
}

type handler func(b *query.Builder, op Operator, value string) error

// warning marks a filter that passed validation but could not be turned
// into a predicate. The filter is dropped unless dates are strict.
type warning struct {
	msg string
}

func (w *warning) Error() string { return w.msg }

// Engine composes validated filters onto a query for a single entity.
// Handlers are resolved once in NewEngine; Apply keeps its EAV buffer on
// the stack so an Engine is safe for concurrent use.
type Engine struct {
	entity    string
	owner     eav.OwnerKind
	strict    bool
	handlers  map[string]handler
	validator *Validator
	logger    *zap.Logger
}

func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		entity:    cfg.Entity,
		owner:     cfg.Owner,
		strict:    cfg.StrictDates,
		handlers:  make(map[string]handler, len(cfg.Fields)),
		validator: NewValidator(cfg.Fields),
		logger:    logger.With(zap.String("entity", cfg.Entity)),
	}
	for _, f := range cfg.Fields {
		e.handlers[domain.Shape(f.Name)] = newHandler(f)
	}
	return e
}

// Validate runs the validator without touching a query.
func (e *Engine) Validate(filters Filters, attrs AttributeLookup) error {
	return e.validator.Validate(filters, attrs)
}

// Apply validates filters and adds the matching predicates to b. It
// returns a *ValidationError when validation fails; b must then be
// discarded.
func (e *Engine) Apply(ctx context.Context, b *query.Builder, filters Filters, attrs AttributeLookup) error {
	if attrs == nil {
		attrs = noAttributes{}
	}
	if err := e.validator.Validate(filters, attrs); err != nil {
		return err
	}

	var deferred []Parsed
	dropped := make(map[string]string)

	for _, field := range filters.Fields() {
		raw := filters[field]

		if h, ok := e.handlers[domain.Shape(field)]; ok {
			if raw == nil {
				continue
			}
			op, value := ParseOperator(*raw)
			if err := h(b, op, value); err != nil {
				e.drop(ctx, field, err, dropped)
			}
			continue
		}

		if e.owner == "" {
			e.logger.Debug("no filter handler", zap.String("field", field))
			continue
		}
		a, ok := attrs.LookupAttribute(field)
		if !ok {
			continue
		}
		p := Parsed{Field: field, Operator: OpEq, Attribute: &a}
		if raw != nil {
			op, value := ParseOperator(*raw)
			p.Operator, p.Value = op, &value
		}
		deferred = append(deferred, p)
	}

	if len(deferred) > 0 {
		for field, err := range e.applyEAV(b, deferred) {
			e.drop(ctx, field, err, dropped)
		}
	}

	if e.strict && len(dropped) > 0 {
		return &ValidationError{Fields: dropped}
	}
	return nil
}

func (e *Engine) drop(ctx context.Context, field string, err error, dropped map[string]string) {
	var w *warning
	if !errors.As(err, &w) {
		logging.For(ctx, e.logger).Error("filter handler failed", zap.String("field", field), zap.Error(err))
		return
	}
	dropped[field] = w.msg
	if !e.strict {
		logging.For(ctx, e.logger).Warn("dropping filter",
			zap.String("field", field),
			zap.String("reason", w.msg),
		)
	}
}

func newHandler(f Field) handler {
	col := f.Column
	if col == "" {
		col = f.Name
	}
	switch f.Kind {
	case Numeric:
		return func(b *query.Builder, op Operator, value string) error {
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil
			}
			b.Where(b.Col(col), comparison(op), n)
			return nil
		}
	case Date:
		return func(b *query.Builder, op Operator, value string) error {
			t, ok := ParseDate(strings.Trim(value, "%"))
			if !ok {
				return &warning{msg: msgDate}
			}
			b.WhereDate(b.Col(col), comparison(op), t.Format(DateLayout))
			return nil
		}
	case ExactText:
		return func(b *query.Builder, op Operator, value string) error {
			switch op {
			case OpLike, OpILike:
				b.Where(b.Col(col), string(OpILike), wildcard(value))
			default:
				b.Where(b.Col(col), string(op), value)
			}
			return nil
		}
	default:
		return func(b *query.Builder, op Operator, value string) error {
			switch op {
			case OpEq, OpLike, OpILike:
				b.Where(b.Col(col), string(OpILike), wildcard(value))
			default:
				b.Where(b.Col(col), string(op), value)
			}
			return nil
		}
	}
}

// comparison narrows op to a typed comparison; anything else becomes "=".
func comparison(op Operator) string {
	switch op {
	case OpGt, OpLt:
		return string(op)
	}
	return string(OpEq)
}
