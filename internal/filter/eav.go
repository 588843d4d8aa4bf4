package filter

import (
	"strings"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/query"
)

const valueTable = "attribute_values"

// isoPrefix guards the text to date casts so a malformed stored value
// yields NULL instead of aborting the statement.
const isoPrefix = `av.value ~ '^\d{4}-\d{2}-\d{2}'`

// applyEAV turns the deferred attribute filters into one correlated
// EXISTS over attribute_values. Filters on the same attribute are AND-ed
// into a single branch keyed by its attribute id, branches are OR-ed, and
// HAVING COUNT(DISTINCT attribute_id) = n keeps only owners that satisfy
// every branch. Two attribute filters thus intersect without joining the
// value table twice, and two filters on one attribute form a range. Null
// filters match owners with no stored value and are emitted as NOT EXISTS
// clauses.
func (e *Engine) applyEAV(b *query.Builder, filters []Parsed) map[string]error {
	failed := make(map[string]error)
	owner := string(e.owner)
	ownerID := b.Col("id")

	var order []int64
	conds := make(map[int64][]query.Cond)

	for _, f := range filters {
		a := f.Attribute
		if f.Value == nil {
			b.WhereNotExists(query.New(valueTable).As("av").Select("1").
				WhereColumn("av.owner_id", "=", ownerID).
				Where("av.owner_type", "=", owner).
				Where("av.attribute_id", "=", a.ID).
				WhereCond(query.IsNotNull("av.value")))
			continue
		}

		cond, err := valueCondition(*a, f.Operator, *f.Value)
		if err != nil {
			failed[f.Field] = err
			continue
		}
		if _, seen := conds[a.ID]; !seen {
			order = append(order, a.ID)
		}
		conds[a.ID] = append(conds[a.ID], cond)
	}

	if len(order) == 0 {
		return failed
	}

	branches := make([]query.Cond, 0, len(order))
	ids := make([]any, 0, len(order))
	for _, id := range order {
		branch := append([]query.Cond{query.Compare("av.attribute_id", "=", id)}, conds[id]...)
		branches = append(branches, query.And(branch...))
		ids = append(ids, id)
	}

	b.WhereExists(query.New(valueTable).As("av").Select("1").
		WhereColumn("av.owner_id", "=", ownerID).
		Where("av.owner_type", "=", owner).
		WhereIn("av.attribute_id", ids...).
		WhereCond(query.Or(branches...)).
		HavingRaw("COUNT(DISTINCT av.attribute_id) = ?", len(ids)))
	return failed
}

func valueCondition(a domain.Attribute, op Operator, value string) (query.Cond, error) {
	switch a.Type {
	case domain.TypeSelect:
		return query.Raw("LOWER(av.value) = LOWER(?)", value), nil

	case domain.TypeDate:
		if op == OpLike || op == OpILike {
			partial := strings.Trim(value, "%")
			if t, ok := ParseDate(partial); ok {
				partial = t.Format("2006-01")
			}
			return query.Raw(
				"CASE WHEN "+isoPrefix+" THEN to_char(av.value::date, 'YYYY-MM') END LIKE ?",
				"%"+partial+"%",
			), nil
		}
		t, ok := ParseDate(value)
		if !ok {
			return nil, &warning{msg: msgDate}
		}
		return query.Raw(
			"CASE WHEN "+isoPrefix+" THEN av.value::date END "+comparison(op)+" ?::date",
			t.Format(DateLayout),
		), nil

	default:
		if op == OpILike {
			value = wildcard(value)
		}
		return query.Compare("av.value", string(op), value), nil
	}
}
