package eav

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	attrdomain "github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/db"
)

// Value is one attribute value to be written for an owner.
type Value struct {
	AttributeID int64   `json:"attribute_id"`
	Value       *string `json:"value"`
}

// AttributeValue is a stored value joined with its definition, in the
// shape resources expose it.
type AttributeValue struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Type  attrdomain.Type `json:"type"`
	Value *string         `json:"value"`
}

// Store reads and writes attribute_values. Writes take a db.Conn so the
// caller can run them inside its entity transaction.
type Store struct {
	logger *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger}
}

// Replace deletes every value of owner and inserts values in their place.
func (s *Store) Replace(ctx context.Context, c db.Conn, owner OwnerRef, values []Value) error {
	if !owner.Kind.Valid() {
		return fmt.Errorf("replace attribute values: unknown owner kind %q", owner.Kind)
	}
	if _, err := s.DeleteOwner(ctx, c, owner); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("insert into attribute_values (attribute_id, owner_type, owner_id, value, created_at, updated_at) values ")
	args := make([]any, 0, len(values)*4)
	for i, v := range values {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := len(args)
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, now(), now())", n+1, n+2, n+3, n+4)
		args = append(args, v.AttributeID, string(owner.Kind), owner.ID, v.Value)
	}

	s.logger.Debug("insert attribute values", zap.Stringer("owner", owner), zap.Int("count", len(values)))
	if _, err := c.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert attribute values: %w", err)
	}
	return nil
}

// DeleteOwner removes all values of owner and reports how many went.
func (s *Store) DeleteOwner(ctx context.Context, c db.Conn, owner OwnerRef) (int64, error) {
	const q = `delete from attribute_values where owner_type = $1 and owner_id = $2`
	ct, err := c.Exec(ctx, q, string(owner.Kind), owner.ID)
	if err != nil {
		return 0, fmt.Errorf("delete attribute values: %w", err)
	}
	return ct.RowsAffected(), nil
}

// ListForOwners loads the values of many owners of one kind in a single
// round trip, keyed by owner id.
func (s *Store) ListForOwners(ctx context.Context, c db.Conn, kind OwnerKind, ids []int64) (map[int64][]AttributeValue, error) {
	out := make(map[int64][]AttributeValue, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	const q = `
select av.owner_id, a.id, a.name, a.type, av.value
from attribute_values av
join attributes a on a.id = av.attribute_id
where av.owner_type = $1 and av.owner_id = any($2)
order by av.owner_id, a.name, av.id
`
	rows, err := c.Query(ctx, q, string(kind), ids)
	if err != nil {
		return nil, fmt.Errorf("list attribute values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ownerID int64
		var v AttributeValue
		var typ string
		if err := rows.Scan(&ownerID, &v.ID, &v.Name, &typ, &v.Value); err != nil {
			return nil, fmt.Errorf("scan attribute value: %w", err)
		}
		v.Type = attrdomain.Type(typ)
		out[ownerID] = append(out[ownerID], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attribute values: %w", err)
	}
	return out, nil
}
