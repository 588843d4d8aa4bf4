package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/query"
)

// Page runs the count and the page query of b concurrently. limit <= 0
// returns every row.
func Page[T any](ctx context.Context, c Conn, b *query.Builder, limit, offset int, scan pgx.RowToFunc[T]) ([]T, int64, error) {
	countSQL, countArgs, err := b.CountSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	pageSQL, pageArgs, err := b.Limit(limit).Offset(offset).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	var (
		items []T
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.QueryRow(gctx, countSQL, countArgs...).Scan(&total); err != nil {
			return fmt.Errorf("count rows: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := c.Query(gctx, pageSQL, pageArgs...)
		if err != nil {
			return fmt.Errorf("list rows: %w", err)
		}
		items, err = pgx.CollectRows(rows, scan)
		if err != nil {
			return fmt.Errorf("scan rows: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// All runs b without paging.
func All[T any](ctx context.Context, c Conn, b *query.Builder, scan pgx.RowToFunc[T]) ([]T, error) {
	sql, args, err := b.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	rows, err := c.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}
	items, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, fmt.Errorf("scan rows: %w", err)
	}
	return items, nil
}
