package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "roundwise/pkg/domain"
	"roundwise/pkg/platform/sentinel"
)

// PostgresSource reads the catalog tables and lets PostgreSQL render them as
// JSON, so the same normalizing parser handles every source.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Items(ctx context.Context) ([]byte, error) {
	const query = `
		SELECT COALESCE(json_agg(json_build_object(
			'id', i.id,
			'category_id', i.category_id,
			'title', i.title,
			'code', i.code,
			'weight', i.weight,
			'is_required', i.is_required,
			'risk_level', i.risk_level
		) ORDER BY i.position, i.id), '[]'::json)
		FROM evaluation_items i
	`
	var raw []byte
	if err := s.db.QueryRowContext(ctx, query).Scan(&raw); err != nil {
		return nil, fmt.Errorf("load evaluation items: %w", err)
	}
	return raw, nil
}

func (s *PostgresSource) Categories(ctx context.Context) ([]byte, error) {
	const query = `
		SELECT COALESCE(json_agg(json_build_object(
			'id', c.id,
			'name', c.name,
			'sort_order', c.sort_order
		) ORDER BY c.sort_order, c.id), '[]'::json)
		FROM categories c
	`
	var raw []byte
	if err := s.db.QueryRowContext(ctx, query).Scan(&raw); err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return raw, nil
}

func (s *PostgresSource) Round(ctx context.Context, roundID id.RoundID) ([]byte, error) {
	const query = `
		SELECT json_build_object(
			'id', r.id,
			'department', r.department,
			'evaluation_item_ids', r.evaluation_item_ids,
			'status', r.status
		)
		FROM rounds r
		WHERE r.id = $1
	`
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, int64(roundID)).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load round: %w", err)
	}
	return raw, nil
}
