package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	capamodels "roundwise/internal/capa/models"
	"roundwise/internal/evaluation/models"
	"roundwise/internal/platform/postgres"
	id "roundwise/pkg/domain"
	"roundwise/pkg/platform/sentinel"
	txcontext "roundwise/pkg/platform/tx"
	"roundwise/pkg/requestcontext"
)

const pgForeignKeyViolation = "23503"

// PostgresStore persists CAPAs in capa_records.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) txcontext.Executor {
	return txcontext.ExecutorFor(ctx, s.db)
}

const capaColumns = `id, source_round_id, source_item_id, title, description, comment,
	department, severity, risk_level, target_date, created_by, created_at`

// Commit inserts the batch in one transaction. ON CONFLICT DO NOTHING makes
// replays no-ops; the existing row is read back with Created false.
func (s *PostgresStore) Commit(ctx context.Context, createdBy id.EvaluatorID, drafts []capamodels.Draft) ([]capamodels.Committed, error) {
	out := make([]capamodels.Committed, 0, len(drafts))
	err := postgres.RunInTx(ctx, s.db, func(ctx context.Context) error {
		out = out[:0]
		now := requestcontext.Now(ctx)
		for _, d := range drafts {
			rec, err := s.insert(ctx, createdBy, d, now)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) insert(ctx context.Context, createdBy id.EvaluatorID, d capamodels.Draft, now time.Time) (capamodels.Committed, error) {
	newID := id.NewCapaID()
	row := s.execer(ctx).QueryRowContext(ctx, `
		INSERT INTO capa_records (`+capaColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (source_round_id, source_item_id) DO NOTHING
		RETURNING `+capaColumns,
		uuid.UUID(newID), int64(d.SourceRoundID), int64(d.SourceItemID), d.Title, d.Description, d.Comment,
		d.Department, d.Severity, string(d.RiskLevel), d.TargetDate, createdBy.String(), now,
	)
	rec, err := scanCommitted(row)
	if err == nil {
		rec.Created = true
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return capamodels.Committed{}, fmt.Errorf("round %d: %w", d.SourceRoundID, sentinel.ErrNotFound)
		}
		return capamodels.Committed{}, fmt.Errorf("insert capa: %w", err)
	}

	row = s.execer(ctx).QueryRowContext(ctx, `
		SELECT `+capaColumns+`
		FROM capa_records
		WHERE source_round_id = $1 AND source_item_id = $2
	`, int64(d.SourceRoundID), int64(d.SourceItemID))
	rec, err = scanCommitted(row)
	if err != nil {
		return capamodels.Committed{}, fmt.Errorf("read existing capa: %w", err)
	}
	return rec, nil
}

// ListByRound returns the committed CAPAs of a round by creation time.
func (s *PostgresStore) ListByRound(ctx context.Context, roundID id.RoundID) ([]capamodels.Committed, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+capaColumns+`
		FROM capa_records
		WHERE source_round_id = $1
		ORDER BY created_at, source_item_id
	`, int64(roundID))
	if err != nil {
		return nil, fmt.Errorf("list capas: %w", err)
	}
	defer rows.Close()

	var out []capamodels.Committed
	for rows.Next() {
		rec, err := scanCommitted(rows)
		if err != nil {
			return nil, fmt.Errorf("scan capa: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate capas: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCommitted(row scanner) (capamodels.Committed, error) {
	var (
		capaID    uuid.UUID
		roundID   int64
		itemID    int64
		riskLevel string
		createdBy string
		rec       capamodels.Committed
	)
	err := row.Scan(&capaID, &roundID, &itemID, &rec.Title, &rec.Description, &rec.Comment,
		&rec.Department, &rec.Severity, &riskLevel, &rec.TargetDate, &createdBy, &rec.CreatedAt)
	if err != nil {
		return capamodels.Committed{}, err
	}
	rec.ID = id.CapaID(capaID)
	rec.SourceRoundID = id.RoundID(roundID)
	rec.SourceItemID = id.ItemID(itemID)
	rec.RiskLevel = models.RiskLevel(riskLevel)
	rec.CreatedBy = id.EvaluatorID(createdBy)
	return rec, nil
}
