package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"roundwise/internal/evaluation/models"
	"roundwise/internal/platform/postgres"
	id "roundwise/pkg/domain"
	"roundwise/pkg/platform/sentinel"
	txcontext "roundwise/pkg/platform/tx"
	"roundwise/pkg/requestcontext"
)

// PostgresDraftStore persists drafts in round_evaluations and round_notes and
// the round lifecycle in rounds.
type PostgresDraftStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresDraftStore {
	return &PostgresDraftStore{db: db}
}

func (s *PostgresDraftStore) execer(ctx context.Context) txcontext.Executor {
	return txcontext.ExecutorFor(ctx, s.db)
}

// lockRound takes a row lock on the round for the rest of the transaction.
func (s *PostgresDraftStore) lockRound(ctx context.Context, roundID id.RoundID) (models.RoundStatus, int, error) {
	var status string
	var completion int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT status, completion FROM rounds WHERE id = $1 FOR UPDATE`, int64(roundID),
	).Scan(&status, &completion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, sentinel.ErrNotFound
		}
		return "", 0, fmt.Errorf("lock round: %w", err)
	}
	return models.RoundStatus(status), completion, nil
}

func (s *PostgresDraftStore) upsertEntries(ctx context.Context, roundID id.RoundID, evaluatorID id.EvaluatorID, entries []models.SnapshotEntry, notes string) error {
	exec := s.execer(ctx)
	now := requestcontext.Now(ctx)

	if len(entries) > 0 {
		itemIDs := make([]int64, len(entries))
		statuses := make([]string, len(entries))
		scores := make([]sql.NullInt64, len(entries))
		comments := make([]string, len(entries))
		for i, e := range entries {
			itemIDs[i] = int64(e.ItemID)
			statuses[i] = string(e.Status)
			if e.Score != nil {
				scores[i] = sql.NullInt64{Int64: int64(*e.Score), Valid: true}
			}
			comments[i] = e.Comments
		}

		const query = `
			INSERT INTO round_evaluations (round_id, item_id, evaluator_id, status, score, comments, updated_at)
			SELECT $1, e.item_id, $2, e.status, e.score, e.comments, $7
			FROM unnest($3::bigint[], $4::text[], $5::int[], $6::text[]) AS e(item_id, status, score, comments)
			ON CONFLICT (round_id, item_id) DO UPDATE SET
				evaluator_id = EXCLUDED.evaluator_id,
				status       = EXCLUDED.status,
				score        = EXCLUDED.score,
				comments     = EXCLUDED.comments,
				updated_at   = EXCLUDED.updated_at
		`
		_, err := exec.ExecContext(ctx, query,
			int64(roundID), evaluatorID.String(),
			pq.Array(itemIDs), pq.Array(statuses), pq.Array(scores), pq.Array(comments),
			now,
		)
		if err != nil {
			return fmt.Errorf("upsert round evaluations: %w", err)
		}
	}

	_, err := exec.ExecContext(ctx, `
		INSERT INTO round_notes (round_id, evaluator_id, notes, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (round_id) DO UPDATE SET
			evaluator_id = EXCLUDED.evaluator_id,
			notes        = EXCLUDED.notes,
			updated_at   = EXCLUDED.updated_at
	`, int64(roundID), evaluatorID.String(), notes, now)
	if err != nil {
		return fmt.Errorf("upsert round notes: %w", err)
	}
	return nil
}

// SaveDraft upserts the snapshot per item. Writes to a completed round are
// ignored and report the stored completion.
func (s *PostgresDraftStore) SaveDraft(ctx context.Context, roundID id.RoundID, evaluatorID id.EvaluatorID, snap models.Snapshot) (int, error) {
	var completion int
	err := postgres.RunInTx(ctx, s.db, func(ctx context.Context) error {
		status, stored, err := s.lockRound(ctx, roundID)
		if err != nil {
			return err
		}
		if status.IsTerminal() {
			completion = stored
			return nil
		}
		if err := s.upsertEntries(ctx, roundID, evaluatorID, snap.Evaluations, snap.Notes); err != nil {
			return err
		}
		completion = snap.CompletionPercentage()
		_, err = s.execer(ctx).ExecContext(ctx,
			`UPDATE rounds SET completion = $2, updated_at = $3 WHERE id = $1`,
			int64(roundID), completion, requestcontext.Now(ctx),
		)
		if err != nil {
			return fmt.Errorf("update round completion: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return completion, nil
}

func (s *PostgresDraftStore) LoadDraft(ctx context.Context, roundID id.RoundID) (models.Draft, error) {
	exec := s.execer(ctx)

	var status string
	var notes sql.NullString
	err := exec.QueryRowContext(ctx, `
		SELECT r.status, n.notes
		FROM rounds r
		LEFT JOIN round_notes n ON n.round_id = r.id
		WHERE r.id = $1
	`, int64(roundID)).Scan(&status, &notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Draft{}, sentinel.ErrNotFound
		}
		return models.Draft{}, fmt.Errorf("load round: %w", err)
	}

	rows, err := exec.QueryContext(ctx, `
		SELECT item_id, status, score, comments, updated_at
		FROM round_evaluations
		WHERE round_id = $1
		ORDER BY item_id
	`, int64(roundID))
	if err != nil {
		return models.Draft{}, fmt.Errorf("load round evaluations: %w", err)
	}
	defer rows.Close()

	draft := models.Draft{
		Notes:  notes.String,
		Status: models.RoundStatus(status),
	}
	for rows.Next() {
		var (
			itemID   int64
			st       string
			score    sql.NullInt64
			comments string
			updated  time.Time
		)
		if err := rows.Scan(&itemID, &st, &score, &comments, &updated); err != nil {
			return models.Draft{}, fmt.Errorf("scan round evaluation: %w", err)
		}
		rec := models.PriorRecord{ItemID: id.ItemID(itemID), Comments: comments, Status: st, UpdatedAt: updated}
		if score.Valid {
			v := int(score.Int64)
			rec.Score = &v
		}
		draft.Records = append(draft.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return models.Draft{}, fmt.Errorf("iterate round evaluations: %w", err)
	}
	return draft, nil
}

// Finalize writes the terminal snapshot and marks the round completed in one
// transaction. A round that is already completed yields sentinel.ErrConflict.
func (s *PostgresDraftStore) Finalize(ctx context.Context, roundID id.RoundID, evaluatorID id.EvaluatorID, snap models.FinalizedSnapshot) (models.FinalizedSnapshot, error) {
	err := postgres.RunInTx(ctx, s.db, func(ctx context.Context) error {
		status, _, err := s.lockRound(ctx, roundID)
		if err != nil {
			return err
		}
		if status.IsTerminal() {
			return sentinel.ErrConflict
		}
		if err := s.upsertEntries(ctx, roundID, evaluatorID, snap.Evaluations, snap.Notes); err != nil {
			return err
		}
		_, err = s.execer(ctx).ExecContext(ctx, `
			UPDATE rounds
			SET status = 'completed', completion = $2, finalized_by = $3, finalized_at = $4, updated_at = $4
			WHERE id = $1
		`, int64(roundID), snap.CompletionPercentage, evaluatorID.String(), snap.FinalizedAt)
		if err != nil {
			return fmt.Errorf("complete round: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.FinalizedSnapshot{}, err
	}
	return snap, nil
}
