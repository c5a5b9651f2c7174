//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roundwise/internal/platform/postgres"
	txcontext "roundwise/pkg/platform/tx"
	"roundwise/pkg/testutil/containers"
)

func TestMigrateIsIdempotent(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()

	applied, err := postgres.Migrate(ctx, pg.DB, nil)
	require.NoError(t, err)
	assert.Contains(t, applied, "0001_init")

	applied, err = postgres.Migrate(ctx, pg.DB, nil)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	_, err := postgres.Migrate(ctx, pg.DB, nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = postgres.RunInTx(ctx, pg.DB, func(ctx context.Context) error {
		tx, ok := txcontext.From(ctx)
		require.True(t, ok)
		if _, err := tx.ExecContext(ctx, `INSERT INTO categories (id, name) VALUES (1, 'Kitchen')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, pg.DB.QueryRowContext(ctx, `SELECT count(*) FROM categories`).Scan(&count))
	assert.Zero(t, count)
}
