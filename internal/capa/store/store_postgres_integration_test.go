//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	capamodels "roundwise/internal/capa/models"
	"roundwise/internal/capa/store"
	"roundwise/internal/platform/postgres"
	"roundwise/pkg/platform/sentinel"
	"roundwise/pkg/requestcontext"
	"roundwise/pkg/testutil/containers"
)

type PostgresCapaStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
	ctx   context.Context
}

func TestPostgresCapaStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresCapaStoreSuite))
}

func (s *PostgresCapaStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	_, err := postgres.Migrate(context.Background(), s.pg.DB, nil)
	s.Require().NoError(err)
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *PostgresCapaStoreSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), commitTime)
	s.Require().NoError(s.pg.Truncate(s.ctx, "capa_records", "rounds"))
	_, err := s.pg.DB.ExecContext(s.ctx,
		`INSERT INTO rounds (id, department, evaluation_item_ids) VALUES (1, 'Kitchen', '{10,11}')`)
	s.Require().NoError(err)
}

// =============================================================================
// Commit
// =============================================================================

func (s *PostgresCapaStoreSuite) TestCommitInsertsAndReplays() {
	first, err := s.store.Commit(s.ctx, "inspector-7", []capamodels.Draft{draft(1, 10)})
	s.Require().NoError(err)
	s.Require().Len(first, 1)
	s.True(first[0].Created)
	s.Equal(4, first[0].Severity)
	s.True(commitTime.Equal(first[0].CreatedAt))

	second, err := s.store.Commit(s.ctx, "inspector-9", []capamodels.Draft{draft(1, 10), draft(1, 11)})
	s.Require().NoError(err)
	s.Require().Len(second, 2)
	s.False(second[0].Created)
	s.Equal(first[0].ID, second[0].ID)
	s.Equal("inspector-7", second[0].CreatedBy.String())
	s.True(second[1].Created)

	list, err := s.store.ListByRound(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(list, 2)
}

func (s *PostgresCapaStoreSuite) TestCommitUnknownRoundRollsBack() {
	_, err := s.store.Commit(s.ctx, "inspector-7", []capamodels.Draft{draft(1, 10), draft(99, 10)})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	list, err := s.store.ListByRound(s.ctx, 1)
	s.Require().NoError(err)
	s.Empty(list, "batch is all-or-nothing")
}
