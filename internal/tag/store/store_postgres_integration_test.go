//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"veritag/internal/tag/models"
	"veritag/internal/tag/store"
	id "veritag/pkg/domain"
	"veritag/pkg/platform/sentinel"
	"veritag/pkg/testutil/containers"
)

const tagSchemaDDL = `
CREATE TABLE IF NOT EXISTS tags (
	id UUID PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	product_ids TEXT[] NOT NULL DEFAULT '{}',
	is_stamped BOOLEAN NOT NULL DEFAULT FALSE,
	hash_tx TEXT,
	chain_status INTEGER,
	publish_status BOOLEAN NOT NULL DEFAULT FALSE,
	metadata JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type PostgresTagStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresTagStore
}

func TestPostgresTagStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresTagStoreSuite))
}

func (s *PostgresTagStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(s.postgres.Apply(context.Background(), tagSchemaDDL))
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresTagStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "tags"))
}

func (s *PostgresTagStoreSuite) insertTag(code string, chainStatus *models.ChainStatus) id.TagID {
	tagID := id.NewTagID()
	var status any
	if chainStatus != nil {
		status = int(*chainStatus)
	}
	_, err := s.postgres.DB.ExecContext(context.Background(), `
		INSERT INTO tags (id, code, product_ids, is_stamped, hash_tx, chain_status, publish_status, metadata, created_at)
		VALUES ($1, $2, '{"prod-1","prod-2"}', TRUE, '0xabc123', $3, TRUE, '{"distributionCountry":"France"}', $4)`,
		uuid.UUID(tagID), code, status, time.Now().UTC(),
	)
	s.Require().NoError(err)
	return tagID
}

func (s *PostgresTagStoreSuite) TestFindByCodeIsCaseInsensitive() {
	status := models.StatusClaimed
	tagID := s.insertTag("VT-Integration-001", &status)

	tag, err := s.store.FindByCode(context.Background(), "vt-integration-001")
	s.Require().NoError(err)

	s.Equal(tagID, tag.ID)
	s.Equal("VT-Integration-001", tag.Code)
	s.Equal([]string{"prod-1", "prod-2"}, []string(tag.ProductIDs))
	s.True(tag.IsStamped)
	s.Require().NotNil(tag.HashTx)
	s.Equal("0xabc123", *tag.HashTx)
	s.Require().NotNil(tag.ChainStatus)
	s.Equal(models.StatusClaimed, *tag.ChainStatus)
	s.Equal("France", tag.Meta(models.MetaDistributionCountry))
}

func (s *PostgresTagStoreSuite) TestFindByCodeUnknownReturnsNotFound() {
	_, err := s.store.FindByCode(context.Background(), "VT-MISSING")
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresTagStoreSuite) TestFindByCodeWithoutChainFields() {
	s.insertTag("VT-UNSTAMPED", nil)

	tag, err := s.store.FindByCode(context.Background(), "VT-UNSTAMPED")
	s.Require().NoError(err)
	s.Nil(tag.ChainStatus)
}

func (s *PostgresTagStoreSuite) TestUpdateChainStatus() {
	status := models.StatusDistributed
	tagID := s.insertTag("VT-STATUS", &status)

	err := s.store.UpdateChainStatus(context.Background(), tagID, models.StatusRevoked)
	s.Require().NoError(err)

	tag, err := s.store.FindByCode(context.Background(), "VT-STATUS")
	s.Require().NoError(err)
	s.Require().NotNil(tag.ChainStatus)
	s.Equal(models.StatusRevoked, *tag.ChainStatus)
}

func (s *PostgresTagStoreSuite) TestUpdateChainStatusUnknownTagReturnsNotFound() {
	err := s.store.UpdateChainStatus(context.Background(), id.NewTagID(), models.StatusRevoked)
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
