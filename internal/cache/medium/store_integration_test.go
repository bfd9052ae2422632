//go:build integration

package medium_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"agenda/internal/cache"
	"agenda/internal/cache/medium"
	"agenda/pkg/platform/sentinel"
	"agenda/pkg/testutil/containers"
)

// MediumContract runs the same checks against any medium.
type MediumContract struct {
	suite.Suite
	medium cache.Medium
}

func (s *MediumContract) TestRoundTrip() {
	ctx := context.Background()
	s.Require().NoError(s.medium.Set(ctx, "cities", []byte(`{"payload":["Campinas"]}`), time.Hour))

	got, err := s.medium.Get(ctx, "cities")
	s.Require().NoError(err)
	s.JSONEq(`{"payload":["Campinas"]}`, string(got))
}

func (s *MediumContract) TestOverwrite() {
	ctx := context.Background()
	s.Require().NoError(s.medium.Set(ctx, "k", []byte("1"), time.Hour))
	s.Require().NoError(s.medium.Set(ctx, "k", []byte("2"), time.Hour))

	got, err := s.medium.Get(ctx, "k")
	s.Require().NoError(err)
	s.Equal("2", string(got))
}

func (s *MediumContract) TestMissingAndDelete() {
	ctx := context.Background()
	_, err := s.medium.Get(ctx, "absent")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.medium.Set(ctx, "k", []byte("v"), time.Hour))
	s.Require().NoError(s.medium.Delete(ctx, "k"))
	_, err = s.medium.Get(ctx, "k")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MediumContract) TestServerSideExpiry() {
	ctx := context.Background()
	s.Require().NoError(s.medium.Set(ctx, "short", []byte("v"), time.Second))

	s.Eventually(func() bool {
		_, err := s.medium.Get(ctx, "short")
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}

type RedisMediumSuite struct {
	MediumContract
	redis *containers.RedisContainer
}

func TestRedisMediumSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisMediumSuite))
}

func (s *RedisMediumSuite) SetupSuite() {
	s.redis = containers.GetRedis(s.T())
	s.medium = medium.NewRedis(s.redis.Client)
}

func (s *RedisMediumSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

type PostgresMediumSuite struct {
	MediumContract
	postgres *containers.PostgresContainer
}

func TestPostgresMediumSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresMediumSuite))
}

func (s *PostgresMediumSuite) SetupSuite() {
	s.postgres = containers.GetPostgres(s.T())
	store := medium.NewPostgres(s.postgres.DB)
	s.Require().NoError(store.EnsureSchema(context.Background()))
	s.medium = store
}

func (s *PostgresMediumSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "reference_cache"))
}
