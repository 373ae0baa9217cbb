//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"caregate/internal/domain"
	"caregate/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *RedisCache
	ctx   context.Context
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.ctx = context.Background()
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.cache = NewRedisCache(s.redis.Client)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisCacheSuite) TestRoundTrip() {
	rec := &domain.DecisionRecord{
		ID:         uuid.New(),
		State:      domain.StateAutoAcceptable,
		Score:      &domain.ScoreResult{RawScore: 30, DataCompleteness: 1},
		Confidence: 0.9,
	}
	s.Require().NoError(s.cache.Put(s.ctx, "k1", rec, time.Minute))

	got, ok, err := s.cache.Get(s.ctx, "k1")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(rec.ID, got.ID)
	s.Equal(rec.State, got.State)
	s.Equal(30.0, got.Score.RawScore)
}

func (s *RedisCacheSuite) TestMissAndExpiry() {
	s.Run("unknown key misses", func() {
		_, ok, err := s.cache.Get(s.ctx, "absent")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("expired key misses", func() {
		rec := &domain.DecisionRecord{ID: uuid.New(), State: domain.StateAutoAcceptable}
		s.Require().NoError(s.cache.Put(s.ctx, "k2", rec, 50*time.Millisecond))
		time.Sleep(100 * time.Millisecond)

		_, ok, err := s.cache.Get(s.ctx, "k2")
		s.Require().NoError(err)
		s.False(ok)
	})
}

func (s *RedisCacheSuite) TestUndecodableEntryIsAMiss() {
	s.Require().NoError(s.redis.Client.Set(s.ctx, "assessment:result:k3", "{not json", time.Minute).Err())

	_, ok, err := s.cache.Get(s.ctx, "k3")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisCacheSuite) TestRefreshReplacesSnapshot() {
	rec := &domain.DecisionRecord{ID: uuid.New(), State: domain.StateNeedsReview}
	s.Require().NoError(s.cache.Put(s.ctx, "k4", rec, time.Minute))

	rec.State = domain.StateReviewed
	s.Require().NoError(s.cache.Put(s.ctx, "k4", rec, time.Minute))

	got, ok, err := s.cache.Get(s.ctx, "k4")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(domain.StateReviewed, got.State)
}
