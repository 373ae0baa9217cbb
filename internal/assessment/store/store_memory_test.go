package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"caregate/internal/domain"
	"caregate/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newRecord() *domain.DecisionRecord {
	return &domain.DecisionRecord{
		ID:    uuid.New(),
		State: domain.StatePending,
		Request: domain.RequestContext{
			RequestID:  uuid.NewString(),
			PatientRef: "patient-1",
			Kind:       domain.KindScreening,
		},
	}
}

func (s *MemoryStoreSuite) TestCreateAndGet() {
	s.Run("round-trips a record", func() {
		rec := s.newRecord()
		s.Require().NoError(s.store.Create(s.ctx, rec))

		got, err := s.store.Get(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(rec.ID, got.ID)
		s.Equal(domain.StatePending, got.State)
	})

	s.Run("rejects duplicate ids", func() {
		rec := s.newRecord()
		s.Require().NoError(s.store.Create(s.ctx, rec))
		s.Require().ErrorIs(s.store.Create(s.ctx, rec), sentinel.ErrConflict)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.Get(s.ctx, uuid.New())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestUpdateCompareAndSwap() {
	rec := s.newRecord()
	s.Require().NoError(s.store.Create(s.ctx, rec))

	s.Run("applies when the expected state matches", func() {
		rec.State = domain.StateScored
		s.Require().NoError(s.store.Update(s.ctx, rec, domain.StatePending))

		got, err := s.store.Get(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(domain.StateScored, got.State)
	})

	s.Run("rejects a stale expected state", func() {
		stale := rec.Clone()
		stale.State = domain.StateExplained
		err := s.store.Update(s.ctx, stale, domain.StatePending)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)

		got, getErr := s.store.Get(s.ctx, rec.ID)
		s.Require().NoError(getErr)
		s.Equal(domain.StateScored, got.State, "losing update must not apply")
	})

	s.Run("rejects updates to unknown records", func() {
		ghost := s.newRecord()
		s.Require().ErrorIs(s.store.Update(s.ctx, ghost, domain.StatePending), sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestIsolation() {
	rec := s.newRecord()
	rec.Score = &domain.ScoreResult{RawScore: 50, CategoryScores: map[string]float64{"a": 50}}
	s.Require().NoError(s.store.Create(s.ctx, rec))

	// Mutating the caller's record after Create must not leak into the store.
	rec.Score.RawScore = 99
	rec.Score.CategoryScores["a"] = 99

	got, err := s.store.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(50.0, got.Score.RawScore)
	s.Equal(50.0, got.Score.CategoryScores["a"])

	// And mutating a fetched copy must not affect later reads.
	got.Score.RawScore = 1
	again, err := s.store.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(50.0, again.Score.RawScore)
}
