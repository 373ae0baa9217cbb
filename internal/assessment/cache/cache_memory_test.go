package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caregate/internal/domain"
)

func record() *domain.DecisionRecord {
	return &domain.DecisionRecord{
		ID:    uuid.New(),
		State: domain.StateAutoAcceptable,
		Score: &domain.ScoreResult{RawScore: 30},
	}
}

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("hit within TTL", func(t *testing.T) {
		c := NewInMemoryCache()
		rec := record()
		require.NoError(t, c.Put(ctx, "key", rec, time.Minute))

		got, ok, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, rec.ID, got.ID)
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		c := NewInMemoryCache()
		_, ok, err := c.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired entries miss", func(t *testing.T) {
		c := NewInMemoryCache()
		require.NoError(t, c.Put(ctx, "key", record(), time.Nanosecond))
		time.Sleep(time.Millisecond)

		_, ok, err := c.Get(ctx, "key")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cached records are isolated copies", func(t *testing.T) {
		c := NewInMemoryCache()
		rec := record()
		require.NoError(t, c.Put(ctx, "key", rec, time.Minute))

		rec.Score.RawScore = 99
		got, ok, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 30.0, got.Score.RawScore)

		got.Score.RawScore = 1
		again, ok, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 30.0, again.Score.RawScore)
	})
}
