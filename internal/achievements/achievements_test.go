package achievements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustalya/gustalya/internal/storage"
)

func byID(badges []Badge) map[string]Badge {
	out := make(map[string]Badge, len(badges))
	for _, b := range badges {
		out[b.ID] = b
	}
	return out
}

func TestEvaluateNewProfile(t *testing.T) {
	badges := Evaluate(nil)
	require.Len(t, badges, 5)
	for _, b := range badges {
		assert.False(t, b.Unlocked, b.ID)
		assert.Zero(t, b.Progress, b.ID)
	}
	assert.Empty(t, Unlocked(nil))
}

func TestEvaluateThresholds(t *testing.T) {
	stats := &storage.CookingStats{
		TotalCooks:      10,
		FinishedCooks:   24,
		DistinctRecipes: 3,
		TotalTimedSec:   10 * 3600,
	}
	badges := byID(Evaluate(stats))

	assert.True(t, badges["first_cook"].Unlocked)
	assert.True(t, badges["regular_cook"].Unlocked)
	assert.True(t, badges["slow_food"].Unlocked)
	assert.False(t, badges["explorer"].Unlocked)
	assert.InDelta(t, 0.6, badges["explorer"].Progress, 1e-9)
	assert.False(t, badges["finisher"].Unlocked)
	assert.Equal(t, 24, badges["finisher"].Current)

	assert.Len(t, Unlocked(stats), 3)
}

func TestEvaluateProgressIsCapped(t *testing.T) {
	badges := byID(Evaluate(&storage.CookingStats{TotalCooks: 40}))
	assert.Equal(t, 1.0, badges["first_cook"].Progress)
	assert.Equal(t, 1.0, badges["regular_cook"].Progress)
}

func TestEvaluateOrderIsStable(t *testing.T) {
	first := Evaluate(&storage.CookingStats{TotalCooks: 2})
	second := Evaluate(&storage.CookingStats{TotalCooks: 2})
	require.Equal(t, first, second)
	assert.Equal(t, "first_cook", first[0].ID)
	assert.Equal(t, "finisher", first[len(first)-1].ID)
}
