package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRestrictionAnalyse(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	restriction := Restriction{Requests: 2, Duration: 10 * time.Second}

	t.Run("empty history", func(t *testing.T) {
		analysis := restriction.Analyse(nil, start)
		assert.True(t, analysis.allowed)
		assert.Zero(t, analysis.wait)
	})

	t.Run("below the limit", func(t *testing.T) {
		history := []time.Time{start}
		analysis := restriction.Analyse(history, start.Add(time.Second))
		assert.True(t, analysis.allowed)
	})

	t.Run("limit reached", func(t *testing.T) {
		history := []time.Time{start, start.Add(2 * time.Second)}
		analysis := restriction.Analyse(history, start.Add(4*time.Second))
		assert.False(t, analysis.allowed)
		assert.Equal(t, 6*time.Second, analysis.wait)
	})

	t.Run("old requests do not count", func(t *testing.T) {
		history := []time.Time{start, start.Add(2 * time.Second)}
		analysis := restriction.Analyse(history, start.Add(10*time.Second))
		assert.True(t, analysis.allowed)
	})
}
