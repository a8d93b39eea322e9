package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateRegenerationFreshTerm(t *testing.T) {
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	now := start.AddDate(0, 0, 30)

	decision := EvaluateRegeneration(start, now, 0, 14)
	assert.True(t, decision.CanGenerate, "empty term is always generatable")
	assert.False(t, decision.HasExisting)
	assert.Equal(t, 30, decision.DaysSinceStart)
}

func TestEvaluateRegenerationWithinWindow(t *testing.T) {
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	now := start.AddDate(0, 0, 5)

	decision := EvaluateRegeneration(start, now, 120, 14)
	assert.True(t, decision.CanGenerate)
	assert.True(t, decision.WindowOpen)
	assert.Equal(t, 5, decision.DaysSinceStart)
	assert.Equal(t, start.AddDate(0, 0, 14), decision.Deadline)
}

func TestEvaluateRegenerationWindowClosed(t *testing.T) {
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	now := start.AddDate(0, 0, 20)

	decision := EvaluateRegeneration(start, now, 120, 14)
	assert.False(t, decision.CanGenerate)
	assert.False(t, decision.WindowOpen)
	assert.True(t, decision.HasExisting)
	assert.Equal(t, 20, decision.DaysSinceStart)
	assert.Equal(t, 120, decision.SlotCount)
}

func TestEvaluateRegenerationDeadlineDayStillOpen(t *testing.T) {
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	now := start.AddDate(0, 0, 14)

	decision := EvaluateRegeneration(start, now, 10, 14)
	assert.True(t, decision.CanGenerate, "the deadline day itself remains open")
}
