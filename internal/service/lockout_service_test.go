package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vti-ops/timetable-api/internal/dto"
	"github.com/vti-ops/timetable-api/internal/models"
)

type configStoreStub struct {
	entries map[string]*models.Configuration
}

func newConfigStoreStub() *configStoreStub {
	return &configStoreStub{entries: make(map[string]*models.Configuration)}
}

func (s *configStoreStub) Get(_ context.Context, key string) (*models.Configuration, error) {
	cfg, ok := s.entries[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cfg, nil
}

func (s *configStoreStub) Upsert(_ context.Context, cfg *models.Configuration) error {
	s.entries[cfg.Key] = cfg
	return nil
}

func newLockoutService(store *configStoreStub, now time.Time) *GenerationLockoutService {
	svc := NewGenerationLockoutService(store, zap.NewNop())
	svc.clock = func() time.Time { return now }
	return svc
}

func TestLockoutCheckUnconfigured(t *testing.T) {
	svc := newLockoutService(newConfigStoreStub(), time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	state, err := svc.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, state.Locked)
}

func TestLockoutCheckActive(t *testing.T) {
	store := newConfigStoreStub()
	store.entries[models.ConfigKeyGenerationLockedUntil] = &models.Configuration{
		Key: models.ConfigKeyGenerationLockedUntil, Value: "2026-03-01", Type: models.ConfigurationTypeDate,
	}
	store.entries[models.ConfigKeyGenerationLockMessage] = &models.Configuration{
		Key: models.ConfigKeyGenerationLockMessage, Value: "Locked until board approval", Type: models.ConfigurationTypeString,
	}
	svc := newLockoutService(store, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	state, err := svc.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, state.Locked)
	assert.Equal(t, "2026-03-01", state.LockedUntil)
	assert.Equal(t, "Locked until board approval", state.Message, "stored message is surfaced unchanged")
}

func TestLockoutCheckExpired(t *testing.T) {
	store := newConfigStoreStub()
	store.entries[models.ConfigKeyGenerationLockedUntil] = &models.Configuration{
		Key: models.ConfigKeyGenerationLockedUntil, Value: "2026-03-01", Type: models.ConfigurationTypeDate,
	}
	svc := newLockoutService(store, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	state, err := svc.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, state.Locked, "lockout ends on the cutoff date")
}

func TestLockoutCheckMalformedDate(t *testing.T) {
	store := newConfigStoreStub()
	store.entries[models.ConfigKeyGenerationLockedUntil] = &models.Configuration{
		Key: models.ConfigKeyGenerationLockedUntil, Value: "soon", Type: models.ConfigurationTypeDate,
	}
	svc := newLockoutService(store, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	state, err := svc.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, state.Locked)
}

func TestLockoutSetAndClear(t *testing.T) {
	store := newConfigStoreStub()
	svc := newLockoutService(store, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	state, err := svc.Set(context.Background(), &dto.LockoutRequest{
		LockedUntil: "2026-04-01",
		Message:     "Exam season freeze",
	}, "admin-1")
	require.NoError(t, err)
	assert.True(t, state.Locked)
	assert.Equal(t, "Exam season freeze", state.Message)
	require.NotNil(t, store.entries[models.ConfigKeyGenerationLockedUntil].UpdatedBy)
	assert.Equal(t, "admin-1", *store.entries[models.ConfigKeyGenerationLockedUntil].UpdatedBy)

	state, err = svc.Set(context.Background(), &dto.LockoutRequest{}, "admin-1")
	require.NoError(t, err)
	assert.False(t, state.Locked)
}

func TestLockoutSetRejectsBadDate(t *testing.T) {
	svc := newLockoutService(newConfigStoreStub(), time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	_, err := svc.Set(context.Background(), &dto.LockoutRequest{LockedUntil: "April 1st"}, "")
	require.Error(t, err)
}
