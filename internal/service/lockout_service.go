package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vti-ops/timetable-api/internal/dto"
	"github.com/vti-ops/timetable-api/internal/models"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
)

const lockoutDateLayout = "2006-01-02"

type configurationStore interface {
	Get(ctx context.Context, key string) (*models.Configuration, error)
	Upsert(ctx context.Context, cfg *models.Configuration) error
}

// GenerationLockoutService gates timetable generation on an admin-configured
// cutoff date. While the cutoff lies in the future, generation is blocked and
// the stored message is surfaced to callers unchanged.
type GenerationLockoutService struct {
	configs configurationStore
	clock   func() time.Time
	logger  *zap.Logger
}

// NewGenerationLockoutService constructs the lockout gate.
func NewGenerationLockoutService(configs configurationStore, logger *zap.Logger) *GenerationLockoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationLockoutService{configs: configs, clock: time.Now, logger: logger}
}

// Check reports the current lockout state. A missing key means no lockout is
// configured.
func (s *GenerationLockoutService) Check(ctx context.Context) (dto.LockoutState, error) {
	cfg, err := s.configs.Get(ctx, models.ConfigKeyGenerationLockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dto.LockoutState{Locked: false}, nil
		}
		return dto.LockoutState{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read lockout configuration")
	}
	if cfg.Value == "" {
		return dto.LockoutState{Locked: false}, nil
	}

	until, err := time.Parse(lockoutDateLayout, cfg.Value)
	if err != nil {
		s.logger.Warn("malformed lockout date, treating as unlocked",
			zap.String("key", models.ConfigKeyGenerationLockedUntil),
			zap.String("value", cfg.Value))
		return dto.LockoutState{Locked: false}, nil
	}

	state := dto.LockoutState{LockedUntil: cfg.Value}
	if !s.clock().UTC().Before(until) {
		return state, nil
	}
	state.Locked = true
	state.Message = s.lockMessage(ctx)
	return state, nil
}

// Set stores or clears the lockout. An empty LockedUntil clears both keys.
func (s *GenerationLockoutService) Set(ctx context.Context, req *dto.LockoutRequest, updatedBy string) (dto.LockoutState, error) {
	if req.LockedUntil != "" {
		if _, err := time.Parse(lockoutDateLayout, req.LockedUntil); err != nil {
			return dto.LockoutState{}, appErrors.Clone(appErrors.ErrValidation, "lockedUntil must be a YYYY-MM-DD date")
		}
	}

	by := &updatedBy
	if updatedBy == "" {
		by = nil
	}
	if err := s.configs.Upsert(ctx, &models.Configuration{
		Key:       models.ConfigKeyGenerationLockedUntil,
		Value:     req.LockedUntil,
		Type:      models.ConfigurationTypeDate,
		UpdatedBy: by,
	}); err != nil {
		return dto.LockoutState{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store lockout date")
	}
	if err := s.configs.Upsert(ctx, &models.Configuration{
		Key:       models.ConfigKeyGenerationLockMessage,
		Value:     req.Message,
		Type:      models.ConfigurationTypeString,
		UpdatedBy: by,
	}); err != nil {
		return dto.LockoutState{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store lockout message")
	}
	return s.Check(ctx)
}

func (s *GenerationLockoutService) lockMessage(ctx context.Context) string {
	cfg, err := s.configs.Get(ctx, models.ConfigKeyGenerationLockMessage)
	if err != nil || cfg.Value == "" {
		return appErrors.ErrGenerationLocked.Message
	}
	return cfg.Value
}
