package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vti-ops/timetable-api/internal/models"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
)

type teachingAssignmentRepository interface {
	ListByTerm(ctx context.Context, termID string) ([]models.TeachingAssignmentDetail, error)
	Exists(ctx context.Context, classID, subjectID, termID string) (bool, error)
	Create(ctx context.Context, assignment *models.TeachingAssignment) error
	SetTrainer(ctx context.Context, assignmentID string, trainerID *string) error
	Delete(ctx context.Context, id string) error
}

// CreateAssignmentRequest binds a subject to a class, optionally with a trainer.
type CreateAssignmentRequest struct {
	TermID    string  `json:"term_id" validate:"required"`
	ClassID   string  `json:"class_id" validate:"required"`
	SubjectID string  `json:"subject_id" validate:"required"`
	TrainerID *string `json:"trainer_id"`
}

// SetTrainerRequest assigns or clears an assignment's trainer.
type SetTrainerRequest struct {
	TrainerID *string `json:"trainer_id"`
}

// TeachingAssignmentService coordinates the class-subject-trainer registry.
type TeachingAssignmentService struct {
	repo      teachingAssignmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeachingAssignmentService constructs TeachingAssignmentService.
func NewTeachingAssignmentService(repo teachingAssignmentRepository, logger *zap.Logger) *TeachingAssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeachingAssignmentService{repo: repo, validator: validator.New(), logger: logger}
}

// ListByTerm returns the term's assignments with registry names joined in.
func (s *TeachingAssignmentService) ListByTerm(ctx context.Context, termID string) ([]models.TeachingAssignmentDetail, error) {
	assignments, err := s.repo.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teaching assignments")
	}
	if assignments == nil {
		assignments = []models.TeachingAssignmentDetail{}
	}
	return assignments, nil
}

// Create stores a new assignment, rejecting duplicates of the same
// (class, subject, term) triple.
func (s *TeachingAssignmentService) Create(ctx context.Context, req *CreateAssignmentRequest) (*models.TeachingAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	exists, err := s.repo.Exists(ctx, req.ClassID, req.SubjectID, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class already has this subject assigned in the term")
	}

	assignment := &models.TeachingAssignment{
		TermID:    req.TermID,
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
		TrainerID: req.TrainerID,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// SetTrainer assigns or clears the trainer on an assignment.
func (s *TeachingAssignmentService) SetTrainer(ctx context.Context, assignmentID string, req *SetTrainerRequest) error {
	if err := s.repo.SetTrainer(ctx, assignmentID, req.TrainerID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set trainer")
	}
	return nil
}

// Delete removes an assignment.
func (s *TeachingAssignmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}
