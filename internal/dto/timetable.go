package dto

// ManualSlotRequest creates or updates a single timetable slot outside
// generation. Conflict checks still apply.
type ManualSlotRequest struct {
	TermID         string `json:"termId" validate:"required"`
	DayOfWeek      int    `json:"dayOfWeek" validate:"required,min=1,max=7"`
	LessonPeriodID string `json:"lessonPeriodId" validate:"required"`
	RoomID         string `json:"roomId" validate:"required"`
	ClassID        string `json:"classId" validate:"required"`
	SubjectID      string `json:"subjectId" validate:"required"`
	TrainerID      string `json:"trainerId" validate:"required"`
}

// LockoutRequest sets or clears the generation deadline lockout.
type LockoutRequest struct {
	LockedUntil string `json:"lockedUntil" validate:"omitempty,datetime=2006-01-02"`
	Message     string `json:"message" validate:"omitempty,max=500"`
}

// LockoutState reports the current generation lockout gate.
type LockoutState struct {
	Locked      bool   `json:"locked"`
	LockedUntil string `json:"lockedUntil,omitempty"`
	Message     string `json:"message,omitempty"`
}
