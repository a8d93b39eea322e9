package dto

// GenerateTimetableRequest instructs the engine to build a term timetable.
// Zero values fall back to the configured defaults.
type GenerateTimetableRequest struct {
	SessionsPerWeek  int  `json:"sessionsPerWeek" validate:"omitempty,min=1,max=14"`
	MinClassesPerDay int  `json:"minClassesPerDay" validate:"omitempty,min=0,max=16"`
	Regenerate       bool `json:"regenerate"`
}

// AssignmentShortfall names an assignment that missed its weekly target.
type AssignmentShortfall struct {
	AssignmentID string `json:"assignmentId"`
	ClassID      string `json:"classId"`
	ClassCode    string `json:"classCode"`
	SubjectID    string `json:"subjectId"`
	SubjectName  string `json:"subjectName"`
	TrainerID    string `json:"trainerId"`
	Requested    int    `json:"requested"`
	Placed       int    `json:"placed"`
	Shortfall    int    `json:"shortfall"`
}

// TrainerDayLoad reports per-trainer session counts for one working day.
type TrainerDayLoad struct {
	TrainerID string `json:"trainerId"`
	DayOfWeek int    `json:"dayOfWeek"`
	Sessions  int    `json:"sessions"`
}

// GenerateTimetableResponse summarises a committed generation run.
type GenerateTimetableResponse struct {
	TermID            string                `json:"termId"`
	SlotsCreated      int                   `json:"slotsCreated"`
	AssignmentsTotal  int                   `json:"assignmentsTotal"`
	SubjectsScheduled int                   `json:"subjectsScheduled"`
	Shortfalls        []AssignmentShortfall `json:"shortfalls"`
	TrainerDailyLoad  []TrainerDayLoad      `json:"trainerDailyLoad,omitempty"`
	Regenerated       bool                  `json:"regenerated"`
}
