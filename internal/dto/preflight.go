package dto

import "time"

// PreflightCounts carries the raw numbers the report was derived from.
type PreflightCounts struct {
	Classes                   int `json:"classes"`
	Assignments               int `json:"assignments"`
	AssignmentsWithTrainer    int `json:"assignmentsWithTrainer"`
	AssignmentsWithoutTrainer int `json:"assignmentsWithoutTrainer"`
	Trainers                  int `json:"trainers"`
	ActiveRooms               int `json:"activeRooms"`
	ActiveLessonPeriods       int `json:"activeLessonPeriods"`
	WorkingDays               int `json:"workingDays"`
}

// UnassignedSubject identifies a subject-class pair lacking a trainer.
type UnassignedSubject struct {
	AssignmentID string `json:"assignmentId"`
	ClassID      string `json:"classId"`
	ClassCode    string `json:"classCode"`
	SubjectID    string `json:"subjectId"`
	SubjectName  string `json:"subjectName"`
}

// ExistingTimetableState describes slots already committed for the term.
type ExistingTimetableState struct {
	HasSlots             bool       `json:"hasSlots"`
	SlotCount            int        `json:"slotCount"`
	RegenerationAllowed  bool       `json:"regenerationAllowed"`
	RegenerationDeadline *time.Time `json:"regenerationDeadline,omitempty"`
	DaysSinceTermStart   int        `json:"daysSinceTermStart"`
}

// PreflightIssue is one blocking error or non-blocking warning.
type PreflightIssue struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// PreflightReport is the full schedulability report for a term.
// Passed is true iff Errors is empty. The report is ephemeral and idempotent:
// re-running preflight without data changes yields an identical report.
type PreflightReport struct {
	TermID             string                 `json:"termId"`
	Passed             bool                   `json:"passed"`
	Counts             PreflightCounts        `json:"counts"`
	Existing           ExistingTimetableState `json:"existingTimetable"`
	UnassignedSubjects []UnassignedSubject    `json:"unassignedSubjects,omitempty"`
	Errors             []PreflightIssue       `json:"errors"`
	Warnings           []PreflightIssue       `json:"warnings"`
}
