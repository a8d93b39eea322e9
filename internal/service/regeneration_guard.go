package service

import "time"

// RegenerationDecision is the outcome of the regeneration gate for a term.
type RegenerationDecision struct {
	CanGenerate    bool
	HasExisting    bool
	WindowOpen     bool
	Deadline       time.Time
	DaysSinceStart int
	SlotCount      int
}

// EvaluateRegeneration decides whether a term's timetable may be built or
// destructively rebuilt. It is a pure function of the term start date, the
// current time and the committed slot count, shared by preflight reporting
// and the generation entry point.
//
// A term with no committed slots can always be generated. A term with slots
// can only be regenerated while the current date is within windowDays of the
// term start; after that the existing timetable is considered in active use.
func EvaluateRegeneration(termStart, now time.Time, existingSlots, windowDays int) RegenerationDecision {
	deadline := termStart.AddDate(0, 0, windowDays)
	elapsed := int(now.Sub(termStart).Hours() / 24)
	windowOpen := !now.After(deadline)

	decision := RegenerationDecision{
		HasExisting:    existingSlots > 0,
		WindowOpen:     windowOpen,
		Deadline:       deadline,
		DaysSinceStart: elapsed,
		SlotCount:      existingSlots,
	}

	if existingSlots == 0 {
		decision.CanGenerate = true
		return decision
	}

	decision.CanGenerate = windowOpen
	return decision
}
