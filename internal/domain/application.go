package domain

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	StatusApplied      ApplicationStatus = "applied"
	StatusInterviewing ApplicationStatus = "interviewing"
	StatusHired        ApplicationStatus = "hired"
	StatusRejected     ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every status in lifecycle order.
var ApplicationStatuses = []ApplicationStatus{StatusApplied, StatusInterviewing, StatusHired, StatusRejected}

// Transition is one directed edge of the application lifecycle graph.
type Transition struct {
	From ApplicationStatus
	To   ApplicationStatus
}

// applicationTransitions is the complete edge set. Anything not listed is rejected.
var applicationTransitions = map[Transition]struct{}{
	{StatusApplied, StatusInterviewing}:  {},
	{StatusApplied, StatusRejected}:      {},
	{StatusInterviewing, StatusRejected}: {},
	{StatusInterviewing, StatusHired}:    {},
}

// AllowedTransitions returns a copy of the edge set.
func AllowedTransitions() []Transition {
	out := make([]Transition, 0, len(applicationTransitions))
	for t := range applicationTransitions {
		out = append(out, t)
	}
	return out
}

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusApplied, StatusInterviewing, StatusHired, StatusRejected:
		return true
	}
	return false
}

func (s ApplicationStatus) CanTransitionTo(target ApplicationStatus) bool {
	_, ok := applicationTransitions[Transition{From: s, To: target}]
	return ok
}

// IsTerminal reports whether no edge leaves s.
func (s ApplicationStatus) IsTerminal() bool {
	for t := range applicationTransitions {
		if t.From == s {
			return false
		}
	}
	return true
}

// IsEngaged reports whether a channel bound to an application in this status is usable.
func (s ApplicationStatus) IsEngaged() bool {
	return s == StatusInterviewing || s == StatusHired
}

type Application struct {
	ID          uuid.UUID         `json:"id"`
	JobID       uuid.UUID         `json:"job_id"`
	ApplicantID uuid.UUID         `json:"applicant_id"`
	Status      ApplicationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
