package domain

import (
	"time"

	"github.com/google/uuid"
)

type InterviewStatus string

const (
	InterviewPending  InterviewStatus = "pending"
	InterviewAccepted InterviewStatus = "accepted"
	InterviewDeclined InterviewStatus = "declined"
)

func (s InterviewStatus) Valid() bool {
	switch s {
	case InterviewPending, InterviewAccepted, InterviewDeclined:
		return true
	}
	return false
}

// IsResponse reports whether s is a status a party may set on an existing schedule.
func (s InterviewStatus) IsResponse() bool {
	return s == InterviewAccepted || s == InterviewDeclined
}

type InterviewSchedule struct {
	ID            uuid.UUID       `json:"id"`
	JobID         uuid.UUID       `json:"job_id"`
	RecruiterID   uuid.UUID       `json:"recruiter_id"`
	ApplicantID   uuid.UUID       `json:"applicant_id"`
	InterviewDate time.Time       `json:"interview_date"`
	Location      string          `json:"location"`
	Status        InterviewStatus `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (s *InterviewSchedule) HasParty(userID uuid.UUID) bool {
	return userID == s.RecruiterID || userID == s.ApplicantID
}
