package domain

import (
	"time"

	"github.com/google/uuid"
)

// Channel is the private two-party conversation bound to exactly one application.
// ApplicantID and RecruiterID are copied from the application and its job at creation.
type Channel struct {
	ID                 uuid.UUID  `json:"id"`
	ApplicationID      uuid.UUID  `json:"application_id"`
	ApplicantID        uuid.UUID  `json:"applicant_id"`
	RecruiterID        uuid.UUID  `json:"recruiter_id"`
	LastMessageSnippet string     `json:"last_message_snippet"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// HasParty reports whether userID is one of the two parties on the channel.
func (c *Channel) HasParty(userID uuid.UUID) bool {
	return userID == c.ApplicantID || userID == c.RecruiterID
}

// Counterpart returns the other party of the channel.
func (c *Channel) Counterpart(userID uuid.UUID) uuid.UUID {
	if userID == c.ApplicantID {
		return c.RecruiterID
	}
	return c.ApplicantID
}
