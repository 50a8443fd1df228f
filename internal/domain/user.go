package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleApplicant Role = "applicant"
	RoleRecruiter Role = "recruiter"
)

func (r Role) Valid() bool {
	return r == RoleApplicant || r == RoleRecruiter
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// JobPosting is the slice of a posting this service needs: who owns it.
type JobPosting struct {
	ID          uuid.UUID `json:"id"`
	RecruiterID uuid.UUID `json:"recruiter_id"`
	Title       string    `json:"title"`
}
