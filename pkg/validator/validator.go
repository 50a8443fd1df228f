package validator

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

const (
	MaxMessageLength  = 4000
	MaxLocationLength = 255
)

func ValidateRegister(email, displayName, password, role string) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)

	// Display name
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		errs.Add("display_name", "Display name is required")
	} else if len(displayName) < 2 {
		errs.Add("display_name", "Display name must be at least 2 characters")
	} else if len(displayName) > 100 {
		errs.Add("display_name", "Display name is too long")
	}

	if role != "applicant" && role != "recruiter" {
		errs.Add("role", "Role must be applicant or recruiter")
	}

	validatePassword(password, errs)

	return errs
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

// ValidateMessage checks a message posted by a channel party. Interview requests
// are produced by the scheduler and cannot be posted directly.
func ValidateMessage(kind, content string) ValidationErrors {
	errs := make(ValidationErrors)

	switch kind {
	case "text", "image", "video", "file":
	case "interview_request":
		errs.Add("kind", "Interview requests are created by scheduling an interview")
	default:
		errs.Add("kind", "Kind must be text, image, video, or file")
	}

	if strings.TrimSpace(content) == "" {
		errs.Add("content", "Message content is required")
	} else if utf8.RuneCountInString(content) > MaxMessageLength {
		errs.Add("content", fmt.Sprintf("Message content must be at most %d characters", MaxMessageLength))
	}

	return errs
}

func ValidateSchedule(jobID, applicantID uuid.UUID, interviewDate time.Time, location string) ValidationErrors {
	errs := make(ValidationErrors)

	if jobID == uuid.Nil {
		errs.Add("job_id", "Job is required")
	}
	if applicantID == uuid.Nil {
		errs.Add("applicant_id", "Applicant is required")
	}
	if interviewDate.IsZero() {
		errs.Add("interview_date", "Interview date is required")
	}

	location = strings.TrimSpace(location)
	if location == "" {
		errs.Add("location", "Location is required")
	} else if utf8.RuneCountInString(location) > MaxLocationLength {
		errs.Add("location", "Location is too long")
	}

	return errs
}

func validateEmail(email string, errs ValidationErrors) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}
}

func validatePassword(password string, errs ValidationErrors) {
	if len(password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
		return
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	missing := []string{}
	if !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if !hasDigit {
		missing = append(missing, "one number")
	}

	if len(missing) > 0 {
		errs.Add("password", fmt.Sprintf("Password must contain at least %s", strings.Join(missing, ", ")))
	}
}
