package domain

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type MessageKind string

const (
	KindText             MessageKind = "text"
	KindImage            MessageKind = "image"
	KindVideo            MessageKind = "video"
	KindFile             MessageKind = "file"
	KindInterviewRequest MessageKind = "interview_request"
)

func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindVideo, KindFile, KindInterviewRequest:
		return true
	}
	return false
}

type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryRead      DeliveryStatus = "read"
)

// Rank orders delivery statuses; a message never moves to a lower rank.
func (d DeliveryStatus) Rank() int {
	switch d {
	case DeliverySent:
		return 1
	case DeliveryDelivered:
		return 2
	case DeliveryRead:
		return 3
	}
	return 0
}

type Message struct {
	ID                uuid.UUID      `json:"id"`
	ChannelID         uuid.UUID      `json:"channel_id"`
	SenderID          uuid.UUID      `json:"sender_id"`
	SenderIsRecruiter bool           `json:"sender_is_recruiter"`
	Content           string         `json:"content"`
	Kind              MessageKind    `json:"kind"`
	DeliveryStatus    DeliveryStatus `json:"delivery_status"`
	CreatedAt         time.Time      `json:"created_at"`
}

const snippetRunes = 100

// Snippet is the channel preview text for a message of the given kind.
func Snippet(kind MessageKind, content string) string {
	switch kind {
	case KindText:
		if utf8.RuneCountInString(content) <= snippetRunes {
			return content
		}
		return string([]rune(content)[:snippetRunes])
	case KindInterviewRequest:
		return "[interview request]"
	default:
		return fmt.Sprintf("[%s]", kind)
	}
}

// InterviewPayload is the body of an interview_request message. Its Status
// mirrors the InterviewSchedule it references; the schedule is authoritative.
type InterviewPayload struct {
	Date       time.Time       `json:"date"`
	Location   string          `json:"location"`
	Status     InterviewStatus `json:"status"`
	ScheduleID uuid.UUID       `json:"schedule_id"`
}

func NewInterviewPayload(s *InterviewSchedule) InterviewPayload {
	return InterviewPayload{
		Date:       s.InterviewDate,
		Location:   s.Location,
		Status:     s.Status,
		ScheduleID: s.ID,
	}
}

func (p InterviewPayload) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeInterviewPayload parses message content and rejects payloads that do not
// reference a schedule or carry an unknown status.
func DecodeInterviewPayload(content string) (InterviewPayload, error) {
	var p InterviewPayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return InterviewPayload{}, err
	}
	if p.ScheduleID == uuid.Nil {
		return InterviewPayload{}, errors.New("payload has no schedule_id")
	}
	if !p.Status.Valid() {
		return InterviewPayload{}, errors.Newf("payload has unknown status %q", p.Status)
	}
	return p, nil
}
