package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationTransitionsExhaustive(t *testing.T) {
	allowed := map[Transition]bool{
		{StatusApplied, StatusInterviewing}:  true,
		{StatusApplied, StatusRejected}:      true,
		{StatusInterviewing, StatusRejected}: true,
		{StatusInterviewing, StatusHired}:    true,
	}

	for _, from := range ApplicationStatuses {
		for _, to := range ApplicationStatuses {
			edge := Transition{From: from, To: to}
			assert.Equal(t, allowed[edge], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.ElementsMatch(t, []Transition{
		{StatusApplied, StatusInterviewing},
		{StatusApplied, StatusRejected},
		{StatusInterviewing, StatusRejected},
		{StatusInterviewing, StatusHired},
	}, AllowedTransitions())
}

func TestTerminalStatusesHaveNoExit(t *testing.T) {
	assert.True(t, StatusHired.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusApplied.IsTerminal())
	assert.False(t, StatusInterviewing.IsTerminal())

	for _, to := range ApplicationStatuses {
		assert.False(t, StatusHired.CanTransitionTo(to))
		assert.False(t, StatusRejected.CanTransitionTo(to))
	}
}

func TestEngagedStatuses(t *testing.T) {
	assert.True(t, StatusInterviewing.IsEngaged())
	assert.True(t, StatusHired.IsEngaged())
	assert.False(t, StatusApplied.IsEngaged())
	assert.False(t, StatusRejected.IsEngaged())
	assert.False(t, ApplicationStatus("archived").Valid())
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "Hello", Snippet(KindText, "Hello"))
	assert.Equal(t, "[image]", Snippet(KindImage, "https://cdn/x.png"))
	assert.Equal(t, "[interview request]", Snippet(KindInterviewRequest, "{}"))

	long := strings.Repeat("ž", 150)
	assert.Equal(t, strings.Repeat("ž", 100), Snippet(KindText, long))
}

func TestDeliveryStatusRank(t *testing.T) {
	assert.Less(t, DeliverySent.Rank(), DeliveryDelivered.Rank())
	assert.Less(t, DeliveryDelivered.Rank(), DeliveryRead.Rank())
}

func TestInterviewPayloadDecode(t *testing.T) {
	s := &InterviewSchedule{
		ID:            uuid.New(),
		InterviewDate: time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC),
		Location:      "Zagreb office",
		Status:        InterviewPending,
	}
	content, err := NewInterviewPayload(s).Encode()
	require.NoError(t, err)

	p, err := DecodeInterviewPayload(content)
	require.NoError(t, err)
	assert.Equal(t, s.ID, p.ScheduleID)
	assert.Equal(t, InterviewPending, p.Status)
	assert.True(t, s.InterviewDate.Equal(p.Date))

	_, err = DecodeInterviewPayload("not json")
	assert.Error(t, err)
	_, err = DecodeInterviewPayload(`{"status":"pending"}`)
	assert.Error(t, err)
	_, err = DecodeInterviewPayload(`{"status":"maybe","schedule_id":"` + s.ID.String() + `"}`)
	assert.Error(t, err)
}

func TestChannelParties(t *testing.T) {
	ch := &Channel{ApplicantID: uuid.New(), RecruiterID: uuid.New()}
	assert.True(t, ch.HasParty(ch.ApplicantID))
	assert.True(t, ch.HasParty(ch.RecruiterID))
	assert.False(t, ch.HasParty(uuid.New()))
	assert.Equal(t, ch.RecruiterID, ch.Counterpart(ch.ApplicantID))
	assert.Equal(t, ch.ApplicantID, ch.Counterpart(ch.RecruiterID))
}
