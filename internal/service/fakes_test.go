package service

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vedran77/minilid/internal/domain"
	"github.com/vedran77/minilid/internal/identity"
	"github.com/vedran77/minilid/internal/repository"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]domain.JobPosting
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]domain.JobPosting)}
}

func (r *fakeJobRepo) add(recruiterID uuid.UUID) domain.JobPosting {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := domain.JobPosting{ID: uuid.New(), RecruiterID: recruiterID, Title: "Backend Engineer"}
	r.jobs[job.ID] = job
	return job
}

func (r *fakeJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobPosting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

type fakeApplicationRepo struct {
	mu   sync.Mutex
	apps map[uuid.UUID]domain.Application
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{apps: make(map[uuid.UUID]domain.Application)}
}

func (r *fakeApplicationRepo) Create(ctx context.Context, app *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.apps {
		if a.JobID == app.JobID && a.ApplicantID == app.ApplicantID {
			return repository.ErrDuplicate
		}
	}
	r.apps[app.ID] = *app
	return nil
}

func (r *fakeApplicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *fakeApplicationRepo) ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]domain.Application, error) {
	return r.filter(func(a domain.Application) bool { return a.ApplicantID == applicantID }), nil
}

func (r *fakeApplicationRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]domain.Application, error) {
	return r.filter(func(a domain.Application) bool { return a.JobID == jobID }), nil
}

func (r *fakeApplicationRepo) filter(keep func(domain.Application) bool) []domain.Application {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Application{}
	for _, a := range r.apps {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func (r *fakeApplicationRepo) StatusesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.ApplicationStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]domain.ApplicationStatus, len(ids))
	for _, id := range ids {
		if a, ok := r.apps[id]; ok {
			out[id] = a.Status
		}
	}
	return out, nil
}

func (r *fakeApplicationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.ApplicationStatus, at time.Time) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok || a.Status != from {
		return nil, nil
	}
	a.Status = to
	a.UpdatedAt = at
	r.apps[id] = a
	return &a, nil
}

func (r *fakeApplicationRepo) DeleteIfStatus(ctx context.Context, id uuid.UUID, status domain.ApplicationStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok || a.Status != status {
		return false, nil
	}
	delete(r.apps, id)
	return true, nil
}

// forceStatus writes a status directly, bypassing the lifecycle.
func (r *fakeApplicationRepo) forceStatus(id uuid.UUID, status domain.ApplicationStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.apps[id]
	a.Status = status
	r.apps[id] = a
}

// storeClock stands in for the database clock. It starts well behind the wall
// clock so nothing can pass by mixing the two.
type storeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStoreClock() *storeClock {
	return &storeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *storeClock) tick() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

type fakeChannelRepo struct {
	mu       sync.Mutex
	channels map[uuid.UUID]domain.Channel
	clock    *storeClock
}

func newFakeChannelRepo(clock *storeClock) *fakeChannelRepo {
	return &fakeChannelRepo{channels: make(map[uuid.UUID]domain.Channel), clock: clock}
}

func (r *fakeChannelRepo) CreateOrGet(ctx context.Context, ch *domain.Channel) (*domain.Channel, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.channels {
		if existing.ApplicationID == ch.ApplicationID {
			return &existing, false, nil
		}
	}
	stored := *ch
	stored.CreatedAt = r.clock.tick()
	stored.UpdatedAt = stored.CreatedAt
	r.channels[stored.ID] = stored
	return &stored, true, nil
}

func (r *fakeChannelRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[id]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

func (r *fakeChannelRepo) GetByApplication(ctx context.Context, applicationID uuid.UUID) (*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.channels {
		if ch.ApplicationID == applicationID {
			return &ch, nil
		}
	}
	return nil, nil
}

func (r *fakeChannelRepo) ListByParty(ctx context.Context, userID uuid.UUID) ([]domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Channel{}
	for _, ch := range r.channels {
		if ch.HasParty(userID) {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeChannelRepo) Touch(ctx context.Context, id uuid.UUID, snippet string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[id]
	if !ok || (ch.LastMessageAt != nil && ch.LastMessageAt.After(at)) {
		return false, nil
	}
	ch.LastMessageSnippet = snippet
	ch.LastMessageAt = &at
	if at.After(ch.UpdatedAt) {
		ch.UpdatedAt = at
	}
	r.channels[id] = ch
	return true, nil
}

func (r *fakeChannelRepo) countFor(applicationID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ch := range r.channels {
		if ch.ApplicationID == applicationID {
			n++
		}
	}
	return n
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  map[uuid.UUID]domain.Message
	clock     *storeClock
	schedules *fakeInterviewRepo
}

func newFakeMessageRepo(clock *storeClock, schedules *fakeInterviewRepo) *fakeMessageRepo {
	return &fakeMessageRepo{
		messages:  make(map[uuid.UUID]domain.Message),
		clock:     clock,
		schedules: schedules,
	}
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.CreatedAt = r.clock.tick()
	r.messages[msg.ID] = *msg
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *fakeMessageRepo) ListByChannel(ctx context.Context, channelID uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cursor *domain.Message
	if before != nil {
		if m, ok := r.messages[*before]; ok {
			cursor = &m
		}
	}

	out := []domain.Message{}
	for _, m := range r.messages {
		if m.ChannelID != channelID {
			continue
		}
		if cursor != nil && !messageLess(m, *cursor) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return messageLess(out[i], out[j]) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func messageLess(a, b domain.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

// SyncInterviewStatus reads the schedule while holding the message lock, like
// the single UPDATE ... FROM the postgres repo issues.
func (r *fakeMessageRepo) SyncInterviewStatus(ctx context.Context, id, scheduleID uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok || m.Kind != domain.KindInterviewRequest {
		return nil, nil
	}
	schedule, err := r.schedules.GetByID(ctx, scheduleID)
	if err != nil || schedule == nil {
		return nil, err
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(m.Content), &body); err != nil {
		return nil, err
	}
	body["status"] = schedule.Status
	content, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	m.Content = string(content)
	r.messages[id] = m
	return &m, nil
}

func (r *fakeMessageRepo) AdvanceDelivery(ctx context.Context, channelID, recipientID uuid.UUID, to domain.DeliveryStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, m := range r.messages {
		if m.ChannelID != channelID || m.SenderID == recipientID || m.DeliveryStatus.Rank() >= to.Rank() {
			continue
		}
		m.DeliveryStatus = to
		r.messages[id] = m
		n++
	}
	return n, nil
}

func (r *fakeMessageRepo) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, id)
}

func (r *fakeMessageRepo) insert(msg domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.CreatedAt = r.clock.tick()
	r.messages[msg.ID] = msg
}

type fakeInterviewRepo struct {
	mu        sync.Mutex
	schedules map[uuid.UUID]domain.InterviewSchedule
}

func newFakeInterviewRepo() *fakeInterviewRepo {
	return &fakeInterviewRepo{schedules: make(map[uuid.UUID]domain.InterviewSchedule)}
}

func (r *fakeInterviewRepo) Create(ctx context.Context, s *domain.InterviewSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[s.ID] = *s
	return nil
}

func (r *fakeInterviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.InterviewSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *fakeInterviewRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InterviewStatus, at time.Time) (*domain.InterviewSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.schedules[id]
	if !ok {
		return nil, nil
	}
	s.Status = status
	s.UpdatedAt = at
	r.schedules[id] = s
	return &s, nil
}

func (r *fakeInterviewRepo) ListByParty(ctx context.Context, userID uuid.UUID) ([]domain.InterviewSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.InterviewSchedule{}
	for _, s := range r.schedules {
		if s.HasParty(userID) {
			out = append(out, s)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	newMsgs  []domain.Message
	updated  []domain.Message
	advanced []domain.DeliveryStatus
}

func (n *recordingNotifier) NotifyNewMessage(ch *domain.Channel, msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.newMsgs = append(n.newMsgs, *msg)
}

func (n *recordingNotifier) NotifyMessageUpdated(ch *domain.Channel, msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, *msg)
}

func (n *recordingNotifier) NotifyDeliveryAdvanced(ch *domain.Channel, readerID uuid.UUID, status domain.DeliveryStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.advanced = append(n.advanced, status)
}

// testEnv wires every service over in-memory stores with one recruiter, one
// applicant and one job owned by the recruiter.
type testEnv struct {
	users        *fakeUserRepo
	jobs         *fakeJobRepo
	applications *fakeApplicationRepo
	channelStore *fakeChannelRepo
	messages     *fakeMessageRepo
	interviews   *fakeInterviewRepo

	guard      *AccessGuard
	lifecycle  *ApplicationService
	channels   *ChannelService
	scheduler  *InterviewService
	notifier   *recordingNotifier
	logs       *observer.ObservedLogs
	recruiter  identity.Caller
	applicant  identity.Caller
	job        domain.JobPosting
	otherJob   domain.JobPosting
	stranger   identity.Caller
	background context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core).Sugar()

	env := &testEnv{
		users:        newFakeUserRepo(),
		jobs:         newFakeJobRepo(),
		applications: newFakeApplicationRepo(),
		interviews:   newFakeInterviewRepo(),
		notifier:     &recordingNotifier{},
		logs:         logs,
		recruiter:    identity.Caller{ID: uuid.New(), Role: domain.RoleRecruiter},
		applicant:    identity.Caller{ID: uuid.New(), Role: domain.RoleApplicant},
		stranger:     identity.Caller{ID: uuid.New(), Role: domain.RoleRecruiter},
		background:   context.Background(),
	}
	clock := newStoreClock()
	env.channelStore = newFakeChannelRepo(clock)
	env.messages = newFakeMessageRepo(clock, env.interviews)
	env.job = env.jobs.add(env.recruiter.ID)
	env.otherJob = env.jobs.add(env.stranger.ID)

	env.guard = NewAccessGuard(env.channelStore, env.applications)
	env.lifecycle = NewApplicationService(env.applications, env.jobs)
	env.channels = NewChannelService(env.channelStore, env.applications, env.jobs, env.messages, env.guard, log)
	env.channels.SetNotifier(env.notifier)
	env.scheduler = NewInterviewService(env.interviews, env.jobs, env.channels, log)
	return env
}

// engagedChannel applies, moves the application to interviewing and opens its channel.
func (e *testEnv) engagedChannel(t *testing.T) (*domain.Application, *domain.Channel) {
	t.Helper()
	app, err := e.lifecycle.Apply(e.background, e.applicant, e.job.ID)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := e.lifecycle.Transition(e.background, app.ID, e.recruiter.ID, domain.StatusInterviewing); err != nil {
		t.Fatalf("transition: %v", err)
	}
	res, err := e.channels.Create(e.background, app.ID, e.recruiter.ID)
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}
	return app, res.Channel
}
