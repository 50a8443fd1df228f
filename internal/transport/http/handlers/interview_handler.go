package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedran77/minilid/internal/domain"
	"github.com/vedran77/minilid/internal/service"
)

type InterviewHandler struct {
	interviewService *service.InterviewService
	secret           []byte
	log              *zap.SugaredLogger
}

func NewInterviewHandler(interviewService *service.InterviewService, jwtSecret string, log *zap.SugaredLogger) *InterviewHandler {
	return &InterviewHandler{interviewService: interviewService, secret: []byte(jwtSecret), log: log}
}

type updateInterviewRequest struct {
	Status    domain.InterviewStatus `json:"status"`
	MessageID *uuid.UUID             `json:"message_id,omitempty"`
}

func (h *InterviewHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r, h.secret)
	if !ok {
		return
	}

	var input service.ScheduleInput
	if !decodeBody(w, r, &input) {
		return
	}

	res, err := h.interviewService.Schedule(r.Context(), caller.ID, input)
	if err != nil {
		if input.ChannelID != nil {
			writeChannelError(w, h.log, "schedule interview", caller, err)
			return
		}
		writeServiceError(w, h.log, "schedule interview", caller, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (h *InterviewHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r, h.secret)
	if !ok {
		return
	}

	schedules, err := h.interviewService.ListMine(r.Context(), caller.ID)
	if err != nil {
		writeServiceError(w, h.log, "list interviews", caller, err)
		return
	}
	if schedules == nil {
		schedules = []domain.InterviewSchedule{}
	}

	writeJSON(w, http.StatusOK, schedules)
}

func (h *InterviewHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r, h.secret)
	if !ok {
		return
	}
	scheduleID, ok := pathID(w, r, "id", "interview")
	if !ok {
		return
	}

	var req updateInterviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.interviewService.UpdateStatus(r.Context(), caller.ID, scheduleID, req.Status, req.MessageID)
	if err != nil {
		writeServiceError(w, h.log, "update interview", caller, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
