package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vedran77/minilid/internal/domain"
	"github.com/vedran77/minilid/internal/service"
)

type ApplicationHandler struct {
	applicationService *service.ApplicationService
	secret             []byte
	log                *zap.SugaredLogger
}

func NewApplicationHandler(applicationService *service.ApplicationService, jwtSecret string, log *zap.SugaredLogger) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService, secret: []byte(jwtSecret), log: log}
}

type transitionRequest struct {
	Status domain.ApplicationStatus `json:"status"`
}

func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r, h.secret)
	if !ok {
		return
	}
	jobID, ok := pathID(w, r, "id", "job")
	if !ok {
		return
	}

	app, err := h.applicationService.Apply(r.Context(), caller, jobID)
	if err != nil {
		writeServiceError(w, h.log, "apply", caller, err)
		return
	}

	writeJSON(w, http.StatusCreated, app)
}

func (h *ApplicationHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r, h.secret)
	if !ok {
		return
	}
	jobID, ok := pathID(w, r, "id", "job")
	if !ok {
		return
	}

	apps, err := h.applicationService.ListForJob(r.Context(), jobID, caller.ID)
	if err != nil {
		writeServiceError(w, h.log, "list job applications", caller, err)
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}

	writeJSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r, h.secret)
	if !ok {
		return
	}

	apps, err := h.applicationService.ListMine(r.Context(), caller.ID)
	if err != nil {
		writeServiceError(w, h.log, "list applications", caller, err)
		return
	}
	if apps == nil {
		apps = []domain.Application{}
	}

	writeJSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r, h.secret)
	if !ok {
		return
	}
	applicationID, ok := pathID(w, r, "id", "application")
	if !ok {
		return
	}

	app, err := h.applicationService.Get(r.Context(), applicationID, caller.ID)
	if err != nil {
		writeServiceError(w, h.log, "get application", caller, err)
		return
	}

	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) Transition(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r, h.secret)
	if !ok {
		return
	}
	applicationID, ok := pathID(w, r, "id", "application")
	if !ok {
		return
	}

	var req transitionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	app, err := h.applicationService.Transition(r.Context(), applicationID, caller.ID, req.Status)
	if err != nil {
		writeServiceError(w, h.log, "transition application", caller, err)
		return
	}

	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r, h.secret)
	if !ok {
		return
	}
	applicationID, ok := pathID(w, r, "id", "application")
	if !ok {
		return
	}

	if err := h.applicationService.Withdraw(r.Context(), applicationID, caller.ID); err != nil {
		writeServiceError(w, h.log, "withdraw application", caller, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
