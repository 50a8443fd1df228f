package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedran77/minilid/internal/domain"
	"github.com/vedran77/minilid/internal/service"
)

type ChannelHandler struct {
	channelService *service.ChannelService
	secret         []byte
	log            *zap.SugaredLogger
}

func NewChannelHandler(channelService *service.ChannelService, jwtSecret string, log *zap.SugaredLogger) *ChannelHandler {
	return &ChannelHandler{
		channelService: channelService,
		secret:         []byte(jwtSecret),
		log:            log,
	}
}

// Create answers 201 for a new channel and 200 when one already existed.
func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r, h.secret)
	if !ok {
		return
	}
	applicationID, ok := pathID(w, r, "id", "application")
	if !ok {
		return
	}

	res, err := h.channelService.Create(r.Context(), applicationID, caller.ID)
	if err != nil {
		writeServiceError(w, h.log, "create channel", caller, err)
		return
	}

	status := http.StatusCreated
	if res.AlreadyExists {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r, h.secret)
	if !ok {
		return
	}

	channels, err := h.channelService.ListMine(r.Context(), caller.ID)
	if err != nil {
		writeServiceError(w, h.log, "list channels", caller, err)
		return
	}
	if channels == nil {
		channels = []domain.Channel{}
	}

	writeJSON(w, http.StatusOK, channels)
}

func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r, h.secret)
	if !ok {
		return
	}
	channelID, ok := pathID(w, r, "id", "channel")
	if !ok {
		return
	}

	var before *uuid.UUID
	if raw := r.URL.Query().Get("before"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid before cursor")
			return
		}
		before = &id
	}

	view, err := h.channelService.Get(r.Context(), caller.ID, channelID, before, queryInt(r, "limit"))
	if err != nil {
		writeChannelError(w, h.log, "get channel", caller, err)
		return
	}
	if view.Messages == nil {
		view.Messages = []domain.Message{}
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *ChannelHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r, h.secret)
	if !ok {
		return
	}
	channelID, ok := pathID(w, r, "id", "channel")
	if !ok {
		return
	}

	var input service.PostMessageInput
	if !decodeBody(w, r, &input) {
		return
	}
	if input.Kind == "" {
		input.Kind = domain.KindText
	}

	msg, err := h.channelService.PostMessage(r.Context(), caller.ID, channelID, input)
	if err != nil {
		writeChannelError(w, h.log, "post message", caller, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}
