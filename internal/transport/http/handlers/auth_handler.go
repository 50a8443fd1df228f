package handlers

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/vedran77/minilid/internal/identity"
	"github.com/vedran77/minilid/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	log         *zap.SugaredLogger
}

func NewAuthHandler(authService *service.AuthService, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if !decodeBody(w, r, &input) {
		return
	}

	resp, err := h.authService.Register(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered")
			return
		}
		writeServiceError(w, h.log, "register", identity.Caller{}, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decodeBody(w, r, &input) {
		return
	}

	resp, err := h.authService.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
			return
		}
		writeServiceError(w, h.log, "login", identity.Caller{}, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
