package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedran77/minilid/internal/identity"
	"github.com/vedran77/minilid/internal/logger"
	"github.com/vedran77/minilid/internal/service"
	"github.com/vedran77/minilid/pkg/validator"
)

// notAccessible is the single outward message for Forbidden and ChannelClosed.
const notAccessible = "This resource is not accessible"

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}

// resolveCaller runs identity resolution for a request and answers 401 itself
// when it fails.
func resolveCaller(w http.ResponseWriter, r *http.Request, secret []byte) (identity.Caller, bool) {
	caller, err := identity.ResolveCaller(secret, r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid token")
		return identity.Caller{}, false
	}
	return caller, true
}

func pathID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

// writeServiceError maps service error kinds onto HTTP responses. Forbidden and
// ChannelClosed share one response; the distinct kind is only logged.
func writeServiceError(w http.ResponseWriter, log *zap.SugaredLogger, op string, caller identity.Caller, err error) {
	var verr *service.ValidationError
	var terr *service.TransitionError

	switch {
	case errors.As(err, &verr):
		writeValidationErrors(w, verr.Fields)
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid token")
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrChannelClosed):
		log.Infow("access denied",
			logger.FieldOperation, op,
			logger.FieldUserID, caller.ID,
			logger.FieldError, err,
		)
		writeError(w, http.StatusForbidden, "NOT_ACCESSIBLE", notAccessible)
	case errors.As(err, &terr):
		writeError(w, http.StatusConflict, "INVALID_TRANSITION",
			"Cannot move application from "+string(terr.From)+" to "+string(terr.To))
	case errors.Is(err, service.ErrInvalidOperation):
		writeError(w, http.StatusConflict, "INVALID_OPERATION", "This action is not allowed in the current state")
	case errors.Is(err, service.ErrAlreadyApplied):
		writeError(w, http.StatusConflict, "ALREADY_APPLIED", "You have already applied to this job")
	case errors.Is(err, service.ErrPreconditionFailed):
		writeError(w, http.StatusPreconditionFailed, "PRECONDITION_FAILED", "The application is not in an engaged state")
	case errors.Is(err, service.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many messages, slow down")
	default:
		log.Errorw("request failed",
			logger.FieldOperation, op,
			logger.FieldUserID, caller.ID,
			logger.FieldError, err,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}

// writeChannelError also hides whether a channel exists at all.
func writeChannelError(w http.ResponseWriter, log *zap.SugaredLogger, op string, caller identity.Caller, err error) {
	if errors.Is(err, service.ErrNotFound) {
		log.Infow("access denied",
			logger.FieldOperation, op,
			logger.FieldUserID, caller.ID,
			logger.FieldError, err,
		)
		writeError(w, http.StatusForbidden, "NOT_ACCESSIBLE", notAccessible)
		return
	}
	writeServiceError(w, log, op, caller, err)
}
