package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"pixgate/internal/service"
	"pixgate/internal/util"
)

// Machine-readable error codes. Clients branch on these, never on messages.
const (
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeNotAdmin            = "NOT_ADMIN"
	CodeNoToken             = "NO_TOKEN"
	CodeMissingToken        = "MISSING_TOKEN"
	CodeInvalidSession      = "INVALID_SESSION"
	CodeSessionAlreadyEnded = "SESSION_ALREADY_ENDED"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeNotApproved         = "NOT_APPROVED"
	CodeNotFound            = "NOT_FOUND"
	CodeEmailTaken          = "EMAIL_TAKEN"
	CodeInvalidKey          = "INVALID_KEY"
	CodeKeyExpired          = "KEY_EXPIRED"
	CodeIPNotAllowed        = "IP_NOT_ALLOWED"
	CodeScopeDenied         = "SCOPE_DENIED"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeServerError         = "SERVER_ERROR"
)

// Response is the envelope every JSON endpoint returns.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Success: true, Data: data}); err != nil {
		util.Error("Failed to encode response", util.ErrorField(err))
	}
}

func respondWithError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Success: false, Code: code, Error: message}); err != nil {
		util.Error("Failed to encode error response", util.ErrorField(err))
	}
}

// respondWithServiceError maps service sentinels onto status codes and the
// fixed error-code vocabulary. Unrecognized errors are logged and collapse
// to a generic internal error so no detail leaks to the client.
func respondWithServiceError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		util.Error("Request failed", util.ErrorField(err))
		message = "internal server error"
	}
	respondWithError(w, status, code, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, CodeInvalidCredentials
	case errors.Is(err, service.ErrAccountNotApproved):
		return http.StatusForbidden, CodeNotApproved
	case errors.Is(err, service.ErrNotBackofficeRole):
		return http.StatusForbidden, CodeNotAdmin
	case errors.Is(err, service.ErrSessionAlreadyEnded):
		return http.StatusBadRequest, CodeSessionAlreadyEnded
	case errors.Is(err, service.ErrInvalidSession):
		return http.StatusBadRequest, CodeInvalidSession
	case errors.Is(err, service.ErrSellerNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, CodeEmailTaken
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrBadScopes),
		errors.Is(err, service.ErrBadIPWhitelist),
		errors.Is(err, service.ErrMissingTransactionID),
		errors.Is(err, service.ErrMissingValue):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, service.ErrInvalidKey):
		return http.StatusUnauthorized, CodeInvalidKey
	case errors.Is(err, service.ErrKeyExpired):
		return http.StatusUnauthorized, CodeKeyExpired
	case errors.Is(err, service.ErrIPNotAllowed):
		return http.StatusForbidden, CodeIPNotAllowed
	case errors.Is(err, service.ErrScopeDenied):
		return http.StatusForbidden, CodeScopeDenied
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
