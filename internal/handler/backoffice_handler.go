package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pixgate/internal/auth"
	"pixgate/internal/service"
	"pixgate/internal/util"
)

// BackofficeHandler serves the operator application: its own login under the
// backoffice cookie namespace, user administration, and impersonation.
type BackofficeHandler struct {
	*AuthHandler
	userService          *service.UserService
	impersonationService *service.ImpersonationService
}

func NewBackofficeHandler(
	authHandler *AuthHandler,
	userService *service.UserService,
	impersonationService *service.ImpersonationService,
) *BackofficeHandler {
	return &BackofficeHandler{
		AuthHandler:          authHandler,
		userService:          userService,
		impersonationService: impersonationService,
	}
}

func (h *BackofficeHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, auth.KindBackoffice)
}

func (h *BackofficeHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r, auth.KindBackoffice)
}

// Me returns the resolved operator as a flat object, not wrapped in the
// usual envelope. The backoffice frontend consumes it directly.
func (h *BackofficeHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(identity); err != nil {
		util.Error("Failed to encode identity", util.ErrorField(err))
	}
}

// ListUsers lists users by status for the operator view.
func (h *BackofficeHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	status, limit := listParams(r)

	users, err := h.userService.ListByStatus(r.Context(), status, limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

// SearchUsers runs a free-text query over the user search index.
func (h *BackofficeHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "q is required")
		return
	}

	results, err := h.userService.Search(r.Context(), query, 0)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}

type startImpersonationRequest struct {
	SellerID string `json:"sellerId"`
}

// StartImpersonation issues a support token for one admin+seller pair.
func (h *BackofficeHandler) StartImpersonation(w http.ResponseWriter, r *http.Request) {
	var req startImpersonationRequest
	if err := decodeJSON(r, &req); err != nil || req.SellerID == "" {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "sellerId is required")
		return
	}

	admin := IdentityFrom(r.Context())
	res, err := h.impersonationService.Start(r.Context(), admin.ID, req.SellerID, clientIP(r), r.UserAgent())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

// ValidateImpersonation checks an impersonation token passed as ?token=.
func (h *BackofficeHandler) ValidateImpersonation(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, CodeNoToken, "token is required")
		return
	}

	session, err := h.impersonationService.Validate(r.Context(), token)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, session)
}

// ImpersonationHistory lists the caller's recent impersonation activity
// from the audit trail.
func (h *BackofficeHandler) ImpersonationHistory(w http.ResponseWriter, r *http.Request) {
	admin := IdentityFrom(r.Context())

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	history, err := h.impersonationService.History(r.Context(), admin.ID, limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, history)
}

type endImpersonationRequest struct {
	Token string `json:"token"`
}

// EndImpersonation terminates an active session. Ending twice surfaces
// SESSION_ALREADY_ENDED, never silent success.
func (h *BackofficeHandler) EndImpersonation(w http.ResponseWriter, r *http.Request) {
	var req endImpersonationRequest
	if err := decodeJSON(r, &req); err != nil || req.Token == "" {
		respondWithError(w, http.StatusBadRequest, CodeNoToken, "token is required")
		return
	}

	if err := h.impersonationService.End(r.Context(), req.Token, clientIP(r), r.UserAgent()); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}
