package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pixgate/internal/service"
)

// APIKeyHandler lets dashboard users manage their API keys.
type APIKeyHandler struct {
	keyService *service.APIKeyService
}

func NewAPIKeyHandler(keyService *service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{keyService: keyService}
}

type createKeyRequest struct {
	Name        string     `json:"name"`
	Scopes      []string   `json:"scopes"`
	IPWhitelist []string   `json:"ipWhitelist,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// CreateKey issues a new key. The plaintext key appears in this response
// and nowhere else.
func (h *APIKeyHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}

	identity := IdentityFrom(r.Context())
	created, err := h.keyService.CreateKey(r.Context(), identity.ID, req.Name, req.Scopes, req.IPWhitelist, req.ExpiresAt)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// ListKeys lists the caller's keys.
func (h *APIKeyHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())

	keys, err := h.keyService.ListKeys(r.Context(), identity.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, keys)
}

// RevokeKey revokes one of the caller's keys.
func (h *APIKeyHandler) RevokeKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyID")
	if keyID == "" {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "key id is required")
		return
	}

	identity := IdentityFrom(r.Context())
	if err := h.keyService.RevokeKey(r.Context(), identity.ID, keyID); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"key_id": keyID, "status": "revoked"})
}
