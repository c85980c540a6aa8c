package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pixgate/internal/model"
	"pixgate/internal/service"
)

// AdminHandler serves the dashboard-side admin surface: listing users and
// approving or rejecting pending accounts.
type AdminHandler struct {
	userService *service.UserService
}

func NewAdminHandler(userService *service.UserService) *AdminHandler {
	return &AdminHandler{userService: userService}
}

func listParams(r *http.Request) (string, int) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = model.StatusPending
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return status, limit
}

// ListUsers lists users by status, defaulting to pending.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	status, limit := listParams(r)

	users, err := h.userService.ListByStatus(r.Context(), status, limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, true)
}

func (h *AdminHandler) RejectUser(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, false)
}

func (h *AdminHandler) setStatus(w http.ResponseWriter, r *http.Request, approve bool) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "user id is required")
		return
	}
	actor := IdentityFrom(r.Context())

	var err error
	if approve {
		err = h.userService.Approve(r.Context(), userID, actor.ID)
	} else {
		err = h.userService.Reject(r.Context(), userID, actor.ID)
	}
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	status := model.StatusRejected
	if approve {
		status = model.StatusApproved
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"user_id": userID, "status": status})
}
