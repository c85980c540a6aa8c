package handler

import (
	"net/http"

	"pixgate/internal/service"
)

// PixHandler serves wallet balances and charge creation for sellers.
type PixHandler struct {
	walletService *service.WalletService
}

func NewPixHandler(walletService *service.WalletService) *PixHandler {
	return &PixHandler{walletService: walletService}
}

// Balance returns the caller's wallet, creating a zero wallet on first use.
func (h *PixHandler) Balance(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())

	wallet, err := h.walletService.Balance(r.Context(), identity.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"balance": wallet})
}

type createChargeRequest struct {
	Value         int64  `json:"value"`
	PayerName     string `json:"payerName"`
	PayerDocument string `json:"payerDocument"`
}

// CreateCharge asks the provider for a PIX QR code charge for the caller.
func (h *PixHandler) CreateCharge(w http.ResponseWriter, r *http.Request) {
	var req createChargeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}

	identity := IdentityFrom(r.Context())
	charge, err := h.walletService.CreateCharge(r.Context(), identity.ID, req.Value, req.PayerName, req.PayerDocument)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, charge)
}

// Cashin creates a charge for the account owning the presented API key.
func (h *PixHandler) Cashin(w http.ResponseWriter, r *http.Request) {
	var req createChargeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}

	key := APIKeyFrom(r.Context())
	charge, err := h.walletService.CreateCharge(r.Context(), key.UserID, req.Value, req.PayerName, req.PayerDocument)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, charge)
}

// ProviderBalance reads the upstream provider account balance. Admin only.
func (h *PixHandler) ProviderBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.walletService.ProviderBalance(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, balance)
}
