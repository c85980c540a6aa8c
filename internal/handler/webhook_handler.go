package handler

import (
	"io"
	"net/http"

	"pixgate/internal/service"
)

const maxCallbackBytes = 1 << 20

// WebhookHandler receives provider callbacks and the test harness payloads.
type WebhookHandler struct {
	webhookService *service.WebhookService
}

func NewWebhookHandler(webhookService *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// Cashin relays one provider callback. Duplicate deliveries are
// acknowledged with success so the provider stops retrying.
func (h *WebhookHandler) Cashin(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r)
}

// TestWebhook accepts synthesized callbacks from test scripts. It runs the
// exact same relay path as the production endpoint, field-name quirks
// included.
func (h *WebhookHandler) TestWebhook(w http.ResponseWriter, r *http.Request) {
	h.relay(w, r)
}

func (h *WebhookHandler) relay(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "unreadable request body")
		return
	}
	defer r.Body.Close()

	result, err := h.webhookService.Relay(r.Context(), raw)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
