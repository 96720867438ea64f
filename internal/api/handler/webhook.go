// internal/api/handler/webhook.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"billing-api/internal/service"
	"billing-api/internal/util"
)

// WebhookHandler handles signed payment notifications from the external
// payment provider.
type WebhookHandler struct {
	service service.WebhookService
	logger  *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(svc service.WebhookService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: svc,
		logger:  logger,
	}
}

// Receive handles the payment webhook. A replayed notification is
// acknowledged without applying any state change, so the provider stops
// retrying it.
// POST /v1/payment/webhook
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var payload service.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, h.logger, util.ErrSignatureMismatch)
		return
	}

	transaction, err := h.service.Reconcile(r.Context(), payload)
	if err != nil {
		if util.IsError(err, util.ErrDuplicateTransaction) {
			h.logger.Info("duplicate payment notification acknowledged",
				"transaction_id", payload.TransactionID)
			respondWithJSON(w, h.logger, http.StatusOK, map[string]string{"status": "already processed"})
			return
		}
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, transaction)
}
