package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"payshield-service/internal/logger"
	"payshield-service/internal/services"
)

// WebhookHandler exposes the provider notification endpoints. Internal
// failures are acknowledged with a neutral 200 so the gateway does not
// retry-storm; only an authentication failure is rejected.
type WebhookHandler struct {
	Ozow    *services.OzowService
	Payfast *services.PayfastService
}

func NewWebhookHandler(ozow *services.OzowService, payfast *services.PayfastService) *WebhookHandler {
	return &WebhookHandler{Ozow: ozow, Payfast: payfast}
}

// OzowNotify handles POST /webhook/ozow. Hash mismatch is a 400;
// everything else, including internal failure, acknowledges with 200.
func (h *WebhookHandler) OzowNotify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusOK, "OK")
		return
	}

	_, err := h.Ozow.HandleNotification(c.Request.PostForm)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			c.String(http.StatusBadRequest, "hash mismatch")
			return
		}
		log := logger.WithComponent("webhook")
		log.Error().Err(err).Msg("ozow notification failed")
	}
	c.String(http.StatusOK, "OK")
}

// PayfastNotify handles POST /webhook/payfast. The signature is verified
// before the acknowledgment goes out; the write path stays idempotent so
// a delivery retried around a slow response cannot double-credit.
func (h *WebhookHandler) PayfastNotify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusOK, "OK")
		return
	}

	_, err := h.Payfast.HandleNotification(c.Request.PostForm)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			c.String(http.StatusBadRequest, "signature mismatch")
			return
		}
		log := logger.WithComponent("webhook")
		log.Error().Err(err).Msg("payfast notification failed")
	}
	c.String(http.StatusOK, "OK")
}
