package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"commerce-service/internal/refnum"
	"commerce-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// webhookPayload is the gateway's push notification body.
type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
		TxRef  string `json:"tx_ref"`
	} `json:"data"`
}

// validSignature compares the verif-hash header against the configured
// shared secret in constant time.
func validSignature(signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(signature), []byte(secret)) == 1
}

// paymentWebhook handles gateway push notifications. After the signature
// check it always acknowledges 200, even when local processing fails: the
// gateway retries until it sees success, and reconciliation is idempotent,
// so a later verify call or retry converges on the same state.
func (h *Handler) paymentWebhook(c *gin.Context) {
	logger := util.GetLogger()

	if !validSignature(c.GetHeader("verif-hash"), h.webhookHash) {
		util.WebhooksRejectedTotal.Inc()
		logger.Error("Invalid webhook signature")
		c.Status(http.StatusUnauthorized)
		return
	}

	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		logger.Error("Malformed webhook payload", zap.Error(err))
		c.Status(http.StatusOK)
		return
	}

	logger.Info("Received webhook",
		zap.String("event", payload.Event),
		zap.String("tx_ref", payload.Data.TxRef),
		zap.String("status", payload.Data.Status))

	if payload.Data.Status == "successful" {
		transactionID := strconv.FormatInt(payload.Data.ID, 10)
		ctx := c.Request.Context()

		var err error
		switch {
		case refnum.IsOrderRef(payload.Data.TxRef):
			_, err = h.orders.VerifyPayment(ctx, payload.Data.TxRef, transactionID)
		case refnum.IsBookingRef(payload.Data.TxRef):
			_, err = h.bookings.VerifyPayment(ctx, payload.Data.TxRef, transactionID)
		default:
			logger.Warn("Webhook for unknown reference", zap.String("tx_ref", payload.Data.TxRef))
		}
		if err != nil {
			logger.Error("Webhook processing failed",
				zap.String("tx_ref", payload.Data.TxRef),
				zap.Error(err))
		}
	}

	c.Status(http.StatusOK)
}
