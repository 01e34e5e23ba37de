package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/domain/application"
)

const maxWebhookBytes = 64 << 10

type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (string, error)
}

type IntentSettler interface {
	SettleIntent(ctx context.Context, intentID string) (*application.Entity, error)
}

type PaymentHandler struct {
	parser  WebhookParser
	settler IntentSettler
	logger  *slog.Logger
}

func NewPaymentHandler(parser WebhookParser, settler IntentSettler, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{parser: parser, settler: settler, logger: logger}
}

// Webhook settles the fee for a payment_intent.succeeded callback. Events
// for intents this service never issued are acknowledged and ignored.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		badRequest(c, "unreadable webhook body")
		return
	}
	intentID, err := h.parser.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if intentID == "" {
		c.JSON(http.StatusOK, gin.H{"message": "event ignored"})
		return
	}

	app, err := h.settler.SettleIntent(c.Request.Context(), intentID)
	if apperr.Is(err, apperr.KindNotFound) {
		h.logger.Warn("webhook for unknown payment intent", "payment_intent", intentID)
		c.JSON(http.StatusOK, gin.H{"message": "event ignored"})
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "application fee settled", "applicationId": app.ID})
}
