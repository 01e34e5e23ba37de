package payment

import (
	"context"

	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/domain/application"
)

// Disabled stands in when no Stripe key is configured. Fee operations are
// refused instead of failing at startup.
type Disabled struct{}

func (Disabled) CreateFeeIntent(context.Context, application.FeeIntentRequest) (*application.FeeIntent, error) {
	return nil, apperr.Forbidden("payments are not configured")
}

func (Disabled) RetrieveFeeIntent(context.Context, string) (*application.FeeIntent, error) {
	return nil, apperr.Forbidden("payments are not configured")
}

func (Disabled) IntentSucceeded(context.Context, string) (bool, error) {
	return false, apperr.Forbidden("payments are not configured")
}

func (Disabled) ParseWebhook([]byte, string) (string, error) {
	return "", apperr.Forbidden("payment webhook is not configured")
}
