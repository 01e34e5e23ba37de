// Package payment talks to Stripe for the application fee.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/domain/application"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

const eventIntentSucceeded = "payment_intent.succeeded"

type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type StripeProvider struct {
	intents       intentAPI
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) (*StripeProvider, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("stripe secret key is required")
	}
	sc := client.New(secretKey, nil)
	return &StripeProvider{intents: sc.PaymentIntents, webhookSecret: webhookSecret}, nil
}

func (p *StripeProvider) CreateFeeIntent(ctx context.Context, req application.FeeIntentRequest) (*application.FeeIntent, error) {
	if req.AmountMinor <= 0 {
		return nil, errors.New("fee amount must be positive")
	}
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.AmountMinor),
		Currency:           stripe.String(strings.ToLower(req.Currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	params.AddMetadata("application_id", req.ApplicationID)
	if req.ApplicantEmail != "" {
		params.ReceiptEmail = stripe.String(req.ApplicantEmail)
	}

	pi, err := p.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return &application.FeeIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (p *StripeProvider) RetrieveFeeIntent(ctx context.Context, intentID string) (*application.FeeIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := p.intents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get payment intent: %w", err)
	}
	return &application.FeeIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Succeeded:    pi.Status == stripe.PaymentIntentStatusSucceeded,
		Canceled:     pi.Status == stripe.PaymentIntentStatusCanceled,
	}, nil
}

func (p *StripeProvider) IntentSucceeded(ctx context.Context, intentID string) (bool, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := p.intents.Get(intentID, params)
	if err != nil {
		return false, fmt.Errorf("stripe get payment intent: %w", err)
	}
	return pi.Status == stripe.PaymentIntentStatusSucceeded, nil
}

// ParseWebhook verifies the Stripe signature and returns the id of a
// succeeded payment intent. Other event types return an empty id.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (string, error) {
	if p.webhookSecret == "" {
		return "", apperr.Forbidden("payment webhook is not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return "", &apperr.Error{Kind: apperr.KindValidation, Message: "invalid webhook signature", Err: err}
	}
	if string(event.Type) != eventIntentSucceeded {
		return "", nil
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return "", apperr.Validation("malformed payment intent payload")
	}
	if pi.ID == "" {
		return "", apperr.Validation("payment intent id missing")
	}
	return pi.ID, nil
}
