package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/domain/application"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var _ application.PaymentProvider = (*StripeProvider)(nil)

type fakeIntents struct {
	lastNew *stripe.PaymentIntentParams
	status  stripe.PaymentIntentStatus
	err     error
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastNew = params
	return &stripe.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret_abc"}, nil
}

func (f *fakeIntents) Get(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.PaymentIntent{ID: id, ClientSecret: id + "_secret", Status: f.status}, nil
}

func TestCreateFeeIntent(t *testing.T) {
	fake := &fakeIntents{}
	p := &StripeProvider{intents: fake}

	intent, err := p.CreateFeeIntent(context.Background(), application.FeeIntentRequest{
		ApplicationID:  "app-1",
		ApplicantEmail: "b@example.com",
		AmountMinor:    1000,
		Currency:       "USD",
	})
	require.NoError(t, err)
	require.Equal(t, "pi_123", intent.ID)
	require.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	require.Equal(t, int64(1000), *fake.lastNew.Amount)
	require.Equal(t, "usd", *fake.lastNew.Currency)
	require.Equal(t, "app-1", fake.lastNew.Metadata["application_id"])

	_, err = p.CreateFeeIntent(context.Background(), application.FeeIntentRequest{AmountMinor: 0, Currency: "usd"})
	require.Error(t, err)

	fake.err = errors.New("boom")
	_, err = p.CreateFeeIntent(context.Background(), application.FeeIntentRequest{AmountMinor: 1000, Currency: "usd"})
	require.Error(t, err)
}

func TestIntentSucceeded(t *testing.T) {
	fake := &fakeIntents{status: stripe.PaymentIntentStatusRequiresPaymentMethod}
	p := &StripeProvider{intents: fake}

	ok, err := p.IntentSucceeded(context.Background(), "pi_1")
	require.NoError(t, err)
	require.False(t, ok)

	fake.status = stripe.PaymentIntentStatusSucceeded
	ok, err = p.IntentSucceeded(context.Background(), "pi_1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRetrieveFeeIntent(t *testing.T) {
	fake := &fakeIntents{status: stripe.PaymentIntentStatusRequiresPaymentMethod}
	p := &StripeProvider{intents: fake}

	intent, err := p.RetrieveFeeIntent(context.Background(), "pi_7")
	require.NoError(t, err)
	require.Equal(t, "pi_7_secret", intent.ClientSecret)
	require.False(t, intent.Succeeded)
	require.False(t, intent.Canceled)

	fake.status = stripe.PaymentIntentStatusCanceled
	intent, err = p.RetrieveFeeIntent(context.Background(), "pi_7")
	require.NoError(t, err)
	require.True(t, intent.Canceled)
}

func signed(t *testing.T, secret, payload string) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return sp.Header, sp.Payload
}

func TestParseWebhook(t *testing.T) {
	p := &StripeProvider{webhookSecret: "whsec_test"}

	header, body := signed(t, "whsec_test", `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_42","object":"payment_intent","status":"succeeded"}}}`)
	id, err := p.ParseWebhook(body, header)
	require.NoError(t, err)
	require.Equal(t, "pi_42", id)

	header, body = signed(t, "whsec_test", `{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)
	id, err = p.ParseWebhook(body, header)
	require.NoError(t, err)
	require.Empty(t, id)

	header, body = signed(t, "whsec_other", `{"id":"evt_3","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)
	_, err = p.ParseWebhook(body, header)
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestParseWebhookWithoutSecret(t *testing.T) {
	p := &StripeProvider{}
	_, err := p.ParseWebhook([]byte(`{}`), "t=1,v1=abc")
	require.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestNewStripeProviderRequiresKey(t *testing.T) {
	_, err := NewStripeProvider(" ", "")
	require.Error(t, err)
}

func TestDisabledRefusesFeeOperations(t *testing.T) {
	var p Disabled
	_, err := p.CreateFeeIntent(context.Background(), application.FeeIntentRequest{AmountMinor: 1000, Currency: "usd"})
	require.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = p.RetrieveFeeIntent(context.Background(), "pi_1")
	require.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = p.IntentSucceeded(context.Background(), "pi_1")
	require.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = p.ParseWebhook(nil, "")
	require.True(t, apperr.Is(err, apperr.KindForbidden))
}
