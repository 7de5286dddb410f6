package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v78"
)

type fakeIntentAPI struct {
	newParams  *stripe.PaymentIntentParams
	newResult  *stripe.PaymentIntent
	newErr     error
	getID      string
	getResult  *stripe.PaymentIntent
	getErr     error
	newCalled  int
	getCalled  int
}

func (f *fakeIntentAPI) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.newCalled++
	f.newParams = params
	if f.newErr != nil {
		return nil, f.newErr
	}
	return f.newResult, nil
}

func (f *fakeIntentAPI) Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.getCalled++
	f.getID = id
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getResult, nil
}

type fakeRefundAPI struct {
	params *stripe.RefundParams
	result *stripe.Refund
	err    error
	called int
}

func (f *fakeRefundAPI) New(params *stripe.RefundParams) (*stripe.Refund, error) {
	f.called++
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestStripeProvider(t *testing.T, intents *fakeIntentAPI, refunds *fakeRefundAPI) *StripeProvider {
	t.Helper()
	provider, err := NewStripeProvider(StripeProviderConfig{
		Clients: &stripeClients{intents: intents, refunds: refunds},
		Clock: func() time.Time {
			return time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
		},
	})
	if err != nil {
		t.Fatalf("NewStripeProvider returned error: %v", err)
	}
	return provider
}

func TestNewStripeProviderRequiresAPIKey(t *testing.T) {
	if _, err := NewStripeProvider(StripeProviderConfig{}); err == nil {
		t.Fatalf("expected error when api key and clients are missing")
	}
}

func TestStripeProviderCreateIntent(t *testing.T) {
	intents := &fakeIntentAPI{
		newResult: &stripe.PaymentIntent{
			ID:           "pi_123",
			ClientSecret: "pi_123_secret",
			Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
			Amount:       1250,
			Currency:     stripe.CurrencyUSD,
		},
	}
	provider := newTestStripeProvider(t, intents, &fakeRefundAPI{})

	intent, err := provider.CreateIntent(context.Background(), IntentRequest{
		OrderID:        "order-1",
		Amount:         1250,
		Currency:       "USD",
		CustomerEmail:  "buyer@example.com",
		IdempotencyKey: "order-1-intent",
	})
	if err != nil {
		t.Fatalf("CreateIntent returned error: %v", err)
	}
	if intent.ID != "pi_123" || intent.ClientSecret != "pi_123_secret" {
		t.Fatalf("unexpected intent: %+v", intent)
	}
	if intent.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", intent.Status)
	}
	if intent.Currency != "USD" {
		t.Fatalf("expected USD currency, got %q", intent.Currency)
	}

	params := intents.newParams
	if params == nil {
		t.Fatalf("expected payment intent params to be captured")
	}
	if got := stripe.Int64Value(params.Amount); got != 1250 {
		t.Fatalf("expected amount 1250, got %d", got)
	}
	if got := stripe.StringValue(params.Currency); got != "usd" {
		t.Fatalf("expected lowercase currency, got %q", got)
	}
	if got := params.Metadata["orderId"]; got != "order-1" {
		t.Fatalf("expected order id metadata, got %q", got)
	}
	if got := stripe.StringValue(params.ReceiptEmail); got != "buyer@example.com" {
		t.Fatalf("expected receipt email, got %q", got)
	}
}

func TestStripeProviderCreateIntentRejectsNonPositiveAmount(t *testing.T) {
	provider := newTestStripeProvider(t, &fakeIntentAPI{}, &fakeRefundAPI{})
	if _, err := provider.CreateIntent(context.Background(), IntentRequest{Amount: 0, Currency: "USD"}); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestStripeProviderCreateIntentWrapsAPIError(t *testing.T) {
	apiErr := errors.New("stripe backend unavailable")
	provider := newTestStripeProvider(t, &fakeIntentAPI{newErr: apiErr}, &fakeRefundAPI{})
	_, err := provider.CreateIntent(context.Background(), IntentRequest{Amount: 100, Currency: "USD"})
	if err == nil || !errors.Is(err, apiErr) {
		t.Fatalf("expected wrapped api error, got %v", err)
	}
}

func TestStripeProviderRefundThenLooksUpDetails(t *testing.T) {
	intents := &fakeIntentAPI{
		getResult: &stripe.PaymentIntent{
			ID:       "pi_123",
			Status:   stripe.PaymentIntentStatusSucceeded,
			Amount:   1250,
			Currency: stripe.CurrencyUSD,
			LatestCharge: &stripe.Charge{
				Paid:           true,
				Captured:       true,
				Refunded:       true,
				Amount:         1250,
				AmountRefunded: 1250,
				Currency:       stripe.CurrencyUSD,
				Created:        time.Date(2024, time.February, 28, 9, 0, 0, 0, time.UTC).Unix(),
			},
		},
	}
	refunds := &fakeRefundAPI{result: &stripe.Refund{ID: "re_1"}}
	provider := newTestStripeProvider(t, intents, refunds)

	details, err := provider.Refund(context.Background(), RefundRequest{
		IntentID: "pi_123",
		Reason:   "requested_by_customer",
	})
	if err != nil {
		t.Fatalf("Refund returned error: %v", err)
	}
	if refunds.called != 1 {
		t.Fatalf("expected one refund call, got %d", refunds.called)
	}
	if got := stripe.StringValue(refunds.params.Reason); got != string(stripe.RefundReasonRequestedByCustomer) {
		t.Fatalf("unexpected refund reason %q", got)
	}
	if details.Status != StatusRefunded {
		t.Fatalf("expected refunded status, got %s", details.Status)
	}
	if !details.Captured || details.CapturedAt == nil || details.RefundedAt == nil {
		t.Fatalf("expected capture and refund timestamps, got %+v", details)
	}
}

func TestStripeProviderLookupPayment(t *testing.T) {
	intents := &fakeIntentAPI{
		getResult: &stripe.PaymentIntent{
			ID:       "pi_42",
			Status:   stripe.PaymentIntentStatusProcessing,
			Amount:   900,
			Currency: stripe.CurrencyEUR,
		},
	}
	provider := newTestStripeProvider(t, intents, &fakeRefundAPI{})

	details, err := provider.LookupPayment(context.Background(), "pi_42")
	if err != nil {
		t.Fatalf("LookupPayment returned error: %v", err)
	}
	if intents.getID != "pi_42" {
		t.Fatalf("expected lookup of pi_42, got %q", intents.getID)
	}
	if details.Status != StatusPending || details.Captured {
		t.Fatalf("unexpected details: %+v", details)
	}
	if details.Currency != "EUR" {
		t.Fatalf("expected EUR, got %q", details.Currency)
	}
}
