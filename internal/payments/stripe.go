package payments

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// StripeProvider implements Provider over Stripe PaymentIntents, for
// deployments that settle through Stripe instead of Razorpay. Stripe has
// no client-side signature flow, so Verify always fetches the intent.
type StripeProvider struct {
	Currency string
}

// NewStripeProvider sets the package-level stripe key once at startup.
func NewStripeProvider(apiKey string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{Currency: "inr"}
}

func (s *StripeProvider) CreateOrder(_ context.Context, amount int64, notes map[string]string) (Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount * 100),
		Currency: stripe.String(s.Currency),
	}
	for k, v := range notes {
		params.AddMetadata(k, v)
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return Order{}, fmt.Errorf("payments: stripe create: %w", err)
	}
	return Order{ID: pi.ID, Amount: pi.Amount, Currency: string(pi.Currency), Notes: notes}, nil
}

func (s *StripeProvider) Verify(_ context.Context, paymentID, _, _ string) (Verification, error) {
	pi, err := paymentintent.Get(paymentID, nil)
	if err != nil {
		return Verification{}, fmt.Errorf("payments: stripe fetch: %w", err)
	}
	valid := pi.Status == stripe.PaymentIntentStatusSucceeded ||
		pi.Status == stripe.PaymentIntentStatusRequiresCapture
	return Verification{Valid: valid, Method: "fetch", Status: string(pi.Status)}, nil
}
