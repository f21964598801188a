// Package payments wraps the payment provider: order creation up front,
// verification after the rider pays. Settlement itself happens out-of-band.
package payments

import "context"

// Order is a provider-side payment order created before the rider pays.
type Order struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"` // smallest currency unit
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Verification is the outcome of checking a payment. Method records how
// the decision was made: "signature" for a cryptographic check,
// "fetch" for an authoritative status lookup.
type Verification struct {
	Valid  bool   `json:"valid"`
	Method string `json:"method"`
	Reason string `json:"reason,omitempty"`
	Status string `json:"status,omitempty"`
}

// Provider is the boundary contract for a payment backend. Verify prefers
// a signature check when one is supplied and falls back to fetching the
// payment's recorded status otherwise.
type Provider interface {
	CreateOrder(ctx context.Context, amount int64, notes map[string]string) (Order, error)
	Verify(ctx context.Context, paymentID, orderID, signature string) (Verification, error)
}
