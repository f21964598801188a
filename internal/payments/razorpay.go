package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RazorpayClient talks to the Razorpay orders/payments REST API. Only the
// two calls this core needs are implemented.
type RazorpayClient struct {
	Endpoint  string
	KeyID     string
	KeySecret string
	Currency  string
	HTTP      *http.Client
}

func NewRazorpayClient(endpoint, keyID, keySecret string) (*RazorpayClient, error) {
	if keyID == "" || keySecret == "" {
		return nil, errors.New("payments: razorpay credentials not configured")
	}
	if endpoint == "" {
		endpoint = "https://api.razorpay.com"
	}
	return &RazorpayClient{
		Endpoint:  endpoint,
		KeyID:     keyID,
		KeySecret: keySecret,
		Currency:  "INR",
		HTTP:      &http.Client{Timeout: 5 * time.Second},
	}, nil
}

// CreateOrder registers an order for the given amount in rupees.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amount int64, notes map[string]string) (Order, error) {
	body := map[string]any{
		"amount":   amount * 100, // paise
		"currency": c.Currency,
		"receipt":  fmt.Sprintf("receipt_%d", time.Now().UnixMilli()),
		"notes":    notes,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return Order{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/v1/orders", bytes.NewReader(b))
	if err != nil {
		return Order{}, err
	}
	req.SetBasicAuth(c.KeyID, c.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("payments: create order: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Order{}, fmt.Errorf("payments: create order status %d", resp.StatusCode)
	}
	var out Order
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Order{}, err
	}
	return out, nil
}

type fetchedPayment struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func (c *RazorpayClient) fetchPayment(ctx context.Context, paymentID string) (fetchedPayment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return fetchedPayment{}, err
	}
	req.SetBasicAuth(c.KeyID, c.KeySecret)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fetchedPayment{}, fmt.Errorf("payments: fetch payment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fetchedPayment{}, fmt.Errorf("payments: fetch payment status %d", resp.StatusCode)
	}
	var out fetchedPayment
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fetchedPayment{}, err
	}
	return out, nil
}

// Verify checks a payment. With a signature and order id present the
// check is pure HMAC and needs no network call; otherwise the payment's
// recorded status is fetched and trusted.
func (c *RazorpayClient) Verify(ctx context.Context, paymentID, orderID, signature string) (Verification, error) {
	if paymentID == "" {
		return Verification{}, errors.New("payments: paymentID is required")
	}

	if signature != "" && orderID != "" {
		return Verification{
			Valid:  verifySignature(c.KeySecret, orderID, paymentID, signature),
			Method: "signature",
		}, nil
	}

	p, err := c.fetchPayment(ctx, paymentID)
	if err != nil {
		return Verification{}, err
	}
	if orderID != "" && p.OrderID != "" && p.OrderID != orderID {
		return Verification{Valid: false, Method: "fetch", Reason: "order_id_mismatch", Status: p.Status}, nil
	}
	valid := p.Status == "captured" || p.Status == "authorized"
	return Verification{Valid: valid, Method: "fetch", Status: p.Status}, nil
}

// verifySignature recomputes HMAC-SHA256(orderID|paymentID) and compares
// in constant time.
func verifySignature(secret, orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
