// Package gateway implements the Flutterwave payment client: hosted-checkout
// initialization and transaction verification. The service layer owns the
// decision of what to do with a verified transaction; this package only
// speaks the wire contract.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const statusSuccessful = "successful"

// Client talks to the Flutterwave v3 API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient creates a gateway client. Calls time out after the given
// duration and fail closed.
func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Customer is the payer contact info shown on the hosted checkout page.
type Customer struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber"`
	Name        string `json:"name"`
}

// Customizations control the checkout page branding.
type Customizations struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PaymentRequest initializes a hosted checkout session.
type PaymentRequest struct {
	TxRef          string         `json:"tx_ref"`
	Amount         string         `json:"amount"`
	Currency       string         `json:"currency"`
	RedirectURL    string         `json:"redirect_url"`
	Customer       Customer       `json:"customer"`
	Customizations Customizations `json:"customizations"`
}

type paymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

// CreatePayment initializes a checkout session and returns the hosted
// payment link the customer is redirected to.
func (c *Client) CreatePayment(ctx context.Context, req *PaymentRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("payment init request failed: %w", err)
	}
	defer resp.Body.Close()

	var payment paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return "", fmt.Errorf("failed to decode payment response: %w", err)
	}

	if payment.Status != "success" || payment.Data.Link == "" {
		return "", fmt.Errorf("gateway rejected payment init: %s", payment.Message)
	}

	return payment.Data.Link, nil
}

// VerifyData is the transaction detail echoed by the gateway.
type VerifyData struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	TxRef  string `json:"tx_ref"`
}

// VerifyResult is the gateway's answer to a transaction-verify call.
type VerifyResult struct {
	Status string     `json:"status"`
	Data   VerifyData `json:"data"`
}

// Successful reports whether the verification should be trusted for the
// given local reference: the call succeeded, the transaction settled, and
// the echoed reference matches what we stored.
func (r *VerifyResult) Successful(txRef string) bool {
	return r.Status == "success" && r.Data.Status == statusSuccessful && r.Data.TxRef == txRef
}

// VerifyTransaction queries the gateway's verify endpoint for a transaction.
// Safe to call repeatedly; it never mutates anything.
func (c *Client) VerifyTransaction(ctx context.Context, transactionID string) (*VerifyResult, error) {
	url := fmt.Sprintf("%s/transactions/%s/verify", c.baseURL, transactionID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("verify request failed: %w", err)
	}
	defer resp.Body.Close()

	var result VerifyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}

	return &result, nil
}
