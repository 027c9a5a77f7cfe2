package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// IntentRequest describes a charge intent to create. Amounts are integer
// minor units (cents).
type IntentRequest struct {
	AmountCents int64
	Currency    string
	Description string
	Metadata    map[string]string
}

// Intent is the created charge intent. ClientSecret is handed to the
// frontend to confirm the payment.
type Intent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Currency     string
}

// Provider creates charge intents with an external payment gateway.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
}

// GatewayError carries the gateway's user-safe message for a rejected
// request. Anything else about the gateway response stays internal.
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string {
	return e.Message
}

// StripeClient implements Provider against the Stripe REST API.
type StripeClient struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

var _ Provider = (*StripeClient)(nil)

// NewStripeClient constructs the default client. A nil http.Client gets a
// 10 second timeout.
func NewStripeClient(secretKey string, client *http.Client) *StripeClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &StripeClient{
		httpClient: client,
		baseURL:    "https://api.stripe.com/v1",
		secretKey:  secretKey,
	}
}

// CreateIntent posts a form-encoded payment_intents request.
func (c *StripeClient) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	if req.AmountCents <= 0 {
		return Intent{}, fmt.Errorf("amount must be positive")
	}

	data := url.Values{}
	data.Set("amount", strconv.FormatInt(req.AmountCents, 10))
	data.Set("currency", req.Currency)
	data.Set("automatic_payment_methods[enabled]", "true")
	if req.Description != "" {
		data.Set("description", req.Description)
	}
	for key, value := range req.Metadata {
		data.Set("metadata["+key+"]", value)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment_intents", strings.NewReader(data.Encode()))
	if err != nil {
		return Intent{}, fmt.Errorf("build intent request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Intent{}, fmt.Errorf("create intent request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Intent{}, fmt.Errorf("read intent response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var envelope struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
			return Intent{}, &GatewayError{Message: envelope.Error.Message}
		}
		return Intent{}, fmt.Errorf("create intent failed: status=%d", resp.StatusCode)
	}

	var created struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
		Amount       int64  `json:"amount"`
		Currency     string `json:"currency"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return Intent{}, fmt.Errorf("decode intent response: %w", err)
	}

	return Intent{
		ID:           created.ID,
		ClientSecret: created.ClientSecret,
		AmountCents:  created.Amount,
		Currency:     created.Currency,
	}, nil
}
