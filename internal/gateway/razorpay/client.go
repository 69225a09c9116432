// Package razorpay implements port.PaymentGateway against the Razorpay Orders API.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nikolayk812/shopflow/internal/port"
)

const (
	DefaultBaseURL = "https://api.razorpay.com"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	// HTTPClient overrides the default client; its timeout still applies on top of the caller's context.
	HTTPClient *http.Client
}

type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" || cfg.KeySecret == "" {
		return nil, fmt.Errorf("razorpay: key id and secret are required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: cfg.KeySecret,
		http:      httpClient,
	}, nil
}

type createOrderPayload struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderPayload struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type errorPayload struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder registers an order with the gateway. The returned ID is what the checkout widget
// and the payment callback refer to.
func (c *Client) CreateOrder(ctx context.Context, req port.GatewayOrderRequest) (port.GatewayOrder, error) {
	if req.Amount <= 0 {
		return port.GatewayOrder{}, fmt.Errorf("razorpay: amount must be positive, got %d", req.Amount)
	}

	endpoint, err := url.JoinPath(c.baseURL, "v1", "orders")
	if err != nil {
		return port.GatewayOrder{}, fmt.Errorf("url.JoinPath: %w", err)
	}

	payload, err := json.Marshal(createOrderPayload{
		Amount:   req.Amount,
		Currency: req.Currency.String(),
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return port.GatewayOrder{}, fmt.Errorf("json.Marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return port.GatewayOrder{}, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return port.GatewayOrder{}, fmt.Errorf("razorpay: create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return port.GatewayOrder{}, fmt.Errorf("razorpay: create order status %d: %s", resp.StatusCode, drainError(resp.Body))
	}

	var out orderPayload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return port.GatewayOrder{}, fmt.Errorf("razorpay: decode order: %w", err)
	}
	if out.ID == "" {
		return port.GatewayOrder{}, fmt.Errorf("razorpay: order without id")
	}

	return port.GatewayOrder{
		ID:       out.ID,
		Amount:   out.Amount,
		Currency: out.Currency,
		Receipt:  out.Receipt,
		Status:   out.Status,
	}, nil
}

func drainError(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))

	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error.Description != "" {
		if payload.Error.Code != "" {
			return payload.Error.Code + ": " + payload.Error.Description
		}
		return payload.Error.Description
	}

	return strings.TrimSpace(string(raw))
}
