// Package rest implements gateway.Gateway against an HTTP settlement API.
// The client serializes submissions as JSON, tags each with an idempotency
// key, retries transient failures (429 and 5xx) within limits and maps the
// API's error envelope onto the shared gateway error types.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yourorg/payment-processor/internal/gateway"
)

const (
	defaultRetryAttempts = 2
	defaultRetryDelay    = 250 * time.Millisecond
	defaultTimeout       = 10 * time.Second
)

// Config parameterizes a Client. Zero values fall back to defaults.
type Config struct {
	Name       string
	BaseURL    string
	HTTPClient *http.Client

	RetryAttempts int
	RetryDelay    time.Duration
}

// Client talks to one settlement backend over HTTP.
type Client struct {
	name          string
	baseURL       string
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
}

// New creates a Client for the given backend.
func New(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	retries := cfg.RetryAttempts
	if retries <= 0 {
		retries = defaultRetryAttempts
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	name := cfg.Name
	if name == "" {
		name = "rest"
	}
	return &Client{
		name:          name,
		baseURL:       cfg.BaseURL,
		httpClient:    client,
		retryAttempts: retries,
		retryDelay:    delay,
	}
}

// Name implements gateway.Gateway.
func (c *Client) Name() string { return c.name }

// Connect implements gateway.Gateway. The session is scoped to one payment
// operation; credentials are attached per request rather than held in any
// long-lived connection state.
func (c *Client) Connect(ctx context.Context, creds gateway.Credentials, env gateway.Environment) (gateway.Session, error) {
	if creds.Empty() {
		return nil, fmt.Errorf("%s: missing API key", c.name)
	}
	return &session{client: c, creds: creds, env: env}, nil
}

type session struct {
	client *Client
	creds  gateway.Credentials
	env    gateway.Environment
	closed bool
}

type chargeRequest struct {
	Amount      string            `json:"amount"`
	Currency    string            `json:"currency"`
	Environment string            `json:"environment"`
	Details     map[string]string `json:"details,omitempty"`
}

type chargeResponse struct {
	ID string `json:"id"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Submit implements gateway.Session.
func (s *session) Submit(ctx context.Context, req gateway.SubmitRequest) (gateway.SubmitResponse, error) {
	body, err := json.Marshal(chargeRequest{
		Amount:      req.Amount.String(),
		Currency:    req.Currency,
		Environment: string(s.env),
		Details:     req.Details,
	})
	if err != nil {
		return gateway.SubmitResponse{}, fmt.Errorf("%s: encode charge: %w", s.client.name, err)
	}

	resp, raw, err := s.do(ctx, http.MethodPost, "/charges", req.IdempotencyKey, body)
	if err != nil {
		return gateway.SubmitResponse{}, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var charge chargeResponse
		if err := json.Unmarshal(raw, &charge); err != nil || charge.ID == "" {
			return gateway.SubmitResponse{}, fmt.Errorf("%s: malformed charge response: %s", s.client.name, raw)
		}
		return gateway.SubmitResponse{TransactionID: charge.ID}, nil
	}
	return gateway.SubmitResponse{}, s.apiError(resp.StatusCode, raw)
}

// Reverse implements gateway.Session.
func (s *session) Reverse(ctx context.Context, transactionID string) (gateway.ReverseResponse, error) {
	path := fmt.Sprintf("/charges/%s/reversals", transactionID)
	resp, raw, err := s.do(ctx, http.MethodPost, path, "", nil)
	if err != nil {
		return gateway.ReverseResponse{}, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var reversal chargeResponse
		if err := json.Unmarshal(raw, &reversal); err != nil || reversal.ID == "" {
			return gateway.ReverseResponse{}, fmt.Errorf("%s: malformed reversal response: %s", s.client.name, raw)
		}
		return gateway.ReverseResponse{RefundID: reversal.ID}, nil
	}
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusConflict {
		return gateway.ReverseResponse{}, fmt.Errorf("%s: reverse %s: %w", s.client.name, transactionID, gateway.ErrNotFound)
	}
	return gateway.ReverseResponse{}, s.apiError(resp.StatusCode, raw)
}

// Close implements gateway.Session. Sessions hold no connection state beyond
// the shared HTTP client, so closing only invalidates further use.
func (s *session) Close() error {
	s.closed = true
	return nil
}

// do issues the request, retrying 429 and 5xx responses within the configured
// attempt budget. The response body is fully read and returned.
func (s *session) do(ctx context.Context, method, path, idempotencyKey string, body []byte) (*http.Response, []byte, error) {
	if s.closed {
		return nil, nil, fmt.Errorf("%s: session closed", s.client.name)
	}

	var lastErr error
	for attempt := 0; attempt <= s.client.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(s.client.retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, s.client.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: build request: %w", s.client.name, err)
		}
		req.Header.Set("Authorization", "Bearer "+s.creds.APIKey)
		req.Header.Set("Content-Type", "application/json")
		if idempotencyKey != "" {
			req.Header.Set("Idempotency-Key", idempotencyKey)
		}

		resp, err := s.client.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%s: request failed: %w", s.client.name, err)
			continue
		}

		raw, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%s: read response: %w", s.client.name, readErr)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("%s: HTTP %d: %s", s.client.name, resp.StatusCode, raw)
			if attempt < s.client.retryAttempts {
				continue
			}
		}
		return resp, raw, nil
	}
	return nil, nil, lastErr
}

// apiError maps a non-2xx response onto the shared gateway error types.
// 402 and 422 carry the backend's decline envelope; anything else surfaces
// as a generic backend fault.
func (s *session) apiError(status int, raw []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		if status == http.StatusPaymentRequired || status == http.StatusUnprocessableEntity {
			return &gateway.DeclineError{Code: envelope.Error.Code, Reason: envelope.Error.Message}
		}
		return fmt.Errorf("%s: HTTP %d (%s): %s", s.client.name, status, envelope.Error.Code, envelope.Error.Message)
	}
	return fmt.Errorf("%s: HTTP %d: %s", s.client.name, status, raw)
}
