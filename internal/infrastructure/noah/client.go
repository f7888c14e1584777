// Package noah is a client for the Noah hosted onboarding (KYC) API.
package noah

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the Noah API.
type Client struct {
	BaseURL      string
	APIKey       string
	ReturnURL    string
	FiatCurrency string
	HTTPClient   *http.Client
}

func NewClient(baseURL, apiKey, returnURL, fiatCurrency string) *Client {
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		APIKey:       apiKey,
		ReturnURL:    returnURL,
		FiatCurrency: fiatCurrency,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type FiatOption struct {
	FiatCurrencyCode string `json:"FiatCurrencyCode"`
}

// HostedOnboardingRequest is the body of POST /onboarding/{customerId}.
type HostedOnboardingRequest struct {
	ReturnURL   string            `json:"ReturnURL"`
	FiatOptions []FiatOption      `json:"FiatOptions"`
	Metadata    map[string]string `json:"Metadata,omitempty"`
}

type HostedSessionResponse struct {
	HostedURL string `json:"HostedURL"`
}

// ErrorResponse is the error body returned by the Noah API.
type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Type       string `json:"Type"`
	Detail     string `json:"Detail"`
}

func (e *ErrorResponse) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("noah api error: %d - %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("noah api error: %d", e.StatusCode)
}

// CreateSession starts a hosted onboarding session for customerID (our
// correlation id) and returns the URL the user is sent to.
func (c *Client) CreateSession(ctx context.Context, customerID string, metadata map[string]string) (string, error) {
	req := HostedOnboardingRequest{
		ReturnURL:   c.ReturnURL,
		FiatOptions: []FiatOption{{FiatCurrencyCode: c.FiatCurrency}},
		Metadata:    metadata,
	}
	var resp HostedSessionResponse
	if err := c.do(ctx, http.MethodPost, "/onboarding/"+customerID, req, &resp); err != nil {
		return "", err
	}
	if resp.HostedURL == "" {
		return "", fmt.Errorf("noah api: empty HostedURL")
	}
	return resp.HostedURL, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &ErrorResponse{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
