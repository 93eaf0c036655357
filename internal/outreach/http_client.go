package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"holly/internal/platform/config"
	id "holly/pkg/domain"
)

// channelPaths maps each channel to the provider API path.
var channelPaths = map[id.Channel]string{
	id.ChannelSMS:   "/v1/messages/sms",
	id.ChannelEmail: "/v1/messages/email",
	id.ChannelCall:  "/v1/calls",
}

// HTTPClient talks to the outreach provider's REST API. All calls carry the
// configured timeout; these are the only network-blocking operations in the
// review cycle.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPClient(cfg config.Outreach) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

type sendResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *HTTPClient) Send(ctx context.Context, ch id.Channel, destination string, payload Payload) (SendResult, error) {
	path, ok := channelPaths[ch]
	if !ok {
		return SendResult{}, &ProviderError{Channel: ch, Err: fmt.Errorf("unsupported channel %q", ch)}
	}

	body, err := json.Marshal(sendRequest{
		To:      destination,
		Subject: payload.Subject,
		Body:    payload.Body,
	})
	if err != nil {
		return SendResult{}, &ProviderError{Channel: ch, Err: fmt.Errorf("marshal send request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return SendResult{}, &ProviderError{Channel: ch, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Covers timeouts and connection failures.
		return SendResult{}, &ProviderError{Channel: ch, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return SendResult{}, &ProviderError{Channel: ch, StatusCode: resp.StatusCode}
	}

	var decoded sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return SendResult{}, &ProviderError{Channel: ch, Err: fmt.Errorf("decode provider response: %w", err)}
	}

	result := SendResult{ProviderID: decoded.ID, Status: Status(decoded.Status)}
	if result.Status == "" {
		result.Status = StatusQueued
	}
	return result, nil
}

var _ Client = (*HTTPClient)(nil)
