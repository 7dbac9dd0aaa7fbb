package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"popballoons/internal/domain"
)

// ErrorResponse is the error body returned by the wallet services.
type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("wallet api error: status %d", e.StatusCode)
	}
	if e.Code == "" {
		return fmt.Sprintf("wallet api error: %s", e.Message)
	}
	return fmt.Sprintf("wallet api error: %s - %s", e.Code, e.Message)
}

type transactRequest struct {
	Account     string                 `json:"account,omitempty"`
	Transaction domain.Transaction     `json:"transaction"`
	Options     domain.TransactOptions `json:"options"`
}

type transactResponse struct {
	TransactionID string         `json:"transaction_id"`
	Processed     map[string]any `json:"processed"`
}

func (r transactResponse) result() *domain.TransactResult {
	return &domain.TransactResult{
		TransactionID: r.TransactionID,
		Processed:     r.Processed,
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

func newHTTPClient(baseURL string, client *http.Client) httpClient {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
	}
}

func (c httpClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &ErrorResponse{StatusCode: resp.StatusCode}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, apiErr)
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
