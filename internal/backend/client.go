package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const (
	loginPath     = "/api/login"
	logoutPath    = "/api/logout"
	chatPath      = "/api/chat"
	stockDataPath = "/api/stock-data"
)

// Client talks to the analysis backend over its JSON HTTP endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	APIKey string `json:"apiKey"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type stockDataRequest struct {
	Symbol string `json:"symbol"`
}

type chatResponse struct {
	Success  bool            `json:"success"`
	Analysis *AnalysisResult `json:"analysis,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type stockDataResponse struct {
	Success bool       `json:"success"`
	Data    *StockData `json:"data,omitempty"`
	Error   string     `json:"error,omitempty"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Login validates the API key with the backend.
func (c *Client) Login(ctx context.Context, apiKey string) error {
	var out statusResponse
	if err := c.postJSON(ctx, loginPath, loginRequest{APIKey: apiKey}, &out); err != nil {
		return err
	}
	if !out.Success {
		return NewError(CodeApplication, reasonOrDefault(out.Error, "login failed"), nil)
	}
	return nil
}

// Logout ends the backend session. The response body is drained and
// ignored; callers treat any error as log-only.
func (c *Client) Logout(ctx context.Context) error {
	payload, err := json.Marshal(struct{}{})
	if err != nil {
		return NewError(CodeTransport, "encode logout request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+logoutPath, bytes.NewReader(payload))
	if err != nil {
		return NewError(CodeTransport, "build logout request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewError(CodeTransport, err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Chat submits one user message for analysis.
func (c *Client) Chat(ctx context.Context, message string) (*AnalysisResult, error) {
	var out chatResponse
	if err := c.postJSON(ctx, chatPath, chatRequest{Message: message}, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, NewError(CodeApplication, reasonOrDefault(out.Error, "analysis failed"), nil)
	}
	if out.Analysis == nil {
		return nil, NewError(CodeApplication, "analysis missing from response", nil)
	}
	return out.Analysis, nil
}

// StockData fetches detail fields for one symbol.
func (c *Client) StockData(ctx context.Context, symbol string) (*StockData, error) {
	var out stockDataResponse
	if err := c.postJSON(ctx, stockDataPath, stockDataRequest{Symbol: symbol}, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, NewError(CodePartialData, reasonOrDefault(out.Error, "stock data unavailable"), nil)
	}
	if out.Data == nil {
		return nil, NewError(CodePartialData, "stock data missing from response", nil)
	}
	return out.Data, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return NewError(CodeTransport, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return NewError(CodeTransport, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewError(CodeTransport, err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewError(CodeTransport, "read response", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return NewError(CodeTransport, "decode response", err)
	}
	return nil
}

func reasonOrDefault(reason, fallback string) string {
	if reason != "" {
		return reason
	}
	return fallback
}
