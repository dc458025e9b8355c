// Package tradegate provides a Go SDK for interacting with the tradegate
// gateway API. Responses are returned as raw JSON; a blocked order surfaces
// as ErrRedirected carrying the top-up URL.
package tradegate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrRedirected is returned when the gateway blocks an order for
// insufficient funds and answers with a 303 redirect to the top-up page.
type ErrRedirected struct {
	Message     string
	RedirectURL string
}

func (e *ErrRedirected) Error() string {
	return fmt.Sprintf("order blocked: %s (top up at %s)", e.Message, e.RedirectURL)
}

// APIError is a non-2xx gateway response.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Code, e.Message)
}

// Client calls the tradegate gateway API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new gateway API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// 303 responses are decoded, never followed.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Health checks gateway liveness and upstream reachability.
func (c *Client) Health(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/health", nil)
}

// GetProfile retrieves the account profile.
func (c *Client) GetProfile(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/api/v1/profile", nil)
}

// GetPortfolio retrieves current positions.
func (c *Client) GetPortfolio(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/api/v1/portfolio", nil)
}

// GetHoldings retrieves long-term holdings.
func (c *Client) GetHoldings(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/api/v1/holdings", nil)
}

// GetFunds retrieves funds and margin.
func (c *Client) GetFunds(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/api/v1/funds", nil)
}

// GetQuote retrieves the LTP quote for an instrument key.
func (c *Client) GetQuote(ctx context.Context, instrumentKey string) ([]byte, error) {
	return c.do(ctx, http.MethodGet,
		"/api/v1/market-quote?instrument_key="+url.QueryEscape(instrumentKey), nil)
}

// ListOrders retrieves all orders.
func (c *Client) ListOrders(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/api/v1/orders", nil)
}

// GetOrder retrieves a single order by ID.
func (c *Client) GetOrder(ctx context.Context, orderID string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/api/v1/orders/"+url.PathEscape(orderID), nil)
}

// PlaceOrder submits a new order. order is the JSON payload accepted by
// POST /api/v1/orders. Insufficient funds surface as *ErrRedirected.
func (c *Client) PlaceOrder(ctx context.Context, order []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/api/v1/orders", order)
}

// ModifyOrder modifies an existing order with the given JSON payload.
func (c *Client) ModifyOrder(ctx context.Context, orderID string, mod []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPut, "/api/v1/orders/"+url.PathEscape(orderID), mod)
}

// CancelOrder cancels an existing order.
func (c *Client) CancelOrder(ctx context.Context, orderID string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, "/api/v1/orders/"+url.PathEscape(orderID), nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusSeeOther:
		var redirect struct {
			Message     string `json:"message"`
			RedirectURL string `json:"redirect_url"`
		}
		if err := json.Unmarshal(data, &redirect); err != nil {
			redirect.RedirectURL = resp.Header.Get("Location")
		}
		return nil, &ErrRedirected{Message: redirect.Message, RedirectURL: redirect.RedirectURL}

	case resp.StatusCode >= 400:
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Code: resp.StatusCode, Message: apiErr.Message}
	}

	return data, nil
}
