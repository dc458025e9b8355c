// Package upstox implements the HTTP client for the upstream Upstox v2
// brokerage API. Every call is synchronous, bounded by the configured
// timeout, and never retried: a single failure is terminal for the request
// that triggered it.
package upstox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"tradegate/internal/domain"
	"tradegate/internal/metrics"
)

// Response is an upstream reply relayed verbatim by passthrough endpoints.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the upstream accepted the request.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK || r.StatusCode == http.StatusCreated
}

// Client talks to the Upstox v2 REST API with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient creates a Client for the given base URL and access token.
// metrics may be nil.
func NewClient(baseURL, token string, timeout time.Duration, m *metrics.Metrics) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
	}
}

// do performs one upstream call. Network failures surface as
// UpstreamUnreachable; non-2xx statuses are returned to the caller, which
// decides between passthrough and normalization.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) (*Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshalling %s payload: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Api-Version", "2.0")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(op, "unreachable")
		return nil, &domain.Error{
			Kind:    domain.KindUpstreamUnreachable,
			Message: "Upstream brokerage unreachable",
			Err:     err,
		}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		c.metrics.ObserveUpstream(op, "unreachable")
		return nil, &domain.Error{
			Kind:    domain.KindUpstreamUnreachable,
			Message: "Reading upstream response failed",
			Err:     err,
		}
	}

	resp := &Response{StatusCode: res.StatusCode, Body: data}
	if resp.OK() {
		c.metrics.ObserveUpstream(op, "ok")
	} else {
		c.metrics.ObserveUpstream(op, "rejected")
	}
	return resp, nil
}

// ---------------------------------------------------------------------------
// Passthrough operations
// ---------------------------------------------------------------------------

// GetProfile fetches the account profile.
func (c *Client) GetProfile(ctx context.Context) (*Response, error) {
	return c.do(ctx, "profile", http.MethodGet, "/user/profile", nil)
}

// GetPositions fetches short-term positions.
func (c *Client) GetPositions(ctx context.Context) (*Response, error) {
	return c.do(ctx, "positions", http.MethodGet, "/portfolio/short-term-positions", nil)
}

// GetHoldings fetches long-term holdings.
func (c *Client) GetHoldings(ctx context.Context) (*Response, error) {
	return c.do(ctx, "holdings", http.MethodGet, "/portfolio/long-term-holdings", nil)
}

// ListOrders fetches all orders.
func (c *Client) ListOrders(ctx context.Context) (*Response, error) {
	return c.do(ctx, "orders", http.MethodGet, "/order/get-orders", nil)
}

// GetOrder fetches a single order by ID.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Response, error) {
	return c.do(ctx, "order", http.MethodGet, "/order/get-order/"+url.PathEscape(orderID), nil)
}

// PlaceOrder submits a new order.
func (c *Client) PlaceOrder(ctx context.Context, order *domain.OrderRequest) (*Response, error) {
	return c.do(ctx, "place", http.MethodPost, "/order/place", order)
}

// ModifyOrder changes an existing order. Only the non-nil fields of the
// modification are sent.
func (c *Client) ModifyOrder(ctx context.Context, orderID string, mod *domain.ModifyRequest) (*Response, error) {
	return c.do(ctx, "modify", http.MethodPut, "/order/modify/"+url.PathEscape(orderID), mod)
}

// CancelOrder cancels an existing order.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*Response, error) {
	return c.do(ctx, "cancel", http.MethodDelete, "/order/cancel/"+url.PathEscape(orderID), nil)
}

// GetQuote fetches the last-traded-price quote for an instrument key.
func (c *Client) GetQuote(ctx context.Context, instrumentKey string) (*Response, error) {
	return c.do(ctx, "quote", http.MethodGet,
		"/market-quote/ltp?instrument_key="+url.QueryEscape(instrumentKey), nil)
}

// GetFunds fetches the account's funds and margin.
func (c *Client) GetFunds(ctx context.Context) (*Response, error) {
	return c.do(ctx, "funds", http.MethodGet, "/user/get-funds-and-margin", nil)
}

// ---------------------------------------------------------------------------
// Typed lookups used by the funds guard
// ---------------------------------------------------------------------------

// LastTradedPrice validates the instrument via a quote lookup and returns its
// last traded price. A failed or rejected lookup returns an error; a
// successful lookup with no usable price returns 0, which callers resolve
// with their fallback price.
func (c *Client) LastTradedPrice(ctx context.Context, instrumentKey string) (float64, error) {
	resp, err := c.GetQuote(ctx, instrumentKey)
	if err != nil {
		return 0, err
	}
	if !resp.OK() {
		return 0, &domain.Error{
			Kind:    domain.KindUpstreamRejected,
			Message: fmt.Sprintf("quote lookup for %s failed", instrumentKey),
			Status:  resp.StatusCode,
		}
	}

	var quote ltpResponse
	if err := json.Unmarshal(resp.Body, &quote); err != nil {
		return 0, nil
	}
	for _, entry := range quote.Data {
		return entry.LastPrice, nil
	}
	return 0, nil
}

// AvailableMargin returns the equity segment's available margin.
func (c *Client) AvailableMargin(ctx context.Context) (decimal.Decimal, error) {
	resp, err := c.GetFunds(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if !resp.OK() {
		return decimal.Zero, &domain.Error{
			Kind:    domain.KindFundsLookup,
			Message: "funds lookup failed",
			Status:  resp.StatusCode,
		}
	}

	var funds fundsResponse
	if err := json.Unmarshal(resp.Body, &funds); err != nil {
		return decimal.Zero, &domain.Error{
			Kind:    domain.KindFundsLookup,
			Message: "decoding funds response failed",
			Err:     err,
		}
	}
	return decimal.NewFromFloat(funds.Data.Equity.AvailableMargin), nil
}

// GetOrderDetails fetches and decodes the details of an existing order, used
// by the modify flow to re-run the funds check against the order's own
// transaction type and instrument.
func (c *Client) GetOrderDetails(ctx context.Context, orderID string) (*OrderDetails, error) {
	resp, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &domain.Error{
			Kind:    domain.KindUpstreamRejected,
			Message: fmt.Sprintf("order %s lookup failed", orderID),
			Status:  resp.StatusCode,
		}
	}

	var detail orderDetailResponse
	if err := json.Unmarshal(resp.Body, &detail); err != nil {
		return nil, &domain.Error{
			Kind:    domain.KindUpstreamRejected,
			Message: "decoding order details failed",
			Err:     err,
		}
	}
	return &detail.Data, nil
}

// Ping probes upstream reachability for the health endpoint. Any HTTP
// response, success or not, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	res.Body.Close()
	return nil
}
