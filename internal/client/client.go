// Package client talks to the sales HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resty.dev/v3"

	"sales_tracker/internal/sales"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
	Violations sales.ValidationErrors
}

func (e *APIError) Error() string {
	if len(e.Violations) > 0 {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Violations.Error())
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// DashboardResult mirrors the dashboard payload.
type DashboardResult struct {
	Sales     []sales.Sale         `json:"sales"`
	Total     float64              `json:"total"`
	ByProduct map[string]float64   `json:"by_product"`
	Chart     []sales.ProductTotal `json:"chart"`
	Products  []string             `json:"products"`
	Customers []string             `json:"customers"`
}

// Client is a thin wrapper around a resty client bound to one server.
type Client struct {
	rc *resty.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{rc: rc}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.rc.Close()
}

// Create submits a raw sale.
func (c *Client) Create(ctx context.Context, raw sales.RawSale) (*sales.Sale, error) {
	res, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(raw).
		Post("/sales")
	if err != nil {
		return nil, fmt.Errorf("post sale: %w", err)
	}

	var sale sales.Sale
	if err := decode(res, http.StatusCreated, &sale); err != nil {
		return nil, err
	}
	return &sale, nil
}

// List fetches all sales, most recent first.
func (c *Client) List(ctx context.Context) ([]sales.Sale, error) {
	res, err := c.rc.R().SetContext(ctx).Get("/sales")
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	var out struct {
		Results []sales.Sale `json:"results"`
	}
	if err := decode(res, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Dashboard fetches the view narrowed by the criteria. Date bounds are sent as
// calendar days, so the server reads them in its configured time zone.
func (c *Client) Dashboard(ctx context.Context, criteria sales.Criteria) (*DashboardResult, error) {
	params := map[string]string{}
	if criteria.Product != "" {
		params["product"] = criteria.Product
	}
	if criteria.Customer != "" {
		params["customer"] = criteria.Customer
	}
	if criteria.From != nil {
		params["from"] = criteria.From.Format(sales.DateLayout)
	}
	if criteria.To != nil {
		params["to"] = criteria.To.Format(sales.DateLayout)
	}

	res, err := c.rc.R().SetContext(ctx).SetQueryParams(params).Get("/sales/dashboard")
	if err != nil {
		return nil, fmt.Errorf("get dashboard: %w", err)
	}

	var out DashboardResult
	if err := decode(res, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func decode(res *resty.Response, want int, dst any) error {
	body := res.Bytes()
	if res.StatusCode() != want {
		apiErr := &APIError{StatusCode: res.StatusCode()}
		var payload struct {
			Error  string                 `json:"error"`
			Errors sales.ValidationErrors `json:"errors"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			apiErr.Message = payload.Error
			apiErr.Violations = payload.Errors
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
