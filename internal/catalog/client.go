package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopvista/storefront/pkg/config"
	pkgerrors "github.com/shopvista/storefront/pkg/errors"
)

// Client talks to the remote product/order collection service. Calls block
// until response or failure; nothing is retried and nothing is cancellable
// beyond the request context.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client against the configured collection service.
func NewClient(cfg config.CatalogConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("catalog base URL is required")
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ListProducts fetches the full product collection.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct replaces the whole product document. This is the write half
// of the review read-modify-write; concurrent writers race and the last one
// wins.
func (c *Client) UpdateProduct(ctx context.Context, product *Product) (*Product, error) {
	var updated Product
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/products/%d", product.ID), product, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// CreateOrder appends an order to the remote ledger.
func (c *Client) CreateOrder(ctx context.Context, order *Order) (*Order, error) {
	var created Order
	if err := c.do(ctx, http.MethodPost, "/orders", order, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListOrders fetches the full, unfiltered order collection. The server does
// not filter by user; callers do that client-side.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Ping verifies the collection service is reachable.
func (c *Client) Ping(ctx context.Context) error {
	var products []Product
	return c.do(ctx, http.MethodGet, "/products", nil, &products)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, fmt.Sprintf("%s %s", method, path))
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", path))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return pkgerrors.New(pkgerrors.CodeTransport, fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode)).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "decode response body")
	}
	return nil
}
