// Package shopify is a thin Shopify Admin REST client covering the two
// lookups the support bot needs: order by number and product search.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"shopmate/internal/config"
)

// Client calls the Shopify Admin REST API with per-store access tokens.
type Client struct {
	apiVersion string
	httpClient *http.Client
}

// NewClient creates a Shopify Admin API client.
func NewClient(cfg *config.ShopifyConfig) *Client {
	return &Client{
		apiVersion: cfg.APIVersion,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Order is the subset of the Admin REST order resource consumed by the
// prompt assembler.
type Order struct {
	ID                int64         `json:"id"`
	Name              string        `json:"name"`
	OrderNumber       int64         `json:"order_number"`
	CreatedAt         string        `json:"created_at"`
	FinancialStatus   string        `json:"financial_status"`
	FulfillmentStatus string        `json:"fulfillment_status"`
	Currency          string        `json:"currency"`
	TotalPrice        string        `json:"total_price"`
	LineItems         []LineItem    `json:"line_items"`
	Fulfillments      []Fulfillment `json:"fulfillments"`
}

// LineItem is one purchased item.
type LineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Fulfillment is one shipment of an order.
type Fulfillment struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
}

// Product is the subset of the product resource used in prompts.
type Product struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	BodyHTML string    `json:"body_html"`
	Variants []Variant `json:"variants"`
}

// Variant carries pricing.
type Variant struct {
	ID    int64  `json:"id"`
	Price string `json:"price"`
}

// FetchOrder looks up an order by its customer-facing number. Returns
// (nil, nil) when no order matches; callers treat missing data as
// "omit from prompt", not as an error.
func (c *Client) FetchOrder(ctx context.Context, shop, accessToken, orderNumber string) (*Order, error) {
	query := url.Values{}
	query.Set("name", "#"+orderNumber)
	query.Set("status", "any")

	var payload struct {
		Orders []Order `json:"orders"`
	}
	if err := c.get(ctx, shop, accessToken, "orders.json", query, &payload); err != nil {
		return nil, err
	}

	for i := range payload.Orders {
		o := &payload.Orders[i]
		if strings.TrimPrefix(o.Name, "#") == orderNumber || fmt.Sprint(o.OrderNumber) == orderNumber {
			return o, nil
		}
	}
	return nil, nil
}

// SearchProducts searches products by title. Empty results are not an error.
func (c *Client) SearchProducts(ctx context.Context, shop, accessToken, searchTerm string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 3
	}
	query := url.Values{}
	query.Set("title", searchTerm)
	query.Set("limit", fmt.Sprint(limit))

	var payload struct {
		Products []Product `json:"products"`
	}
	if err := c.get(ctx, shop, accessToken, "products.json", query, &payload); err != nil {
		return nil, err
	}
	return payload.Products, nil
}

func (c *Client) get(ctx context.Context, shop, accessToken, resource string, query url.Values, dest any) error {
	endpoint := fmt.Sprintf("https://%s/admin/api/%s/%s?%s", shop, c.apiVersion, resource, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shopify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warn().
			Int("status", resp.StatusCode).
			Str("shop", shop).
			Str("resource", resource).
			Msg("shopify API returned non-200")
		return fmt.Errorf("shopify API %s: status %d: %s", resource, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode shopify response: %w", err)
	}
	return nil
}
