package amazon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/infrastructure/platform"
	"invochat-core-sync-layer/internal/ports"

	"github.com/rs/zerolog"
)

const (
	defaultEndpoint = "https://sellingpartnerapi-na.amazon.com"
	lwaTokenURL     = "https://api.amazon.com/auth/o2/token"
	orderLookback   = 365 * 24 * time.Hour
)

// Client fetches FBA inventory and order history through the Selling Partner
// API. Both resources paginate with an opaque NextToken cursor. Access
// tokens are minted from the stored LWA refresh token per pager and live
// only as long as the sync run.
type Client struct {
	httpClient *http.Client
	endpoint   string
	logger     zerolog.Logger
}

// NewClient creates an Amazon FBA platform client.
func NewClient(logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   defaultEndpoint,
		logger:     logger,
	}
}

func (c *Client) Platform() domain.Platform {
	return domain.PlatformAmazonFBA
}

// Products returns a lazy pager over FBA inventory summaries. Each summary
// maps to a single-variant product keyed by seller SKU.
func (c *Client) Products(creds domain.Credentials) ports.ProductPager {
	return &inventoryPager{client: c, creds: creds}
}

// Orders returns a lazy pager over recent orders.
func (c *Client) Orders(creds domain.Credentials) ports.OrderPager {
	return &orderPager{client: c, creds: creds}
}

// accessToken exchanges the stored refresh token for an LWA access token.
func (c *Client) accessToken(ctx context.Context, creds domain.Credentials) (string, error) {
	values := url.Values{}
	values.Set("grant_type", "refresh_token")
	values.Set("refresh_token", creds.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lwaTokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("lwa token exchange failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("lwa token exchange returned status %d: %s", resp.StatusCode, string(body))
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode lwa token response: %w", err)
	}
	return token.AccessToken, nil
}

func (c *Client) get(ctx context.Context, token, path string, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-amz-access-token", token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sp-api request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sp-api returned status %d for %s: %s", resp.StatusCode, path, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode sp-api response: %w", err)
	}
	return nil
}

type inventoryPager struct {
	client *Client
	creds  domain.Credentials
	token  string
	next   string
	done   bool
}

type inventorySummary struct {
	SellerSku       string `json:"sellerSku"`
	FnSku           string `json:"fnSku"`
	Asin            string `json:"asin"`
	ProductName     string `json:"productName"`
	TotalQuantity   int    `json:"totalQuantity"`
	Condition       string `json:"condition"`
	LastUpdatedTime string `json:"lastUpdatedTime"`
}

type inventorySummariesResponse struct {
	Payload struct {
		InventorySummaries []inventorySummary `json:"inventorySummaries"`
	} `json:"payload"`
	Pagination struct {
		NextToken string `json:"nextToken"`
	} `json:"pagination"`
}

// productFromSummary maps one FBA inventory summary to a single-variant
// product. Products key on seller SKU, not ASIN: several seller SKUs can
// list against the same ASIN and each keeps its own record.
func productFromSummary(s inventorySummary) domain.Product {
	variantID := s.FnSku
	if variantID == "" {
		variantID = s.SellerSku
	}
	return domain.Product{
		ExternalID: s.SellerSku,
		Title:      s.ProductName,
		Status:     "active",
		Tags:       []string{},
		Variants: []domain.Variant{{
			ExternalID:        variantID,
			SKU:               s.SellerSku,
			InventoryQuantity: s.TotalQuantity,
			Location:          "FBA",
		}},
	}
}

func (p *inventoryPager) Next(ctx context.Context) ([]domain.Product, bool, error) {
	if p.done {
		return nil, false, nil
	}
	if p.token == "" {
		token, err := p.client.accessToken(ctx, p.creds)
		if err != nil {
			return nil, false, err
		}
		p.token = token
	}

	query := url.Values{}
	query.Set("granularityType", "Marketplace")
	query.Set("granularityId", p.creds.MarketplaceID)
	query.Set("marketplaceIds", p.creds.MarketplaceID)
	if p.next != "" {
		query.Set("nextToken", p.next)
	}

	var resp inventorySummariesResponse
	if err := p.client.get(ctx, p.token, "/fba/inventory/v1/summaries", query, &resp); err != nil {
		return nil, false, fmt.Errorf("amazon inventory fetch failed: %w", err)
	}
	p.next = resp.Pagination.NextToken
	if p.next == "" {
		p.done = true
	}

	summaries := resp.Payload.InventorySummaries
	if len(summaries) == 0 {
		return nil, false, nil
	}
	page := make([]domain.Product, 0, len(summaries))
	for _, s := range summaries {
		page = append(page, productFromSummary(s))
	}
	return page, true, nil
}

type orderPager struct {
	client *Client
	creds  domain.Credentials
	token  string
	next   string
	done   bool
}

type ordersResponse struct {
	Payload struct {
		Orders []struct {
			AmazonOrderId string `json:"AmazonOrderId"`
			OrderStatus   string `json:"OrderStatus"`
			PurchaseDate  string `json:"PurchaseDate"`
			OrderTotal    struct {
				CurrencyCode string `json:"CurrencyCode"`
				Amount       string `json:"Amount"`
			} `json:"OrderTotal"`
		} `json:"Orders"`
		NextToken string `json:"NextToken"`
	} `json:"payload"`
}

type orderItemsResponse struct {
	Payload struct {
		OrderItems []struct {
			OrderItemId     string `json:"OrderItemId"`
			SellerSKU       string `json:"SellerSKU"`
			ASIN            string `json:"ASIN"`
			Title           string `json:"Title"`
			QuantityOrdered int    `json:"QuantityOrdered"`
			ItemPrice       struct {
				Amount string `json:"Amount"`
			} `json:"ItemPrice"`
			ItemTax struct {
				Amount string `json:"Amount"`
			} `json:"ItemTax"`
		} `json:"OrderItems"`
	} `json:"payload"`
}

func (p *orderPager) Next(ctx context.Context) ([]domain.Order, bool, error) {
	if p.done {
		return nil, false, nil
	}
	if p.token == "" {
		token, err := p.client.accessToken(ctx, p.creds)
		if err != nil {
			return nil, false, err
		}
		p.token = token
	}

	query := url.Values{}
	query.Set("MarketplaceIds", p.creds.MarketplaceID)
	query.Set("CreatedAfter", time.Now().Add(-orderLookback).UTC().Format(time.RFC3339))
	if p.next != "" {
		query.Set("NextToken", p.next)
	}

	var resp ordersResponse
	if err := p.client.get(ctx, p.token, "/orders/v0/orders", query, &resp); err != nil {
		return nil, false, fmt.Errorf("amazon order fetch failed: %w", err)
	}
	p.next = resp.Payload.NextToken
	if p.next == "" {
		p.done = true
	}
	if len(resp.Payload.Orders) == 0 {
		return nil, false, nil
	}

	page := make([]domain.Order, 0, len(resp.Payload.Orders))
	for _, o := range resp.Payload.Orders {
		order := domain.Order{
			ExternalID:        o.AmazonOrderId,
			OrderNumber:       o.AmazonOrderId,
			FinancialStatus:   financialStatus(o.OrderStatus),
			FulfillmentStatus: fulfillmentStatus(o.OrderStatus),
			Currency:          o.OrderTotal.CurrencyCode,
			TotalCents:        platform.CentsFromString(o.OrderTotal.Amount),
			PlacedAt:          parseAmazonTime(o.PurchaseDate),
		}
		if err := p.fillLineItems(ctx, &order); err != nil {
			return nil, false, err
		}
		page = append(page, order)
	}
	return page, true, nil
}

// fillLineItems fetches the order's items; the orders listing endpoint does
// not embed them.
func (p *orderPager) fillLineItems(ctx context.Context, order *domain.Order) error {
	var resp orderItemsResponse
	path := fmt.Sprintf("/orders/v0/orders/%s/orderItems", order.ExternalID)
	if err := p.client.get(ctx, p.token, path, url.Values{}, &resp); err != nil {
		return fmt.Errorf("amazon order items fetch failed for %s: %w", order.ExternalID, err)
	}
	for _, item := range resp.Payload.OrderItems {
		line := domain.OrderLineItem{
			ExternalLineID:    item.OrderItemId,
			ExternalVariantID: item.ASIN,
			SKU:               item.SellerSKU,
			ProductName:       item.Title,
			Quantity:          item.QuantityOrdered,
			TaxCents:          platform.CentsFromString(item.ItemTax.Amount),
		}
		if item.QuantityOrdered > 0 {
			line.PriceCents = platform.CentsFromString(item.ItemPrice.Amount) / int64(item.QuantityOrdered)
		}
		order.LineItems = append(order.LineItems, line)
		order.SubtotalCents += platform.CentsFromString(item.ItemPrice.Amount)
		order.TaxCents += line.TaxCents
	}
	return nil
}

func financialStatus(orderStatus string) string {
	switch orderStatus {
	case "Pending":
		return "pending"
	case "Canceled":
		return "voided"
	default:
		return "paid"
	}
}

func fulfillmentStatus(orderStatus string) string {
	switch orderStatus {
	case "Shipped":
		return "fulfilled"
	case "PartiallyShipped":
		return "partial"
	default:
		return "unfulfilled"
	}
}

func parseAmazonTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Now().UTC()
}

var _ ports.PlatformClient = (*Client)(nil)
