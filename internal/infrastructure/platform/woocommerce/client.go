package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/ports"

	"github.com/rs/zerolog"
)

const (
	apiVersion      = "wc/v3"
	defaultPageSize = 100
	maxAttempts     = 3
)

// Client fetches a WooCommerce store's catalog and orders through the REST
// API (consumer key/secret over basic auth). Pagination is page-number
// based; the sequence ends on the first short page. 429 responses are
// retried with exponential backoff, honoring Retry-After when present.
type Client struct {
	httpClient *http.Client
	pageSize   int
	logger     zerolog.Logger
}

// NewClient creates a WooCommerce platform client.
func NewClient(logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		pageSize:   defaultPageSize,
		logger:     logger,
	}
}

func (c *Client) Platform() domain.Platform {
	return domain.PlatformWooCommerce
}

// Products returns a lazy pager over the store's products.
func (c *Client) Products(creds domain.Credentials) ports.ProductPager {
	return &productPager{client: c, creds: creds, page: 1}
}

// Orders returns a lazy pager over the store's orders.
func (c *Client) Orders(creds domain.Credentials) ports.OrderPager {
	return &orderPager{client: c, creds: creds, page: 1}
}

func (c *Client) get(ctx context.Context, creds domain.Credentials, resource string, page int, out interface{}) error {
	endpoint := fmt.Sprintf("%s/wp-json/%s/%s", strings.TrimRight(creds.StoreURL, "/"), apiVersion, resource)
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(c.pageSize))

	var lastStatus int
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.SetBasicAuth(creds.ConsumerKey, creds.ConsumerSecret)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("woocommerce request failed: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(resp, attempt)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastStatus = resp.StatusCode
			c.logger.Warn().Int("attempt", attempt).Dur("wait", wait).Msg("WooCommerce rate limited, backing off")
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("woocommerce returned status %d for %s: %s", resp.StatusCode, resource, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode woocommerce response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("woocommerce returned status %d for %s after %d attempts", lastStatus, resource, maxAttempts)
}

func retryAfter(resp *http.Response, attempt int) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Duration(1<<uint(attempt-1)) * time.Second
}

type productPager struct {
	client *Client
	creds  domain.Credentials
	page   int
	done   bool
}

func (p *productPager) Next(ctx context.Context) ([]domain.Product, bool, error) {
	if p.done {
		return nil, false, nil
	}
	var remote []wooProduct
	if err := p.client.get(ctx, p.creds, "products", p.page, &remote); err != nil {
		return nil, false, err
	}
	p.page++
	if len(remote) < p.client.pageSize {
		p.done = true
	}
	if len(remote) == 0 {
		return nil, false, nil
	}

	page := make([]domain.Product, 0, len(remote))
	for i := range remote {
		page = append(page, remote[i].toDomain())
	}
	return page, true, nil
}

type orderPager struct {
	client *Client
	creds  domain.Credentials
	page   int
	done   bool
}

func (p *orderPager) Next(ctx context.Context) ([]domain.Order, bool, error) {
	if p.done {
		return nil, false, nil
	}
	var remote []wooOrder
	if err := p.client.get(ctx, p.creds, "orders", p.page, &remote); err != nil {
		return nil, false, err
	}
	p.page++
	if len(remote) < p.client.pageSize {
		p.done = true
	}
	if len(remote) == 0 {
		return nil, false, nil
	}

	page := make([]domain.Order, 0, len(remote))
	for i := range remote {
		page = append(page, remote[i].toDomain())
	}
	return page, true, nil
}

var _ ports.PlatformClient = (*Client)(nil)
