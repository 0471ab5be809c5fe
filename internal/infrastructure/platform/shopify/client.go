package shopify

import (
	"context"
	"fmt"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

const defaultPageSize = 100

// Client fetches a Shopify store's catalog and orders through the Admin REST
// API. Pagination follows the Link header cursor the library surfaces as
// NextPageOptions; rate-limit responses are retried by the library with the
// Retry-After the platform sends.
type Client struct {
	pageSize int
	logger   zerolog.Logger
}

// NewClient creates a Shopify platform client.
func NewClient(logger zerolog.Logger) *Client {
	return &Client{pageSize: defaultPageSize, logger: logger}
}

func (c *Client) Platform() domain.Platform {
	return domain.PlatformShopify
}

func (c *Client) api(creds domain.Credentials) (*goshopify.Client, error) {
	client, err := goshopify.NewClient(goshopify.App{}, creds.ShopDomain, creds.AccessToken,
		goshopify.WithRetry(3))
	if err != nil {
		return nil, fmt.Errorf("failed to create shopify client: %w", err)
	}
	return client, nil
}

// Products returns a lazy pager over the store's products.
func (c *Client) Products(creds domain.Credentials) ports.ProductPager {
	return &productPager{client: c, creds: creds}
}

// Orders returns a lazy pager over the store's orders.
func (c *Client) Orders(creds domain.Credentials) ports.OrderPager {
	return &orderPager{client: c, creds: creds}
}

type productPager struct {
	client *Client
	creds  domain.Credentials
	api    *goshopify.Client
	next   *goshopify.ListOptions
	done   bool
}

func (p *productPager) Next(ctx context.Context) ([]domain.Product, bool, error) {
	if p.done {
		return nil, false, nil
	}
	if p.api == nil {
		api, err := p.client.api(p.creds)
		if err != nil {
			return nil, false, err
		}
		p.api = api
	}

	var opts interface{}
	if p.next != nil {
		opts = p.next
	} else {
		opts = &goshopify.ListOptions{Limit: p.client.pageSize}
	}

	products, pagination, err := p.api.Product.ListWithPagination(ctx, opts)
	if err != nil {
		return nil, false, fmt.Errorf("shopify product fetch failed: %w", err)
	}
	if pagination == nil || pagination.NextPageOptions == nil {
		p.done = true
	} else {
		p.next = pagination.NextPageOptions
	}
	if len(products) == 0 {
		return nil, false, nil
	}

	page := make([]domain.Product, 0, len(products))
	for i := range products {
		page = append(page, mapProduct(&products[i]))
	}
	return page, true, nil
}

type orderPager struct {
	client *Client
	creds  domain.Credentials
	api    *goshopify.Client
	next   *goshopify.ListOptions
	done   bool
}

func (p *orderPager) Next(ctx context.Context) ([]domain.Order, bool, error) {
	if p.done {
		return nil, false, nil
	}
	if p.api == nil {
		api, err := p.client.api(p.creds)
		if err != nil {
			return nil, false, err
		}
		p.api = api
	}

	var opts interface{}
	if p.next != nil {
		opts = p.next
	} else {
		opts = &goshopify.OrderListOptions{
			ListOptions: goshopify.ListOptions{Limit: p.client.pageSize},
			Status:      "any",
		}
	}

	orders, pagination, err := p.api.Order.ListWithPagination(ctx, opts)
	if err != nil {
		return nil, false, fmt.Errorf("shopify order fetch failed: %w", err)
	}
	if pagination == nil || pagination.NextPageOptions == nil {
		p.done = true
	} else {
		p.next = pagination.NextPageOptions
	}
	if len(orders) == 0 {
		return nil, false, nil
	}

	page := make([]domain.Order, 0, len(orders))
	for i := range orders {
		page = append(page, mapOrder(&orders[i]))
	}
	return page, true, nil
}

var _ ports.PlatformClient = (*Client)(nil)
