package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"artisan_storefront/internal/models"
)

func (c *Client) ListProducts(ctx context.Context, filters models.ProductFilters) (models.ProductPage, error) {
	var page models.ProductPage
	err := c.do(ctx, http.MethodGet, "/products", productQuery(filters), "", nil, &page)
	return page, err
}

func (c *Client) GetProduct(ctx context.Context, id string) (models.Product, error) {
	var product models.Product
	err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, "", nil, &product)
	return product, err
}

func productQuery(filters models.ProductFilters) url.Values {
	f := filters.Normalize()
	q := url.Values{}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("limit", strconv.Itoa(f.Limit))
	q.Set("sort_order", f.SortOrder)

	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.MinPrice != nil {
		q.Set("min_price", strconv.FormatInt(*f.MinPrice, 10))
	}
	if f.MaxPrice != nil {
		q.Set("max_price", strconv.FormatInt(*f.MaxPrice, 10))
	}
	if f.InStock {
		q.Set("in_stock", "true")
	}
	if f.SortBy != "" {
		q.Set("sort_by", f.SortBy)
	}
	return q
}
