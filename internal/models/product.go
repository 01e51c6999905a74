package models

import "time"

type Product struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	SKU         string           `json:"sku"`
	PriceCents  int64            `json:"price_cents"`
	Images      []string         `json:"images"`
	Category    string           `json:"category"`
	Stock       int              `json:"stock"`
	Variants    []ProductVariant `json:"variants,omitempty"`
	Metadata    Metadata         `json:"metadata,omitempty"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type ProductVariant struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SKU        string `json:"sku"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
}

// Variant retourne la variante demandée, nil si absente
func (p Product) Variant(id string) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// ProductFilters reprend les paramètres de GET /products
type ProductFilters struct {
	Search    string `form:"search" json:"search,omitempty"`
	Category  string `form:"category" json:"category,omitempty"`
	MinPrice  *int64 `form:"min_price" json:"min_price,omitempty"`
	MaxPrice  *int64 `form:"max_price" json:"max_price,omitempty"`
	InStock   bool   `form:"in_stock" json:"in_stock,omitempty"`
	Page      int    `form:"page" json:"page"`
	Limit     int    `form:"limit" json:"limit"`
	SortBy    string `form:"sort_by" json:"sort_by,omitempty"`
	SortOrder string `form:"sort_order" json:"sort_order,omitempty"`
}

// Normalize applique les valeurs par défaut de pagination
func (f ProductFilters) Normalize() ProductFilters {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.SortOrder != "asc" && f.SortOrder != "desc" {
		f.SortOrder = "desc"
	}
	return f
}

type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}
