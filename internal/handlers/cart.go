package handlers

import (
	"context"
	"errors"
	"net/http"

	"artisan_storefront/internal/cart"
	"artisan_storefront/internal/middleware"
	"artisan_storefront/internal/models"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Catalog fournit la fiche produit faisant foi pour le titre et le prix
type Catalog interface {
	GetProduct(ctx context.Context, id string) (models.Product, error)
}

type CartHandler struct {
	catalog Catalog
}

func NewCartHandler(catalog Catalog) *CartHandler {
	return &CartHandler{catalog: catalog}
}

type addItemRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	VariantID *string `json:"variant_id"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type syncRequest struct {
	Items []models.CartLineItem `json:"items"`
}

// GET /api/cart
func (h *CartHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.AppState(c).Cart.Projection())
}

// GET /api/cart/summary
func (h *CartHandler) Summary(c *gin.Context) {
	p := middleware.AppState(c).Cart.Projection()
	c.JSON(http.StatusOK, gin.H{
		"summary":    p.Summary,
		"formatted":  p.Formatted,
		"item_count": p.ItemCount,
	})
}

// POST /api/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Données invalides")
		return
	}
	if req.VariantID != nil && *req.VariantID == "" {
		req.VariantID = nil
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	if !product.IsActive {
		respondError(c, http.StatusBadRequest, "Produit indisponible")
		return
	}

	item := models.CartLineItem{
		ProductID:      product.ID,
		Title:          product.Title,
		SKU:            product.SKU,
		Quantity:       req.Quantity,
		UnitPriceCents: product.PriceCents,
	}
	if len(product.Images) > 0 {
		item.ImageURL = product.Images[0]
	}
	stock := product.Stock

	if req.VariantID != nil {
		variant := product.Variant(*req.VariantID)
		if variant == nil {
			respondError(c, http.StatusBadRequest, "Variante introuvable")
			return
		}
		id := variant.ID
		item.VariantID = &id
		item.Title = product.Title + " - " + variant.Title
		item.SKU = variant.SKU
		item.UnitPriceCents = variant.PriceCents
		stock = variant.Stock
	}

	s := middleware.AppState(c)
	projection, err := s.Cart.AddWithinStock(c.Request.Context(), item, stock)
	if errors.Is(err, cart.ErrInsufficientStock) {
		respondError(c, http.StatusConflict, "Stock insuffisant")
		return
	}
	log.WithField("session_id", s.SessionID).Debugf("🛒 %s x%d ajouté", item.ProductID, item.Quantity)

	c.JSON(http.StatusOK, projection)
}

// PUT /api/cart/items/:productId?variant_id=
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Quantité requise")
		return
	}

	s := middleware.AppState(c)
	projection := s.Cart.UpdateQuantity(c.Request.Context(), c.Param("productId"), variantParam(c), *req.Quantity)
	c.JSON(http.StatusOK, projection)
}

// DELETE /api/cart/items/:productId?variant_id=
func (h *CartHandler) RemoveItem(c *gin.Context) {
	s := middleware.AppState(c)
	c.JSON(http.StatusOK, s.Cart.Remove(c.Request.Context(), c.Param("productId"), variantParam(c)))
}

// DELETE /api/cart
func (h *CartHandler) Clear(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.AppState(c).Cart.Clear(c.Request.Context()))
}

// POST /api/cart/sync remplace le panier (ex. panier invité d'un autre onglet)
func (h *CartHandler) Sync(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Données invalides")
		return
	}

	items := make([]models.CartLineItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID == "" || item.UnitPriceCents < 0 {
			continue
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, middleware.AppState(c).Cart.Sync(c.Request.Context(), items))
}
