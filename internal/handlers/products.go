package handlers

import (
	"context"
	"net/http"

	"artisan_storefront/internal/api"
	"artisan_storefront/internal/middleware"
	"artisan_storefront/internal/models"
	"artisan_storefront/internal/state"

	"github.com/gin-gonic/gin"
)

type ProductBackend interface {
	ListProducts(ctx context.Context, filters models.ProductFilters) (models.ProductPage, error)
	GetProduct(ctx context.Context, id string) (models.Product, error)
}

type ProductHandler struct {
	backend ProductBackend
}

func NewProductHandler(backend ProductBackend) *ProductHandler {
	return &ProductHandler{backend: backend}
}

// GET /api/products
func (h *ProductHandler) List(c *gin.Context) {
	var filters models.ProductFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondError(c, http.StatusBadRequest, "Filtres invalides")
		return
	}
	filters = filters.Normalize()

	s := middleware.AppState(c)
	seq := s.Seq.ProductList.Next()
	s.DispatchProducts(state.ProductsRequested{Seq: seq})

	page, err := h.backend.ListProducts(c.Request.Context(), filters)
	if err != nil {
		s.DispatchProducts(state.ProductsFailed{Seq: seq, Message: api.UserMessage(err)})
		respondBackendError(c, err)
		return
	}

	s.DispatchProducts(state.ProductsReceived{Seq: seq, Page: page})
	if page.Products == nil {
		page.Products = []models.Product{}
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	s := middleware.AppState(c)
	seq := s.Seq.ProductDetail.Next()
	s.DispatchProducts(state.ProductRequested{Seq: seq})

	product, err := h.backend.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.DispatchProducts(state.ProductFailed{Seq: seq, Message: api.UserMessage(err)})
		respondBackendError(c, err)
		return
	}

	s.DispatchProducts(state.ProductReceived{Seq: seq, Product: product})
	c.JSON(http.StatusOK, product)
}
