package handlers

import (
	"context"
	"net/http"

	"artisan_storefront/internal/api"
	"artisan_storefront/internal/middleware"
	"artisan_storefront/internal/models"

	"github.com/gin-gonic/gin"
)

type AdminBackend interface {
	AdminListOrders(ctx context.Context, token string, status models.OrderStatus) ([]models.Order, error)
	AdminGetOrder(ctx context.Context, token, id string) (models.Order, error)
	AdminUpdateOrderStatus(ctx context.Context, token, id string, status models.OrderStatus) (models.Order, error)
	AdminListProducts(ctx context.Context, token string, filters models.ProductFilters) (models.ProductPage, error)
	AdminCreateProduct(ctx context.Context, token string, input api.ProductInput) (models.Product, error)
	AdminDeleteProduct(ctx context.Context, token, id string) error
}

// ProductInvalidator est prévenu quand l'admin modifie le catalogue
type ProductInvalidator interface {
	InvalidateProduct(ctx context.Context, id string)
}

// AdminHandler relaie le back-office vers le backend ; aucune règle métier ici.
type AdminHandler struct {
	backend  AdminBackend
	products ProductInvalidator
}

// NewAdminHandler accepte un invalidator nil quand le catalogue n'est pas mis en cache
func NewAdminHandler(backend AdminBackend, products ProductInvalidator) *AdminHandler {
	return &AdminHandler{backend: backend, products: products}
}

func (h *AdminHandler) invalidate(ctx context.Context, id string) {
	if h.products != nil {
		h.products.InvalidateProduct(ctx, id)
	}
}

// GET /api/admin/orders?status=
func (h *AdminHandler) ListOrders(c *gin.Context) {
	status := models.OrderStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		respondError(c, http.StatusBadRequest, "Statut invalide")
		return
	}

	orders, err := h.backend.AdminListOrders(c.Request.Context(), c.GetString(middleware.ContextToken), status)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GET /api/admin/orders/:id
func (h *AdminHandler) GetOrder(c *gin.Context) {
	order, err := h.backend.AdminGetOrder(c.Request.Context(), c.GetString(middleware.ContextToken), c.Param("id"))
	if err != nil {
		respondBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PUT /api/admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	var input struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || !input.Status.Valid() {
		respondError(c, http.StatusBadRequest, "Statut invalide")
		return
	}

	order, err := h.backend.AdminUpdateOrderStatus(c.Request.Context(), c.GetString(middleware.ContextToken), c.Param("id"), input.Status)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GET /api/admin/products
func (h *AdminHandler) ListProducts(c *gin.Context) {
	var filters models.ProductFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		respondError(c, http.StatusBadRequest, "Filtres invalides")
		return
	}

	page, err := h.backend.AdminListProducts(c.Request.Context(), c.GetString(middleware.ContextToken), filters.Normalize())
	if err != nil {
		respondBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// POST /api/admin/products
func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var input api.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "Produit invalide: "+err.Error())
		return
	}

	product, err := h.backend.AdminCreateProduct(c.Request.Context(), c.GetString(middleware.ContextToken), input)
	if err != nil {
		respondBackendError(c, err)
		return
	}
	h.invalidate(c.Request.Context(), product.ID)
	c.JSON(http.StatusCreated, product)
}

// DELETE /api/admin/products/:id
func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := h.backend.AdminDeleteProduct(c.Request.Context(), c.GetString(middleware.ContextToken), id); err != nil {
		respondBackendError(c, err)
		return
	}
	h.invalidate(c.Request.Context(), id)
	c.Status(http.StatusNoContent)
}
