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

type OrderBackend interface {
	ListOrders(ctx context.Context, token string) ([]models.Order, error)
	GetOrder(ctx context.Context, token, id string) (models.Order, error)
}

type OrderHandler struct {
	backend OrderBackend
}

func NewOrderHandler(backend OrderBackend) *OrderHandler {
	return &OrderHandler{backend: backend}
}

// GET /api/orders
func (h *OrderHandler) List(c *gin.Context) {
	s := middleware.AppState(c)
	seq := s.Seq.OrderList.Next()
	s.DispatchOrders(state.OrdersRequested{Seq: seq})

	orders, err := h.backend.ListOrders(c.Request.Context(), c.GetString(middleware.ContextToken))
	if err != nil {
		s.DispatchOrders(state.OrdersFailed{Seq: seq, Message: api.UserMessage(err)})
		respondBackendError(c, err)
		return
	}

	s.DispatchOrders(state.OrdersReceived{Seq: seq, Orders: orders})
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GET /api/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	s := middleware.AppState(c)
	seq := s.Seq.OrderDetail.Next()
	s.DispatchOrders(state.OrderRequested{Seq: seq})

	order, err := h.backend.GetOrder(c.Request.Context(), c.GetString(middleware.ContextToken), c.Param("id"))
	if err != nil {
		s.DispatchOrders(state.OrderFailed{Seq: seq, Message: api.UserMessage(err)})
		respondBackendError(c, err)
		return
	}

	s.DispatchOrders(state.OrderReceived{Seq: seq, Order: order})
	c.JSON(http.StatusOK, order)
}
