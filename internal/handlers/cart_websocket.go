package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"artisan_storefront/internal/cart"
	"artisan_storefront/internal/middleware"
	"artisan_storefront/internal/models"
	"artisan_storefront/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

type cartEvent struct {
	Type    string           `json:"type"`
	Message string           `json:"message,omitempty"`
	Cart    *cart.Projection `json:"cart,omitempty"`
}

// CartStream pousse la projection du panier à chaque écriture persistée,
// y compris celles faites par une autre instance ou un autre onglet.
type CartStream struct {
	backend  storage.Backend
	upgrader websocket.Upgrader
}

func NewCartStream(backend storage.Backend, allowedOrigins []string) *CartStream {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &CartStream{
		backend: backend,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// GET /api/cart/ws
func (h *CartStream) Serve(c *gin.Context) {
	sessionID := c.GetString(middleware.ContextSessionID)
	logger := log.WithField("session_id", sessionID)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	// lecture : seule la fermeture côté client nous intéresse
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	updates, unsubscribe := h.backend.Subscribe(ctx, sessionID)
	defer unsubscribe()

	store := h.backend.ForSession(sessionID)
	initial := middleware.AppState(c).Cart.Projection()
	if err := h.write(conn, cartEvent{Type: "connected", Message: "Synchronisation panier activée", Cart: &initial}); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			projection := cart.Project(h.load(ctx, store, logger))
			if err := h.write(conn, cartEvent{Type: "cart_updated", Cart: &projection}); err != nil {
				logger.Warnf("⚠️ Erreur envoi WebSocket: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// load relit le panier persisté ; illisible ou absent donne un panier vide
func (h *CartStream) load(ctx context.Context, store storage.Store, logger log.FieldLogger) []models.CartLineItem {
	data, err := store.Get(ctx, storage.SlotCart)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warnf("⚠️ Lecture panier pour le flux: %v", err)
		}
		return nil
	}
	items, err := storage.DecodeCart(data)
	if err != nil {
		logger.Warnf("⚠️ Panier illisible pour le flux: %v", err)
		return nil
	}
	return items
}

func (h *CartStream) write(conn *websocket.Conn, event cartEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(event)
}
