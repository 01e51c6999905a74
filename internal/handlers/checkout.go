package handlers

import (
	"errors"
	"net/http"

	"artisan_storefront/internal/api"
	"artisan_storefront/internal/checkout"
	"artisan_storefront/internal/middleware"
	"artisan_storefront/internal/models"
	"artisan_storefront/internal/payment"
	"artisan_storefront/internal/state"
	"artisan_storefront/internal/validation"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type CheckoutHandler struct {
	orchestrator *checkout.Orchestrator
	widget       *payment.CallbackWidget
}

func NewCheckoutHandler(orchestrator *checkout.Orchestrator, widget *payment.CallbackWidget) *CheckoutHandler {
	return &CheckoutHandler{orchestrator: orchestrator, widget: widget}
}

type startCheckoutRequest struct {
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
}

// POST /api/checkout
func (h *CheckoutHandler) Start(c *gin.Context) {
	var req startCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if fields, ok := bindingErrors(err, validation.ValidateAddress(req.ShippingAddress)); ok {
			respondFieldErrors(c, "Adresse de livraison invalide", fields)
			return
		}
		respondError(c, http.StatusBadRequest, "Données invalides")
		return
	}

	s := middleware.AppState(c)
	attempt, err := h.orchestrator.Start(c.Request.Context(), checkout.StartRequest{
		SessionID: s.SessionID,
		Token:     c.GetString(middleware.ContextToken),
		Cart:      s.Cart,
		Address:   req.ShippingAddress,
	})

	switch {
	case errors.Is(err, checkout.ErrInvalidAddress):
		respondFieldErrors(c, "Adresse de livraison invalide", attempt.FieldErrors)
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(c, http.StatusBadRequest, "Votre panier est vide")
	case errors.Is(err, checkout.ErrUnauthenticated):
		respondError(c, http.StatusUnauthorized, "Connexion requise")
	case api.IsStatus(err, http.StatusUnauthorized):
		// token refusé par le backend : la session locale n'est plus valable
		s.DispatchAuth(c.Request.Context(), state.Logout{})
		respondError(c, http.StatusUnauthorized, "Session expirée, veuillez vous reconnecter")
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": attempt.Message, "attempt": attempt})
	default:
		c.JSON(http.StatusCreated, gin.H{"attempt": attempt})
	}
}

// GET /api/checkout/:attemptId
func (h *CheckoutHandler) Get(c *gin.Context) {
	attempt, ok := h.attempt(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempt": attempt})
}

// POST /api/checkout/:attemptId/payment/success
// Corps : les identifiants renvoyés par le widget de la passerelle.
func (h *CheckoutHandler) PaymentSuccess(c *gin.Context) {
	var auth models.PaymentAuthorization
	if err := c.ShouldBindJSON(&auth); err != nil {
		respondError(c, http.StatusBadRequest, "Identifiants de paiement manquants")
		return
	}
	if _, ok := h.attempt(c); !ok {
		return
	}

	attemptID := c.Param("attemptId")
	if err := h.widget.Succeed(c.Request.Context(), attemptID, auth); err != nil {
		h.settled(c, err)
		return
	}

	attempt, ok := h.attempt(c)
	if !ok {
		return
	}
	if attempt.State == checkout.StateAborted {
		log.WithField("attempt_id", attemptID).Error("❌ Paiement à vérifier manuellement")
		c.JSON(http.StatusBadGateway, gin.H{"error": attempt.Message, "attempt": attempt})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempt": attempt, "order": attempt.Order})
}

// POST /api/checkout/:attemptId/payment/failure (échec ou fermeture du widget)
func (h *CheckoutHandler) PaymentFailure(c *gin.Context) {
	var failure payment.Failure
	if err := c.ShouldBindJSON(&failure); err != nil {
		respondError(c, http.StatusBadRequest, "Données invalides")
		return
	}
	if _, ok := h.attempt(c); !ok {
		return
	}

	if err := h.widget.Fail(c.Request.Context(), c.Param("attemptId"), failure); err != nil {
		h.settled(c, err)
		return
	}

	attempt, ok := h.attempt(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempt": attempt})
}

func (h *CheckoutHandler) attempt(c *gin.Context) (checkout.Attempt, bool) {
	attempt, err := h.orchestrator.Get(c.GetString(middleware.ContextSessionID), c.Param("attemptId"))
	if err != nil {
		respondError(c, http.StatusNotFound, "Tentative de paiement introuvable")
		return checkout.Attempt{}, false
	}
	return attempt, true
}

func (h *CheckoutHandler) settled(c *gin.Context, err error) {
	if errors.Is(err, payment.ErrUnknownAttempt) {
		respondError(c, http.StatusConflict, "Ce paiement a déjà été traité")
		return
	}
	respondError(c, http.StatusInternalServerError, "Erreur lors du traitement du paiement")
}
