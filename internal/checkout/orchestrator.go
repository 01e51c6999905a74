package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"artisan_storefront/internal/api"
	"artisan_storefront/internal/cart"
	"artisan_storefront/internal/models"
	"artisan_storefront/internal/payment"
	"artisan_storefront/internal/validation"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const attemptRetention = time.Hour

var (
	ErrInvalidAddress  = errors.New("adresse de livraison invalide")
	ErrEmptyCart       = errors.New("le panier est vide")
	ErrUnauthenticated = errors.New("authentification requise")
	ErrUnknownAttempt  = errors.New("tentative de checkout inconnue")
)

const contactSupportMessage = "Votre paiement a peut-être été débité mais la vérification a échoué. " +
	"Ne relancez pas le paiement et contactez le support avec la référence de commande."

// Backend regroupe les deux appels REST du checkout ; *api.Client le satisfait.
type Backend interface {
	CreateOrder(ctx context.Context, token string, req api.CreateOrderRequest) (models.PaymentSession, error)
	VerifyPayment(ctx context.Context, token string, req api.VerifyPaymentRequest) (models.Order, error)
}

type Cart interface {
	Items() []models.CartLineItem
	Clear(ctx context.Context) cart.Projection
}

// Attempt est une tentative de checkout. Elle n'existe qu'en mémoire :
// un redémarrage la perd, le panier persisté survit.
type Attempt struct {
	ID              string                 `json:"id"`
	State           State                  `json:"state"`
	Reason          Reason                 `json:"reason,omitempty"`
	Message         string                 `json:"message,omitempty"`
	ContactSupport  bool                   `json:"contact_support"`
	FieldErrors     map[string]string      `json:"field_errors,omitempty"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	Payment         *models.PaymentSession `json:"payment,omitempty"`
	Order           *models.Order          `json:"order,omitempty"`
	History         []State                `json:"history"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`

	sessionID string
	token     string
	cart      Cart
}

type StartRequest struct {
	SessionID string
	Token     string
	Cart      Cart
	Address   models.ShippingAddress
}

// CartSource retrouve le panier vivant d'une session au moment de le vider ;
// celui du Start a pu être remplacé par une réhydratation entre-temps.
type CartSource func(ctx context.Context, sessionID string) Cart

type Option func(*Orchestrator)

func WithCartSource(source CartSource) Option {
	return func(o *Orchestrator) { o.carts = source }
}

type Orchestrator struct {
	backend Backend
	widget  payment.Widget
	carts   CartSource
	logger  log.FieldLogger
	now     func() time.Time

	mu       sync.Mutex
	attempts map[string]*Attempt
	active   map[string]string
}

func NewOrchestrator(backend Backend, widget payment.Widget, logger log.FieldLogger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = log.StandardLogger()
	}
	o := &Orchestrator{
		backend:  backend,
		widget:   widget,
		logger:   logger,
		now:      time.Now,
		attempts: make(map[string]*Attempt),
		active:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start valide l'adresse, crée la commande puis ouvre le widget de paiement.
// Une adresse invalide ou un panier vide s'arrête avant tout appel réseau.
func (o *Orchestrator) Start(ctx context.Context, req StartRequest) (Attempt, error) {
	now := o.now()
	attempt := &Attempt{
		ID:              uuid.NewString(),
		State:           StateIdle,
		ShippingAddress: req.Address,
		History:         []State{StateIdle},
		CreatedAt:       now,
		UpdatedAt:       now,
		sessionID:       req.SessionID,
		token:           req.Token,
		cart:            req.Cart,
	}

	if fields := validation.ValidateAddress(req.Address); len(fields) > 0 {
		attempt.FieldErrors = fields
		return attempt.snapshot(), ErrInvalidAddress
	}
	if req.Token == "" {
		return attempt.snapshot(), ErrUnauthenticated
	}

	items := req.Cart.Items()
	if len(items) == 0 {
		return attempt.snapshot(), ErrEmptyCart
	}

	o.mu.Lock()
	o.pruneLocked(now)
	o.supersedeLocked(req.SessionID)
	o.transitionLocked(attempt, StateAddressValidated)
	o.attempts[attempt.ID] = attempt
	o.active[req.SessionID] = attempt.ID
	o.mu.Unlock()

	logger := o.logger.WithFields(log.Fields{"session_id": req.SessionID, "attempt_id": attempt.ID})

	session, err := o.backend.CreateOrder(ctx, req.Token, api.CreateOrderRequest{
		Items:           items,
		ShippingAddress: req.Address,
	})
	if err != nil {
		logger.Errorf("❌ Création de commande échouée: %v", err)
		return o.abort(attempt.ID, ReasonOrderCreationFailed, api.UserMessage(err), false), fmt.Errorf("create order: %w", err)
	}

	o.mu.Lock()
	if attempt.State != StateAddressValidated {
		// remplacée pendant l'appel
		o.mu.Unlock()
		logger.Warnf("⚠️ Commande %s créée pour une tentative remplacée", session.OrderID)
		return o.Get(req.SessionID, attempt.ID)
	}
	attempt.Payment = &session
	o.transitionLocked(attempt, StateOrderCreated)
	o.mu.Unlock()
	logger.Infof("✅ Commande %s créée (%d %s)", session.OrderID, session.Amount, session.Currency)

	attemptID := attempt.ID
	err = o.widget.Open(ctx, attemptID, session, payment.Callbacks{
		OnSuccess: func(ctx context.Context, auth models.PaymentAuthorization) {
			o.onAuthorized(ctx, attemptID, auth)
		},
		OnFailure: func(_ context.Context, failure payment.Failure) {
			logger.Warnf("⚠️ Paiement échoué: %v", failure)
			o.abort(attemptID, ReasonPaymentFailed, failure.Error(), false)
		},
	})
	if err != nil {
		logger.Errorf("❌ Ouverture du widget impossible: %v", err)
		return o.abort(attemptID, ReasonPaymentFailed, "Le paiement n'a pas pu démarrer", false), fmt.Errorf("open widget: %w", err)
	}

	return o.Get(req.SessionID, attemptID)
}

// Get renvoie la tentative si elle appartient à la session
func (o *Orchestrator) Get(sessionID, attemptID string) (Attempt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	attempt, ok := o.attempts[attemptID]
	if !ok || attempt.sessionID != sessionID {
		return Attempt{}, ErrUnknownAttempt
	}
	return attempt.snapshot(), nil
}

// onAuthorized vérifie le paiement puis vide le panier. Un échec de vérification
// n'est jamais retenté : le client a peut-être été débité.
func (o *Orchestrator) onAuthorized(ctx context.Context, attemptID string, auth models.PaymentAuthorization) {
	// le client peut fermer l'onglet : la vérification doit aller au bout
	ctx = context.WithoutCancel(ctx)

	o.mu.Lock()
	attempt, ok := o.attempts[attemptID]
	if !ok {
		o.mu.Unlock()
		return
	}
	logger := o.logger.WithFields(log.Fields{"session_id": attempt.sessionID, "attempt_id": attemptID})
	if state := attempt.State; state != StateOrderCreated {
		// tentative remplacée ou expirée : l'argent a pu bouger, pas de vérification automatique
		attempt.ContactSupport = true
		attempt.Message = contactSupportMessage
		attempt.UpdatedAt = o.now()
		o.mu.Unlock()
		logger.Errorf("❌ Paiement %s autorisé pour une tentative dans l'état %s", auth.RazorpayPaymentID, state)
		return
	}
	o.transitionLocked(attempt, StatePaymentAuthorized)
	orderID := attempt.Payment.OrderID
	token := attempt.token
	o.mu.Unlock()

	order, err := o.backend.VerifyPayment(ctx, token, api.VerifyPaymentRequest{
		OrderID:              orderID,
		PaymentAuthorization: auth,
	})
	if err != nil {
		logger.Errorf("❌ Vérification du paiement %s échouée: %v", auth.RazorpayPaymentID, err)
		o.abort(attemptID, ReasonVerificationFailed, contactSupportMessage, true)
		return
	}

	o.mu.Lock()
	attempt.Order = &order
	o.transitionLocked(attempt, StatePaymentVerified)
	c := attempt.cart
	sessionID := attempt.sessionID
	o.mu.Unlock()

	if o.carts != nil {
		if live := o.carts(ctx, sessionID); live != nil {
			c = live
		}
	}
	c.Clear(ctx)

	o.mu.Lock()
	o.transitionLocked(attempt, StateCartCleared)
	if o.active[attempt.sessionID] == attemptID {
		delete(o.active, attempt.sessionID)
	}
	o.mu.Unlock()
	logger.Infof("✅ Commande %s payée", order.ID)
}

func (o *Orchestrator) abort(attemptID string, reason Reason, message string, contactSupport bool) Attempt {
	o.mu.Lock()
	defer o.mu.Unlock()

	attempt, ok := o.attempts[attemptID]
	if !ok {
		return Attempt{}
	}
	o.abortLocked(attempt, reason, message, contactSupport)
	return attempt.snapshot()
}

func (o *Orchestrator) abortLocked(attempt *Attempt, reason Reason, message string, contactSupport bool) {
	if attempt.State.IsTerminal() {
		return
	}
	attempt.Reason = reason
	attempt.Message = message
	attempt.ContactSupport = contactSupport
	o.transitionLocked(attempt, StateAborted)
	if o.active[attempt.sessionID] == attempt.ID {
		delete(o.active, attempt.sessionID)
	}
}

// supersedeLocked abandonne la tentative en cours de la session, sauf si le
// paiement est déjà autorisé : celle-ci doit aller au bout de la vérification.
// Le widget de l'ancienne tentative reste ouvert : un paiement qui y aboutit
// quand même doit remonter au client avec le message support.
func (o *Orchestrator) supersedeLocked(sessionID string) {
	previousID, ok := o.active[sessionID]
	if !ok {
		return
	}
	previous := o.attempts[previousID]
	if previous == nil || previous.State.IsTerminal() || previous.State == StatePaymentAuthorized || previous.State == StatePaymentVerified {
		return
	}

	o.abortLocked(previous, ReasonPaymentFailed, "Tentative remplacée par un nouveau checkout", false)
	o.logger.WithField("attempt_id", previousID).Info("Tentative de checkout remplacée")
}

func (o *Orchestrator) transitionLocked(attempt *Attempt, next State) {
	attempt.State = next
	attempt.History = append(attempt.History, next)
	attempt.UpdatedAt = o.now()
}

// Prune oublie les tentatives inactives depuis attemptRetention. Celles restées
// en attente du widget sont d'abord abandonnées (payment_failed).
func (o *Orchestrator) Prune() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pruneLocked(o.now())
}

// RunPruning lance Prune périodiquement jusqu'à l'annulation de ctx
func (o *Orchestrator) RunPruning(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := o.Prune(); n > 0 {
				o.logger.Infof("🧹 %d tentative(s) de checkout libérée(s)", n)
			}
		}
	}
}

func (o *Orchestrator) pruneLocked(now time.Time) int {
	pruned := 0
	for id, attempt := range o.attempts {
		if now.Sub(attempt.UpdatedAt) <= attemptRetention {
			continue
		}
		// vérification en cours : le client HTTP borne sa durée
		if attempt.State == StatePaymentAuthorized || attempt.State == StatePaymentVerified {
			continue
		}
		if !attempt.State.IsTerminal() {
			o.abortLocked(attempt, ReasonPaymentFailed, "Paiement non finalisé dans les délais", false)
		}
		o.cancelWidget(id)
		delete(o.attempts, id)
		if o.active[attempt.sessionID] == id {
			delete(o.active, attempt.sessionID)
		}
		pruned++
	}
	return pruned
}

func (o *Orchestrator) cancelWidget(attemptID string) {
	if canceler, ok := o.widget.(interface{ Cancel(attemptID string) }); ok {
		canceler.Cancel(attemptID)
	}
}

func (a *Attempt) snapshot() Attempt {
	out := *a
	out.History = append([]State(nil), a.History...)
	if a.FieldErrors != nil {
		out.FieldErrors = make(map[string]string, len(a.FieldErrors))
		for k, v := range a.FieldErrors {
			out.FieldErrors[k] = v
		}
	}
	if a.Payment != nil {
		p := *a.Payment
		out.Payment = &p
	}
	if a.Order != nil {
		order := *a.Order
		out.Order = &order
	}
	return out
}
