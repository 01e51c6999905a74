package payment

import (
	"context"
	"errors"
	"sync"

	"artisan_storefront/internal/models"

	log "github.com/sirupsen/logrus"
)

var (
	ErrUnknownAttempt   = errors.New("tentative de paiement inconnue")
	ErrDuplicateAttempt = errors.New("tentative de paiement déjà ouverte")
)

// Failure décrit un échec ou un abandon côté widget
type Failure struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Dismissed   bool   `json:"dismissed,omitempty"`
}

func (f Failure) Error() string {
	switch {
	case f.Dismissed:
		return "paiement abandonné par l'utilisateur"
	case f.Description != "":
		return f.Description
	case f.Code != "":
		return f.Code
	}
	return "paiement refusé"
}

// Callbacks sont les deux canaux de fin d'une tentative ; un seul est appelé, une seule fois.
type Callbacks struct {
	OnSuccess func(ctx context.Context, auth models.PaymentAuthorization)
	OnFailure func(ctx context.Context, failure Failure)
}

// Widget est la capacité de paiement externe
type Widget interface {
	Open(ctx context.Context, attemptID string, session models.PaymentSession, cb Callbacks) error
}

type pending struct {
	session models.PaymentSession
	cb      Callbacks
}

// CallbackWidget : le navigateur exécute le widget de la passerelle puis poste
// le résultat au storefront, qui résout la tentative en attente.
type CallbackWidget struct {
	mu       sync.Mutex
	attempts map[string]pending
	logger   log.FieldLogger
}

func NewCallbackWidget(logger log.FieldLogger) *CallbackWidget {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &CallbackWidget{
		attempts: make(map[string]pending),
		logger:   logger,
	}
}

func (w *CallbackWidget) Open(_ context.Context, attemptID string, session models.PaymentSession, cb Callbacks) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.attempts[attemptID]; exists {
		return ErrDuplicateAttempt
	}
	w.attempts[attemptID] = pending{session: session, cb: cb}
	w.logger.WithField("attempt_id", attemptID).Infof("💳 Widget ouvert pour la commande %s", session.OrderID)
	return nil
}

// Succeed résout la tentative via OnSuccess. La signature est vérifiée par le backend, pas ici.
func (w *CallbackWidget) Succeed(ctx context.Context, attemptID string, auth models.PaymentAuthorization) error {
	p, err := w.take(attemptID)
	if err != nil {
		return err
	}
	if auth.RazorpayOrderID != p.session.RazorpayOrderID {
		w.logger.WithField("attempt_id", attemptID).Warnf("⚠️ razorpay_order_id inattendu: %s", auth.RazorpayOrderID)
	}
	if p.cb.OnSuccess != nil {
		p.cb.OnSuccess(ctx, auth)
	}
	return nil
}

func (w *CallbackWidget) Fail(ctx context.Context, attemptID string, failure Failure) error {
	p, err := w.take(attemptID)
	if err != nil {
		return err
	}
	if p.cb.OnFailure != nil {
		p.cb.OnFailure(ctx, failure)
	}
	return nil
}

// Cancel oublie une tentative sans appeler de callback
func (w *CallbackWidget) Cancel(attemptID string) {
	w.mu.Lock()
	delete(w.attempts, attemptID)
	w.mu.Unlock()
}

func (w *CallbackWidget) Pending(attemptID string) (models.PaymentSession, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.attempts[attemptID]
	return p.session, ok
}

func (w *CallbackWidget) take(attemptID string) (pending, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.attempts[attemptID]
	if !ok {
		return pending{}, ErrUnknownAttempt
	}
	delete(w.attempts, attemptID)
	return p, nil
}
