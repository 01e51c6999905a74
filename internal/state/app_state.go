package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"artisan_storefront/internal/cart"
	"artisan_storefront/internal/models"
	"artisan_storefront/internal/storage"

	log "github.com/sirupsen/logrus"
)

// Sequences regroupe un Sequencer par ressource chargée
type Sequences struct {
	ProductList   Sequencer
	ProductDetail Sequencer
	OrderList     Sequencer
	OrderDetail   Sequencer
}

// AppState est l'état applicatif d'une session navigateur : quatre tranches,
// chacune modifiée uniquement par son reducer.
type AppState struct {
	SessionID string
	Cart      *cart.Cart
	Seq       Sequences

	store  storage.Store
	logger log.FieldLogger

	mu       sync.Mutex
	auth     AuthState
	products ProductsState
	orders   OrdersState
	lastSeen time.Time
}

// Snapshot est la vue complète renvoyée au front
type Snapshot struct {
	SessionID string          `json:"session_id"`
	Auth      AuthState       `json:"auth"`
	Cart      cart.Projection `json:"cart"`
	Products  ProductsState   `json:"products"`
	Orders    OrdersState     `json:"orders"`
}

func newAppState(sessionID string, store storage.Store, logger log.FieldLogger) *AppState {
	logger = logger.WithField("session_id", sessionID)
	return &AppState{
		SessionID: sessionID,
		Cart:      cart.New(store, cart.WithLogger(logger)),
		store:     store,
		logger:    logger,
		lastSeen:  time.Now(),
	}
}

// hydrate relit token, user et panier. Rien ici ne remonte d'erreur : un
// emplacement illisible redonne l'état par défaut.
func (s *AppState) hydrate(ctx context.Context) {
	s.Cart.Hydrate(ctx)

	token, err := s.store.Get(ctx, storage.SlotToken)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warnf("⚠️ Lecture du token impossible: %v", err)
		}
		return
	}

	raw, err := s.store.Get(ctx, storage.SlotUser)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warnf("⚠️ Lecture de l'utilisateur impossible: %v", err)
		}
		return
	}
	user, err := storage.DecodeUser(raw)
	if err != nil {
		s.logger.Warnf("⚠️ Utilisateur persisté illisible: %v", err)
		return
	}

	s.mu.Lock()
	s.auth = ReduceAuth(s.auth, LoginSucceeded{Session: models.AuthSession{Token: string(token), User: user}})
	s.mu.Unlock()
}

func (s *AppState) Auth() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth
}

func (s *AppState) Products() ProductsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products
}

func (s *AppState) Orders() OrdersState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders
}

func (s *AppState) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		SessionID: s.SessionID,
		Auth:      s.auth,
		Products:  s.products,
		Orders:    s.orders,
	}
	s.mu.Unlock()
	snap.Cart = s.Cart.Projection()
	return snap
}

// DispatchAuth applique l'action puis synchronise les emplacements token/user.
// Un échec de persistance est seulement loggé.
func (s *AppState) DispatchAuth(ctx context.Context, action AuthAction) AuthState {
	s.mu.Lock()
	s.auth = ReduceAuth(s.auth, action)
	if _, ok := action.(Logout); ok {
		s.orders = ReduceOrders(s.orders, OrdersReset{})
	}
	next := s.auth
	s.mu.Unlock()

	switch a := action.(type) {
	case LoginSucceeded:
		s.persistSession(ctx, a.Session)
	case Logout:
		for _, slot := range []string{storage.SlotToken, storage.SlotUser} {
			if err := s.store.Delete(ctx, slot); err != nil {
				s.logger.Errorf("❌ Suppression %s échouée: %v", slot, err)
			}
		}
	}
	return next
}

func (s *AppState) DispatchProducts(action ProductsAction) ProductsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = ReduceProducts(s.products, action)
	return s.products
}

func (s *AppState) DispatchOrders(action OrdersAction) OrdersState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = ReduceOrders(s.orders, action)
	return s.orders
}

func (s *AppState) persistSession(ctx context.Context, session models.AuthSession) {
	if err := s.store.Set(ctx, storage.SlotToken, []byte(session.Token)); err != nil {
		s.logger.Errorf("❌ Sauvegarde du token échouée: %v", err)
		return
	}
	data, err := storage.EncodeUser(session.User)
	if err != nil {
		s.logger.Errorf("❌ Sérialisation utilisateur: %v", err)
		return
	}
	if err := s.store.Set(ctx, storage.SlotUser, data); err != nil {
		s.logger.Errorf("❌ Sauvegarde utilisateur échouée: %v", err)
	}
}

func (s *AppState) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *AppState) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}
