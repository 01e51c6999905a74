package state

import (
	"sync/atomic"

	"artisan_storefront/internal/models"
)

// Sequencer numérote les requêtes d'une ressource. La réponse d'une requête
// plus ancienne que la dernière lancée est ignorée par les reducers.
type Sequencer struct {
	n atomic.Uint64
}

func (s *Sequencer) Next() uint64 {
	return s.n.Add(1)
}

// Remote est une donnée chargée depuis le backend avec son état de chargement
type Remote[T any] struct {
	Data    T      `json:"data"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Seq     uint64 `json:"-"`
}

func (r Remote[T]) begin(seq uint64) Remote[T] {
	if seq < r.Seq {
		return r
	}
	r.Seq = seq
	r.Loading = true
	r.Error = ""
	return r
}

func (r Remote[T]) resolve(seq uint64, data T) Remote[T] {
	if seq < r.Seq {
		return r
	}
	r.Seq = seq
	r.Data = data
	r.Loading = false
	r.Error = ""
	return r
}

func (r Remote[T]) fail(seq uint64, message string) Remote[T] {
	if seq < r.Seq {
		return r
	}
	r.Seq = seq
	r.Loading = false
	r.Error = message
	return r
}

// --- auth ---

type AuthState struct {
	Token   string       `json:"-"`
	User    *models.User `json:"user"`
	Loading bool         `json:"loading"`
	Error   string       `json:"error,omitempty"`
}

func (s AuthState) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

type AuthAction interface{ authAction() }

type (
	LoginStarted   struct{}
	LoginSucceeded struct{ Session models.AuthSession }
	LoginFailed    struct{ Message string }
	Logout         struct{}
	ClearAuthError struct{}
)

func (LoginStarted) authAction()   {}
func (LoginSucceeded) authAction() {}
func (LoginFailed) authAction()    {}
func (Logout) authAction()         {}
func (ClearAuthError) authAction() {}

func ReduceAuth(s AuthState, action AuthAction) AuthState {
	switch a := action.(type) {
	case LoginStarted:
		s.Loading = true
		s.Error = ""
	case LoginSucceeded:
		user := a.Session.User
		s = AuthState{Token: a.Session.Token, User: &user}
	case LoginFailed:
		s = AuthState{Error: a.Message}
	case Logout:
		s = AuthState{}
	case ClearAuthError:
		s.Error = ""
	}
	return s
}

// --- products ---

type ProductsState struct {
	List    Remote[models.ProductPage] `json:"list"`
	Current Remote[*models.Product]    `json:"current"`
}

type ProductsAction interface{ productsAction() }

type (
	ProductsRequested struct{ Seq uint64 }
	ProductsReceived  struct {
		Seq  uint64
		Page models.ProductPage
	}
	ProductsFailed struct {
		Seq     uint64
		Message string
	}
	ProductRequested struct{ Seq uint64 }
	ProductReceived  struct {
		Seq     uint64
		Product models.Product
	}
	ProductFailed struct {
		Seq     uint64
		Message string
	}
)

func (ProductsRequested) productsAction() {}
func (ProductsReceived) productsAction()  {}
func (ProductsFailed) productsAction()    {}
func (ProductRequested) productsAction()  {}
func (ProductReceived) productsAction()   {}
func (ProductFailed) productsAction()     {}

func ReduceProducts(s ProductsState, action ProductsAction) ProductsState {
	switch a := action.(type) {
	case ProductsRequested:
		s.List = s.List.begin(a.Seq)
	case ProductsReceived:
		if a.Page.Products == nil {
			a.Page.Products = []models.Product{}
		}
		s.List = s.List.resolve(a.Seq, a.Page)
	case ProductsFailed:
		s.List = s.List.fail(a.Seq, a.Message)
	case ProductRequested:
		s.Current = s.Current.begin(a.Seq)
	case ProductReceived:
		product := a.Product
		s.Current = s.Current.resolve(a.Seq, &product)
	case ProductFailed:
		s.Current = s.Current.fail(a.Seq, a.Message)
	}
	return s
}

// --- orders ---

type OrdersState struct {
	List    Remote[[]models.Order] `json:"list"`
	Current Remote[*models.Order]  `json:"current"`
}

type OrdersAction interface{ ordersAction() }

type (
	OrdersRequested struct{ Seq uint64 }
	OrdersReceived  struct {
		Seq    uint64
		Orders []models.Order
	}
	OrdersFailed struct {
		Seq     uint64
		Message string
	}
	OrderRequested struct{ Seq uint64 }
	OrderReceived  struct {
		Seq   uint64
		Order models.Order
	}
	OrderFailed struct {
		Seq     uint64
		Message string
	}
	OrdersReset struct{}
)

func (OrdersRequested) ordersAction() {}
func (OrdersReceived) ordersAction()  {}
func (OrdersFailed) ordersAction()    {}
func (OrderRequested) ordersAction()  {}
func (OrderReceived) ordersAction()   {}
func (OrderFailed) ordersAction()     {}
func (OrdersReset) ordersAction()     {}

func ReduceOrders(s OrdersState, action OrdersAction) OrdersState {
	switch a := action.(type) {
	case OrdersRequested:
		s.List = s.List.begin(a.Seq)
	case OrdersReceived:
		if a.Orders == nil {
			a.Orders = []models.Order{}
		}
		s.List = s.List.resolve(a.Seq, a.Orders)
	case OrdersFailed:
		s.List = s.List.fail(a.Seq, a.Message)
	case OrderRequested:
		s.Current = s.Current.begin(a.Seq)
	case OrderReceived:
		order := a.Order
		s.Current = s.Current.resolve(a.Seq, &order)
	case OrderFailed:
		s.Current = s.Current.fail(a.Seq, a.Message)
	case OrdersReset:
		// séquences avancées : toute réponse encore en vol devient périmée
		s = OrdersState{
			List:    Remote[[]models.Order]{Seq: s.List.Seq + 1},
			Current: Remote[*models.Order]{Seq: s.Current.Seq + 1},
		}
	}
	return s
}
