package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"artisan_storefront/internal/models"
	"artisan_storefront/internal/pricing"
	"artisan_storefront/internal/storage"

	log "github.com/sirupsen/logrus"
)

const persistTimeout = 2 * time.Second

var ErrInsufficientStock = errors.New("stock insuffisant")

// Cart est l'agrégat panier d'une session. Il reste la source de vérité
// de la session même quand la persistance échoue.
//
// Toutes les mutations passent par mu, persistance comprise : la mutation
// suivante lit toujours un état déjà écrit.
type Cart struct {
	mu    sync.Mutex
	items []models.CartLineItem
	total int64

	store  storage.Store
	logger log.FieldLogger

	listenersMu sync.Mutex
	listeners   map[int]func(Projection)
	nextID      int
}

type Option func(*Cart)

func WithLogger(logger log.FieldLogger) Option {
	return func(c *Cart) { c.logger = logger }
}

func New(store storage.Store, opts ...Option) *Cart {
	c := &Cart{
		items:     []models.CartLineItem{},
		store:     store,
		logger:    log.StandardLogger(),
		listeners: make(map[int]func(Projection)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Hydrate relit le panier persisté. En cas d'échec on log et on repart d'un panier vide.
func (c *Cart) Hydrate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = []models.CartLineItem{}
	c.total = 0

	if c.store == nil {
		return
	}

	data, err := c.store.Get(ctx, storage.SlotCart)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		c.logger.Warnf("⚠️ Lecture panier impossible, panier vide: %v", err)
		return
	}

	items, err := storage.DecodeCart(data)
	if err != nil {
		c.logger.Warnf("⚠️ Panier persisté illisible, panier vide: %v", err)
		return
	}

	c.items = normalize(items)
	c.recompute()
}

// Add fusionne sur (product_id, variant_id) : seule la quantité s'accumule,
// titre et prix de la ligne existante sont conservés.
func (c *Cart) Add(ctx context.Context, item models.CartLineItem) Projection {
	if item.Quantity <= 0 {
		c.logger.Debugf("ajout ignoré, quantité %d pour %s", item.Quantity, item.ProductID)
		return c.Projection()
	}

	return c.mutate(ctx, func(items []models.CartLineItem) []models.CartLineItem {
		return addLine(items, item)
	})
}

// AddWithinStock ajoute comme Add mais refuse, sous le même verrou, un ajout
// qui porterait la ligne au-delà de stock.
func (c *Cart) AddWithinStock(ctx context.Context, item models.CartLineItem, stock int) (Projection, error) {
	if item.Quantity <= 0 {
		return c.Projection(), nil
	}

	return c.tryMutate(ctx, func(items []models.CartLineItem) ([]models.CartLineItem, error) {
		if quantityOf(items, item.Key())+item.Quantity > stock {
			return nil, ErrInsufficientStock
		}
		return addLine(items, item), nil
	})
}

func addLine(items []models.CartLineItem, item models.CartLineItem) []models.CartLineItem {
	key := item.Key()
	for i := range items {
		if items[i].Key() == key {
			items[i].Quantity += item.Quantity
			return items
		}
	}
	return append(items, cloneItem(item))
}

func quantityOf(items []models.CartLineItem, key models.LineKey) int {
	for _, item := range items {
		if item.Key() == key {
			return item.Quantity
		}
	}
	return 0
}

// Remove supprime la ligne correspondante ; sans correspondance c'est un no-op.
func (c *Cart) Remove(ctx context.Context, productID string, variantID *string) Projection {
	key := models.NewLineKey(productID, variantID)
	return c.mutate(ctx, func(items []models.CartLineItem) []models.CartLineItem {
		return removeKey(items, key)
	})
}

// UpdateQuantity fixe la quantité ; une quantité <= 0 équivaut à Remove.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, variantID *string, quantity int) Projection {
	key := models.NewLineKey(productID, variantID)
	return c.mutate(ctx, func(items []models.CartLineItem) []models.CartLineItem {
		if quantity <= 0 {
			return removeKey(items, key)
		}
		for i := range items {
			if items[i].Key() == key {
				items[i].Quantity = quantity
				break
			}
		}
		return items
	})
}

func (c *Cart) Clear(ctx context.Context) Projection {
	return c.mutate(ctx, func([]models.CartLineItem) []models.CartLineItem {
		return []models.CartLineItem{}
	})
}

// Sync remplace tout le contenu (ex. fusion panier invité → compte après login).
func (c *Cart) Sync(ctx context.Context, items []models.CartLineItem) Projection {
	replacement := normalize(items)
	return c.mutate(ctx, func([]models.CartLineItem) []models.CartLineItem {
		return replacement
	})
}

func (c *Cart) Items() []models.CartLineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneItems(c.items)
}

func (c *Cart) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

func (c *Cart) Snapshot() models.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.Cart{Items: cloneItems(c.items), TotalCents: c.total}
}

func (c *Cart) Projection() Projection {
	return Project(c.Items())
}

// OnChange enregistre un abonné appelé après chaque mutation
func (c *Cart) OnChange(fn func(Projection)) (unsubscribe func()) {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		delete(c.listeners, id)
		c.listenersMu.Unlock()
	}
}

func (c *Cart) mutate(ctx context.Context, fn func([]models.CartLineItem) []models.CartLineItem) Projection {
	projection, _ := c.tryMutate(ctx, func(items []models.CartLineItem) ([]models.CartLineItem, error) {
		return fn(items), nil
	})
	return projection
}

// tryMutate applique fn sous verrou ; si fn échoue, rien n'est modifié ni persisté.
func (c *Cart) tryMutate(ctx context.Context, fn func([]models.CartLineItem) ([]models.CartLineItem, error)) (Projection, error) {
	c.mu.Lock()
	items, err := fn(c.items)
	if err != nil {
		projection := Project(cloneItems(c.items))
		c.mu.Unlock()
		return projection, err
	}

	c.items = items
	if c.items == nil {
		c.items = []models.CartLineItem{}
	}
	c.recompute()
	c.persist(ctx)
	projection := Project(cloneItems(c.items))
	c.mu.Unlock()

	c.notify(projection)
	return projection, nil
}

func (c *Cart) recompute() {
	c.total = pricing.ComputeTotal(c.items)
}

// persist n'interrompt jamais la mutation : l'erreur est seulement loggée.
func (c *Cart) persist(ctx context.Context) {
	if c.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	data, err := storage.EncodeCart(c.items)
	if err != nil {
		c.logger.Errorf("❌ Sérialisation panier: %v", err)
		return
	}
	if err := c.store.Set(ctx, storage.SlotCart, data); err != nil {
		c.logger.Errorf("❌ Sauvegarde panier échouée: %v", err)
	}
}

func (c *Cart) notify(p Projection) {
	c.listenersMu.Lock()
	listeners := make([]func(Projection), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(p)
	}
}

// normalize retire les quantités <= 0 et fusionne les doublons en gardant l'ordre d'insertion
func normalize(items []models.CartLineItem) []models.CartLineItem {
	out := make([]models.CartLineItem, 0, len(items))
	index := make(map[models.LineKey]int, len(items))

	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if i, ok := index[item.Key()]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.Key()] = len(out)
		out = append(out, cloneItem(item))
	}
	return out
}

func removeKey(items []models.CartLineItem, key models.LineKey) []models.CartLineItem {
	out := items[:0]
	for _, item := range items {
		if item.Key() != key {
			out = append(out, item)
		}
	}
	return out
}

func cloneItem(item models.CartLineItem) models.CartLineItem {
	if item.VariantID != nil {
		v := *item.VariantID
		item.VariantID = &v
	}
	return item
}

func cloneItems(items []models.CartLineItem) []models.CartLineItem {
	out := make([]models.CartLineItem, len(items))
	for i, item := range items {
		out[i] = cloneItem(item)
	}
	return out
}
