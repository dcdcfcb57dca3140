package service_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
)

var errInjected = errors.New("injected failure")

// memStore - хранилище в памяти с транзакциями: RunInTx сериализует транзакции,
// при ошибке восстанавливает снимок, сделанный перед fn.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	products   map[int64]models.Product
	categories map[int64]bool
	sizes      map[int64]string
	variants   map[int64]models.ProductVariant
	orders     map[int64]models.Order
	items      map[int64]models.OrderItem

	nextOrderID int64
	nextItemID  int64

	// failCreateItemAt - номер вызова CreateOrderItem (с 1), который вернёт ошибку
	failCreateItemAt int
	createItemCalls  int
	failDecrement    bool
	failGetOrder     bool
	// beforeTx вызывается внутри RunInTx до fn
	beforeTx func()
}

var (
	_ storage.TxRunner       = (*memStore)(nil)
	_ storage.VariantStorage = (*memStore)(nil)
	_ storage.ProductStorage = (*memStore)(nil)
	_ storage.OrderStorage   = (*memStore)(nil)
	_ storage.SizeStorage    = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		products:   make(map[int64]models.Product),
		categories: make(map[int64]bool),
		sizes:      make(map[int64]string),
		variants:   make(map[int64]models.ProductVariant),
		orders:     make(map[int64]models.Order),
		items:      make(map[int64]models.OrderItem),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (m *memStore) addProduct(id int64, name, price string) {
	m.products[id] = models.Product{ID: id, Name: name, Price: decimal.RequireFromString(price)}
}

func (m *memStore) addVariant(id, productID, sizeID int64, color string, qty int) {
	m.sizes[sizeID] = "M"
	m.variants[id] = models.ProductVariant{ID: id, ProductID: productID, SizeID: sizeID, Color: color, Quantity: qty}
}

func (m *memStore) stock(variantID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.variants[variantID].Quantity
}

func (m *memStore) counts() (orders, items int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders), len(m.items)
}

type memSnapshot struct {
	variants    map[int64]models.ProductVariant
	orders      map[int64]models.Order
	items       map[int64]models.OrderItem
	nextOrderID int64
	nextItemID  int64
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memSnapshot{
		variants:    copyMap(m.variants),
		orders:      copyMap(m.orders),
		items:       copyMap(m.items),
		nextOrderID: m.nextOrderID,
		nextItemID:  m.nextItemID,
	}
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variants = s.variants
	m.orders = s.orders
	m.items = s.items
	m.nextOrderID = s.nextOrderID
	m.nextItemID = s.nextItemID
}

func (m *memStore) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if m.beforeTx != nil {
		m.beforeTx()
	}

	snap := m.snapshot()
	if err := fn(nil); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) FindProduct(ctx context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	return &p, nil
}

func (m *memStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Product
	for _, p := range m.products {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListFeaturedProducts(ctx context.Context) ([]*models.Product, error) {
	all, _ := m.ListProducts(ctx)
	var out []*models.Product
	for _, p := range all {
		if p.IsFeatured {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CategoryID != nil && !m.categories[*p.CategoryID] {
		return nil, storage.ErrReferenceNotFound
	}
	var maxID int64
	for id := range m.products {
		if id > maxID {
			maxID = id
		}
	}
	p.ID = maxID + 1
	m.products[p.ID] = *p
	return p, nil
}

func (m *memStore) CreateSize(ctx context.Context, size *models.Size) (*models.Size, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var maxID int64
	for id, t := range m.sizes {
		if t == size.Type {
			return nil, storage.ErrSizeExists
		}
		if id > maxID {
			maxID = id
		}
	}
	size.ID = maxID + 1
	m.sizes[size.ID] = size.Type
	return size, nil
}

func (m *memStore) ListSizes(ctx context.Context) ([]models.Size, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Size
	for id, t := range m.sizes {
		out = append(out, models.Size{ID: id, Type: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) FindVariant(ctx context.Context, productID, sizeID int64, color string) (*models.ProductVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.variants {
		if v.ProductID == productID && v.SizeID == sizeID && v.Color == color {
			v := v
			return &v, nil
		}
	}
	return nil, storage.ErrVariantNotFound
}

func (m *memStore) ListVariantsByProduct(ctx context.Context, productID int64) ([]models.ProductVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ProductVariant
	for _, v := range m.variants {
		if v.ProductID == productID {
			v.SizeType = m.sizes[v.SizeID]
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) DecrementVariantQuantity(ctx context.Context, tx *sql.Tx, variantID int64, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDecrement {
		return 0, errInjected
	}
	v, ok := m.variants[variantID]
	if !ok || v.Quantity < amount {
		return 0, storage.ErrInsufficientStock
	}
	v.Quantity -= amount
	m.variants[variantID] = v
	return v.Quantity, nil
}

func (m *memStore) IncrementVariantQuantity(ctx context.Context, tx *sql.Tx, variantID int64, amount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[variantID]
	if !ok {
		return storage.ErrVariantNotFound
	}
	v.Quantity += amount
	m.variants[variantID] = v
	return nil
}

func (m *memStore) UpsertVariant(ctx context.Context, in *models.ProductVariant) (*models.ProductVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[in.ProductID]; !ok {
		return nil, storage.ErrReferenceNotFound
	}
	if _, ok := m.sizes[in.SizeID]; !ok {
		return nil, storage.ErrReferenceNotFound
	}
	var maxID int64
	for id, v := range m.variants {
		if v.ProductID == in.ProductID && v.SizeID == in.SizeID && v.Color == in.Color {
			v.Quantity += in.Quantity
			m.variants[id] = v
			return &v, nil
		}
		if id > maxID {
			maxID = id
		}
	}
	out := *in
	out.ID = maxID + 1
	m.variants[out.ID] = out
	return &out, nil
}

func (m *memStore) CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextOrderID++
	order.ID = m.nextOrderID
	stored := *order
	stored.Items = nil
	m.orders[order.ID] = stored
	return nil
}

func (m *memStore) CreateOrderItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createItemCalls++
	if m.failCreateItemAt > 0 && m.createItemCalls == m.failCreateItemAt {
		return errInjected
	}
	m.nextItemID++
	item.ID = m.nextItemID
	m.items[item.ID] = *item
	return nil
}

func (m *memStore) LockOrderStatus(ctx context.Context, tx *sql.Tx, id int64) (models.OrderStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return "", storage.ErrOrderNotFound
	}
	return o.Status, nil
}

func (m *memStore) DeleteOrderItem(ctx context.Context, tx *sql.Tx, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return storage.ErrOrderItemNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memStore) DeleteOrder(ctx context.Context, tx *sql.Tx, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return storage.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *memStore) withItems(o models.Order) *models.Order {
	o.Items = nil
	for _, it := range m.items {
		if it.OrderID == o.ID {
			o.Items = append(o.Items, it)
		}
	}
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].ID < o.Items[j].ID })
	return &o
}

func (m *memStore) GetOrder(ctx context.Context, id int64, ownerID *int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGetOrder {
		return nil, errInjected
	}
	o, ok := m.orders[id]
	if !ok || (ownerID != nil && o.UserID != *ownerID) {
		return nil, storage.ErrOrderNotFound
	}
	return m.withItems(o), nil
}

func (m *memStore) listOrders(match func(models.Order) bool) []*models.Order {
	var out []*models.Order
	for _, o := range m.orders {
		if match(o) {
			out = append(out, m.withItems(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listOrders(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (m *memStore) GetAllOrders(ctx context.Context) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listOrders(func(models.Order) bool { return true }), nil
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	o.Status = status
	m.orders[id] = o
	return m.withItems(o), nil
}

// setStatus меняет статус напрямую, минуя сервис
func (m *memStore) setStatus(id int64, status models.OrderStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.orders[id]
	o.Status = status
	m.orders[id] = o
}
