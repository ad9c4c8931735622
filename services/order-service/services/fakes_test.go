package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yashrajoria/multivendor-store/services/order-service/models"
	"github.com/yashrajoria/multivendor-store/services/order-service/repository"
)

type memOrders struct {
	mu        sync.Mutex
	orders    map[string]models.Order
	createErr error
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[string]models.Order{}}
}

func cloneOrder(o models.Order) models.Order {
	o.LineItems = append([]models.LineItem(nil), o.LineItems...)
	return o
}

func (m *memOrders) Create(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (m *memOrders) FindByID(ctx context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	c := cloneOrder(o)
	return &c, nil
}

func (m *memOrders) filter(keep func(models.Order) bool) []models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memOrders) FindByBuyer(ctx context.Context, buyer string) ([]models.Order, error) {
	return m.filter(func(o models.Order) bool { return o.Buyer == buyer }), nil
}

func (m *memOrders) FindByVendor(ctx context.Context, vendor string) ([]models.Order, error) {
	return m.filter(func(o models.Order) bool { return o.Vendor == vendor }), nil
}

func (m *memOrders) FindAll(ctx context.Context) ([]models.Order, error) {
	return m.filter(func(models.Order) bool { return true }), nil
}

func (m *memOrders) Update(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[order.ID]
	if !ok || stored.Version != order.Version {
		return repository.ErrStaleOrder
	}
	order.Version++
	m.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (m *memOrders) get(id string) models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

type memCatalog struct {
	mu       sync.Mutex
	products map[string]models.Product
}

func newMemCatalog(products ...models.Product) *memCatalog {
	c := &memCatalog{products: map[string]models.Product{}}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *memCatalog) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (c *memCatalog) DecrementStock(ctx context.Context, id string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if p.Stock < qty {
		return repository.ErrInsufficientStock
	}
	p.Stock -= qty
	c.products[id] = p
	return nil
}

func (c *memCatalog) RestoreStock(ctx context.Context, id string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock += qty
	c.products[id] = p
	return nil
}

func (c *memCatalog) stock(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products[id].Stock
}

type memCarts struct {
	mu      sync.Mutex
	entries map[string]map[string]int
}

func newMemCarts() *memCarts {
	return &memCarts{entries: map[string]map[string]int{}}
}

func (c *memCarts) put(user, product string, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[user] == nil {
		c.entries[user] = map[string]int{}
	}
	c.entries[user][product] = qty
}

func (c *memCarts) FindEntry(ctx context.Context, user, product string) (*models.CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	qty, ok := c.entries[user][product]
	if !ok {
		return nil, nil
	}
	return &models.CartItem{ProductID: product, Quantity: qty}, nil
}

func (c *memCarts) RemoveEntry(ctx context.Context, user, product string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[user][product]; !ok {
		return repository.ErrItemNotInCart
	}
	delete(c.entries[user], product)
	return nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers(users ...models.User) *memUsers {
	m := &memUsers{users: map[string]*models.User{}}
	for i := range users {
		u := users[i]
		m.users[u.ID] = &u
	}
	return m
}

func (m *memUsers) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (m *memUsers) AppendOrder(ctx context.Context, userID, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Orders = append(u.Orders, orderID)
	return nil
}

type sentOTP struct {
	to, orderID, code string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentOTP
	err  error
}

func (n *fakeNotifier) SendDeliveryOTP(ctx context.Context, to, orderID, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentOTP{to, orderID, code})
	return nil
}

func (n *fakeNotifier) last() sentOTP {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

type eventLog struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (e *eventLog) Publish(ctx context.Context, evt models.OrderEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, evt)
	return nil
}

func (e *eventLog) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, evt := range e.events {
		out = append(out, evt.Type)
	}
	return out
}

type memIdem struct {
	mu   sync.Mutex
	keys map[string]string
}

func (m *memIdem) Claim(ctx context.Context, buyer, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.keys[buyer+":"+key]
	if !ok {
		m.keys[buyer+":"+key] = ""
		return "", true, nil
	}
	return v, false, nil
}

func (m *memIdem) Complete(ctx context.Context, buyer, key, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[buyer+":"+key] = orderID
	return nil
}

func (m *memIdem) Release(ctx context.Context, buyer, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, buyer+":"+key)
	return nil
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

const (
	buyerID  = "buyer-1"
	vendorID = "vendor-1"
	adminID  = "admin-1"
)

var (
	buyer  = models.Principal{UserID: buyerID, Role: models.RoleUser}
	vendor = models.Principal{UserID: vendorID, Role: models.RoleVendor}
	admin  = models.Principal{UserID: adminID, Role: models.RoleAdmin}
)

type harness struct {
	svc      *OrderService
	orders   *memOrders
	catalog  *memCatalog
	carts    *memCarts
	users    *memUsers
	notifier *fakeNotifier
	events   *eventLog
	clock    *clock
}

func newHarness(products ...models.Product) *harness {
	h := &harness{
		orders:  newMemOrders(),
		catalog: newMemCatalog(products...),
		carts:   newMemCarts(),
		users: newMemUsers(
			models.User{ID: buyerID, Name: "Asha", Email: "asha@example.com", Role: models.RoleUser},
			models.User{ID: vendorID, Name: "Ravi", Email: "ravi@example.com", ShopName: "Ravi Kitchenware", Role: models.RoleVendor},
		),
		notifier: &fakeNotifier{},
		events:   &eventLog{},
		clock:    &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
	h.svc = NewOrderService(h.orders, h.catalog, h.carts, h.users, h.notifier, DefaultLedgerConfig(), zap.NewNop()).
		WithEvents(h.events).
		WithClock(h.clock.Now)
	return h
}

func kettle(stock int) models.Product {
	return models.Product{
		ID:                 "p-kettle",
		Title:              "Kettle",
		Price:              100,
		Stock:              stock,
		Vendor:             vendorID,
		PayOnDelivery:      true,
		ReplacementDays:    7,
		IsActive:           true,
		VerificationStatus: models.VerificationApproved,
	}
}

func f(v float64) *float64 { return &v }

func checkoutRequest(productID string, qty int, method models.PaymentMethod) *CreateOrderRequest {
	return &CreateOrderRequest{
		ProductID: productID,
		Quantity:  qty,
		Address: models.Address{
			Name:    "Asha",
			Phone:   "9999999999",
			Address: "12 MG Road",
			City:    "Pune",
			Pincode: "411001",
		},
		Amount:         f(280),
		DeliveryCharge: f(50),
		ServiceCharge:  f(30),
		PaymentMethod:  method,
	}
}

var errBoom = errors.New("boom")
