package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// インメモリのストア。Tx相当はmutex＋スナップショット復元で模倣する。
// （tx_manager_gorm.goの挙動：fnがエラーなら全ロールバック）
type memState struct {
	items      map[int64]model.Item
	carts      map[int64]model.Cart
	cartItems  map[int64]model.CartItem
	orders     map[int64]model.Order
	orderItems map[int64]model.OrderItem
	nextID     int64
}

func newMemState() *memState {
	return &memState{
		items:      map[int64]model.Item{},
		carts:      map[int64]model.Cart{},
		cartItems:  map[int64]model.CartItem{},
		orders:     map[int64]model.Order{},
		orderItems: map[int64]model.OrderItem{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	c.nextID = s.nextID
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = v
	}
	for k, v := range s.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = v
	}
	return c
}

func (s *memState) newID() int64 {
	s.nextID++
	return s.nextID
}

func (s *memState) addItem(name string, price string, stock int64) model.Item {
	it := model.Item{
		ID:         s.newID(),
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		CategoryID: 1,
	}
	s.items[it.ID] = it
	return it
}

func (s *memState) addCart(userID int64) model.Cart {
	cart := model.Cart{ID: s.newID(), UserID: userID}
	s.carts[cart.ID] = cart
	return cart
}

func (s *memState) addCartItem(cartID int64, itemID int64, qty int64) model.CartItem {
	line := model.CartItem{ID: s.newID(), CartID: cartID, ItemID: itemID, Quantity: qty}
	s.cartItems[line.ID] = line
	return line
}

type memTxManager struct {
	mu    sync.Mutex
	state *memState
}

func newMemTxManager(state *memState) *memTxManager {
	return &memTxManager{state: state}
}

func (m *memTxManager) WithinTx(_ context.Context, fn func(r repo.TxRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(&memTxRepos{s: m.state}); err != nil {
		//ロールバック
		*m.state = *snapshot
		return err
	}
	return nil
}

type memTxRepos struct {
	s *memState
}

func (r *memTxRepos) Items() repo.ItemRepository           { return &memItemRepo{s: r.s} }
func (r *memTxRepos) Carts() repo.CartRepository           { return &memCartRepo{s: r.s} }
func (r *memTxRepos) CartItems() repo.CartItemRepository   { return &memCartItemRepo{s: r.s} }
func (r *memTxRepos) Orders() repo.OrderRepository         { return &memOrderRepo{s: r.s} }
func (r *memTxRepos) OrderItems() repo.OrderItemRepository { return &memOrderItemRepo{s: r.s} }
func (r *memTxRepos) Inventory() repo.InventoryRepository  { return &memInventoryRepo{s: r.s} }

type memItemRepo struct {
	s *memState
}

func (r *memItemRepo) List(_ context.Context, q repo.ItemListQuery) ([]model.Item, int64, error) {
	items := make([]model.Item, 0, len(r.s.items))
	for _, it := range r.s.items {
		if q.CategoryID != nil && it.CategoryID != *q.CategoryID {
			continue
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, int64(len(items)), nil
}

func (r *memItemRepo) FindByID(_ context.Context, id int64) (model.Item, error) {
	it, ok := r.s.items[id]
	if !ok {
		return model.Item{}, repo.ErrNotFound
	}
	return it, nil
}

func (r *memItemRepo) FindByIDForUpdate(ctx context.Context, id int64) (model.Item, error) {
	//ロックはmemTxManagerのmutexが担う
	return r.FindByID(ctx, id)
}

type memCartRepo struct {
	s *memState
}

func (r *memCartRepo) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	if cart, err := r.FindByUserID(ctx, userID); err == nil {
		return cart, nil
	}
	cart := r.s.addCart(userID)
	return cart, nil
}

func (r *memCartRepo) FindByUserID(_ context.Context, userID int64) (model.Cart, error) {
	for _, cart := range r.s.carts {
		if cart.UserID == userID {
			return cart, nil
		}
	}
	return model.Cart{}, repo.ErrNotFound
}

func (r *memCartRepo) Clear(_ context.Context, cartID int64) error {
	if _, ok := r.s.carts[cartID]; !ok {
		return repo.ErrNotFound
	}
	for id, line := range r.s.cartItems {
		if line.CartID == cartID {
			delete(r.s.cartItems, id)
		}
	}
	return nil
}

type memCartItemRepo struct {
	s *memState
}

func (r *memCartItemRepo) ListByCartID(_ context.Context, cartID int64) ([]model.CartItem, error) {
	lines := make([]model.CartItem, 0)
	for _, line := range r.s.cartItems {
		if line.CartID == cartID {
			lines = append(lines, line)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}

func (r *memCartItemRepo) UpsertByCartAndItem(_ context.Context, cartID int64, itemID int64, addQty int64) error {
	if addQty <= 0 {
		return errors.New("invalid quantity")
	}
	for id, line := range r.s.cartItems {
		if line.CartID == cartID && line.ItemID == itemID {
			line.Quantity += addQty
			r.s.cartItems[id] = line
			return nil
		}
	}
	r.s.addCartItem(cartID, itemID, addQty)
	return nil
}

func (r *memCartItemRepo) UpdateQuantity(_ context.Context, cartItemID int64, qty int64) error {
	line, ok := r.s.cartItems[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	line.Quantity = qty
	r.s.cartItems[cartItemID] = line
	return nil
}

func (r *memCartItemRepo) DeleteByID(_ context.Context, cartItemID int64) error {
	if _, ok := r.s.cartItems[cartItemID]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.cartItems, cartItemID)
	return nil
}

func (r *memCartItemRepo) FindByID(_ context.Context, cartItemID int64) (model.CartItem, error) {
	line, ok := r.s.cartItems[cartItemID]
	if !ok {
		return model.CartItem{}, repo.ErrNotFound
	}
	return line, nil
}

func (r *memCartItemRepo) IsOwnedByUser(_ context.Context, cartItemID int64, userID int64) (bool, error) {
	line, ok := r.s.cartItems[cartItemID]
	if !ok {
		return false, nil
	}
	cart, ok := r.s.carts[line.CartID]
	if !ok {
		return false, nil
	}
	return cart.UserID == userID, nil
}

type memOrderRepo struct {
	s *memState
}

func (r *memOrderRepo) Create(_ context.Context, order model.Order) (int64, error) {
	//idempotency_keyのuniqueIndexを模倣
	for _, o := range r.s.orders {
		if o.IdempotencyKey == order.IdempotencyKey {
			return 0, fmt.Errorf("duplicate key: %s", order.IdempotencyKey)
		}
	}
	order.ID = r.s.newID()
	r.s.orders[order.ID] = order
	return order.ID, nil
}

func (r *memOrderRepo) FindByID(_ context.Context, orderID int64) (model.Order, error) {
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r *memOrderRepo) ListByUserID(_ context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	orders := make([]model.Order, 0)
	for _, o := range r.s.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, int64(len(orders)), nil
}

func (r *memOrderRepo) UpdateStatus(_ context.Context, orderID int64, status model.OrderStatus) error {
	o, ok := r.s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	r.s.orders[orderID] = o
	return nil
}

func (r *memOrderRepo) FindByIdempotencyKey(_ context.Context, userID int64, key string) (model.Order, bool, error) {
	for _, o := range r.s.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

type memOrderItemRepo struct {
	s *memState
}

func (r *memOrderItemRepo) CreateBulk(_ context.Context, orderID int64, items []model.OrderItem) error {
	for _, it := range items {
		it.OrderID = orderID
		it.ID = r.s.newID()
		r.s.orderItems[it.ID] = it
	}
	return nil
}

func (r *memOrderItemRepo) ListByOrderID(_ context.Context, orderID int64) ([]model.OrderItem, error) {
	items := make([]model.OrderItem, 0)
	for _, it := range r.s.orderItems {
		if it.OrderID == orderID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

type memInventoryRepo struct {
	s *memState
}

func (r *memInventoryRepo) DecreaseStockIfEnough(_ context.Context, itemID int64, qty int64) (bool, error) {
	it, ok := r.s.items[itemID]
	if !ok || it.Stock < qty {
		return false, nil
	}
	it.Stock -= qty
	r.s.items[itemID] = it
	return true, nil
}

func (r *memInventoryRepo) IncreaseStock(_ context.Context, itemID int64, qty int64) error {
	it, ok := r.s.items[itemID]
	if !ok {
		return repo.ErrNotFound
	}
	it.Stock += qty
	r.s.items[itemID] = it
	return nil
}

// 連番を返すIDGenerator
type seqIDGen struct {
	n int64
}

func (g *seqIDGen) NewID() string {
	return fmt.Sprintf("key-%d", atomic.AddInt64(&g.n, 1))
}
