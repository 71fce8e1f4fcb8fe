package service_test

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
)

// memState is a mutex-guarded in-memory database shared by the fake
// repositories. The fake transaction manager snapshots it before the
// function runs and restores the snapshot on error, mimicking a rollback.
type memState struct {
	mu sync.Mutex

	products  map[int64]domain.Product
	variants  map[int64]domain.Variant
	prices    map[int64]domain.Price
	inventory map[int64]domain.Inventory
	carts     map[uuid.UUID]domain.Cart
	coupons   map[int64]domain.Coupon

	redemptions []domain.CouponRedemption
	orders      map[uuid.UUID]domain.Order
	history     []domain.OrderStatusChange
	payments    map[int64]domain.Payment
	events      []domain.PaymentEvent

	priceSeq, itemSeq, historySeq, paymentSeq, eventSeq, redemptionSeq, orderItemSeq int64
}

func newMemState() *memState {
	return &memState{
		products:  map[int64]domain.Product{},
		variants:  map[int64]domain.Variant{},
		prices:    map[int64]domain.Price{},
		inventory: map[int64]domain.Inventory{},
		carts:     map[uuid.UUID]domain.Cart{},
		coupons:   map[int64]domain.Coupon{},
		orders:    map[uuid.UUID]domain.Order{},
		payments:  map[int64]domain.Payment{},
	}
}

func (s *memState) stores() port.Stores {
	return port.Stores{
		Catalog:   &memCatalog{s},
		Prices:    &memPrices{s},
		Inventory: &memInventory{s},
		Carts:     &memCarts{s},
		Coupons:   &memCoupons{s},
		Orders:    &memOrders{s},
		Payments:  &memPayments{s},
	}
}

func (s *memState) snapshot() *memState {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := newMemState()
	for k, v := range s.products {
		clone.products[k] = v
	}
	for k, v := range s.variants {
		clone.variants[k] = v
	}
	for k, v := range s.prices {
		clone.prices[k] = v
	}
	for k, v := range s.inventory {
		clone.inventory[k] = v
	}
	for k, v := range s.carts {
		v.Items = slices.Clone(v.Items)
		clone.carts[k] = v
	}
	for k, v := range s.coupons {
		clone.coupons[k] = v
	}
	for k, v := range s.orders {
		v.Items = slices.Clone(v.Items)
		clone.orders[k] = v
	}
	for k, v := range s.payments {
		clone.payments[k] = v
	}
	clone.redemptions = slices.Clone(s.redemptions)
	clone.history = slices.Clone(s.history)
	clone.events = slices.Clone(s.events)

	clone.priceSeq = s.priceSeq
	clone.itemSeq = s.itemSeq
	clone.historySeq = s.historySeq
	clone.paymentSeq = s.paymentSeq
	clone.eventSeq = s.eventSeq
	clone.redemptionSeq = s.redemptionSeq
	clone.orderItemSeq = s.orderItemSeq

	return clone
}

func (s *memState) restore(from *memState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = from.products
	s.variants = from.variants
	s.prices = from.prices
	s.inventory = from.inventory
	s.carts = from.carts
	s.coupons = from.coupons
	s.redemptions = from.redemptions
	s.orders = from.orders
	s.history = from.history
	s.payments = from.payments
	s.events = from.events

	s.priceSeq = from.priceSeq
	s.itemSeq = from.itemSeq
	s.historySeq = from.historySeq
	s.paymentSeq = from.paymentSeq
	s.eventSeq = from.eventSeq
	s.redemptionSeq = from.redemptionSeq
	s.orderItemSeq = from.orderItemSeq
}

type memTx struct {
	state *memState
}

func (m *memTx) Within(ctx context.Context, fn func(ctx context.Context, s port.Stores) error) error {
	snapshot := m.state.snapshot()

	if err := fn(ctx, m.state.stores()); err != nil {
		m.state.restore(snapshot)
		return err
	}

	return nil
}

// hookedTx runs a callback before delegating, letting tests interleave a
// competing write between an operation's validation phase and its
// transaction.
type hookedTx struct {
	inner  port.TxManager
	before func()
}

func (h *hookedTx) Within(ctx context.Context, fn func(ctx context.Context, s port.Stores) error) error {
	h.before()
	return h.inner.Within(ctx, fn)
}

type memCatalog struct{ s *memState }

func (r *memCatalog) GetProduct(_ context.Context, productID int64) (domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	product, ok := r.s.products[productID]
	if !ok {
		return domain.Product{}, domain.NewNotFoundError("product", "%d", productID)
	}
	return product, nil
}

func (r *memCatalog) GetVariant(_ context.Context, variantID int64) (domain.Variant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	variant, ok := r.s.variants[variantID]
	if !ok {
		return domain.Variant{}, domain.NewNotFoundError("variant", "%d", variantID)
	}
	return variant, nil
}

type memPrices struct{ s *memState }

func (r *memPrices) ActivePrices(_ context.Context, variantID int64) ([]domain.Price, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.Price
	for _, p := range r.s.prices {
		if p.VariantID == variantID && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPrices) ActiveScheduled(ctx context.Context, variantID int64) ([]domain.Price, error) {
	prices, err := r.ActivePrices(ctx, variantID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(prices, func(p domain.Price, _ int) bool { return p.IsScheduled() }), nil
}

func (r *memPrices) DeactivateAll(_ context.Context, variantID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, p := range r.s.prices {
		if p.VariantID == variantID {
			p.IsActive = false
			r.s.prices[id] = p
		}
	}
	return nil
}

func (r *memPrices) InsertPrice(_ context.Context, price domain.Price) (domain.Price, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.priceSeq++
	price.ID = r.s.priceSeq
	price.CreatedAt = time.Now()
	r.s.prices[price.ID] = price
	return price, nil
}

type memInventory struct{ s *memState }

func (r *memInventory) Get(_ context.Context, variantID int64) (domain.Inventory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inv, ok := r.s.inventory[variantID]
	if !ok {
		inv = domain.Inventory{VariantID: variantID}
		r.s.inventory[variantID] = inv
	}
	return inv, nil
}

func (r *memInventory) Reserve(_ context.Context, variantID int64, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inv := r.s.inventory[variantID]
	if inv.Quantity < qty {
		return &domain.InsufficientStockError{
			VariantID: variantID,
			Requested: qty,
			Available: inv.Quantity,
		}
	}

	inv.VariantID = variantID
	inv.Quantity -= qty
	r.s.inventory[variantID] = inv
	return nil
}

func (r *memInventory) Release(_ context.Context, variantID int64, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inv := r.s.inventory[variantID]
	inv.VariantID = variantID
	inv.Quantity += qty
	r.s.inventory[variantID] = inv
	return nil
}

type memCarts struct{ s *memState }

func (r *memCarts) FindByUser(_ context.Context, userID int64) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, cart := range r.s.carts {
		if cart.UserID != nil && *cart.UserID == userID {
			cart.Items = slices.Clone(cart.Items)
			return &cart, nil
		}
	}
	return nil, nil
}

func (r *memCarts) FindByGuest(_ context.Context, guestToken string) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, cart := range r.s.carts {
		if cart.GuestToken != nil && *cart.GuestToken == guestToken {
			cart.Items = slices.Clone(cart.Items)
			return &cart, nil
		}
	}
	return nil, nil
}

func (r *memCarts) CreateCart(_ context.Context, identity domain.Identity) (domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cart := domain.Cart{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if identity.HasUser() {
		cart.UserID = identity.UserID
	} else {
		cart.GuestToken = identity.GuestToken
	}
	r.s.carts[cart.ID] = cart
	return cart, nil
}

func (r *memCarts) DeleteCart(_ context.Context, cartID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.carts[cartID]; !ok {
		return domain.NewNotFoundError("cart", "%s", cartID)
	}
	delete(r.s.carts, cartID)
	return nil
}

func (r *memCarts) InsertItem(_ context.Context, item domain.CartItem) (domain.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cart, ok := r.s.carts[item.CartID]
	if !ok {
		return domain.CartItem{}, domain.NewNotFoundError("cart", "%s", item.CartID)
	}

	r.s.itemSeq++
	item.ID = r.s.itemSeq
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()
	cart.Items = append(slices.Clone(cart.Items), item)
	r.s.carts[cart.ID] = cart
	return item, nil
}

func (r *memCarts) UpdateItem(_ context.Context, itemID int64, quantity int, unitPrice decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for cartID, cart := range r.s.carts {
		for i, item := range cart.Items {
			if item.ID == itemID {
				items := slices.Clone(cart.Items)
				items[i].Quantity = quantity
				items[i].UnitPrice = unitPrice
				items[i].UpdatedAt = time.Now()
				cart.Items = items
				r.s.carts[cartID] = cart
				return nil
			}
		}
	}
	return domain.NewNotFoundError("cart item", "%d", itemID)
}

func (r *memCarts) DeleteItem(_ context.Context, itemID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for cartID, cart := range r.s.carts {
		for i, item := range cart.Items {
			if item.ID == itemID {
				cart.Items = append(slices.Clone(cart.Items[:i]), cart.Items[i+1:]...)
				r.s.carts[cartID] = cart
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *memCarts) DeleteItems(_ context.Context, cartID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cart, ok := r.s.carts[cartID]
	if !ok {
		return nil
	}
	cart.Items = nil
	r.s.carts[cartID] = cart
	return nil
}

func (r *memCarts) SetCoupon(_ context.Context, cartID uuid.UUID, couponID *int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cart, ok := r.s.carts[cartID]
	if !ok {
		return domain.NewNotFoundError("cart", "%s", cartID)
	}
	cart.CouponID = couponID
	r.s.carts[cartID] = cart
	return nil
}

type memCoupons struct{ s *memState }

func (r *memCoupons) FindByCode(_ context.Context, code string) (*domain.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, coupon := range r.s.coupons {
		if coupon.Code == code {
			return &coupon, nil
		}
	}
	return nil, nil
}

func (r *memCoupons) GetCoupon(_ context.Context, couponID int64) (domain.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	coupon, ok := r.s.coupons[couponID]
	if !ok {
		return domain.Coupon{}, domain.NewNotFoundError("coupon", "%d", couponID)
	}
	return coupon, nil
}

func (r *memCoupons) CountRedemptions(_ context.Context, couponID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, red := range r.s.redemptions {
		if red.CouponID == couponID {
			count++
		}
	}
	return count, nil
}

func (r *memCoupons) CountUserRedemptions(_ context.Context, couponID, userID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, red := range r.s.redemptions {
		if red.CouponID == couponID && red.UserID != nil && *red.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *memCoupons) InsertRedemption(_ context.Context, redemption domain.CouponRedemption) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.redemptionSeq++
	redemption.ID = r.s.redemptionSeq
	redemption.CreatedAt = time.Now()
	r.s.redemptions = append(r.s.redemptions, redemption)
	return nil
}

type memOrders struct{ s *memState }

func (r *memOrders) GetOrder(_ context.Context, orderID uuid.UUID) (domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order, ok := r.s.orders[orderID]
	if !ok {
		return domain.Order{}, domain.NewNotFoundError("order", "%s", orderID)
	}

	order.Items = slices.Clone(order.Items)
	for _, change := range r.s.history {
		if change.OrderID == orderID {
			order.StatusHistory = append(order.StatusHistory, change)
		}
	}
	for _, payment := range r.s.payments {
		if payment.OrderID == orderID {
			order.Payments = append(order.Payments, payment)
		}
	}
	slices.SortFunc(order.Payments, func(a, b domain.Payment) int { return int(a.ID - b.ID) })

	return order, nil
}

func (r *memOrders) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	r.s.mu.Lock()
	matched := lo.Filter(lo.Values(r.s.orders), func(o domain.Order, _ int) bool {
		return orderMatches(o, filter)
	})
	r.s.mu.Unlock()

	slices.SortFunc(matched, func(a, b domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	out := make([]domain.Order, 0, len(matched))
	for _, o := range matched {
		full, err := r.GetOrder(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, full)
	}
	return out, nil
}

func (r *memOrders) CountOrders(_ context.Context, filter domain.OrderFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, o := range r.s.orders {
		if orderMatches(o, filter) {
			count++
		}
	}
	return count, nil
}

func orderMatches(o domain.Order, f domain.OrderFilter) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, o.ID) {
		return false
	}
	if len(f.UserIDs) > 0 && (o.UserID == nil || !slices.Contains(f.UserIDs, *o.UserID)) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, o.Status) {
		return false
	}
	if len(f.Methods) > 0 && !slices.Contains(f.Methods, o.Method) {
		return false
	}
	if f.CodePattern != "" && !strings.Contains(o.Code, f.CodePattern) {
		return false
	}
	if f.CreatedAt != nil {
		if f.CreatedAt.After != nil && o.CreatedAt.Before(*f.CreatedAt.After) {
			return false
		}
		if f.CreatedAt.Before != nil && o.CreatedAt.After(*f.CreatedAt.Before) {
			return false
		}
	}
	return true
}

func (r *memOrders) InsertOrder(_ context.Context, order domain.Order) (domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if len(order.Items) == 0 {
		return domain.Order{}, fmt.Errorf("no items in order")
	}

	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()

	items := slices.Clone(order.Items)
	for i := range items {
		r.s.orderItemSeq++
		items[i].ID = r.s.orderItemSeq
		items[i].OrderID = order.ID
		items[i].CreatedAt = time.Now()
	}
	order.Items = items
	order.StatusHistory = nil
	order.Payments = nil

	r.s.orders[order.ID] = order
	return order, nil
}

func (r *memOrders) UpdateStatus(_ context.Context, orderID uuid.UUID, status domain.OrderStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order, ok := r.s.orders[orderID]
	if !ok {
		return domain.NewNotFoundError("order", "%s", orderID)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.s.orders[orderID] = order
	return nil
}

func (r *memOrders) InsertStatusChange(_ context.Context, change domain.OrderStatusChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.historySeq++
	change.ID = r.s.historySeq
	change.CreatedAt = time.Now()
	r.s.history = append(r.s.history, change)
	return nil
}

func (r *memOrders) UpdateNotes(_ context.Context, orderID uuid.UUID, customerNote, internalNote *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order, ok := r.s.orders[orderID]
	if !ok {
		return domain.NewNotFoundError("order", "%s", orderID)
	}
	if customerNote != nil {
		order.CustomerNote = customerNote
	}
	if internalNote != nil {
		order.InternalNote = internalNote
	}
	r.s.orders[orderID] = order
	return nil
}

func (r *memOrders) NextOrderCode(_ context.Context, day time.Time) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prefix := "ORD-" + day.Format("20060102") + "-"
	seq := 0
	for _, order := range r.s.orders {
		if strings.HasPrefix(order.Code, prefix) {
			var n int
			if _, err := fmt.Sscanf(order.Code[len(prefix):], "%d", &n); err == nil && n > seq {
				seq = n
			}
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq+1), nil
}

type memPayments struct{ s *memState }

func (r *memPayments) GetPayment(_ context.Context, paymentID int64) (domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	payment, ok := r.s.payments[paymentID]
	if !ok {
		return domain.Payment{}, domain.NewNotFoundError("payment", "%d", paymentID)
	}
	return payment, nil
}

func (r *memPayments) PaymentsByOrder(_ context.Context, orderID uuid.UUID) ([]domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.Payment
	for _, payment := range r.s.payments {
		if payment.OrderID == orderID {
			out = append(out, payment)
		}
	}
	slices.SortFunc(out, func(a, b domain.Payment) int { return int(a.ID - b.ID) })
	return out, nil
}

func (r *memPayments) InsertPayment(_ context.Context, payment domain.Payment) (domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.paymentSeq++
	payment.ID = r.s.paymentSeq
	payment.CreatedAt = time.Now()
	r.s.payments[payment.ID] = payment
	return payment, nil
}

func (r *memPayments) UpdatePaymentStatus(_ context.Context, paymentID int64, status domain.PaymentStatus, paidAt *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	payment, ok := r.s.payments[paymentID]
	if !ok {
		return domain.NewNotFoundError("payment", "%d", paymentID)
	}
	payment.Status = status
	if paidAt != nil {
		payment.PaidAt = paidAt
	}
	r.s.payments[paymentID] = payment

	r.s.eventSeq++
	r.s.events = append(r.s.events, domain.PaymentEvent{
		ID:         r.s.eventSeq,
		PaymentID:  paymentID,
		Type:       "STATUS_" + string(status),
		OccurredAt: time.Now(),
	})
	return nil
}

func (r *memPayments) EventsByPayment(_ context.Context, paymentID int64) ([]domain.PaymentEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.PaymentEvent
	for _, event := range r.s.events {
		if event.PaymentID == paymentID {
			out = append(out, event)
		}
	}
	return out, nil
}

type memAddressBook struct {
	addresses map[int64]domain.Address
}

func (b *memAddressBook) GetAddress(_ context.Context, addressID, userID int64) (*domain.Address, error) {
	address, ok := b.addresses[addressID]
	if !ok || address.UserID != userID {
		return nil, nil
	}
	return &address, nil
}

type memDirectory struct {
	customers map[int64]domain.Customer
}

func (d *memDirectory) GetCustomer(_ context.Context, userID int64) (domain.Customer, error) {
	customer, ok := d.customers[userID]
	if !ok {
		return domain.Customer{}, domain.NewNotFoundError("customer", "%d", userID)
	}
	return customer, nil
}
