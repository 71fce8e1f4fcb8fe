package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
)

// OrderService assembles orders out of carts and drives the status machine.
// Order creation and every status transition run as one transaction each.
type OrderService struct {
	stores    port.Stores
	tx        port.TxManager
	carts     *CartService
	addresses port.AddressBook
	customers port.CustomerDirectory
	shipping  port.ShippingCalculator
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrder(
	stores port.Stores,
	tx port.TxManager,
	carts *CartService,
	addresses port.AddressBook,
	customers port.CustomerDirectory,
	shipping port.ShippingCalculator,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		stores:    stores,
		tx:        tx,
		carts:     carts,
		addresses: addresses,
		customers: customers,
		shipping:  shipping,
		logger:    logger,
		now:       time.Now,
	}
}

type CreateOrderInput struct {
	Method    domain.OrderMethod
	AddressID *int64

	// Guest checkouts supply contact details inline; authenticated checkouts
	// have them copied from the identity provider.
	GuestName  *string
	GuestEmail *string
	GuestPhone *string

	CustomerNote *string
	PickupAt     *time.Time
	ScheduledAt  *time.Time
}

// CreateOrder freezes the identity's cart into an immutable order. All
// preconditions are validated as a batch first, then every write happens in
// one transaction: coupon re-evaluation, code generation, item snapshots,
// the initial history row, the redemption row, per-item inventory
// reservation, cart clearing and the initial unpaid payment. Any failure
// rolls the whole thing back and leaves the cart untouched.
func (s *OrderService) CreateOrder(ctx context.Context, identity domain.Identity, input CreateOrderInput) (domain.Order, error) {
	var o domain.Order

	if err := identity.Validate(); err != nil {
		return o, domain.NewValidationError(err.Error())
	}
	if !input.Method.IsValid() {
		return o, domain.NewValidationError("order method must be PICKUP or DELIVERY")
	}

	// triggers the auto-merge side effect before checkout
	cart, err := s.carts.GetOrCreateCart(ctx, identity)
	if err != nil {
		return o, fmt.Errorf("carts.GetOrCreateCart: %w", err)
	}

	address, verr := s.validateCreation(ctx, cart, identity, input)
	if verr != nil {
		return o, verr
	}

	customer, err := s.customerSnapshot(ctx, identity, input)
	if err != nil {
		return o, err
	}

	shippingFee, err := s.shipping.Fee(ctx, input.Method, address)
	if err != nil {
		return o, fmt.Errorf("shipping.Fee: %w", err)
	}

	var created domain.Order

	err = s.tx.Within(ctx, func(ctx context.Context, st port.Stores) error {
		subtotal := cart.Totals().Subtotal

		// Never trust a stale client-supplied discount: re-resolve the coupon
		// against the current cart inside the transaction. A coupon that no
		// longer validates drops to zero discount instead of failing the
		// order.
		discount := decimal.Zero
		var redeemed *domain.Coupon
		if cart.CouponID != nil {
			coupon, err := st.Coupons.GetCoupon(ctx, *cart.CouponID)
			if err != nil {
				return fmt.Errorf("coupons.GetCoupon: %w", err)
			}

			if err := validateCoupon(ctx, st, coupon, identity.UserID, subtotal, s.now()); err != nil {
				s.logger.Warn("coupon dropped at checkout",
					zap.String("code", coupon.Code), zap.Error(err))
			} else {
				discount = coupon.DiscountFor(subtotal)
				redeemed = &coupon
			}
		}

		totals := domain.ComputeOrderTotals(subtotal, shippingFee, discount)

		code, err := st.Orders.NextOrderCode(ctx, s.now())
		if err != nil {
			return fmt.Errorf("orders.NextOrderCode: %w", err)
		}

		items, err := s.snapshotItems(ctx, st, cart.Items)
		if err != nil {
			return err
		}

		order := domain.Order{
			Code:          code,
			UserID:        identity.UserID,
			Method:        input.Method,
			Status:        domain.OrderStatusPending,
			Currency:      domain.DefaultCurrency.String(),
			ItemsSubtotal: totals.ItemsSubtotal,
			ShippingFee:   totals.ShippingFee,
			Discount:      totals.Discount,
			Total:         totals.Total,
			CustomerName:  customer.Name,
			CustomerNote:  input.CustomerNote,
			ScheduledAt:   input.ScheduledAt,
			Items:         items,
		}
		if customer.Email != "" {
			order.CustomerEmail = lo.ToPtr(customer.Email)
		}
		if customer.Phone != "" {
			order.CustomerPhone = lo.ToPtr(customer.Phone)
		}
		if redeemed != nil {
			order.CouponID = &redeemed.ID
		}
		if input.Method == domain.OrderMethodPickup {
			order.PickupAt = input.PickupAt
		}
		if address != nil {
			order.AddressLine = lo.ToPtr(address.AddressLine)
			order.Ward = lo.ToPtr(address.Ward)
			order.District = lo.ToPtr(address.District)
			order.Province = lo.ToPtr(address.Province)
		}

		created, err = st.Orders.InsertOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("orders.InsertOrder: %w", err)
		}

		err = st.Orders.InsertStatusChange(ctx, domain.OrderStatusChange{
			OrderID:  created.ID,
			ToStatus: domain.OrderStatusPending,
			ActorID:  identity.UserID,
			Reason:   lo.ToPtr("Order created"),
		})
		if err != nil {
			return fmt.Errorf("orders.InsertStatusChange: %w", err)
		}

		if redeemed != nil {
			err = st.Coupons.InsertRedemption(ctx, domain.CouponRedemption{
				CouponID:        redeemed.ID,
				OrderID:         created.ID,
				UserID:          identity.UserID,
				DiscountApplied: totals.Discount,
			})
			if err != nil {
				return fmt.Errorf("coupons.InsertRedemption: %w", err)
			}
		}

		// The hard stock check: a failed reservation anywhere rolls back
		// every reservation made so far along with the order itself.
		for _, item := range created.Items {
			if err := st.Inventory.Reserve(ctx, item.VariantID, item.Quantity); err != nil {
				return fmt.Errorf("inventory.Reserve variant[%d]: %w", item.VariantID, err)
			}
		}

		if err := st.Carts.DeleteItems(ctx, cart.ID); err != nil {
			return fmt.Errorf("carts.DeleteItems: %w", err)
		}
		if cart.CouponID != nil {
			if err := st.Carts.SetCoupon(ctx, cart.ID, nil); err != nil {
				return fmt.Errorf("carts.SetCoupon: %w", err)
			}
		}

		_, err = st.Payments.InsertPayment(ctx, domain.Payment{
			OrderID:  created.ID,
			Provider: domain.PaymentProviderCOD,
			Amount:   totals.Total,
			Status:   domain.PaymentStatusUnpaid,
		})
		if err != nil {
			return fmt.Errorf("payments.InsertPayment: %w", err)
		}

		return nil
	})
	if err != nil {
		return o, err
	}

	s.logger.Info("order created",
		zap.String("code", created.Code),
		zap.String("total", created.Total.String()))

	return s.stores.Orders.GetOrder(ctx, created.ID)
}

// Transition moves the order to newStatus if the status machine allows it,
// appending exactly one history row and executing the transition's side
// effects in the same transaction: cancellation releases every item's stock
// and fails non-terminal payments; completion settles pay-on-fulfillment
// payments.
func (s *OrderService) Transition(ctx context.Context, orderID uuid.UUID, newStatus domain.OrderStatus, actor domain.Actor, reason *string) (domain.Order, error) {
	var o domain.Order

	if _, err := domain.ToOrderStatus(string(newStatus)); err != nil {
		return o, domain.NewValidationError(fmt.Sprintf("unknown status %q", newStatus))
	}

	err := s.tx.Within(ctx, func(ctx context.Context, st port.Stores) error {
		order, err := st.Orders.GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("orders.GetOrder: %w", err)
		}

		if !order.Status.CanTransitionTo(newStatus) {
			return &domain.InvalidTransitionError{
				From:    order.Status,
				To:      newStatus,
				Allowed: order.Status.AllowedTransitions(),
			}
		}

		if err := st.Orders.UpdateStatus(ctx, orderID, newStatus); err != nil {
			return fmt.Errorf("orders.UpdateStatus: %w", err)
		}

		fromStatus := order.Status
		err = st.Orders.InsertStatusChange(ctx, domain.OrderStatusChange{
			OrderID:    orderID,
			FromStatus: &fromStatus,
			ToStatus:   newStatus,
			ActorID:    actor.UserID,
			Reason:     reason,
		})
		if err != nil {
			return fmt.Errorf("orders.InsertStatusChange: %w", err)
		}

		switch newStatus {
		case domain.OrderStatusCanceled:
			return s.onCanceled(ctx, st, order)
		case domain.OrderStatusCompleted:
			return s.onCompleted(ctx, st, order)
		}

		return nil
	})
	if err != nil {
		return o, err
	}

	return s.stores.Orders.GetOrder(ctx, orderID)
}

// Cancel wraps the CANCELED transition with the actor gate: customers may
// cancel only their own orders and only from PENDING or CONFIRMED, while
// privileged actors may cancel from any non-terminal state.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, actor domain.Actor, reason *string) (domain.Order, error) {
	var o domain.Order

	order, err := s.stores.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("orders.GetOrder: %w", err)
	}

	if !actor.Privileged {
		if actor.UserID == nil || !order.BelongsTo(*actor.UserID) {
			return o, domain.NewAuthorizationError("access denied")
		}
		if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusConfirmed {
			return o, domain.NewAuthorizationError("you can only cancel pending or confirmed orders")
		}
	}

	if reason == nil {
		reason = lo.ToPtr("Canceled by user")
	}

	return s.Transition(ctx, orderID, domain.OrderStatusCanceled, actor, reason)
}

// GetOrder loads an order for an actor: customers see only their own orders.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID, actor domain.Actor) (domain.Order, error) {
	order, err := s.stores.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.GetOrder: %w", err)
	}

	if !actor.Privileged && (actor.UserID == nil || !order.BelongsTo(*actor.UserID)) {
		return domain.Order{}, domain.NewAuthorizationError("access denied")
	}

	return order, nil
}

// ListOrders is the privileged listing over the full order book.
func (s *OrderService) ListOrders(ctx context.Context, actor domain.Actor, filter domain.OrderFilter) ([]domain.Order, int, error) {
	if !actor.Privileged {
		return nil, 0, domain.NewAuthorizationError("access denied")
	}

	orders, err := s.stores.Orders.SearchOrders(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("orders.SearchOrders: %w", err)
	}

	total, err := s.stores.Orders.CountOrders(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("orders.CountOrders: %w", err)
	}

	return orders, total, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, error) {
	orders, err := s.stores.Orders.SearchOrders(ctx, domain.OrderFilter{
		UserIDs: []int64{userID},
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, fmt.Errorf("orders.SearchOrders: %w", err)
	}

	return orders, nil
}

// UpdateNote lets the order's owner edit the customer note; the internal
// note is staff-only.
func (s *OrderService) UpdateNote(ctx context.Context, orderID uuid.UUID, actor domain.Actor, customerNote, internalNote *string) (domain.Order, error) {
	var o domain.Order

	order, err := s.stores.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("orders.GetOrder: %w", err)
	}

	if !actor.Privileged {
		if actor.UserID == nil || !order.BelongsTo(*actor.UserID) {
			return o, domain.NewAuthorizationError("access denied")
		}
		if internalNote != nil {
			return o, domain.NewAuthorizationError("only staff may edit the internal note")
		}
	}

	if err := s.stores.Orders.UpdateNotes(ctx, orderID, customerNote, internalNote); err != nil {
		return o, fmt.Errorf("orders.UpdateNotes: %w", err)
	}

	return s.stores.Orders.GetOrder(ctx, orderID)
}

// AddPayment attaches an additional payment attempt to the order.
func (s *OrderService) AddPayment(ctx context.Context, orderID uuid.UUID, provider string, providerRef *string, amount *decimal.Decimal) (domain.Payment, error) {
	var p domain.Payment

	if provider == "" {
		return p, domain.NewValidationError("payment provider is required")
	}

	order, err := s.stores.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return p, fmt.Errorf("orders.GetOrder: %w", err)
	}

	paymentAmount := order.Total
	if amount != nil {
		paymentAmount = *amount
	}

	payment, err := s.stores.Payments.InsertPayment(ctx, domain.Payment{
		OrderID:     order.ID,
		Provider:    provider,
		ProviderRef: providerRef,
		Amount:      paymentAmount,
		Status:      domain.PaymentStatusUnpaid,
	})
	if err != nil {
		return p, fmt.Errorf("payments.InsertPayment: %w", err)
	}

	return payment, nil
}

// MarkPayment records a payment status change with its audit event.
func (s *OrderService) MarkPayment(ctx context.Context, paymentID int64, status domain.PaymentStatus) (domain.Payment, error) {
	var p domain.Payment

	if _, err := domain.ToPaymentStatus(string(status)); err != nil {
		return p, domain.NewValidationError(fmt.Sprintf("unknown payment status %q", status))
	}

	var paidAt *time.Time
	if status == domain.PaymentStatusPaid {
		paidAt = lo.ToPtr(s.now())
	}

	if err := s.stores.Payments.UpdatePaymentStatus(ctx, paymentID, status, paidAt); err != nil {
		return p, fmt.Errorf("payments.UpdatePaymentStatus: %w", err)
	}

	return s.stores.Payments.GetPayment(ctx, paymentID)
}

// validateCreation collects every failing precondition instead of stopping
// at the first, so the caller can present the complete problem list.
func (s *OrderService) validateCreation(ctx context.Context, cart domain.Cart, identity domain.Identity, input CreateOrderInput) (*domain.Address, error) {
	var reasons []string
	var address *domain.Address

	if cart.IsEmpty() {
		reasons = append(reasons, "cart is empty")
	}

	if input.Method == domain.OrderMethodDelivery {
		switch {
		case input.AddressID == nil:
			reasons = append(reasons, "delivery address is required")
		case identity.UserID == nil:
			reasons = append(reasons, "delivery orders require an account with a saved address")
		default:
			found, err := s.addresses.GetAddress(ctx, *input.AddressID, *identity.UserID)
			if err != nil {
				return nil, fmt.Errorf("addresses.GetAddress: %w", err)
			}
			if found == nil {
				reasons = append(reasons, "invalid delivery address")
			}
			address = found
		}
	}

	for _, item := range cart.Items {
		variant, err := s.stores.Catalog.GetVariant(ctx, item.VariantID)
		if err != nil {
			return nil, fmt.Errorf("catalog.GetVariant: %w", err)
		}

		product, err := s.stores.Catalog.GetProduct(ctx, variant.ProductID)
		if err != nil {
			return nil, fmt.Errorf("catalog.GetProduct: %w", err)
		}

		if !variant.IsActive || !product.IsActive {
			reasons = append(reasons, fmt.Sprintf(
				"%s - %s is no longer available", product.Name, variant.Name))
		}

		inv, err := s.stores.Inventory.Get(ctx, item.VariantID)
		if err != nil {
			return nil, fmt.Errorf("inventory.Get: %w", err)
		}
		if inv.Quantity < item.Quantity {
			reasons = append(reasons, fmt.Sprintf(
				"insufficient stock for %s - %s: available %d, requested %d",
				product.Name, variant.Name, inv.Quantity, item.Quantity))
		}
	}

	if len(reasons) > 0 {
		return nil, &domain.ValidationError{Reasons: reasons}
	}

	return address, nil
}

func (s *OrderService) customerSnapshot(ctx context.Context, identity domain.Identity, input CreateOrderInput) (domain.Customer, error) {
	if identity.HasUser() {
		customer, err := s.customers.GetCustomer(ctx, *identity.UserID)
		if err != nil {
			return domain.Customer{}, fmt.Errorf("customers.GetCustomer: %w", err)
		}
		return customer, nil
	}

	customer := domain.Customer{Name: "Guest"}
	if input.GuestName != nil && *input.GuestName != "" {
		customer.Name = *input.GuestName
	}
	customer.Email = lo.FromPtr(input.GuestEmail)
	customer.Phone = lo.FromPtr(input.GuestPhone)

	return customer, nil
}

// snapshotItems copies the live product and variant descriptors into
// immutable order lines, keeping the cart's stamped unit price.
func (s *OrderService) snapshotItems(ctx context.Context, st port.Stores, cartItems []domain.CartItem) ([]domain.OrderItem, error) {
	var items []domain.OrderItem

	for _, item := range cartItems {
		product, err := st.Catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("catalog.GetProduct: %w", err)
		}

		variant, err := st.Catalog.GetVariant(ctx, item.VariantID)
		if err != nil {
			return nil, fmt.Errorf("catalog.GetVariant: %w", err)
		}

		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      product.Name,
			Variant:   variant.Name,
			SKU:       variant.SKU,
			ImageURL:  product.ImageURL,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}

	return items, nil
}

func (s *OrderService) onCanceled(ctx context.Context, st port.Stores, order domain.Order) error {
	for _, item := range order.Items {
		if err := st.Inventory.Release(ctx, item.VariantID, item.Quantity); err != nil {
			return fmt.Errorf("inventory.Release variant[%d]: %w", item.VariantID, err)
		}
	}

	for _, payment := range order.Payments {
		if payment.Status.IsTerminal() {
			continue
		}
		if err := st.Payments.UpdatePaymentStatus(ctx, payment.ID, domain.PaymentStatusFailed, nil); err != nil {
			return fmt.Errorf("payments.UpdatePaymentStatus: %w", err)
		}
	}

	return nil
}

func (s *OrderService) onCompleted(ctx context.Context, st port.Stores, order domain.Order) error {
	for _, payment := range order.Payments {
		if payment.Provider != domain.PaymentProviderCOD || payment.Status != domain.PaymentStatusUnpaid {
			continue
		}
		if err := st.Payments.UpdatePaymentStatus(ctx, payment.ID, domain.PaymentStatusPaid, lo.ToPtr(s.now())); err != nil {
			return fmt.Errorf("payments.UpdatePaymentStatus: %w", err)
		}
	}

	return nil
}
