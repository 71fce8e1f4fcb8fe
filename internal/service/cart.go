package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
)

// CartService owns carts for guest and authenticated identities, including
// the merge of a guest cart into a user cart at login.
type CartService struct {
	stores port.Stores
	tx     port.TxManager
	logger *zap.Logger
	now    func() time.Time
}

func NewCart(stores port.Stores, tx port.TxManager, logger *zap.Logger) *CartService {
	return &CartService{
		stores: stores,
		tx:     tx,
		logger: logger,
		now:    time.Now,
	}
}

type AddCartItemInput struct {
	ProductID int64
	VariantID int64
	Quantity  int
}

// GetOrCreateCart returns the identity's cart, creating it lazily on first
// access. When the request carries both a user id and a leftover guest token,
// a non-empty guest cart is merged into the user cart first; the merge is a
// documented side effect of any cart access, not just a dedicated endpoint.
func (s *CartService) GetOrCreateCart(ctx context.Context, identity domain.Identity) (domain.Cart, error) {
	var c domain.Cart

	if err := identity.Validate(); err != nil {
		return c, domain.NewValidationError(err.Error())
	}

	merge, err := s.ShouldMerge(ctx, identity)
	if err != nil {
		return c, fmt.Errorf("s.ShouldMerge: %w", err)
	}
	if merge {
		return s.Merge(ctx, *identity.UserID, *identity.GuestToken)
	}

	if identity.HasUser() {
		return s.getOrCreate(ctx, s.stores, domain.Identity{UserID: identity.UserID})
	}
	return s.getOrCreate(ctx, s.stores, domain.Identity{GuestToken: identity.GuestToken})
}

// ShouldMerge reports whether a cart access for this identity must trigger a
// merge: the request is authenticated, still carries a guest token, and a
// non-empty guest cart exists.
func (s *CartService) ShouldMerge(ctx context.Context, identity domain.Identity) (bool, error) {
	if !identity.HasUser() || !identity.HasGuest() {
		return false, nil
	}

	guestCart, err := s.stores.Carts.FindByGuest(ctx, *identity.GuestToken)
	if err != nil {
		return false, fmt.Errorf("carts.FindByGuest: %w", err)
	}

	return guestCart != nil && !guestCart.IsEmpty(), nil
}

// Merge reconciles the guest cart into the user cart in one transaction.
// Quantities of colliding variants are added together and the user item's
// stamped price is kept; items only the guest had are copied over with their
// stamp. The guest cart row is deleted at the end. An empty or missing guest
// cart makes the whole call an idempotent no-op.
func (s *CartService) Merge(ctx context.Context, userID int64, guestToken string) (domain.Cart, error) {
	var merged domain.Cart

	err := s.tx.Within(ctx, func(ctx context.Context, st port.Stores) error {
		guestCart, err := st.Carts.FindByGuest(ctx, guestToken)
		if err != nil {
			return fmt.Errorf("carts.FindByGuest: %w", err)
		}

		userCart, err := s.getOrCreate(ctx, st, domain.UserIdentity(userID))
		if err != nil {
			return fmt.Errorf("s.getOrCreate: %w", err)
		}

		if guestCart == nil || guestCart.IsEmpty() {
			merged = userCart
			return nil
		}

		for _, guestItem := range guestCart.Items {
			if userItem, ok := userCart.ItemByVariant(guestItem.VariantID); ok {
				err = st.Carts.UpdateItem(ctx, userItem.ID,
					userItem.Quantity+guestItem.Quantity, userItem.UnitPrice)
				if err != nil {
					return fmt.Errorf("carts.UpdateItem: %w", err)
				}
				continue
			}

			_, err = st.Carts.InsertItem(ctx, domain.CartItem{
				CartID:    userCart.ID,
				ProductID: guestItem.ProductID,
				VariantID: guestItem.VariantID,
				Quantity:  guestItem.Quantity,
				UnitPrice: guestItem.UnitPrice,
			})
			if err != nil {
				return fmt.Errorf("carts.InsertItem: %w", err)
			}
		}

		if err := st.Carts.DeleteCart(ctx, guestCart.ID); err != nil {
			return fmt.Errorf("carts.DeleteCart: %w", err)
		}

		refreshed, err := st.Carts.FindByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("carts.FindByUser: %w", err)
		}
		merged = *refreshed

		s.logger.Info("guest cart merged",
			zap.Int64("userID", userID),
			zap.Int("guestItems", len(guestCart.Items)))

		return nil
	})
	if err != nil {
		return domain.Cart{}, err
	}

	return merged, nil
}

// AddItem validates availability, then upserts the (cart, variant) item. An
// existing item has the quantity incremented and the unit price re-stamped
// from the current resolve; a new item captures the price now.
func (s *CartService) AddItem(ctx context.Context, identity domain.Identity, input AddCartItemInput) (domain.Cart, error) {
	var c domain.Cart

	if input.Quantity < 1 {
		return c, domain.NewValidationError("quantity must be at least 1")
	}

	cart, err := s.GetOrCreateCart(ctx, identity)
	if err != nil {
		return c, fmt.Errorf("s.GetOrCreateCart: %w", err)
	}

	existingQty := 0
	if item, ok := cart.ItemByVariant(input.VariantID); ok {
		existingQty = item.Quantity
	}

	price, err := s.validateItem(ctx, input.VariantID, existingQty+input.Quantity)
	if err != nil {
		return c, err
	}

	if item, ok := cart.ItemByVariant(input.VariantID); ok {
		err = s.stores.Carts.UpdateItem(ctx, item.ID, item.Quantity+input.Quantity, price.Amount)
		if err != nil {
			return c, fmt.Errorf("carts.UpdateItem: %w", err)
		}
	} else {
		_, err = s.stores.Carts.InsertItem(ctx, domain.CartItem{
			CartID:    cart.ID,
			ProductID: input.ProductID,
			VariantID: input.VariantID,
			Quantity:  input.Quantity,
			UnitPrice: price.Amount,
		})
		if err != nil {
			return c, fmt.Errorf("carts.InsertItem: %w", err)
		}
	}

	return s.reload(ctx, cart)
}

// UpdateItem sets the item's quantity, re-validating stock and re-stamping
// the price. A zero quantity is equivalent to removal.
func (s *CartService) UpdateItem(ctx context.Context, identity domain.Identity, itemID int64, quantity int) (domain.Cart, error) {
	var c domain.Cart

	if quantity < 0 {
		return c, domain.NewValidationError("quantity must not be negative")
	}

	cart, err := s.GetOrCreateCart(ctx, identity)
	if err != nil {
		return c, fmt.Errorf("s.GetOrCreateCart: %w", err)
	}

	item, ok := cart.ItemByID(itemID)
	if !ok {
		return c, domain.NewNotFoundError("cart item", "%d", itemID)
	}

	if quantity == 0 {
		if _, err := s.stores.Carts.DeleteItem(ctx, item.ID); err != nil {
			return c, fmt.Errorf("carts.DeleteItem: %w", err)
		}
		return s.reload(ctx, cart)
	}

	price, err := s.validateItem(ctx, item.VariantID, quantity)
	if err != nil {
		return c, err
	}

	if err := s.stores.Carts.UpdateItem(ctx, item.ID, quantity, price.Amount); err != nil {
		return c, fmt.Errorf("carts.UpdateItem: %w", err)
	}

	return s.reload(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, identity domain.Identity, itemID int64) (domain.Cart, error) {
	var c domain.Cart

	cart, err := s.GetOrCreateCart(ctx, identity)
	if err != nil {
		return c, fmt.Errorf("s.GetOrCreateCart: %w", err)
	}

	item, ok := cart.ItemByID(itemID)
	if !ok {
		return c, domain.NewNotFoundError("cart item", "%d", itemID)
	}

	if _, err := s.stores.Carts.DeleteItem(ctx, item.ID); err != nil {
		return c, fmt.Errorf("carts.DeleteItem: %w", err)
	}

	return s.reload(ctx, cart)
}

func (s *CartService) Clear(ctx context.Context, identity domain.Identity) (domain.Cart, error) {
	var c domain.Cart

	cart, err := s.GetOrCreateCart(ctx, identity)
	if err != nil {
		return c, fmt.Errorf("s.GetOrCreateCart: %w", err)
	}

	if err := s.stores.Carts.DeleteItems(ctx, cart.ID); err != nil {
		return c, fmt.Errorf("carts.DeleteItems: %w", err)
	}

	return s.reload(ctx, cart)
}

// ComputeTotals sums the stamped unit prices only, so the result matches
// what the user last saw rather than a live re-resolve.
func (s *CartService) ComputeTotals(cart domain.Cart) domain.CartTotals {
	return cart.Totals()
}

// validateItem is the soft availability check for cart writes: the variant
// and product must be active, a current price must exist, and the requested
// quantity must fit the inventory read. The hard check remains the atomic
// reserve at order time.
func (s *CartService) validateItem(ctx context.Context, variantID int64, quantity int) (*domain.Price, error) {
	variant, err := s.stores.Catalog.GetVariant(ctx, variantID)
	if err != nil {
		return nil, fmt.Errorf("catalog.GetVariant: %w", err)
	}

	product, err := s.stores.Catalog.GetProduct(ctx, variant.ProductID)
	if err != nil {
		return nil, fmt.Errorf("catalog.GetProduct: %w", err)
	}

	if !variant.IsActive || !product.IsActive {
		return nil, domain.NewValidationError("product is no longer available")
	}

	inv, err := s.stores.Inventory.Get(ctx, variantID)
	if err != nil {
		return nil, fmt.Errorf("inventory.Get: %w", err)
	}
	if inv.Quantity < quantity {
		return nil, domain.NewValidationError(
			fmt.Sprintf("only %d items available in stock", inv.Quantity))
	}

	prices, err := s.stores.Prices.ActivePrices(ctx, variantID)
	if err != nil {
		return nil, fmt.Errorf("prices.ActivePrices: %w", err)
	}

	price := domain.ResolveCurrentPrice(prices, s.now())
	if price == nil {
		return nil, domain.NewValidationError("product has no current price")
	}

	return price, nil
}

func (s *CartService) getOrCreate(ctx context.Context, st port.Stores, identity domain.Identity) (domain.Cart, error) {
	var cart *domain.Cart
	var err error

	if identity.HasUser() {
		cart, err = st.Carts.FindByUser(ctx, *identity.UserID)
	} else {
		cart, err = st.Carts.FindByGuest(ctx, *identity.GuestToken)
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("carts.Find: %w", err)
	}

	if cart != nil {
		return *cart, nil
	}

	created, err := st.Carts.CreateCart(ctx, identity)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("carts.CreateCart: %w", err)
	}

	return created, nil
}

func (s *CartService) reload(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	var identity domain.Identity
	if cart.UserID != nil {
		identity = domain.UserIdentity(*cart.UserID)
	} else {
		identity = domain.GuestIdentity(*cart.GuestToken)
	}

	return s.getOrCreate(ctx, s.stores, identity)
}
