package service_test

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
	"github.com/CoVanAn/mibanhbaoServer/internal/service"
)

const testShippingFee = 30000

type testEnv struct {
	state  *memState
	stores port.Stores
	tx     port.TxManager

	addresses *memAddressBook
	customers *memDirectory

	carts     *service.CartService
	pricing   *service.PricingService
	coupons   *service.CouponService
	orders    *service.OrderService
	inventory *service.InventoryService
}

func newTestEnv() *testEnv {
	state := newMemState()
	stores := state.stores()
	tx := &memTx{state: state}
	logger := zap.NewNop()

	addresses := &memAddressBook{addresses: map[int64]domain.Address{}}
	customers := &memDirectory{customers: map[int64]domain.Customer{}}

	carts := service.NewCart(stores, tx, logger)

	return &testEnv{
		state:     state,
		stores:    stores,
		tx:        tx,
		addresses: addresses,
		customers: customers,
		carts:     carts,
		pricing:   service.NewPricing(stores, tx, logger),
		coupons:   service.NewCoupon(stores, carts, logger),
		inventory: service.NewInventory(stores, logger),
		orders: service.NewOrder(stores, tx, carts, addresses, customers,
			service.NewFlatRateShipping(decimal.NewFromInt(testShippingFee)), logger),
	}
}

// seedVariant registers an active product with one active variant, a
// permanent price and stock, returning the variant id.
func (e *testEnv) seedVariant(productID, variantID int64, price int64, stock int) {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()

	e.state.products[productID] = domain.Product{
		ID:       productID,
		Name:     "Bánh bao " + string(rune('A'+productID%26)),
		IsActive: true,
	}
	e.state.variants[variantID] = domain.Variant{
		ID:        variantID,
		ProductID: productID,
		Name:      "Size M",
		SKU:       lo.RandomString(8, lo.LettersCharset),
		IsActive:  true,
	}
	e.state.priceSeq++
	e.state.prices[e.state.priceSeq] = domain.Price{
		ID:        e.state.priceSeq,
		VariantID: variantID,
		Amount:    decimal.NewFromInt(price),
		IsActive:  true,
	}
	e.state.inventory[variantID] = domain.Inventory{VariantID: variantID, Quantity: stock}
}

func (e *testEnv) seedCoupon(coupon domain.Coupon) domain.Coupon {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()

	if coupon.ID == 0 {
		coupon.ID = int64(len(e.state.coupons) + 1)
	}
	e.state.coupons[coupon.ID] = coupon
	return coupon
}

func (e *testEnv) seedCustomer(customer domain.Customer) {
	e.customers.customers[customer.ID] = customer
}

func (e *testEnv) seedAddress(address domain.Address) {
	e.addresses.addresses[address.ID] = address
}

func (e *testEnv) stock(variantID int64) int {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()

	return e.state.inventory[variantID].Quantity
}

func mustOrderID() uuid.UUID {
	return uuid.New()
}

func (e *testEnv) deactivateVariant(variantID int64) {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()

	variant := e.state.variants[variantID]
	variant.IsActive = false
	e.state.variants[variantID] = variant
}
