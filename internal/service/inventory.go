package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
)

// InventoryService is the admin-facing surface over the stock ledger. Cart
// and order flows talk to the ledger directly; this service exists for
// reads and manual restocks.
type InventoryService struct {
	stores port.Stores
	logger *zap.Logger
}

func NewInventory(stores port.Stores, logger *zap.Logger) *InventoryService {
	return &InventoryService{stores: stores, logger: logger}
}

// Available returns the variant's current stock, zero when the variant has
// never been stocked.
func (s *InventoryService) Available(ctx context.Context, variantID int64) (domain.Inventory, error) {
	inv, err := s.stores.Inventory.Get(ctx, variantID)
	if err != nil {
		return domain.Inventory{}, fmt.Errorf("inventory.Get: %w", err)
	}

	return inv, nil
}

// Restock adds quantity back to the ledger.
func (s *InventoryService) Restock(ctx context.Context, variantID int64, quantity int) (domain.Inventory, error) {
	if quantity < 1 {
		return domain.Inventory{}, domain.NewValidationError("restock quantity must be at least 1")
	}

	if err := s.stores.Inventory.Release(ctx, variantID, quantity); err != nil {
		return domain.Inventory{}, fmt.Errorf("inventory.Release: %w", err)
	}

	s.logger.Info("stock added",
		zap.Int64("variantID", variantID),
		zap.Int("quantity", quantity))

	return s.Available(ctx, variantID)
}

// Reserve withdraws quantity atomically, failing with the remaining amount
// when stock does not cover the request.
func (s *InventoryService) Reserve(ctx context.Context, variantID int64, quantity int) error {
	if quantity < 1 {
		return domain.NewValidationError("reserve quantity must be at least 1")
	}

	if err := s.stores.Inventory.Reserve(ctx, variantID, quantity); err != nil {
		return fmt.Errorf("inventory.Reserve: %w", err)
	}

	return nil
}
