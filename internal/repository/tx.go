package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CoVanAn/mibanhbaoServer/internal/port"
)

// dbConn is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository
// works against the pool directly or inside a shared transaction.
type dbConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewStores builds the pool-backed repository set.
func NewStores(pool *pgxpool.Pool) port.Stores {
	return storesOn(pool)
}

func storesOn(db dbConn) port.Stores {
	return port.Stores{
		Catalog:   &catalogRepository{db: db},
		Prices:    &priceRepository{db: db},
		Inventory: &inventoryRepository{db: db},
		Carts:     &cartRepository{db: db},
		Coupons:   &couponRepository{db: db},
		Orders:    &orderRepository{db: db},
		Payments:  &paymentRepository{db: db},
	}
}

type txManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) port.TxManager {
	return &txManager{pool: pool}
}

// Within executes fn against a repository set bound to a single transaction,
// committing on success and rolling everything back on any error.
func (m *txManager) Within(ctx context.Context, fn func(ctx context.Context, s port.Stores) error) (txErr error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pool.Begin: %w", err)
	}

	// Ensure proper rollback handling
	defer func() {
		if txErr != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	if err := fn(ctx, storesOn(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx.Commit: %w", err)
	}

	return nil
}
