package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/CoVanAn/mibanhbaoServer/config"
	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
	"github.com/CoVanAn/mibanhbaoServer/internal/repository"
	"github.com/CoVanAn/mibanhbaoServer/internal/service"
)

// application holds the wired service graph until a transport is mounted in
// front of it.
type application struct {
	carts     *service.CartService
	pricing   *service.PricingService
	inventory *service.InventoryService
	coupons   *service.CouponService
	orders    *service.OrderService

	logger *zap.Logger
}

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	logger, err := newLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("newLogger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := newPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal("newPool", zap.Error(err))
	}
	defer pool.Close()

	app := newApplication(pool, cfg, logger)

	logger.Info("core services wired",
		zap.String("env", cfg.Server.AppEnv),
		zap.Int("poolMaxConns", cfg.Postgres.MaxConns),
		zap.String("shippingFlatRate", cfg.Shipping.FlatRate.String()))

	app.run()
}

func newApplication(pool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) *application {
	stores := repository.NewStores(pool)
	tx := repository.NewTxManager(pool)

	carts := service.NewCart(stores, tx, logger)
	shipping := service.NewFlatRateShipping(cfg.Shipping.FlatRate)

	// TODO: swap the stubs for the identity-service client once its API is
	// published.
	return &application{
		carts:     carts,
		pricing:   service.NewPricing(stores, tx, logger),
		inventory: service.NewInventory(stores, logger),
		coupons:   service.NewCoupon(stores, carts, logger),
		orders: service.NewOrder(stores, tx, carts,
			stubAddressBook{}, stubCustomerDirectory{}, shipping, logger),
		logger: logger,
	}
}

// run blocks until the process is told to stop.
func (a *application) run() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("shutting down")
}

func newPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func newLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.Encoding = cfg.Encoding

	return zapCfg.Build()
}

type stubAddressBook struct{}

func (stubAddressBook) GetAddress(_ context.Context, _, _ int64) (*domain.Address, error) {
	return nil, nil
}

type stubCustomerDirectory struct{}

func (stubCustomerDirectory) GetCustomer(_ context.Context, userID int64) (domain.Customer, error) {
	return domain.Customer{ID: userID, Name: "Customer"}, nil
}

var (
	_ port.AddressBook       = stubAddressBook{}
	_ port.CustomerDirectory = stubCustomerDirectory{}
)
