package repository_test

import (
	"context"
	"path/filepath"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithInitScripts(filepath.Join("..", "..", "db", "schema.sql")),
		postgres.WithDatabase("bakery"),
		postgres.WithUsername("bakery"),
		postgres.WithPassword("bakery"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, "", err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return container, connStr, nil
}

// seedVariant inserts a product with one variant and returns both ids.
// Repositories under test never write catalog rows themselves.
func seedVariant(ctx context.Context, pool *pgxpool.Pool) (productID, variantID int64, err error) {
	row := pool.QueryRow(ctx, `
		INSERT INTO products (name, slug)
		VALUES ($1, $2)
		RETURNING id`,
		gofakeit.ProductName(), gofakeit.UUID())
	if err := row.Scan(&productID); err != nil {
		return 0, 0, err
	}

	row = pool.QueryRow(ctx, `
		INSERT INTO product_variants (product_id, name, sku)
		VALUES ($1, $2, $3)
		RETURNING id`,
		productID, gofakeit.AdjectiveDescriptive(), gofakeit.UUID())
	if err := row.Scan(&variantID); err != nil {
		return 0, 0, err
	}

	return productID, variantID, nil
}
