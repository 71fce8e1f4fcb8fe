package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
)

type paymentRepository struct {
	db dbConn
}

func NewPayment(pool *pgxpool.Pool) port.PaymentRepository {
	return &paymentRepository{db: pool}
}

func NewPaymentWithTx(tx pgx.Tx) port.PaymentRepository {
	return &paymentRepository{db: tx}
}

const paymentColumns = `id, order_id, provider, provider_ref, amount, status, paid_at, created_at`

func (r *paymentRepository) GetPayment(ctx context.Context, paymentID int64) (domain.Payment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1`, paymentID)

	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payment, domain.NewNotFoundError("payment", "%d", paymentID)
		}
		return payment, fmt.Errorf("scanPayment: %w", err)
	}

	return payment, nil
}

func (r *paymentRepository) PaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanPayment: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return payments, nil
}

func (r *paymentRepository) InsertPayment(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO payments (order_id, provider, provider_ref, amount, status, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		payment.OrderID, payment.Provider, payment.ProviderRef,
		payment.Amount, payment.Status, payment.PaidAt)

	if err := row.Scan(&payment.ID, &payment.CreatedAt); err != nil {
		return domain.Payment{}, fmt.Errorf("row.Scan: %w", err)
	}

	return payment, nil
}

// UpdatePaymentStatus records the status change and appends the audit event
// in one statement pair; callers run it inside a transaction when the change
// belongs to a larger operation.
func (r *paymentRepository) UpdatePaymentStatus(ctx context.Context, paymentID int64, status domain.PaymentStatus, paidAt *time.Time) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE payments
		SET status = $2, paid_at = COALESCE($3, paid_at)
		WHERE id = $1`, paymentID, status, paidAt)
	if err != nil {
		return fmt.Errorf("db.Exec update: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return domain.NewNotFoundError("payment", "%d", paymentID)
	}

	if _, err := r.db.Exec(ctx, `
		INSERT INTO payment_events (payment_id, type)
		VALUES ($1, $2)`, paymentID, "STATUS_"+string(status)); err != nil {
		return fmt.Errorf("db.Exec event: %w", err)
	}

	return nil
}

func (r *paymentRepository) EventsByPayment(ctx context.Context, paymentID int64) ([]domain.PaymentEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, payment_id, type, occurred_at
		FROM payment_events
		WHERE payment_id = $1
		ORDER BY id`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var events []domain.PaymentEvent
	for rows.Next() {
		var event domain.PaymentEvent
		if err := rows.Scan(&event.ID, &event.PaymentID, &event.Type, &event.OccurredAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return events, nil
}

func scanPayment(row pgx.Row) (domain.Payment, error) {
	var p domain.Payment
	var status string

	err := row.Scan(&p.ID, &p.OrderID, &p.Provider, &p.ProviderRef,
		&p.Amount, &status, &p.PaidAt, &p.CreatedAt)
	if err != nil {
		return p, err
	}

	p.Status, err = domain.ToPaymentStatus(status)
	if err != nil {
		return p, fmt.Errorf("domain.ToPaymentStatus[%s]: %w", status, err)
	}

	return p, nil
}
