package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
)

type orderRepository struct {
	db dbConn
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return &orderRepository{db: pool}
}

func NewOrderWithTx(tx pgx.Tx) port.OrderRepository {
	return &orderRepository{db: tx}
}

const orderColumns = `id, code, user_id, coupon_id, method, status, currency,
	items_subtotal, shipping_fee, discount, total,
	customer_name, customer_email, customer_phone,
	address_line, ward, district, province,
	customer_note, internal_note, pickup_at, scheduled_at,
	created_at, updated_at`

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var o domain.Order

	row := r.db.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1`, orderID)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return o, domain.NewNotFoundError("order", "%s", orderID)
		}
		return o, fmt.Errorf("scanOrder: %w", err)
	}

	o.Items, err = r.orderItems(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("r.orderItems: %w", err)
	}

	o.StatusHistory, err = r.statusHistory(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("r.statusHistory: %w", err)
	}

	o.Payments, err = (&paymentRepository{db: r.db}).PaymentsByOrder(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("payments.PaymentsByOrder: %w", err)
	}

	return o, nil
}

func (r *orderRepository) InsertOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	var o domain.Order

	if len(order.Items) == 0 {
		return o, errors.New("no items in order")
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO orders (code, user_id, coupon_id, method, status, currency,
			items_subtotal, shipping_fee, discount, total,
			customer_name, customer_email, customer_phone,
			address_line, ward, district, province,
			customer_note, pickup_at, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at, updated_at`,
		order.Code, order.UserID, order.CouponID, order.Method, order.Status, order.Currency,
		order.ItemsSubtotal, order.ShippingFee, order.Discount, order.Total,
		order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.AddressLine, order.Ward, order.District, order.Province,
		order.CustomerNote, order.PickupAt, order.ScheduledAt)

	if err := row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return o, fmt.Errorf("row.Scan order: %w", err)
	}

	// TODO: batch with pgx.Batch once item counts warrant it
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		itemRow := r.db.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, variant_id,
				name_snapshot, variant_snapshot, sku_snapshot, image_url_snapshot,
				unit_price, quantity, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at`,
			item.OrderID, item.ProductID, item.VariantID,
			item.Name, item.Variant, item.SKU, item.ImageURL,
			item.UnitPrice, item.Quantity, item.LineTotal)

		if err := itemRow.Scan(&item.ID, &item.CreatedAt); err != nil {
			return o, fmt.Errorf("row.Scan order item: %w", err)
		}
	}

	return order, nil
}

func (r *orderRepository) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w", err)
	}

	where, args := buildOrderFilter(filter)

	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanOrder: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	for i := range orders {
		orders[i].Items, err = r.orderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, fmt.Errorf("r.orderItems: %w", err)
		}
	}

	return orders, nil
}

func (r *orderRepository) CountOrders(ctx context.Context, filter domain.OrderFilter) (int, error) {
	if err := filter.Validate(); err != nil {
		return 0, fmt.Errorf("filter.Validate: %w", err)
	}

	where, args := buildOrderFilter(filter)

	var count int
	row := r.db.QueryRow(ctx, `SELECT count(*) FROM orders`+where, args...)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("row.Scan: %w", err)
	}

	return count, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1`, orderID, status)
	if err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return domain.NewNotFoundError("order", "%s", orderID)
	}

	return nil
}

func (r *orderRepository) InsertStatusChange(ctx context.Context, change domain.OrderStatusChange) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO order_status_history (order_id, from_status, to_status, actor_id, reason)
		VALUES ($1, $2, $3, $4, $5)`,
		change.OrderID, change.FromStatus, change.ToStatus, change.ActorID, change.Reason); err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	return nil
}

func (r *orderRepository) UpdateNotes(ctx context.Context, orderID uuid.UUID, customerNote, internalNote *string) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET customer_note = COALESCE($2, customer_note),
		    internal_note = COALESCE($3, internal_note),
		    updated_at = now()
		WHERE id = $1`, orderID, customerNote, internalNote)
	if err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return domain.NewNotFoundError("order", "%s", orderID)
	}

	return nil
}

// NextOrderCode scans the highest code under today's prefix, so the 4-digit
// sequence resets each calendar day and stays monotonic within it.
func (r *orderRepository) NextOrderCode(ctx context.Context, day time.Time) (string, error) {
	prefix := "ORD-" + day.Format("20060102")

	var latest string
	row := r.db.QueryRow(ctx, `
		SELECT code FROM orders
		WHERE code LIKE $1
		ORDER BY code DESC
		LIMIT 1`, prefix+"-%")

	sequence := 1
	err := row.Scan(&latest)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// first order of the day
	case err != nil:
		return "", fmt.Errorf("row.Scan: %w", err)
	default:
		last, err := strconv.Atoi(latest[len(latest)-4:])
		if err != nil {
			return "", fmt.Errorf("strconv.Atoi[%s]: %w", latest, err)
		}
		sequence = last + 1
	}

	return fmt.Sprintf("%s-%04d", prefix, sequence), nil
}

func (r *orderRepository) orderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, variant_id,
			name_snapshot, variant_snapshot, sku_snapshot, image_url_snapshot,
			unit_price, quantity, line_total, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VariantID,
			&item.Name, &item.Variant, &item.SKU, &item.ImageURL,
			&item.UnitPrice, &item.Quantity, &item.LineTotal, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return items, nil
}

func (r *orderRepository) statusHistory(ctx context.Context, orderID uuid.UUID) ([]domain.OrderStatusChange, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, from_status, to_status, actor_id, reason, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var history []domain.OrderStatusChange
	for rows.Next() {
		var change domain.OrderStatusChange
		var fromStatus *string
		var toStatus string

		if err := rows.Scan(&change.ID, &change.OrderID, &fromStatus, &toStatus,
			&change.ActorID, &change.Reason, &change.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		if fromStatus != nil {
			status, err := domain.ToOrderStatus(*fromStatus)
			if err != nil {
				return nil, fmt.Errorf("domain.ToOrderStatus[%s]: %w", *fromStatus, err)
			}
			change.FromStatus = &status
		}

		change.ToStatus, err = domain.ToOrderStatus(toStatus)
		if err != nil {
			return nil, fmt.Errorf("domain.ToOrderStatus[%s]: %w", toStatus, err)
		}

		history = append(history, change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return history, nil
}

func buildOrderFilter(filter domain.OrderFilter) (string, []any) {
	var conditions []string
	var args []any

	add := func(condition string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if len(filter.IDs) > 0 {
		add(`id = ANY($%d)`, filter.IDs)
	}
	if len(filter.UserIDs) > 0 {
		add(`user_id = ANY($%d)`, filter.UserIDs)
	}
	if len(filter.Statuses) > 0 {
		statuses := lo.Map(filter.Statuses, func(s domain.OrderStatus, _ int) string { return string(s) })
		add(`status = ANY($%d)`, statuses)
	}
	if len(filter.Methods) > 0 {
		methods := lo.Map(filter.Methods, func(m domain.OrderMethod, _ int) string { return string(m) })
		add(`method = ANY($%d)`, methods)
	}
	if filter.CodePattern != "" {
		add(`code ILIKE $%d`, "%"+filter.CodePattern+"%")
	}
	if filter.CreatedAt != nil {
		if filter.CreatedAt.After != nil {
			add(`created_at >= $%d`, *filter.CreatedAt.After)
		}
		if filter.CreatedAt.Before != nil {
			add(`created_at <= $%d`, *filter.CreatedAt.Before)
		}
	}

	if len(conditions) == 0 {
		return "", nil
	}

	where := " WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	return where, args
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var method, status string

	err := row.Scan(&o.ID, &o.Code, &o.UserID, &o.CouponID, &method, &status, &o.Currency,
		&o.ItemsSubtotal, &o.ShippingFee, &o.Discount, &o.Total,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.AddressLine, &o.Ward, &o.District, &o.Province,
		&o.CustomerNote, &o.InternalNote, &o.PickupAt, &o.ScheduledAt,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}

	o.Method = domain.OrderMethod(method)
	if !o.Method.IsValid() {
		return o, fmt.Errorf("method[%s] is not valid", method)
	}

	o.Status, err = domain.ToOrderStatus(status)
	if err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", status, err)
	}

	return o, nil
}
