package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, table_number, user_id, shift_id, status, payment_status,
	payment_method, subtotal, tax, discount, total, notes, created_at, completed_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.TableNumber, &o.UserID, &o.ShiftID, &o.Status,
		&o.PaymentStatus, &o.PaymentMethod, &o.Subtotal, &o.Tax, &o.Discount, &o.Total,
		&o.Notes, &o.CreatedAt, &o.CompletedAt)
	return o, err
}

type CreateOrderParams struct {
	OrderNumber   string
	TableNumber   pgtype.Text
	UserID        uuid.UUID
	ShiftID       pgtype.UUID
	PaymentMethod pgtype.Text
	Subtotal      pgtype.Numeric
	Tax           pgtype.Numeric
	Discount      pgtype.Numeric
	Total         pgtype.Numeric
	Notes         pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (order_number, table_number, user_id, shift_id, payment_method,
			subtotal, tax, discount, total, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+orderColumns,
		arg.OrderNumber, arg.TableNumber, arg.UserID, arg.ShiftID, arg.PaymentMethod,
		arg.Subtotal, arg.Tax, arg.Discount, arg.Total, arg.Notes)
	return scanOrder(row)
}

type CreateOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	UnitPrice  pgtype.Numeric
	TotalPrice pgtype.Numeric
	Notes      pgtype.Text
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price, total_price, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, order_id, menu_item_id, quantity, unit_price, total_price, notes`,
		arg.OrderID, arg.MenuItemID, arg.Quantity, arg.UnitPrice, arg.TotalPrice, arg.Notes)
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.Notes)
	return it, err
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (q *Queries) ListOrders(ctx context.Context, limit int32) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) ListOrdersByShift(ctx context.Context, shiftID uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE shift_id = $1
		ORDER BY created_at`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, menu_item_id, quantity, unit_price, total_price, notes
		FROM order_items
		WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Quantity,
			&it.UnitPrice, &it.TotalPrice, &it.Notes); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	FromStatus string
	ToStatus   string
}

// UpdateOrderStatus only succeeds when the order is still in FromStatus,
// so concurrent updaters cannot both win. Returns pgx.ErrNoRows if the
// guard fails; the caller fetches the row to tell not-found from conflict.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders SET
			status = $3,
			completed_at = CASE WHEN $3 = 'completed' THEN now() ELSE completed_at END
		WHERE id = $1 AND status = $2
		RETURNING `+orderColumns,
		arg.ID, arg.FromStatus, arg.ToStatus)
	return scanOrder(row)
}

type UpdatePaymentStatusParams struct {
	ID            uuid.UUID
	FromStatus    string
	ToStatus      string
	PaymentMethod pgtype.Text
}

func (q *Queries) UpdatePaymentStatus(ctx context.Context, arg UpdatePaymentStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders SET payment_status = $3, payment_method = COALESCE($4, payment_method)
		WHERE id = $1 AND payment_status = $2
		RETURNING `+orderColumns,
		arg.ID, arg.FromStatus, arg.ToStatus, arg.PaymentMethod)
	return scanOrder(row)
}
