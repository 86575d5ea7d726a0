package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type GetDashboardStatsParams struct {
	From pgtype.Timestamptz
	To   pgtype.Timestamptz
}

type DashboardStatsRow struct {
	TotalOrders   int64
	TotalRevenue  pgtype.Numeric
	TotalTax      pgtype.Numeric
	TotalDiscount pgtype.Numeric
	TotalCost     pgtype.Numeric
}

// GetDashboardStats aggregates paid orders in the optional [From, To)
// window. Cost comes from the menu item cost at query time, not the cost
// when the order was placed.
func (q *Queries) GetDashboardStats(ctx context.Context, arg GetDashboardStatsParams) (DashboardStatsRow, error) {
	var row DashboardStatsRow
	err := q.db.QueryRow(ctx, `
		WITH paid AS (
			SELECT id, total, tax, discount
			FROM orders
			WHERE payment_status = 'paid'
				AND ($1::timestamptz IS NULL OR created_at >= $1)
				AND ($2::timestamptz IS NULL OR created_at < $2)
		)
		SELECT
			(SELECT COUNT(*) FROM paid),
			(SELECT COALESCE(SUM(total), 0) FROM paid),
			(SELECT COALESCE(SUM(tax), 0) FROM paid),
			(SELECT COALESCE(SUM(discount), 0) FROM paid),
			(SELECT COALESCE(SUM(oi.quantity * mi.cost), 0)
				FROM paid p
				JOIN order_items oi ON oi.order_id = p.id
				JOIN menu_items mi ON mi.id = oi.menu_item_id)`,
		arg.From, arg.To).Scan(&row.TotalOrders, &row.TotalRevenue, &row.TotalTax, &row.TotalDiscount, &row.TotalCost)
	return row, err
}
