package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const inventoryColumns = `id, name_en, name_th, current_stock, min_stock, unit, cost_per_unit, updated_at`

func scanInventoryItem(row interface{ Scan(dest ...any) error }) (InventoryItem, error) {
	var it InventoryItem
	err := row.Scan(&it.ID, &it.NameEn, &it.NameTh, &it.CurrentStock, &it.MinStock,
		&it.Unit, &it.CostPerUnit, &it.UpdatedAt)
	return it, err
}

func (q *Queries) ListInventoryItems(ctx context.Context) ([]InventoryItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory_items
		ORDER BY name_en`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InventoryItem
	for rows.Next() {
		it, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (q *Queries) ListLowStockItems(ctx context.Context) ([]InventoryItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory_items
		WHERE current_stock <= min_stock
		ORDER BY name_en`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InventoryItem
	for rows.Next() {
		it, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (q *Queries) GetInventoryItem(ctx context.Context, id uuid.UUID) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+inventoryColumns+` FROM inventory_items WHERE id = $1`, id)
	return scanInventoryItem(row)
}

type CreateInventoryItemParams struct {
	NameEn       string
	NameTh       string
	CurrentStock pgtype.Numeric
	MinStock     pgtype.Numeric
	Unit         string
	CostPerUnit  pgtype.Numeric
}

func (q *Queries) CreateInventoryItem(ctx context.Context, arg CreateInventoryItemParams) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO inventory_items (name_en, name_th, current_stock, min_stock, unit, cost_per_unit)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+inventoryColumns,
		arg.NameEn, arg.NameTh, arg.CurrentStock, arg.MinStock, arg.Unit, arg.CostPerUnit)
	return scanInventoryItem(row)
}

type UpdateInventoryItemParams struct {
	ID          uuid.UUID
	NameEn      pgtype.Text
	NameTh      pgtype.Text
	MinStock    pgtype.Numeric
	Unit        pgtype.Text
	CostPerUnit pgtype.Numeric
}

func (q *Queries) UpdateInventoryItem(ctx context.Context, arg UpdateInventoryItemParams) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE inventory_items SET
			name_en = COALESCE($2, name_en),
			name_th = COALESCE($3, name_th),
			min_stock = COALESCE($4, min_stock),
			unit = COALESCE($5, unit),
			cost_per_unit = COALESCE($6, cost_per_unit),
			updated_at = now()
		WHERE id = $1
		RETURNING `+inventoryColumns,
		arg.ID, arg.NameEn, arg.NameTh, arg.MinStock, arg.Unit, arg.CostPerUnit)
	return scanInventoryItem(row)
}

type AdjustStockParams struct {
	ID    uuid.UUID
	Delta pgtype.Numeric
}

// AdjustStock applies the delta in SQL so concurrent adjustments serialize
// on the row instead of overwriting each other.
func (q *Queries) AdjustStock(ctx context.Context, arg AdjustStockParams) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE inventory_items SET
			current_stock = current_stock + $2,
			updated_at = now()
		WHERE id = $1
		RETURNING `+inventoryColumns,
		arg.ID, arg.Delta)
	return scanInventoryItem(row)
}

func (q *Queries) DeleteInventoryItem(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	return err
}
