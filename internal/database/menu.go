package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuCategoryColumns = `id, name_en, name_th, description, sort_order, is_active, created_at`

func scanMenuCategory(row interface{ Scan(dest ...any) error }) (MenuCategory, error) {
	var c MenuCategory
	err := row.Scan(&c.ID, &c.NameEn, &c.NameTh, &c.Description, &c.SortOrder, &c.IsActive, &c.CreatedAt)
	return c, err
}

func (q *Queries) ListMenuCategories(ctx context.Context) ([]MenuCategory, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+menuCategoryColumns+`
		FROM menu_categories
		ORDER BY sort_order, name_en`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuCategory
	for rows.Next() {
		c, err := scanMenuCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (q *Queries) GetMenuCategory(ctx context.Context, id uuid.UUID) (MenuCategory, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+menuCategoryColumns+` FROM menu_categories WHERE id = $1`, id)
	return scanMenuCategory(row)
}

type CreateMenuCategoryParams struct {
	NameEn      string
	NameTh      string
	Description pgtype.Text
	SortOrder   int32
}

func (q *Queries) CreateMenuCategory(ctx context.Context, arg CreateMenuCategoryParams) (MenuCategory, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO menu_categories (name_en, name_th, description, sort_order)
		VALUES ($1, $2, $3, $4)
		RETURNING `+menuCategoryColumns,
		arg.NameEn, arg.NameTh, arg.Description, arg.SortOrder)
	return scanMenuCategory(row)
}

type UpdateMenuCategoryParams struct {
	ID          uuid.UUID
	NameEn      pgtype.Text
	NameTh      pgtype.Text
	Description pgtype.Text
	SortOrder   pgtype.Int4
	IsActive    pgtype.Bool
}

func (q *Queries) UpdateMenuCategory(ctx context.Context, arg UpdateMenuCategoryParams) (MenuCategory, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_categories SET
			name_en = COALESCE($2, name_en),
			name_th = COALESCE($3, name_th),
			description = COALESCE($4, description),
			sort_order = COALESCE($5, sort_order),
			is_active = COALESCE($6, is_active)
		WHERE id = $1
		RETURNING `+menuCategoryColumns,
		arg.ID, arg.NameEn, arg.NameTh, arg.Description, arg.SortOrder, arg.IsActive)
	return scanMenuCategory(row)
}

func (q *Queries) DeactivateMenuCategory(ctx context.Context, id uuid.UUID) (MenuCategory, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_categories SET is_active = false WHERE id = $1
		RETURNING `+menuCategoryColumns, id)
	return scanMenuCategory(row)
}

const menuItemColumns = `id, category_id, name_en, name_th, description_en, description_th,
	price, cost, image, is_available, sort_order, created_at`

func scanMenuItem(row interface{ Scan(dest ...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.CategoryID, &m.NameEn, &m.NameTh, &m.DescriptionEn, &m.DescriptionTh,
		&m.Price, &m.Cost, &m.Image, &m.IsAvailable, &m.SortOrder, &m.CreatedAt)
	return m, err
}

func (q *Queries) collectMenuItems(ctx context.Context, query string, args ...any) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	return q.collectMenuItems(ctx, `
		SELECT `+menuItemColumns+`
		FROM menu_items
		ORDER BY sort_order, name_en`)
}

func (q *Queries) ListMenuItemsByCategory(ctx context.Context, categoryID uuid.UUID) ([]MenuItem, error) {
	return q.collectMenuItems(ctx, `
		SELECT `+menuItemColumns+`
		FROM menu_items
		WHERE category_id = $1
		ORDER BY sort_order, name_en`, categoryID)
}

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id)
	return scanMenuItem(row)
}

type CreateMenuItemParams struct {
	CategoryID    pgtype.UUID
	NameEn        string
	NameTh        string
	DescriptionEn pgtype.Text
	DescriptionTh pgtype.Text
	Price         pgtype.Numeric
	Cost          pgtype.Numeric
	Image         pgtype.Text
	SortOrder     int32
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO menu_items (category_id, name_en, name_th, description_en, description_th,
			price, cost, image, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+menuItemColumns,
		arg.CategoryID, arg.NameEn, arg.NameTh, arg.DescriptionEn, arg.DescriptionTh,
		arg.Price, arg.Cost, arg.Image, arg.SortOrder)
	return scanMenuItem(row)
}

type UpdateMenuItemParams struct {
	ID            uuid.UUID
	CategoryID    pgtype.UUID
	NameEn        pgtype.Text
	NameTh        pgtype.Text
	DescriptionEn pgtype.Text
	DescriptionTh pgtype.Text
	Price         pgtype.Numeric
	Cost          pgtype.Numeric
	Image         pgtype.Text
	IsAvailable   pgtype.Bool
	SortOrder     pgtype.Int4
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_items SET
			category_id = COALESCE($2, category_id),
			name_en = COALESCE($3, name_en),
			name_th = COALESCE($4, name_th),
			description_en = COALESCE($5, description_en),
			description_th = COALESCE($6, description_th),
			price = COALESCE($7, price),
			cost = COALESCE($8, cost),
			image = COALESCE($9, image),
			is_available = COALESCE($10, is_available),
			sort_order = COALESCE($11, sort_order)
		WHERE id = $1
		RETURNING `+menuItemColumns,
		arg.ID, arg.CategoryID, arg.NameEn, arg.NameTh, arg.DescriptionEn, arg.DescriptionTh,
		arg.Price, arg.Cost, arg.Image, arg.IsAvailable, arg.SortOrder)
	return scanMenuItem(row)
}

func (q *Queries) SetMenuItemAvailability(ctx context.Context, id uuid.UUID, available bool) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_items SET is_available = $2 WHERE id = $1
		RETURNING `+menuItemColumns, id, available)
	return scanMenuItem(row)
}
