package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const settingsColumns = `id, restaurant_name, address, phone, email, tax_rate, currency, logo, updated_at`

func scanSettings(row interface{ Scan(dest ...any) error }) (RestaurantSettings, error) {
	var s RestaurantSettings
	err := row.Scan(&s.ID, &s.RestaurantName, &s.Address, &s.Phone, &s.Email,
		&s.TaxRate, &s.Currency, &s.Logo, &s.UpdatedAt)
	return s, err
}

// GetSettings returns the single settings row. The table holds at most one.
func (q *Queries) GetSettings(ctx context.Context) (RestaurantSettings, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+settingsColumns+` FROM restaurant_settings LIMIT 1`)
	return scanSettings(row)
}

type CreateSettingsParams struct {
	RestaurantName string
	TaxRate        pgtype.Numeric
	Currency       string
}

func (q *Queries) CreateSettings(ctx context.Context, arg CreateSettingsParams) (RestaurantSettings, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO restaurant_settings (restaurant_name, tax_rate, currency)
		VALUES ($1, $2, $3)
		RETURNING `+settingsColumns,
		arg.RestaurantName, arg.TaxRate, arg.Currency)
	return scanSettings(row)
}

type UpdateSettingsParams struct {
	RestaurantName pgtype.Text
	Address        pgtype.Text
	Phone          pgtype.Text
	Email          pgtype.Text
	TaxRate        pgtype.Numeric
	Currency       pgtype.Text
	Logo           pgtype.Text
}

func (q *Queries) UpdateSettings(ctx context.Context, arg UpdateSettingsParams) (RestaurantSettings, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE restaurant_settings SET
			restaurant_name = COALESCE($1, restaurant_name),
			address = COALESCE($2, address),
			phone = COALESCE($3, phone),
			email = COALESCE($4, email),
			tax_rate = COALESCE($5, tax_rate),
			currency = COALESCE($6, currency),
			logo = COALESCE($7, logo),
			updated_at = now()
		WHERE id = (SELECT id FROM restaurant_settings LIMIT 1)
		RETURNING `+settingsColumns,
		arg.RestaurantName, arg.Address, arg.Phone, arg.Email, arg.TaxRate, arg.Currency, arg.Logo)
	return scanSettings(row)
}
