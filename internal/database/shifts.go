package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const shiftColumns = `id, user_id, start_time, end_time, opening_cash, closing_cash,
	expected_cash, cash_difference, status, notes`

func scanShift(row interface{ Scan(dest ...any) error }) (CashierShift, error) {
	var s CashierShift
	err := row.Scan(&s.ID, &s.UserID, &s.StartTime, &s.EndTime, &s.OpeningCash, &s.ClosingCash,
		&s.ExpectedCash, &s.CashDifference, &s.Status, &s.Notes)
	return s, err
}

type CreateShiftParams struct {
	UserID      uuid.UUID
	OpeningCash pgtype.Numeric
	Notes       pgtype.Text
}

func (q *Queries) CreateShift(ctx context.Context, arg CreateShiftParams) (CashierShift, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO cashier_shifts (user_id, opening_cash, notes)
		VALUES ($1, $2, $3)
		RETURNING `+shiftColumns,
		arg.UserID, arg.OpeningCash, arg.Notes)
	return scanShift(row)
}

func (q *Queries) GetShift(ctx context.Context, id uuid.UUID) (CashierShift, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+shiftColumns+` FROM cashier_shifts WHERE id = $1`, id)
	return scanShift(row)
}

func (q *Queries) GetOpenShiftByUser(ctx context.Context, userID uuid.UUID) (CashierShift, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+shiftColumns+`
		FROM cashier_shifts
		WHERE user_id = $1 AND status = 'open'`, userID)
	return scanShift(row)
}

func (q *Queries) ListShifts(ctx context.Context, limit int32) ([]CashierShift, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+shiftColumns+`
		FROM cashier_shifts
		ORDER BY start_time DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var shifts []CashierShift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

type CloseShiftParams struct {
	ID             uuid.UUID
	ClosingCash    pgtype.Numeric
	ExpectedCash   pgtype.Numeric
	CashDifference pgtype.Numeric
	Notes          pgtype.Text
}

// CloseShift only succeeds while the shift is still open. Returns
// pgx.ErrNoRows when it is missing or already closed; the caller fetches
// the row to tell the two apart.
func (q *Queries) CloseShift(ctx context.Context, arg CloseShiftParams) (CashierShift, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE cashier_shifts SET
			end_time = now(),
			closing_cash = $2,
			expected_cash = $3,
			cash_difference = $4,
			notes = COALESCE($5, notes),
			status = 'closed'
		WHERE id = $1 AND status = 'open'
		RETURNING `+shiftColumns,
		arg.ID, arg.ClosingCash, arg.ExpectedCash, arg.CashDifference, arg.Notes)
	return scanShift(row)
}

// SumShiftCashSales totals paid cash orders for a shift, for the expected
// cash figure at close.
func (q *Queries) SumShiftCashSales(ctx context.Context, shiftID uuid.UUID) (pgtype.Numeric, error) {
	var sum pgtype.Numeric
	err := q.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0)
		FROM orders
		WHERE shift_id = $1 AND payment_status = 'paid' AND payment_method = 'cash'`,
		shiftID).Scan(&sum)
	return sum, err
}
