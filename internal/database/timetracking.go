package database

import (
	"context"

	"github.com/google/uuid"
)

const timeRecordColumns = `id, employee_id, clock_in, clock_out, total_minutes`

func scanTimeRecord(row interface{ Scan(dest ...any) error }) (TimeTrackingRecord, error) {
	var t TimeTrackingRecord
	err := row.Scan(&t.ID, &t.EmployeeID, &t.ClockIn, &t.ClockOut, &t.TotalMinutes)
	return t, err
}

func (q *Queries) ClockIn(ctx context.Context, employeeID uuid.UUID) (TimeTrackingRecord, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO time_tracking (employee_id)
		VALUES ($1)
		RETURNING `+timeRecordColumns, employeeID)
	return scanTimeRecord(row)
}

// GetOpenTimeRecord finds the employee's record without a clock-out, if any.
func (q *Queries) GetOpenTimeRecord(ctx context.Context, employeeID uuid.UUID) (TimeTrackingRecord, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+timeRecordColumns+`
		FROM time_tracking
		WHERE employee_id = $1 AND clock_out IS NULL
		ORDER BY clock_in DESC
		LIMIT 1`, employeeID)
	return scanTimeRecord(row)
}

// ClockOut stamps the open record and derives worked minutes, rounded
// down to whole minutes. Returns pgx.ErrNoRows when the record is missing
// or already clocked out.
func (q *Queries) ClockOut(ctx context.Context, id uuid.UUID) (TimeTrackingRecord, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE time_tracking SET
			clock_out = now(),
			total_minutes = floor(extract(epoch FROM (now() - clock_in)) / 60)::int
		WHERE id = $1 AND clock_out IS NULL
		RETURNING `+timeRecordColumns, id)
	return scanTimeRecord(row)
}

func (q *Queries) ListTimeRecordsByEmployee(ctx context.Context, employeeID uuid.UUID) ([]TimeTrackingRecord, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+timeRecordColumns+`
		FROM time_tracking
		WHERE employee_id = $1
		ORDER BY clock_in DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []TimeTrackingRecord
	for rows.Next() {
		t, err := scanTimeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, t)
	}
	return records, rows.Err()
}
