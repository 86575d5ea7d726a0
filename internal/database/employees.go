package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const employeeColumns = `id, name, position, salary, status, created_at`

func scanEmployee(row interface{ Scan(dest ...any) error }) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.Name, &e.Position, &e.Salary, &e.Status, &e.CreatedAt)
	return e, err
}

func (q *Queries) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+employeeColumns+`
		FROM employees
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (q *Queries) GetEmployee(ctx context.Context, id uuid.UUID) (Employee, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	return scanEmployee(row)
}

type CreateEmployeeParams struct {
	Name     string
	Position string
	Salary   pgtype.Numeric
}

func (q *Queries) CreateEmployee(ctx context.Context, arg CreateEmployeeParams) (Employee, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO employees (name, position, salary)
		VALUES ($1, $2, $3)
		RETURNING `+employeeColumns,
		arg.Name, arg.Position, arg.Salary)
	return scanEmployee(row)
}

type UpdateEmployeeParams struct {
	ID       uuid.UUID
	Name     pgtype.Text
	Position pgtype.Text
	Salary   pgtype.Numeric
	Status   pgtype.Text
}

func (q *Queries) UpdateEmployee(ctx context.Context, arg UpdateEmployeeParams) (Employee, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE employees SET
			name = COALESCE($2, name),
			position = COALESCE($3, position),
			salary = COALESCE($4, salary),
			status = COALESCE($5, status)
		WHERE id = $1
		RETURNING `+employeeColumns,
		arg.ID, arg.Name, arg.Position, arg.Salary, arg.Status)
	return scanEmployee(row)
}
