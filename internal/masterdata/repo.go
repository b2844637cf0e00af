package masterdata

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// repo implements Repository on PostgreSQL.
type repo struct {
	db *pgxpool.Pool
}

// NewRepository creates a new master data repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repo{db: db}
}

func (r *repo) ListDirections(ctx context.Context) ([]Direction, error) {
	query := `SELECT id, name, created_at, updated_at FROM directions ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var directions []Direction
	for rows.Next() {
		var d Direction
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		directions = append(directions, d)
	}
	return directions, rows.Err()
}

func (r *repo) GetDirection(ctx context.Context, id int64) (Direction, error) {
	query := `SELECT id, name, created_at, updated_at FROM directions WHERE id = $1`
	var d Direction
	err := r.db.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Direction{}, ErrNotFound
	}
	return d, err
}

func (r *repo) CreateDirection(ctx context.Context, direction Direction) (Direction, error) {
	query := `INSERT INTO directions (name, created_at, updated_at) VALUES ($1, $2, $3) RETURNING id`
	now := time.Now()
	if err := r.db.QueryRow(ctx, query, direction.Name, now, now).Scan(&direction.ID); err != nil {
		return Direction{}, err
	}
	direction.CreatedAt = now
	direction.UpdatedAt = now
	return direction, nil
}

func (r *repo) UpdateDirection(ctx context.Context, id int64, direction Direction) error {
	query := `UPDATE directions SET name = $1, updated_at = $2 WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, direction.Name, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) DeleteDirection(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM directions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const serviceColumns = `s.id, s.direction_id, s.name, s.chef_id, COALESCE(e.full_name, ''), s.created_at, s.updated_at`

func (r *repo) ListServices(ctx context.Context, filters ListFilters) ([]ServiceUnit, error) {
	query := `SELECT ` + serviceColumns + `
	          FROM services s LEFT JOIN employees e ON e.id = s.chef_id`
	args := []any{}
	if filters.DirectionID != nil {
		args = append(args, *filters.DirectionID)
		query += ` WHERE s.direction_id = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY s.name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []ServiceUnit
	for rows.Next() {
		var u ServiceUnit
		if err := rows.Scan(&u.ID, &u.DirectionID, &u.Name, &u.ChefID, &u.ChefName, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (r *repo) GetService(ctx context.Context, id int64) (ServiceUnit, error) {
	query := `SELECT ` + serviceColumns + `
	          FROM services s LEFT JOIN employees e ON e.id = s.chef_id
	          WHERE s.id = $1`
	var u ServiceUnit
	err := r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.DirectionID, &u.Name, &u.ChefID, &u.ChefName, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ServiceUnit{}, ErrNotFound
	}
	return u, err
}

func (r *repo) CreateService(ctx context.Context, unit ServiceUnit) (ServiceUnit, error) {
	query := `INSERT INTO services (direction_id, name, chef_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	now := time.Now()
	if err := r.db.QueryRow(ctx, query, unit.DirectionID, unit.Name, unit.ChefID, now, now).Scan(&unit.ID); err != nil {
		return ServiceUnit{}, err
	}
	unit.CreatedAt = now
	unit.UpdatedAt = now
	return unit, nil
}

func (r *repo) UpdateService(ctx context.Context, id int64, unit ServiceUnit) error {
	query := `UPDATE services SET direction_id = $1, name = $2, chef_id = $3, updated_at = $4 WHERE id = $5`
	tag, err := r.db.Exec(ctx, query, unit.DirectionID, unit.Name, unit.ChefID, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) DeleteService(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const employeeColumns = `id, full_name, email, service_id, role, is_active, created_at, updated_at`

func (r *repo) ListEmployees(ctx context.Context, filters ListFilters) ([]Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	var conds []string
	var args []any
	if filters.ServiceID != nil {
		args = append(args, *filters.ServiceID)
		conds = append(conds, `service_id = $`+strconv.Itoa(len(args)))
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		conds = append(conds, `is_active = $`+strconv.Itoa(len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		conds = append(conds, `full_name ILIKE $`+strconv.Itoa(len(args)))
	}
	for i, c := range conds {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY id`
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		args = append(args, filters.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.FullName, &e.Email, &e.ServiceID, &e.Role, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *repo) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	var e Employee
	err := r.db.QueryRow(ctx, query, id).Scan(&e.ID, &e.FullName, &e.Email, &e.ServiceID, &e.Role, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return e, err
}

func (r *repo) CreateEmployee(ctx context.Context, employee Employee) (Employee, error) {
	query := `INSERT INTO employees (full_name, email, service_id, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	now := time.Now()
	err := r.db.QueryRow(ctx, query, employee.FullName, employee.Email, employee.ServiceID, employee.Role, employee.IsActive, now, now).Scan(&employee.ID)
	if err != nil {
		return Employee{}, err
	}
	employee.CreatedAt = now
	employee.UpdatedAt = now
	return employee, nil
}

func (r *repo) UpdateEmployee(ctx context.Context, id int64, employee Employee) error {
	query := `UPDATE employees SET full_name = $1, email = $2, service_id = $3, role = $4, is_active = $5, updated_at = $6 WHERE id = $7`
	tag, err := r.db.Exec(ctx, query, employee.FullName, employee.Email, employee.ServiceID, employee.Role, employee.IsActive, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) DeactivateEmployee(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE employees SET is_active = FALSE, updated_at = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) ListLeaveTypes(ctx context.Context, includeInactive bool) ([]LeaveType, error) {
	query := `SELECT id, code, label, annual_quota, is_active FROM leave_types`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY label`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var lt LeaveType
		if err := rows.Scan(&lt.ID, &lt.Code, &lt.Label, &lt.AnnualQuota, &lt.IsActive); err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, rows.Err()
}

func (r *repo) GetLeaveType(ctx context.Context, id int64) (LeaveType, error) {
	query := `SELECT id, code, label, annual_quota, is_active FROM leave_types WHERE id = $1`
	var lt LeaveType
	err := r.db.QueryRow(ctx, query, id).Scan(&lt.ID, &lt.Code, &lt.Label, &lt.AnnualQuota, &lt.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveType{}, ErrNotFound
	}
	return lt, err
}

func (r *repo) CreateLeaveType(ctx context.Context, lt LeaveType) (LeaveType, error) {
	query := `INSERT INTO leave_types (code, label, annual_quota, is_active) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRow(ctx, query, lt.Code, lt.Label, lt.AnnualQuota, lt.IsActive).Scan(&lt.ID); err != nil {
		return LeaveType{}, err
	}
	return lt, nil
}

func (r *repo) UpdateLeaveType(ctx context.Context, id int64, lt LeaveType) error {
	query := `UPDATE leave_types SET code = $1, label = $2, annual_quota = $3, is_active = $4 WHERE id = $5`
	tag, err := r.db.Exec(ctx, query, lt.Code, lt.Label, lt.AnnualQuota, lt.IsActive, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
