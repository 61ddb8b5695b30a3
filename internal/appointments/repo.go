package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const columns = `id, order_id, fullname, phone, to_char(date, 'YYYY-MM-DD'), service, status, user_id,
	assigned_employee, assigned_employee_name, created_at`

func scan(row pgx.Row) (Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.OrderID, &a.Fullname, &a.Phone, &a.Date, &a.Service, &a.Status, &a.UserID,
		&a.AssignedEmployee, &a.AssignedEmployeeName, &a.CreatedAt)
	return a, err
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("appointment date %q: %w", s, err)
	}
	return d, nil
}

func (r *Repo) Create(ctx context.Context, a Appointment) (Appointment, error) {
	d, err := parseDate(a.Date)
	if err != nil {
		return Appointment{}, err
	}
	a.ID = uuid.NewString()
	return scan(r.DB.QueryRow(ctx, `
		INSERT INTO appointments(id, order_id, fullname, phone, date, service, status, user_id,
			assigned_employee, assigned_employee_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING `+columns,
		a.ID, a.OrderID, a.Fullname, a.Phone, d, a.Service, a.Status, a.UserID,
		a.AssignedEmployee, a.AssignedEmployeeName))
}

func (r *Repo) Get(ctx context.Context, id string) (Appointment, error) {
	a, err := scan(r.DB.QueryRow(ctx, `SELECT `+columns+` FROM appointments WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, ErrNotFound
	}
	return a, err
}

func (r *Repo) query(ctx context.Context, sql string, args ...any) ([]Appointment, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) List(ctx context.Context) ([]Appointment, error) {
	return r.query(ctx, `SELECT `+columns+` FROM appointments ORDER BY date, created_at`)
}

func (r *Repo) ListByStatus(ctx context.Context, s Status) ([]Appointment, error) {
	return r.query(ctx, `SELECT `+columns+` FROM appointments WHERE status=$1 ORDER BY date, created_at`, s)
}

func (r *Repo) ListByPhone(ctx context.Context, phone string) ([]Appointment, error) {
	return r.query(ctx, `SELECT `+columns+` FROM appointments WHERE phone=$1 ORDER BY date, created_at`, phone)
}

// Update replaces the schedulable fields of an existing appointment.
func (r *Repo) Update(ctx context.Context, a Appointment) (Appointment, error) {
	d, err := parseDate(a.Date)
	if err != nil {
		return Appointment{}, err
	}
	out, err := scan(r.DB.QueryRow(ctx, `
		UPDATE appointments SET date=$2, status=$3, assigned_employee=$4, assigned_employee_name=$5
		WHERE id=$1
		RETURNING `+columns, a.ID, d, a.Status, a.AssignedEmployee, a.AssignedEmployeeName))
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, ErrNotFound
	}
	return out, err
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM appointments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
