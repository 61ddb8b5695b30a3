package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const profileColumns = `id, email, fullname, phone, role, updated_at`

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Email, &p.Fullname, &p.Phone, &p.Role, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) Get(ctx context.Context, id string) (Profile, error) {
	return scanProfile(r.DB.QueryRow(ctx, `SELECT `+profileColumns+` FROM users WHERE id=$1`, id))
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (Profile, error) {
	return scanProfile(r.DB.QueryRow(ctx, `SELECT `+profileColumns+` FROM users WHERE email=$1`, email))
}

// Upsert writes the profile fields. Role is only set on insert; use SetRole to change it.
func (r *Repo) Upsert(ctx context.Context, p Profile) (Profile, error) {
	if p.Role == "" {
		p.Role = RoleCustomer
	}
	return scanProfile(r.DB.QueryRow(ctx, `
		INSERT INTO users(id, email, fullname, phone, role)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			email=EXCLUDED.email, fullname=EXCLUDED.fullname, phone=EXCLUDED.phone, updated_at=now()
		RETURNING `+profileColumns, p.ID, p.Email, p.Fullname, p.Phone, p.Role))
}

func (r *Repo) List(ctx context.Context) ([]Profile, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+profileColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) SetRole(ctx context.Context, id string, role Role) (Profile, error) {
	return scanProfile(r.DB.QueryRow(ctx, `
		UPDATE users SET role=$2, updated_at=now() WHERE id=$1
		RETURNING `+profileColumns, id, role))
}

type EmployeeRepo struct{ DB *pgxpool.Pool }

var ErrEmployeeNotFound = errors.New("employee not found")

func (r *EmployeeRepo) Get(ctx context.Context, id string) (Employee, error) {
	var e Employee
	err := r.DB.QueryRow(ctx, `SELECT id, name, phone, position FROM employees WHERE id=$1`, id).
		Scan(&e.ID, &e.Name, &e.Phone, &e.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, err
}

func (r *EmployeeRepo) List(ctx context.Context) ([]Employee, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, phone, position FROM employees ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Phone, &e.Position); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EmployeeRepo) Upsert(ctx context.Context, e Employee) (Employee, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO employees(id, name, phone, position) VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, phone=EXCLUDED.phone, position=EXCLUDED.position`,
		e.ID, e.Name, e.Phone, e.Position)
	return e, err
}

func (r *EmployeeRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM employees WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}
