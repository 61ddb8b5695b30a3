package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB *pgxpool.Pool }

const foodColumns = `id, name, category, price::text, picture, status, quantity, updated_at`

func scanFood(row pgx.Row) (Food, error) {
	var (
		f     Food
		price string
	)
	if err := row.Scan(&f.ID, &f.Name, &f.Category, &price, &f.Picture, &f.Status, &f.Quantity, &f.UpdatedAt); err != nil {
		return Food{}, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return Food{}, fmt.Errorf("food %s price: %w", f.ID, err)
	}
	f.Price = p
	return f, nil
}

func (r *Repo) GetFood(ctx context.Context, id string) (Food, error) {
	f, err := scanFood(r.DB.QueryRow(ctx, `SELECT `+foodColumns+` FROM foods WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Food{}, ErrNotFound
	}
	return f, err
}

func (r *Repo) queryFoods(ctx context.Context, sql string, args ...any) ([]Food, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Food
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) ListFoods(ctx context.Context) ([]Food, error) {
	return r.queryFoods(ctx, `SELECT `+foodColumns+` FROM foods ORDER BY name`)
}

func (r *Repo) ListAvailableFoods(ctx context.Context) ([]Food, error) {
	return r.queryFoods(ctx, `SELECT `+foodColumns+` FROM foods WHERE status=$1 ORDER BY name`, FoodAvailable)
}

// UpsertFood inserts or replaces a food. An empty ID gets a fresh one.
func (r *Repo) UpsertFood(ctx context.Context, f Food) (Food, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return scanFood(r.DB.QueryRow(ctx, `
		INSERT INTO foods(id, name, category, price, picture, status, quantity)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			name=EXCLUDED.name, category=EXCLUDED.category, price=EXCLUDED.price,
			picture=EXCLUDED.picture, status=EXCLUDED.status, quantity=EXCLUDED.quantity,
			updated_at=now()
		RETURNING `+foodColumns,
		f.ID, f.Name, f.Category, f.Price.String(), f.Picture, f.Status, f.Quantity))
}

func (r *Repo) DeleteFood(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM foods WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementFood takes qty units off the stock in a single statement and flips the
// status to out-of-stock when nothing is left. The WHERE guard keeps two concurrent
// checkouts from driving the counter below zero.
// On ErrInsufficientStock the returned Food carries the current stock.
func (r *Repo) DecrementFood(ctx context.Context, id string, qty int) (Food, error) {
	f, err := scanFood(r.DB.QueryRow(ctx, `
		UPDATE foods SET
			quantity = quantity - $2,
			status = CASE WHEN quantity - $2 <= 0 THEN $3 ELSE status END,
			updated_at = now()
		WHERE id=$1 AND quantity >= $2
		RETURNING `+foodColumns, id, qty, FoodOutOfStock))
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Food{}, err
	}
	cur, err := r.GetFood(ctx, id)
	if err != nil {
		return Food{}, err
	}
	return cur, ErrInsufficientStock
}

const serviceColumns = `id, name, description, price::text, picture, updated_at`

func scanService(row pgx.Row) (Service, error) {
	var (
		s     Service
		price string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &price, &s.Picture, &s.UpdatedAt); err != nil {
		return Service{}, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return Service{}, fmt.Errorf("service %s price: %w", s.ID, err)
	}
	s.Price = p
	return s, nil
}

func (r *Repo) GetService(ctx context.Context, id string) (Service, error) {
	s, err := scanService(r.DB.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Service{}, ErrNotFound
	}
	return s, err
}

func (r *Repo) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) UpsertService(ctx context.Context, s Service) (Service, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return scanService(r.DB.QueryRow(ctx, `
		INSERT INTO services(id, name, description, price, picture)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			name=EXCLUDED.name, description=EXCLUDED.description, price=EXCLUDED.price,
			picture=EXCLUDED.picture, updated_at=now()
		RETURNING `+serviceColumns,
		s.ID, s.Name, s.Description, s.Price.String(), s.Picture))
}

func (r *Repo) DeleteService(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM services WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
