package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ChannelOrdersChanged is notified by a trigger with the affected user id as payload.
const ChannelOrdersChanged = "orders_changed"

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, user_id, user_fullname, user_phone, items, total::text, status, payment_method, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o     Order
		items []byte
		total string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.UserFullname, &o.UserPhone, &items, &total,
		&o.Status, &o.PaymentMethod, &o.Timestamp, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return Order{}, fmt.Errorf("order %s items: %w", o.ID, err)
	}
	t, err := decimal.NewFromString(total)
	if err != nil {
		return Order{}, fmt.Errorf("order %s total: %w", o.ID, err)
	}
	o.Total = t
	return o, nil
}

// Create stores a new order and returns it with its generated id.
func (r *Repo) Create(ctx context.Context, o Order) (Order, error) {
	o.ID = NewID()
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now().UTC()
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return Order{}, err
	}
	return scanOrder(r.DB.QueryRow(ctx, `
		INSERT INTO orders(id, user_id, user_fullname, user_phone, items, total, status, payment_method, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+orderColumns,
		o.ID, o.UserID, o.UserFullname, o.UserPhone, items, o.Total.String(), o.Status, o.PaymentMethod, o.Timestamp))
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

// UpdateStatus moves an order from one status to another. The write only lands
// if the stored status still equals from.
func (r *Repo) UpdateStatus(ctx context.Context, id string, from, to Status) (Order, error) {
	if !CanTransition(from, to) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	o, err := scanOrder(r.DB.QueryRow(ctx, `
		UPDATE orders SET status=$3, updated_at=now()
		WHERE id=$1 AND status=$2
		RETURNING `+orderColumns, id, from, to))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Order{}, err
	}
	if _, err := r.Get(ctx, id); err != nil {
		return Order{}, err
	}
	return Order{}, ErrStatusConflict
}

func (r *Repo) query(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

// List returns every order, optionally narrowed to one status.
func (r *Repo) List(ctx context.Context, status Status) ([]Order, error) {
	if status == "" {
		return r.query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	}
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE status=$1 ORDER BY created_at DESC`, status)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Watch holds one pooled connection in LISTEN mode for the lifetime of the
// subscription and re-reads the user's orders on every matching notification.
func (r *Repo) Watch(ctx context.Context, userID string) (*Subscription, error) {
	conn, err := r.DB.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+ChannelOrdersChanged); err != nil {
		conn.Release()
		return nil, err
	}

	lctx, stop := context.WithCancel(ctx)
	changed := make(chan struct{}, 1)
	listenDone := make(chan struct{})
	go func() {
		defer close(listenDone)
		defer close(changed)
		for {
			n, err := conn.Conn().WaitForNotification(lctx)
			if err != nil {
				return
			}
			if n.Payload != userID {
				continue
			}
			select {
			case changed <- struct{}{}:
			default:
			}
		}
	}()

	release := func() {
		stop()
		<-listenDone
		_, _ = conn.Exec(context.Background(), "UNLISTEN *")
		conn.Release()
	}
	load := func(ctx context.Context) ([]Order, error) { return r.ListByUser(ctx, userID) }
	return startSubscription(lctx, changed, load, release), nil
}
