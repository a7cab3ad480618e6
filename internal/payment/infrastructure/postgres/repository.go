package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	orderdomain "github.com/leavalz/Natural-Triade-Shop/internal/order/domain"
	"github.com/leavalz/Natural-Triade-Shop/internal/payment/domain"
)

// Repository is the payment reconciler's view of the orders table. It never
// touches items or stock; paying an order only moves status and timestamps.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const orderColumns = `id, user_id, subtotal, tax, total, status, payment_method, payment_id, created_at, updated_at, paid_at`

func (r *Repository) ByIDForUser(ctx context.Context, orderID, userID string) (orderdomain.Order, error) {
	return r.one(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 AND user_id=$2`, orderID, userID)
}

func (r *Repository) ByPaymentIntent(ctx context.Context, intentID string) (orderdomain.Order, error) {
	return r.one(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_id=$1`, intentID)
}

func (r *Repository) one(ctx context.Context, q string, args ...any) (orderdomain.Order, error) {
	var o orderdomain.Order
	var method, paymentID *string
	err := r.pool.QueryRow(ctx, q, args...).
		Scan(&o.ID, &o.UserID, &o.Subtotal, &o.Tax, &o.Total, &o.Status,
			&method, &paymentID, &o.CreatedAt, &o.UpdatedAt, &o.PaidAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return orderdomain.Order{}, orderdomain.ErrOrderNotFound
	}
	if err != nil {
		return orderdomain.Order{}, err
	}
	if method != nil {
		o.PaymentMethod = *method
	}
	if paymentID != nil {
		o.PaymentIntentID = *paymentID
	}
	return o, nil
}

// SetPaymentIntent records the intent on a still-pending order. The status
// guard closes the race with a concurrent webhook: once the order left
// pending, overwriting payment_id would orphan the intent that paid it.
func (r *Repository) SetPaymentIntent(ctx context.Context, orderID, intentID, method string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE orders SET payment_id=$2, payment_method=$3, updated_at=$4
		WHERE id=$1 AND status=$5`,
		orderID, intentID, method, time.Now().UTC(), orderdomain.StatusPending)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrInvalidOrderState
	}
	return nil
}

// MarkPaid is idempotent under duplicate webhook delivery: only a pending
// order matches, so a second succeeded event affects zero rows and the
// original paid_at survives. A failed-then-succeeded or succeeded-then-failed
// ordering can therefore never regress the status.
func (r *Repository) MarkPaid(ctx context.Context, orderID string, paidAt time.Time, eventType string, payload []byte, traceparent string) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `UPDATE orders SET status=$2, paid_at=$3, updated_at=$3 WHERE id=$1 AND status=$4`,
		orderID, orderdomain.StatusPaid, paidAt, orderdomain.StatusPending)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, tx.Commit(ctx)
	}

	if eventType != "" {
		_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
			VALUES ($1,$2,$3,$4,$5,'pending')`,
			"order", orderID, eventType, payload, traceparent)
		if err != nil {
			return false, err
		}
	}
	return true, tx.Commit(ctx)
}
