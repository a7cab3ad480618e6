package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogdomain "github.com/leavalz/Natural-Triade-Shop/internal/catalog/domain"
	"github.com/leavalz/Natural-Triade-Shop/internal/order/application"
	"github.com/leavalz/Natural-Triade-Shop/internal/order/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const orderColumns = `id, user_id, subtotal, tax, total, status,
	shipping_address, shipping_city, shipping_postal_code, contact_email, contact_phone,
	payment_method, payment_id,
	created_at, updated_at, paid_at, shipped_at, delivered_at, cancelled_at`

// Create is the checkout transaction: conditional stock decrements, order
// and item inserts, cart clear and outbox write commit or roll back as one.
// The decrement re-checks stock and active flag inside the transaction, so a
// concurrent checkout of the same product cannot oversell regardless of what
// the service layer saw earlier.
func (r *Repository) Create(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, item := range o.Items {
		ct, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = $3
			WHERE id = $1 AND is_active AND stock >= $2`,
			item.ProductID, item.Quantity, o.CreatedAt)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return r.classifyDecrementFailure(ctx, tx, item)
		}
	}

	_, err = tx.Exec(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		o.ID, o.UserID, o.Subtotal, o.Tax, o.Total, o.Status,
		o.Shipping.Address, o.Shipping.City, o.Shipping.PostalCode, o.Shipping.Email, o.Shipping.Phone,
		nullable(o.PaymentMethod), nullable(o.PaymentIntentID),
		o.CreatedAt, o.UpdatedAt, o.PaidAt, o.ShippedAt, o.DeliveredAt, o.CancelledAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`INSERT INTO order_items
			(id, order_id, product_id, product_name, product_description, product_image_url, unit_price, quantity, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			item.ID, item.OrderID, item.ProductID, item.ProductName, item.ProductDescription,
			item.ProductImageURL, item.UnitPrice, item.Quantity, item.Subtotal)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, o.UserID); err != nil {
		return err
	}

	if err := insertOutbox(ctx, tx, o.ID, eventType, payload, traceparent); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) classifyDecrementFailure(ctx context.Context, tx pgx.Tx, item domain.Item) error {
	var stock int
	var active bool
	err := tx.QueryRow(ctx, `SELECT stock, is_active FROM products WHERE id=$1`, item.ProductID).
		Scan(&stock, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", catalogdomain.ErrProductUnavailable, item.ProductID)
	}
	if err != nil {
		return err
	}
	if !active {
		return fmt.Errorf("%w: %s", catalogdomain.ErrProductUnavailable, item.ProductID)
	}
	return &catalogdomain.InsufficientStockError{
		ProductID: item.ProductID,
		Available: stock,
		Requested: item.Quantity,
	}
}

func (r *Repository) ByID(ctx context.Context, id string) (domain.Order, error) {
	return r.one(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

func (r *Repository) ByIDForUser(ctx context.Context, id, userID string) (domain.Order, error) {
	// Wrong owner is indistinguishable from absent, on purpose.
	return r.one(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 AND user_id=$2`, id, userID)
}

func (r *Repository) one(ctx context.Context, q string, args ...any) (domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, q, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	items, err := r.items(ctx, []string{o.ID})
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *Repository) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *Repository) List(ctx context.Context, f application.ListFilter) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE TRUE`
	var args []any
	if f.Status != nil {
		args = append(args, *f.Status)
		q += fmt.Sprintf(` AND status=$%d`, len(args))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		q += fmt.Sprintf(` AND user_id=$%d`, len(args))
	}
	args = append(args, f.Limit)
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))
	args = append(args, f.Offset)
	q += fmt.Sprintf(` OFFSET $%d`, len(args))

	return r.list(ctx, q, args...)
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *Repository) items(ctx context.Context, orderIDs []string) (map[string][]domain.Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, product_id, product_name, product_description,
		product_image_url, unit_price, quantity, subtotal
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.Item)
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.ProductDescription,
			&it.ProductImageURL, &it.UnitPrice, &it.Quantity, &it.Subtotal); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

// UpdateStatus applies a transition the service already validated. The
// expected prior status guards the write: if another request moved the order
// first, zero rows match and the caller gets InvalidTransition against the
// fresh status instead of a double-applied side effect.
func (r *Repository) UpdateStatus(ctx context.Context, o domain.Order, from domain.Status, restock bool, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `UPDATE orders
		SET status=$3, updated_at=$4, paid_at=$5, shipped_at=$6, delivered_at=$7, cancelled_at=$8
		WHERE id=$1 AND status=$2`,
		o.ID, from, o.Status, o.UpdatedAt, o.PaidAt, o.ShippedAt, o.DeliveredAt, o.CancelledAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return r.classifyStatusConflict(ctx, tx, o)
	}

	if restock {
		// Unconditional increment: restoration happens even for products
		// deactivated or edited since the order was created.
		for _, item := range o.Items {
			if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = $3 WHERE id = $1`,
				item.ProductID, item.Quantity, o.UpdatedAt); err != nil {
				return err
			}
		}
	}

	if eventType != "" {
		if err := insertOutbox(ctx, tx, o.ID, eventType, payload, traceparent); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) classifyStatusConflict(ctx context.Context, tx pgx.Tx, o domain.Order) error {
	var current domain.Status
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, o.ID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	return &domain.InvalidTransitionError{From: current, To: o.Status}
}

func insertOutbox(ctx context.Context, tx pgx.Tx, orderID, eventType string, payload []byte, traceparent string) error {
	_, err := tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,'pending')`,
		"order", orderID, eventType, payload, traceparent)
	return err
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var postalCode, phone, method, paymentID *string
	err := row.Scan(&o.ID, &o.UserID, &o.Subtotal, &o.Tax, &o.Total, &o.Status,
		&o.Shipping.Address, &o.Shipping.City, &postalCode, &o.Shipping.Email, &phone,
		&method, &paymentID,
		&o.CreatedAt, &o.UpdatedAt, &o.PaidAt, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.Shipping.PostalCode = deref(postalCode)
	o.Shipping.Phone = deref(phone)
	o.PaymentMethod = deref(method)
	o.PaymentIntentID = deref(paymentID)
	return o, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
