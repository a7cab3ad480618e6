package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leavalz/Natural-Triade-Shop/internal/cart/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const lineColumns = `id, user_id, product_id, quantity, price_at_addition, created_at`

func (r *Repository) LineByID(ctx context.Context, userID, lineID string) (domain.Line, error) {
	return r.line(ctx, `SELECT `+lineColumns+` FROM cart_items WHERE id=$1 AND user_id=$2`, lineID, userID)
}

func (r *Repository) LineByProduct(ctx context.Context, userID, productID string) (domain.Line, error) {
	return r.line(ctx, `SELECT `+lineColumns+` FROM cart_items WHERE user_id=$1 AND product_id=$2`, userID, productID)
}

func (r *Repository) line(ctx context.Context, q string, args ...any) (domain.Line, error) {
	var l domain.Line
	err := r.pool.QueryRow(ctx, q, args...).
		Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.PriceAtAddition, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Line{}, domain.ErrLineNotFound
	}
	if err != nil {
		return domain.Line{}, err
	}
	return l, nil
}

func (r *Repository) Insert(ctx context.Context, line domain.Line) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO cart_items (`+lineColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		line.ID, line.UserID, line.ProductID, line.Quantity, line.PriceAtAddition, line.CreatedAt)
	return err
}

func (r *Repository) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	ct, err := r.pool.Exec(ctx, `UPDATE cart_items SET quantity=$2 WHERE id=$1`, lineID, quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrLineNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, userID, lineID string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id=$1 AND user_id=$2`, lineID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrLineNotFound
	}
	return nil
}

func (r *Repository) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}

// ListForUser joins each line with the current product state. Missing
// products surface with product_exists=false so the service can decide what
// to hide; the rows themselves are never deleted here.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]domain.LineView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.price_at_addition, ci.created_at,
		       COALESCE(p.name, ''), COALESCE(p.description, ''), COALESCE(p.image_url, ''),
		       COALESCE(p.price, 0), COALESCE(p.stock, 0), COALESCE(p.is_active, FALSE),
		       p.id IS NOT NULL
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LineView
	for rows.Next() {
		var lv domain.LineView
		if err := rows.Scan(
			&lv.ID, &lv.UserID, &lv.ProductID, &lv.Quantity, &lv.PriceAtAddition, &lv.CreatedAt,
			&lv.ProductName, &lv.ProductDescription, &lv.ProductImageURL,
			&lv.ProductPrice, &lv.ProductStock, &lv.ProductActive,
			&lv.ProductExists,
		); err != nil {
			return nil, err
		}
		out = append(out, lv)
	}
	return out, rows.Err()
}
