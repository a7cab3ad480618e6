package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leavalz/Natural-Triade-Shop/internal/catalog/application"
	"github.com/leavalz/Natural-Triade-Shop/internal/catalog/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

const productColumns = `id, name, description, image_url, price, stock, category, is_active, created_at, updated_at`

func (r *Repository) ByID(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.Price, &p.Stock, &p.Category, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *Repository) List(ctx context.Context, f application.ListFilter) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE TRUE`
	var args []any
	if !f.IncludeInactive {
		q += ` AND is_active`
	}
	if f.Category != nil {
		args = append(args, *f.Category)
		q += fmt.Sprintf(` AND category=$%d`, len(args))
	}
	if f.StockBelow != nil {
		args = append(args, *f.StockBelow)
		q += fmt.Sprintf(` AND stock < $%d`, len(args))
	}
	q += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.Price, &p.Stock, &p.Category, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) Insert(ctx context.Context, p domain.Product) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.Name, p.Description, p.ImageURL, p.Price, p.Stock, p.Category, p.IsActive, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *Repository) Update(ctx context.Context, p domain.Product) error {
	ct, err := r.pool.Exec(ctx, `UPDATE products
		SET name=$2, description=$3, image_url=$4, price=$5, stock=$6, category=$7, is_active=$8, updated_at=$9
		WHERE id=$1`,
		p.ID, p.Name, p.Description, p.ImageURL, p.Price, p.Stock, p.Category, p.IsActive, p.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
