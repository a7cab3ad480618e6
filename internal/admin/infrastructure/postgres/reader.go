package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/leavalz/Natural-Triade-Shop/internal/admin/application"
	catalogapp "github.com/leavalz/Natural-Triade-Shop/internal/catalog/application"
	catalogdomain "github.com/leavalz/Natural-Triade-Shop/internal/catalog/domain"
	catalogpg "github.com/leavalz/Natural-Triade-Shop/internal/catalog/infrastructure/postgres"
	orderapp "github.com/leavalz/Natural-Triade-Shop/internal/order/application"
	orderdomain "github.com/leavalz/Natural-Triade-Shop/internal/order/domain"
	orderpg "github.com/leavalz/Natural-Triade-Shop/internal/order/infrastructure/postgres"
)

// revenueStatuses are the statuses whose totals count as revenue: the order
// has been paid and not cancelled.
var revenueStatuses = []string{
	string(orderdomain.StatusPaid),
	string(orderdomain.StatusProcessing),
	string(orderdomain.StatusShipped),
	string(orderdomain.StatusDelivered),
}

type Reader struct {
	log      *slog.Logger
	pool     *pgxpool.Pool
	orders   *orderpg.Repository
	products *catalogpg.Repository
}

func NewReader(log *slog.Logger, pool *pgxpool.Pool, orders *orderpg.Repository, products *catalogpg.Repository) *Reader {
	return &Reader{log: log, pool: pool, orders: orders, products: products}
}

func (r *Reader) Metrics(ctx context.Context) (application.SalesMetrics, error) {
	var m application.SalesMetrics
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'paid'),
		       COUNT(*) FILTER (WHERE status = 'delivered'),
		       COUNT(*) FILTER (WHERE status = 'cancelled'),
		       COALESCE(SUM(total) FILTER (WHERE status = ANY($1)), 0)
		FROM orders`, revenueStatuses).
		Scan(&m.TotalOrders, &m.PendingOrders, &m.PaidOrders, &m.CompletedOrders, &m.CancelledOrders, &m.TotalRevenue)
	if err != nil {
		return application.SalesMetrics{}, err
	}
	if m.PaidOrders > 0 {
		m.AverageOrderValue = m.TotalRevenue.Div(decimal.NewFromInt(m.PaidOrders)).Round(2)
	}
	m.TotalRevenue = m.TotalRevenue.Round(2)
	return m, nil
}

func (r *Reader) TopProducts(ctx context.Context, limit int) ([]application.TopProduct, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT oi.product_id, oi.product_name, SUM(oi.quantity), SUM(oi.subtotal)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = ANY($1)
		GROUP BY oi.product_id, oi.product_name
		ORDER BY SUM(oi.quantity) DESC
		LIMIT $2`, revenueStatuses, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []application.TopProduct
	for rows.Next() {
		var tp application.TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.ProductName, &tp.QuantitySold, &tp.Revenue); err != nil {
			return nil, err
		}
		tp.Revenue = tp.Revenue.Round(2)
		out = append(out, tp)
	}
	return out, rows.Err()
}

func (r *Reader) RecentOrders(ctx context.Context, limit int) ([]orderdomain.Order, error) {
	return r.orders.List(ctx, orderapp.ListFilter{Limit: limit})
}

func (r *Reader) LowStock(ctx context.Context, threshold int) ([]catalogdomain.Product, error) {
	return r.products.List(ctx, catalogapp.ListFilter{StockBelow: &threshold})
}
