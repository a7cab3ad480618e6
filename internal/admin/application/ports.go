package application

import (
	"context"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/leavalz/Natural-Triade-Shop/internal/catalog/domain"
	orderdomain "github.com/leavalz/Natural-Triade-Shop/internal/order/domain"
)

type SalesMetrics struct {
	TotalRevenue      decimal.Decimal
	TotalOrders       int64
	PendingOrders     int64
	PaidOrders        int64
	CompletedOrders   int64
	CancelledOrders   int64
	AverageOrderValue decimal.Decimal
}

type TopProduct struct {
	ProductID    string
	ProductName  string
	QuantitySold int64
	Revenue      decimal.Decimal
}

type Dashboard struct {
	Metrics      SalesMetrics
	TopProducts  []TopProduct
	RecentOrders []orderdomain.Order
	LowStock     []catalogdomain.Product
}

type Reader interface {
	Metrics(ctx context.Context) (SalesMetrics, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
	RecentOrders(ctx context.Context, limit int) ([]orderdomain.Order, error)
	LowStock(ctx context.Context, threshold int) ([]catalogdomain.Product, error)
}
