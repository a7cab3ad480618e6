package application

import (
	"context"
	"log/slog"
)

const (
	topProductsLimit  = 5
	recentOrdersLimit = 10
	lowStockThreshold = 5
)

// Service aggregates the admin dashboard. It is a pure read side; status
// mutations go through the order engine.
type Service struct {
	log    *slog.Logger
	reader Reader
}

func NewService(log *slog.Logger, reader Reader) *Service {
	return &Service{log: log, reader: reader}
}

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	metrics, err := s.reader.Metrics(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	top, err := s.reader.TopProducts(ctx, topProductsLimit)
	if err != nil {
		return Dashboard{}, err
	}
	recent, err := s.reader.RecentOrders(ctx, recentOrdersLimit)
	if err != nil {
		return Dashboard{}, err
	}
	low, err := s.reader.LowStock(ctx, lowStockThreshold)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Metrics: metrics, TopProducts: top, RecentOrders: recent, LowStock: low}, nil
}
