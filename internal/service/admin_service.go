package service

import (
	"context"

	ordermodel "rd-topup-api/internal/model/order"
	"rd-topup-api/internal/repo"
)

type OrderLister interface {
	List(ctx context.Context, f repo.ListFilter) ([]ordermodel.Order, error)
}

type MetricsSource interface {
	Metrics(ctx context.Context) (*repo.Metrics, error)
}

// AdminService 后台看板与订单列表
type AdminService struct {
	orders OrderLister
	stats  MetricsSource
}

func NewAdminService(orders OrderLister, stats MetricsSource) *AdminService {
	return &AdminService{orders: orders, stats: stats}
}

func (s *AdminService) Metrics(ctx context.Context) (*repo.Metrics, error) {
	return s.stats.Metrics(ctx)
}

func (s *AdminService) ListOrders(ctx context.Context, f repo.ListFilter) ([]ordermodel.Order, error) {
	return s.orders.List(ctx, f)
}
