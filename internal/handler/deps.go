package handler

import (
	"context"

	"rd-topup-api/internal/dto"
	mainmodel "rd-topup-api/internal/model/main"
	ordermodel "rd-topup-api/internal/model/order"
	"rd-topup-api/internal/repo"
	"rd-topup-api/internal/system"
	"rd-topup-api/internal/wa"
)

type Checkout interface {
	Create(ctx context.Context, req dto.CreateOrderReq) (*dto.CreateOrderResp, error)
	Products(ctx context.Context) ([]mainmodel.Product, error)
}

type StatusPoller interface {
	Poll(ctx context.Context, orderID string) (*dto.OrderStatusResp, error)
}

type NotificationHandler interface {
	HandleNotification(ctx context.Context, body []byte, clientIP string) error
}

type AdminQueries interface {
	Metrics(ctx context.Context) (*repo.Metrics, error)
	ListOrders(ctx context.Context, f repo.ListFilter) ([]ordermodel.Order, error)
}

type Fulfiller interface {
	Fulfill(ctx context.Context, orderID, status, note, staffID string) (*ordermodel.Order, error)
}

type SettingsStore interface {
	Get(ctx context.Context) (system.Settings, error)
	Masked(ctx context.Context) (system.Settings, error)
	Save(ctx context.Context, values map[string]string) error
}

// Messaging wa.Manager 的后台操作面
type Messaging interface {
	Start(phone string) (wa.Status, error)
	Status() wa.Status
	Send(ctx context.Context, to, text string) error
	Stop(ctx context.Context) wa.Status
	Subscribe() (<-chan wa.Status, func())
}
