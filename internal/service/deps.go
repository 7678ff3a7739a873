package service

import (
	"context"
	"time"

	"rd-topup-api/internal/dto"
	mainmodel "rd-topup-api/internal/model/main"
	ordermodel "rd-topup-api/internal/model/order"
	"rd-topup-api/internal/notify"
	"rd-topup-api/internal/system"
	"rd-topup-api/internal/upstream"
)

// OrderStore 订单存储（repo.OrderRepo）
type OrderStore interface {
	Create(ctx context.Context, d ordermodel.Draft) (*ordermodel.Order, error)
	GetByOrderID(ctx context.Context, orderID string) (*ordermodel.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID string, status ordermodel.PayStatus, raw string) (*ordermodel.Order, error)
	UpdateFulfillment(ctx context.Context, orderID string, status ordermodel.FulfillStatus, note, staffID string) (*ordermodel.Order, error)
	MarkCreateFailed(ctx context.Context, orderID, note string) error
	SetSnapToken(ctx context.Context, orderID, token string) error
}

// ProductStore 商品读取（repo.ProductRepo）
type ProductStore interface {
	GetActive(ctx context.Context, id uint64) (*mainmodel.Product, error)
	ListActive(ctx context.Context) ([]mainmodel.Product, error)
}

// Gateway 支付网关（upstream.Midtrans）
type Gateway interface {
	CreateTransaction(ctx context.Context, cred upstream.Credentials, req *dto.SnapTransactionReq) (*dto.SnapTransactionResp, error)
	Status(ctx context.Context, cred upstream.Credentials, orderID string) (*upstream.StatusResult, error)
}

// Notifier 买家通知（notify.Dispatcher）
type Notifier interface {
	Notify(ctx context.Context, o *ordermodel.Order, ev notify.Event) bool
}

// SettingsSource 运行时配置（system.SettingsService）
type SettingsSource interface {
	Get(ctx context.Context) (system.Settings, error)
}

// Alerter 运维告警（notify.Telegram）
type Alerter interface {
	Alert(title string, fields map[string]string)
}

func credentials(st system.Settings) upstream.Credentials {
	return upstream.Credentials{ServerKey: st.MidtransServerKey, IsProduction: st.MidtransIsProduction}
}

func orderEvent(name string, o *ordermodel.Order) dto.OrderEvent {
	return dto.OrderEvent{
		Event:         name,
		OrderID:       o.OrderID,
		ProductID:     o.ProductID,
		GrossAmount:   o.GrossAmount,
		PayStatus:     string(o.PayStatus),
		FulfillStatus: string(o.FulfillStatus),
		StaffID:       o.ConfirmedBy,
		OccurredAt:    time.Now().Unix(),
	}
}
