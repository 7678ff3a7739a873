package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"rd-topup-api/internal/dto"
	ordermodel "rd-topup-api/internal/model/order"
)

// StatusService 前台轮询：非终态时实时查询网关，失败降级为库内状态
type StatusService struct {
	orders   OrderStore
	gateway  Gateway
	settings SettingsSource
	payments *PaymentService
	health   GatewayHealth
	log      logrus.FieldLogger
}

// GatewayHealth 网关熔断（health.Tracker）
type GatewayHealth interface {
	Allow(ctx context.Context) bool
	Record(ctx context.Context, success bool) (bool, error)
}

func NewStatusService(orders OrderStore, gateway Gateway, settings SettingsSource, payments *PaymentService, log logrus.FieldLogger) *StatusService {
	return &StatusService{orders: orders, gateway: gateway, settings: settings, payments: payments, log: log}
}

// WithHealth 开启网关熔断；熔断期间轮询直接返回库内状态
func (s *StatusService) WithHealth(h GatewayHealth) *StatusService {
	s.health = h
	return s
}

func (s *StatusService) Poll(ctx context.Context, orderID string) (*dto.OrderStatusResp, error) {
	o, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// 终态不再查询网关
	if o.PayStatus.Terminal() {
		return statusResp(o), nil
	}

	l := s.log.WithField("order_id", orderID)
	st, err := s.settings.Get(ctx)
	if err != nil {
		l.Warnf("[Status] ⚠️ 读取配置失败，返回库内状态: %v", err)
		return statusResp(o), nil
	}
	if s.health != nil && !s.health.Allow(ctx) {
		l.Debug("[Status] 网关熔断中，返回库内状态")
		return statusResp(o), nil
	}
	res, err := s.gateway.Status(ctx, credentials(st), orderID)
	s.recordHealth(ctx, err == nil)
	if err != nil {
		l.Warnf("[Status] ⚠️ 查询网关失败，返回库内状态: %v", err)
		return statusResp(o), nil
	}
	updated, err := s.payments.ApplyGatewayStatus(ctx, orderID, res.TransactionStatus, res.Raw)
	if err != nil {
		l.Errorf("[Status] ❌ 写入状态失败，返回库内状态: %v", err)
		return statusResp(o), nil
	}
	return statusResp(updated), nil
}

func statusResp(o *ordermodel.Order) *dto.OrderStatusResp {
	return &dto.OrderStatusResp{
		OrderID:       o.OrderID,
		PayStatus:     string(o.PayStatus),
		FulfillStatus: string(o.FulfillStatus),
		IsFinal:       o.PayStatus.Terminal(),
	}
}

func (s *StatusService) recordHealth(ctx context.Context, ok bool) {
	if s.health == nil {
		return
	}
	tripped, err := s.health.Record(ctx, ok)
	if err != nil {
		s.log.Warnf("[Status] ⚠️ 记录网关健康度失败: %v", err)
		return
	}
	if tripped {
		s.log.Warn("[Status] ⚠️ 网关成功率低于阈值，暂停实时查询")
	}
}
