package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"rd-topup-api/internal/event"
	ordermodel "rd-topup-api/internal/model/order"
	"rd-topup-api/internal/notify"
)

// PaymentService 回调与轮询共用的支付状态转移入口
type PaymentService struct {
	orders   OrderStore
	notifier Notifier
	pub      event.Publisher
	log      logrus.FieldLogger
}

func NewPaymentService(orders OrderStore, notifier Notifier, pub event.Publisher, log logrus.FieldLogger) *PaymentService {
	return &PaymentService{orders: orders, notifier: notifier, pub: pub, log: log}
}

// ApplyGatewayStatus 写入网关状态并决定是否通知。
// 终态保护在存储层完成；是否通知只看落库后的状态与水位线，不看本次回调是否为"新"转移。
func (s *PaymentService) ApplyGatewayStatus(ctx context.Context, orderID, gatewayStatus, raw string) (*ordermodel.Order, error) {
	l := s.log.WithField("order_id", orderID)

	status, known := ordermodel.ParsePayStatus(gatewayStatus)
	if !known {
		// refund、authorize 等：只留存原文
		l.Warnf("[Payment] ⚠️ 未识别的网关状态 %q，仅记录原文", gatewayStatus)
	}

	o, err := s.orders.UpdatePaymentStatus(ctx, orderID, status, raw)
	if err != nil {
		return nil, err
	}
	if known && o.PayStatus != status {
		l.Infof("[Payment] 已是终态 %s，忽略 %s", o.PayStatus, status)
	}

	if o.PayStatus.Paid() {
		s.notifier.Notify(ctx, o, notify.EventPaymentSettled)
	}

	event.PublishAsync(s.pub, s.log, event.TopicOrderPaymentUpdated, orderEvent(event.TopicOrderPaymentUpdated, o))
	return o, nil
}
