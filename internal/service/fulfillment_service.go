package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"rd-topup-api/internal/constant"
	"rd-topup-api/internal/event"
	ordermodel "rd-topup-api/internal/model/order"
	"rd-topup-api/internal/notify"
)

// FulfillmentService 后台履约；通知结果不影响保存
type FulfillmentService struct {
	orders   OrderStore
	notifier Notifier
	pub      event.Publisher
	log      logrus.FieldLogger
}

func NewFulfillmentService(orders OrderStore, notifier Notifier, pub event.Publisher, log logrus.FieldLogger) *FulfillmentService {
	return &FulfillmentService{orders: orders, notifier: notifier, pub: pub, log: log}
}

func (s *FulfillmentService) Fulfill(ctx context.Context, orderID, status, note, staffID string) (*ordermodel.Order, error) {
	fs := ordermodel.FulfillStatus(strings.TrimSpace(status))
	if !fs.Valid() {
		return nil, constant.Validation("fulfill_status invalid")
	}
	if strings.TrimSpace(orderID) == "" {
		return nil, constant.Validation("orderId invalid")
	}
	note = truncateRunes(strings.TrimSpace(note), 255)

	o, err := s.orders.UpdateFulfillment(ctx, orderID, fs, note, staffID)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"order_id": orderID, "staff": staffID}).Infof("[Fulfill] 履约状态 → %s", fs)

	switch fs {
	case ordermodel.FulfillDone:
		s.notifier.Notify(ctx, o, notify.EventFulfillmentDone)
	case ordermodel.FulfillRejected:
		s.notifier.Notify(ctx, o, notify.EventFulfillmentRejected)
	}

	event.PublishAsync(s.pub, s.log, event.TopicOrderFulfilled, orderEvent(event.TopicOrderFulfilled, o))
	return o, nil
}
