package mq

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"rd-topup-api/internal/dal"
	"rd-topup-api/internal/dto"
	"rd-topup-api/internal/event"
	ordermodel "rd-topup-api/internal/model/order"
)

const staffFeedQueue = "staff_feed"

// Alerter 运维通知出口
type Alerter interface {
	Alert(title string, fields map[string]string)
}

// StaffFeedConsumer 订单支付成功后提醒客服履约
type StaffFeedConsumer struct {
	rabbit *dal.RabbitMQ
	alert  Alerter
	log    logrus.FieldLogger
}

func NewStaffFeedConsumer(r *dal.RabbitMQ, alert Alerter, log logrus.FieldLogger) *StaffFeedConsumer {
	return &StaffFeedConsumer{rabbit: r, alert: alert, log: log}
}

// Run 阻塞消费直到 ctx 结束；通道断开后等待重连再继续
func (c *StaffFeedConsumer) Run(ctx context.Context) {
	for {
		if err := c.consume(ctx); err != nil {
			c.log.Warnf("[StaffFeed] ⚠️ 消费中断: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *StaffFeedConsumer) consume(ctx context.Context) error {
	ch, err := c.rabbit.Channel()
	if err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(staffFeedQueue, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(staffFeedQueue, event.TopicOrderPaymentUpdated, c.rabbit.Exchange(), false, nil); err != nil {
		return err
	}
	msgs, err := ch.Consume(staffFeedQueue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	c.log.Info("[StaffFeed] ✅ 开始消费")
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return amqp.ErrClosed
			}
			c.handle(d)
		}
	}
}

func (c *StaffFeedConsumer) handle(d amqp.Delivery) {
	var evt dto.OrderEvent
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		c.log.Warnf("[StaffFeed] ⚠️ 消息格式错误，丢弃: %v", err)
		_ = d.Nack(false, false)
		return
	}
	if ordermodel.PayStatus(evt.PayStatus).Paid() {
		c.alert.Alert("Order paid, waiting fulfillment", map[string]string{
			"order_id": evt.OrderID,
			"amount":   strconv.FormatInt(evt.GrossAmount, 10),
			"status":   evt.PayStatus,
		})
	}
	_ = d.Ack(false)
}
