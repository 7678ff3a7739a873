package event

import (
	"github.com/sirupsen/logrus"
)

// 路由键
const (
	TopicOrderCreated        = "order.created"
	TopicOrderPaymentUpdated = "order.payment_updated"
	TopicOrderFulfilled      = "order.fulfilled"
)

type Publisher interface {
	Publish(topic string, msg any) error
}

// NopPublisher 未配置 MQ 时使用
type NopPublisher struct{}

func (NopPublisher) Publish(string, any) error { return nil }

// PublishAsync 异步发布，失败只记日志，不影响主流程
func PublishAsync(p Publisher, log logrus.FieldLogger, topic string, msg any) {
	if p == nil {
		return
	}
	go func() {
		if err := p.Publish(topic, msg); err != nil {
			log.Warnf("❌ [EVENT] %s 发布失败: %v", topic, err)
		}
	}()
}
