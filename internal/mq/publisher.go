package mq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"rd-topup-api/internal/dal"
)

// AmqpPublisher 发布到 topic exchange
type AmqpPublisher struct {
	rabbit *dal.RabbitMQ
}

func NewAmqpPublisher(r *dal.RabbitMQ) *AmqpPublisher {
	return &AmqpPublisher{rabbit: r}
}

func (p *AmqpPublisher) Publish(topic string, msg any) error {
	ch, err := p.rabbit.Channel()
	if err != nil {
		return err
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	return ch.Publish(
		p.rabbit.Exchange(),
		topic,
		false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    time.Now(),
			Body:         b,
		},
	)
}
