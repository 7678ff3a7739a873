package dal

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

var ErrRabbitClosed = errors.New("rabbitmq connection closed")

// RabbitMQ 带自愈的单连接单通道
type RabbitMQ struct {
	url      string
	exchange string

	mu sync.Mutex

	conn *amqp.Connection
	ch   *amqp.Channel

	// 用 NotifyClose 事件来判断是否已关闭（而不是 IsClosed）
	connClosedCh chan *amqp.Error
	chClosedCh   chan *amqp.Error

	reconnecting bool
	closed       bool
	done         chan struct{}
}

// NewRabbitMQ 首次连接并声明 topic exchange
func NewRabbitMQ(url, exchange string) (*RabbitMQ, error) {
	r := &RabbitMQ{url: url, exchange: exchange, done: make(chan struct{})}
	if err := r.connect(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RabbitMQ) Exchange() string {
	return r.exchange
}

func (r *RabbitMQ) connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRabbitClosed
	}
	if r.isConnAlive() && r.isChanAlive() {
		return nil
	}

	log.Printf("[RabbitMQ] 🌀 连接中: exchange=%s", r.exchange)

	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("连接失败: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("创建通道失败: %w", err)
	}
	if err := ch.ExchangeDeclare(r.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("exchange declare failed: %w", err)
	}

	r.conn = conn
	r.ch = ch
	r.connClosedCh = conn.NotifyClose(make(chan *amqp.Error, 1))
	r.chClosedCh = ch.NotifyClose(make(chan *amqp.Error, 1))

	log.Printf("[RabbitMQ] ✅ 初始化成功 → exchange=%s", r.exchange)

	go r.watchClose(r.connClosedCh, r.chClosedCh)
	return nil
}

// 监听关闭事件，触发重连
func (r *RabbitMQ) watchClose(connCh, chCh chan *amqp.Error) {
	select {
	case err, ok := <-connCh:
		if ok {
			log.Printf("[RabbitMQ] ⚠️ 连接关闭: %v", err)
		}
	case err, ok := <-chCh:
		if ok {
			log.Printf("[RabbitMQ] ⚠️ 通道关闭: %v", err)
		}
	case <-r.done:
		return
	}
	r.reconnect()
}

// 自愈重连（重试直至成功或 Close）
func (r *RabbitMQ) reconnect() {
	r.mu.Lock()
	if r.reconnecting || r.closed {
		r.mu.Unlock()
		return
	}
	r.reconnecting = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.reconnecting = false
		r.mu.Unlock()
	}()

	for {
		log.Println("[RabbitMQ] 🔄 正在重连...")
		err := r.connect()
		if err == nil {
			log.Println("[RabbitMQ] ✅ 重连成功")
			return
		}
		if errors.Is(err, ErrRabbitClosed) {
			return
		}
		select {
		case <-r.done:
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (r *RabbitMQ) isConnAlive() bool {
	if r.conn == nil || r.connClosedCh == nil {
		return false
	}
	select {
	case <-r.connClosedCh:
		return false
	default:
		return true
	}
}

func (r *RabbitMQ) isChanAlive() bool {
	if r.ch == nil || r.chClosedCh == nil {
		return false
	}
	select {
	case <-r.chClosedCh:
		return false
	default:
		return true
	}
}

// Channel 返回当前可用通道；断开时返回错误，不阻塞调用方
func (r *RabbitMQ) Channel() (*amqp.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRabbitClosed
	}
	if !r.isChanAlive() {
		go r.reconnect()
		return nil, errors.New("rabbitmq channel not ready")
	}
	return r.ch, nil
}

// Close 停止重连并关闭连接
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	close(r.done)
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
