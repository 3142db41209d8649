package mq

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/goshop/internal/config"
)

// OrderQueue 订单生命周期事件队列
const OrderQueue = "order_events"

var (
	conn *amqp.Connection
	once sync.Once
)

// Init 初始化 RabbitMQ 连接
func Init(cfg *config.RabbitMQConfig) *amqp.Connection {
	once.Do(func() {
		c, err := amqp.Dial(cfg.URL)
		if err != nil {
			log.Fatalf("failed to connect rabbitmq: %v", err)
		}
		conn = c
	})
	return conn
}

// Conn 获取 MQ 连接
func Conn() *amqp.Connection {
	return conn
}

// OrderEvent 订单事件消息体
type OrderEvent struct {
	OrderID int64     `json:"order_id"`
	UserID  int64     `json:"user_id"`
	Total   int64     `json:"total"` // 分
	Event   string    `json:"event"` // created / status_changed
	Status  string    `json:"status,omitempty"`
	Time    time.Time `json:"time"`
}

// OrderPublisher 基于 RabbitMQ 的订单事件发布器
type OrderPublisher struct {
	conn *amqp.Connection
}

// NewOrderPublisher 创建发布器
func NewOrderPublisher(conn *amqp.Connection) *OrderPublisher {
	return &OrderPublisher{conn: conn}
}

// PublishOrderEvent 在订单事务提交之后调用，发布事件到 order_events 队列。
func (p *OrderPublisher) PublishOrderEvent(ctx context.Context, ev *OrderEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(OrderQueue, true, false, false, false, nil); err != nil {
		return err
	}

	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(
		ctx,
		"",
		OrderQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// ConsumeOrderEvents 订阅订单事件，handler 返回 error 时消息重新入队一次。
// 供 cmd/order-worker 使用。
func ConsumeOrderEvents(conn *amqp.Connection, handler func(ev *OrderEvent) error) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}

	if _, err = ch.QueueDeclare(OrderQueue, true, false, false, false, nil); err != nil {
		return err
	}

	msgs, err := ch.Consume(OrderQueue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for msg := range msgs {
		var ev OrderEvent
		if err := json.Unmarshal(msg.Body, &ev); err != nil {
			// 无法解析的消息直接丢弃，避免死循环
			_ = msg.Nack(false, false)
			continue
		}
		if err := handler(&ev); err != nil {
			_ = msg.Nack(false, !msg.Redelivered)
			continue
		}
		_ = msg.Ack(false)
	}
	return nil
}
