package main

import (
	"go.uber.org/zap"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/infra/mq"
	"github.com/example/goshop/internal/logger"
)

// 订单事件消费者：订阅 order_events 队列，
// 目前只做结构化审计日志，后续可以在这里接通知渠道。
func main() {
	logger.Init()

	cfg, err := config.LoadConfig("./config")
	if err != nil {
		zap.L().Fatal("failed to load config", zap.Error(err))
	}

	conn := mq.Init(&cfg.RabbitMQ)
	zap.L().Info("order worker started", zap.String("queue", mq.OrderQueue))

	err = mq.ConsumeOrderEvents(conn, func(ev *mq.OrderEvent) error {
		zap.L().Info("order event",
			zap.Int64("order_id", ev.OrderID),
			zap.Int64("user_id", ev.UserID),
			zap.Int64("total", ev.Total),
			zap.String("event", ev.Event),
			zap.String("status", ev.Status))
		return nil
	})
	if err != nil {
		zap.L().Fatal("consumer stopped", zap.Error(err))
	}
}
