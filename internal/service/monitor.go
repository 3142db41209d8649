package service

import (
	"sync"
	"time"
)

// Monitor 监控服务，用于统计错误和业务指标
type Monitor struct {
	mu sync.RWMutex

	// 错误统计
	RedisErrors int64
	MQErrors    int64
	DBErrors    int64

	// 业务统计
	OrderRequests   int64
	OrderSuccess    int64
	CheckoutSubmits int64
	CheckoutFailed  int64

	// 时间统计
	LastRedisError time.Time
	LastMQError    time.Time
	LastDBError    time.Time
	LastOrderTime  time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

// RecordRedisError 记录Redis错误
func (m *Monitor) RecordRedisError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RedisErrors++
	m.LastRedisError = time.Now()
}

// RecordMQError 记录MQ错误
func (m *Monitor) RecordMQError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
	m.LastMQError = time.Now()
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

// RecordOrderRequest 记录下单请求
func (m *Monitor) RecordOrderRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderRequests++
	m.LastOrderTime = time.Now()
}

// RecordOrderSuccess 记录下单成功
func (m *Monitor) RecordOrderSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderSuccess++
}

// RecordCheckoutSubmit 记录结算提交
func (m *Monitor) RecordCheckoutSubmit(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CheckoutSubmits++
	if !success {
		m.CheckoutFailed++
	}
}

// GetStats 获取统计信息
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	if m.OrderRequests > 0 {
		successRate = float64(m.OrderSuccess) / float64(m.OrderRequests) * 100
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"redis": m.RedisErrors,
			"mq":    m.MQErrors,
			"db":    m.DBErrors,
		},
		"orders": map[string]interface{}{
			"requests":     m.OrderRequests,
			"success":      m.OrderSuccess,
			"success_rate": successRate,
			"last_at":      m.LastOrderTime,
		},
		"checkout": map[string]interface{}{
			"submits": m.CheckoutSubmits,
			"failed":  m.CheckoutFailed,
		},
	}
}
