package order

import (
	"context"
	"time"
)

// 订单状态
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ValidStatus 判断是否为合法订单状态
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Order 订单模型，total 在创建时由明细汇总得出，之后不再重算。
type Order struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	Total     int64     `gorm:"not null" json:"total"` // 分
	Status    string    `gorm:"size:16;index;not null" json:"status"`
	Items     []Item    `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item 订单明细，price 为下单时刻的单价快照，
// 后续商品调价不会影响历史订单。
type Item struct {
	ID        int64 `gorm:"primaryKey" json:"id"`
	OrderID   int64 `gorm:"index;not null" json:"order_id"`
	ProductID int64 `gorm:"index;not null" json:"product_id"`
	Quantity  int64 `gorm:"not null" json:"quantity"`
	Price     int64 `gorm:"not null" json:"price"` // 分
}

// TableName 与惯用的复数表名保持一致
func (Item) TableName() string {
	return "order_items"
}

// Repository 订单仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*Order, error)
	ListRecent(ctx context.Context, limit int) ([]*Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}
