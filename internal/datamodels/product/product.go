package product

import (
	"context"
	"time"
)

// Product 商品模型
type Product struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:160;not null" json:"slug"`
	Description string    `gorm:"size:512" json:"description"`
	Price       int64     `gorm:"not null" json:"price"` // 分
	Stock       int64     `gorm:"not null" json:"stock"`
	Category    string    `gorm:"size:32;index" json:"category"` // 分类：men、women、accessories
	Status      int       `gorm:"index" json:"status"`           // 0:下线 1:正常
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	StatusOffline = 0
	StatusOnline  = 1
)

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	ListAll(ctx context.Context) ([]*Product, error)
	ListOnline(ctx context.Context) ([]*Product, error)
	ListByCategory(ctx context.Context, category string) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	// Delete 连同该商品的历史订单明细一起删除（级联），订单本身保留。
	Delete(ctx context.Context, id int64) error
}
