package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/goshop/internal/datamodels/cart"
	"github.com/example/goshop/internal/datamodels/product"
)

// CartLine 购物车条目 + 商品信息和小计
type CartLine struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Price     int64  `json:"price"` // 当前单价，分
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

// CartView 整车视图
type CartView struct {
	Items    []CartLine `json:"items"`
	Subtotal int64      `json:"subtotal"` // 分
}

// CartService 购物车服务，状态保存在注入的 Store 里（Redis），
// 进程内不持有任何购物车数据。
type CartService struct {
	store       cart.Store
	productRepo product.Repository
}

func NewCartService(store cart.Store, productRepo product.Repository) *CartService {
	return &CartService{store: store, productRepo: productRepo}
}

// Get 读取整车并按当前价格计算小计。
// 对应商品已被删除或下线的条目会被剔除并顺手清理。
func (s *CartService) Get(ctx context.Context, userID int64) (*CartView, error) {
	items, err := s.store.Get(ctx, userID)
	if err != nil {
		GetMonitor().RecordRedisError()
		return nil, err
	}

	view := &CartView{Items: make([]CartLine, 0, len(items))}
	for _, it := range items {
		p, err := s.productRepo.GetByID(ctx, it.ProductID)
		if err != nil || p.Status != product.StatusOnline {
			if rmErr := s.store.RemoveItem(ctx, userID, it.ProductID); rmErr != nil {
				zap.L().Warn("failed to drop stale cart item",
					zap.Int64("user_id", userID),
					zap.Int64("product_id", it.ProductID),
					zap.Error(rmErr))
			}
			continue
		}
		line := CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			Slug:      p.Slug,
			Price:     p.Price,
			Quantity:  it.Quantity,
			LineTotal: p.Price * it.Quantity,
		}
		view.Items = append(view.Items, line)
		view.Subtotal += line.LineTotal
	}
	return view, nil
}

// SetItem 设置某商品数量，quantity 为 0 时等价于移除。
func (s *CartService) SetItem(ctx context.Context, userID, productID, quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must be non-negative", ErrValidation)
	}
	p, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return notFoundOr(err)
	}
	if p.Status != product.StatusOnline {
		return fmt.Errorf("%w: product %d is offline", ErrValidation, productID)
	}
	return s.store.SetItem(ctx, userID, productID, quantity)
}

// RemoveItem 移除单个商品
func (s *CartService) RemoveItem(ctx context.Context, userID, productID int64) error {
	return s.store.RemoveItem(ctx, userID, productID)
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	return s.store.Clear(ctx, userID)
}
