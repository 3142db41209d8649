package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/user"
	"github.com/example/goshop/internal/infra/mq"
)

// OrderEventPublisher 订单事件发布接口，nil 表示不发布。
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev *mq.OrderEvent) error
}

// PlaceOrderItem 下单条目
type PlaceOrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// PlaceOrderInput 下单请求
type PlaceOrderInput struct {
	UserID int64            `json:"user_id"`
	Items  []PlaceOrderItem `json:"items"`
}

// OrderDetail 订单 + 下单用户信息，作为创建/查询的返回结构
type OrderDetail struct {
	*order.Order
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

// OrderService 订单服务。下单在单个数据库事务内完成：
// 校验用户与商品、按当前价格快照生成明细、汇总 total、落库。
type OrderService struct {
	db        *gorm.DB
	orderRepo order.Repository
	publisher OrderEventPublisher
}

// NewOrderService 创建订单服务，publisher 可为 nil。
func NewOrderService(db *gorm.DB, orderRepo order.Repository, publisher OrderEventPublisher) *OrderService {
	return &OrderService{
		db:        db,
		orderRepo: orderRepo,
		publisher: publisher,
	}
}

// PlaceOrder 创建订单。任一商品不存在时整单失败，不写任何行。
func (s *OrderService) PlaceOrder(ctx context.Context, in *PlaceOrderInput) (*OrderDetail, error) {
	GetMonitor().RecordOrderRequest()

	if in == nil || in.UserID <= 0 {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: items must not be empty", ErrValidation)
	}
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive for product %d", ErrValidation, it.ProductID)
		}
	}

	var (
		buyer user.User
		o     order.Order
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) 校验下单用户
		if err := tx.First(&buyer, in.UserID).Error; err != nil {
			return fmt.Errorf("%w: user %d", ErrNotFound, in.UserID)
		}

		// 2) 逐条校验商品并按当前单价生成快照明细
		o = order.Order{
			UserID: in.UserID,
			Status: order.StatusPending,
		}
		for _, it := range in.Items {
			var p product.Product
			if err := tx.First(&p, it.ProductID).Error; err != nil {
				return fmt.Errorf("%w: product %d", ErrNotFound, it.ProductID)
			}
			o.Items = append(o.Items, order.Item{
				ProductID: p.ID,
				Quantity:  it.Quantity,
				Price:     p.Price,
			})
			o.Total += p.Price * it.Quantity
		}

		// 3) 订单与明细一并写入
		return tx.Create(&o).Error
	})
	if err != nil {
		return nil, err
	}
	GetMonitor().RecordOrderSuccess()

	// 事务提交后发布事件，失败只记日志，不影响下单结果。
	if s.publisher != nil {
		ev := &mq.OrderEvent{
			OrderID: o.ID,
			UserID:  o.UserID,
			Total:   o.Total,
			Event:   "created",
			Status:  o.Status,
		}
		if err := s.publisher.PublishOrderEvent(ctx, ev); err != nil {
			GetMonitor().RecordMQError()
			zap.L().Warn("failed to publish order event",
				zap.Int64("order_id", o.ID),
				zap.Error(err))
		}
	}

	return &OrderDetail{
		Order:     &o,
		UserName:  buyer.Name,
		UserEmail: buyer.Email,
	}, nil
}

// GetByID 查询订单详情（含明细与下单用户）
func (s *OrderService) GetByID(ctx context.Context, id int64) (*OrderDetail, error) {
	o, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	var buyer user.User
	if err := s.db.WithContext(ctx).First(&buyer, o.UserID).Error; err != nil {
		// 用户被删除的历史订单仍可查看
		return &OrderDetail{Order: o}, nil
	}
	return &OrderDetail{Order: o, UserName: buyer.Name, UserEmail: buyer.Email}, nil
}

// GetForUser 查询订单并校验归属，非本人订单按不存在处理。
func (s *OrderService) GetForUser(ctx context.Context, userID, orderID int64) (*OrderDetail, error) {
	d, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	return d, nil
}

// ListByUser 用户订单历史
func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]*order.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// ListRecent 后台最近订单
func (s *OrderService) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	return s.orderRepo.ListRecent(ctx, limit)
}

// UpdateStatus 后台更新订单状态
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !order.ValidStatus(status) {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, status)
	}
	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return notFoundOr(err)
	}
	if s.publisher != nil {
		ev := &mq.OrderEvent{
			OrderID: id,
			Event:   "status_changed",
			Status:  status,
		}
		if err := s.publisher.PublishOrderEvent(ctx, ev); err != nil {
			GetMonitor().RecordMQError()
			zap.L().Warn("failed to publish status event",
				zap.Int64("order_id", id),
				zap.Error(err))
		}
	}
	return nil
}
