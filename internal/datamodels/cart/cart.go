package cart

import "context"

// Item 购物车条目
type Item struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// Store 购物车存储接口，按用户维度读写。
// 购物车状态不放在进程内，方便多实例部署。
type Store interface {
	Get(ctx context.Context, userID int64) ([]Item, error)
	SetItem(ctx context.Context, userID, productID, quantity int64) error
	RemoveItem(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
}
