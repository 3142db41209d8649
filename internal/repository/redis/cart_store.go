package redis

import (
	"context"
	"fmt"
	"strconv"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/example/goshop/internal/datamodels/cart"
)

// 购物车使用 Redis hash 存储：cart:{userID} -> { productID: quantity }
const cartKeyFmt = "cart:%d"

type cartStore struct {
	client radix.Client
}

// NewCartStore 创建基于 Redis 的购物车存储
func NewCartStore(client radix.Client) cart.Store {
	return &cartStore{client: client}
}

func cartKey(userID int64) string {
	return fmt.Sprintf(cartKeyFmt, userID)
}

func (s *cartStore) Get(ctx context.Context, userID int64) ([]cart.Item, error) {
	var raw map[string]string
	if err := s.client.Do(radix.Cmd(&raw, "HGETALL", cartKey(userID))); err != nil {
		return nil, err
	}
	items := make([]cart.Item, 0, len(raw))
	for field, val := range raw {
		pid, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			// 脏数据直接跳过，不影响整车读取
			continue
		}
		qty, err := strconv.ParseInt(val, 10, 64)
		if err != nil || qty <= 0 {
			continue
		}
		items = append(items, cart.Item{ProductID: pid, Quantity: qty})
	}
	return items, nil
}

func (s *cartStore) SetItem(ctx context.Context, userID, productID, quantity int64) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	return s.client.Do(radix.FlatCmd(nil, "HSET", cartKey(userID), productID, quantity))
}

func (s *cartStore) RemoveItem(ctx context.Context, userID, productID int64) error {
	return s.client.Do(radix.FlatCmd(nil, "HDEL", cartKey(userID), productID))
}

func (s *cartStore) Clear(ctx context.Context, userID int64) error {
	return s.client.Do(radix.Cmd(nil, "DEL", cartKey(userID)))
}
