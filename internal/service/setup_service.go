package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/user"
	"github.com/example/goshop/internal/repository/mysql"
)

// SetupService 负责 POST /api/setup/init：建表 + 种子数据，可重复调用。
type SetupService struct {
	db      *gorm.DB
	userSvc *UserService
}

func NewSetupService(db *gorm.DB, userSvc *UserService) *SetupService {
	return &SetupService{db: db, userSvc: userSvc}
}

// InitResult 初始化结果摘要
type InitResult struct {
	Migrated       bool  `json:"migrated"`
	ProductsSeeded int64 `json:"products_seeded"`
	UsersSeeded    int64 `json:"users_seeded"`
}

// Init 幂等初始化：表结构同步后，仅在表为空时写入种子数据。
func (s *SetupService) Init(ctx context.Context) (*InitResult, error) {
	if err := mysql.Migrate(s.db); err != nil {
		return nil, err
	}
	res := &InitResult{Migrated: true}

	var productCount int64
	if err := s.db.WithContext(ctx).Model(&product.Product{}).Count(&productCount).Error; err != nil {
		return nil, err
	}
	if productCount == 0 {
		seed := seedProducts()
		if err := s.db.WithContext(ctx).Create(&seed).Error; err != nil {
			return nil, err
		}
		res.ProductsSeeded = int64(len(seed))
	}

	var userCount int64
	if err := s.db.WithContext(ctx).Model(&user.User{}).Count(&userCount).Error; err != nil {
		return nil, err
	}
	if userCount == 0 {
		if _, err := s.userSvc.Create(ctx, "Admin", "admin@goshop.local", "admin123"); err != nil {
			return nil, err
		}
		res.UsersSeeded = 1
	}

	zap.L().Info("setup init finished",
		zap.Int64("products_seeded", res.ProductsSeeded),
		zap.Int64("users_seeded", res.UsersSeeded))
	return res, nil
}

func seedProducts() []*product.Product {
	type row struct {
		name, desc, category string
		price, stock         int64
	}
	rows := []row{
		{"Classic Denim Jacket", "Sturdy washed denim with brass buttons", "men", 5999, 40},
		{"Slim Fit Chinos", "Stretch cotton twill, tapered leg", "men", 3499, 60},
		{"Oxford Shirt", "Button-down collar, easy iron", "men", 2999, 80},
		{"Wool Overcoat", "Mid-length, fully lined", "men", 12999, 15},
		{"Floral Midi Dress", "Lightweight viscose, side pockets", "women", 4599, 50},
		{"High-Rise Jeans", "Vintage wash, ankle length", "women", 3999, 70},
		{"Knit Cardigan", "Soft ribbed knit, relaxed fit", "women", 3299, 45},
		{"Pleated Skirt", "Flowing crepe, elastic waist", "women", 2799, 55},
		{"Leather Belt", "Full-grain leather, matte buckle", "accessories", 1899, 100},
		{"Canvas Tote", "Heavy cotton canvas, inner pocket", "accessories", 1599, 120},
		{"Aviator Sunglasses", "Polarized lenses, metal frame", "accessories", 2499, 90},
		{"Wool Scarf", "Brushed finish, fringe ends", "accessories", 1299, 110},
	}
	out := make([]*product.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, &product.Product{
			Name:        r.name,
			Slug:        Slugify(r.name),
			Description: r.desc,
			Price:       r.price,
			Stock:       r.stock,
			Category:    r.category,
			Status:      product.StatusOnline,
		})
	}
	return out
}
