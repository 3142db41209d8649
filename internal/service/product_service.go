package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/example/goshop/internal/datamodels/product"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 由商品名生成 URL 安全的 slug，例如 "Leather Jacket 2.0" -> "leather-jacket-2-0"。
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

type ProductService struct {
	repo product.Repository
}

func NewProductService(repo product.Repository) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) ListOnline(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListOnline(ctx)
}

func (s *ProductService) ListAll(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListAll(ctx)
}

func (s *ProductService) ListByCategory(ctx context.Context, category string) ([]*product.Product, error) {
	return s.repo.ListByCategory(ctx, category)
}

// Search 在给定分类（可为空）内按名称关键字过滤，列表不大，直接在内存里做。
func (s *ProductService) Search(ctx context.Context, category, keyword string) ([]*product.Product, error) {
	var (
		list []*product.Product
		err  error
	)
	if category != "" {
		list, err = s.repo.ListByCategory(ctx, category)
	} else {
		list, err = s.repo.ListOnline(ctx)
	}
	if err != nil {
		return nil, err
	}
	if keyword == "" {
		return list, nil
	}
	kw := strings.ToLower(keyword)
	filtered := make([]*product.Product, 0, len(list))
	for _, p := range list {
		if strings.Contains(strings.ToLower(p.Name), kw) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return p, nil
}

func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return p, nil
}

// Create 创建商品，slug 为空时从名称生成。
func (s *ProductService) Create(ctx context.Context, p *product.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if p.Price < 0 || p.Stock < 0 {
		return fmt.Errorf("%w: price and stock must be non-negative", ErrValidation)
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	if p.Slug == "" {
		return fmt.Errorf("%w: cannot derive slug from name", ErrValidation)
	}
	if _, err := s.repo.GetBySlug(ctx, p.Slug); err == nil {
		return fmt.Errorf("%w: slug %q already exists", ErrConflict, p.Slug)
	}
	return s.repo.Create(ctx, p)
}

// Update 整体保存，名称变化时不自动改 slug，避免破坏已有链接。
func (s *ProductService) Update(ctx context.Context, p *product.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if p.Price < 0 || p.Stock < 0 {
		return fmt.Errorf("%w: price and stock must be non-negative", ErrValidation)
	}
	// 改 slug 时需保证唯一，撞到别的商品按冲突处理
	if existing, err := s.repo.GetBySlug(ctx, p.Slug); err == nil && existing.ID != p.ID {
		return fmt.Errorf("%w: slug %q already exists", ErrConflict, p.Slug)
	}
	return s.repo.Update(ctx, p)
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return notFoundOr(err)
	}
	return s.repo.Delete(ctx, id)
}
