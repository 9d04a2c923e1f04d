package repository

import (
	"context"
	"strings"

	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProductFilter narrows a product listing. Zero values mean "no constraint".
type ProductFilter struct {
	Query      string
	CategoryID uint64
	SellerID   uint64
	Tags       []string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
}

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uint64) (*model.Product, error)
	List(ctx context.Context, f ProductFilter, limit, offset int) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error
	UpdateRating(ctx context.Context, id uint64, rating float64) error
	Delete(ctx context.Context, id uint64) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uint64) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) filtered(ctx context.Context, f ProductFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.SellerID != 0 {
		q = q.Where("seller_id = ?", f.SellerID)
	}
	if len(f.Tags) > 0 {
		anyTag := r.db.Session(&gorm.Session{NewDB: true})
		for i, tag := range f.Tags {
			cond := datatypes.JSONArrayQuery("tags").Contains(tag)
			if i == 0 {
				anyTag = anyTag.Where(cond)
			} else {
				anyTag = anyTag.Or(cond)
			}
		}
		q = q.Where(anyTag)
	}
	if f.MinPrice != nil {
		q = q.Where("price_basic_fiture >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price_basic_fiture <= ?", *f.MaxPrice)
	}
	return q
}

func (r *productRepository) List(ctx context.Context, f ProductFilter, limit, offset int) ([]model.Product, int64, error) {
	var (
		list  []model.Product
		total int64
	)
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.filtered(ctx, f).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepository) UpdateRating(ctx context.Context, id uint64, rating float64) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("rating", rating).Error
}

func (r *productRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
