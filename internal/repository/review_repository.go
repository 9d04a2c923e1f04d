package repository

import (
	"context"

	"github.com/shinyyama/market-backend/internal/model"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, r *model.Review) error
	Exists(ctx context.Context, productID, userID uint64) (bool, error)
	ListByProduct(ctx context.Context, productID uint64) ([]model.Review, error)
	Ratings(ctx context.Context, productID uint64) ([]int, error)
	DeleteByProduct(ctx context.Context, productID uint64) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, rv *model.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *reviewRepository) Exists(ctx context.Context, productID, userID uint64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID uint64) ([]model.Review, error) {
	var list []model.Review
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("review_date DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *reviewRepository) Ratings(ctx context.Context, productID uint64) ([]int, error) {
	var ratings []int
	if err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("product_id = ?", productID).
		Pluck("rating", &ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}

func (r *reviewRepository) DeleteByProduct(ctx context.Context, productID uint64) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.Review{}).Error
}
