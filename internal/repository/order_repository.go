package repository

import (
	"context"

	"github.com/shinyyama/market-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uint64) (*model.Order, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	ListIDsByProduct(ctx context.Context, productID uint64) ([]uint64, error)
	// FindCompleted returns a completed order of userID for productID. A
	// non-zero orderID restricts the match to that order.
	FindCompleted(ctx context.Context, userID, productID, orderID uint64) (*model.Order, error)
	// Update persists o. The stored status is re-read under a row lock and a
	// status change outside the transition table is rejected.
	Update(ctx context.Context, o *model.Order) error
	Delete(ctx context.Context, id uint64) error
	DeleteByProduct(ctx context.Context, productID uint64) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uint64) (*model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Preload("Product").First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepository) ListIDsByProduct(ctx context.Context, productID uint64) ([]uint64, error) {
	var ids []uint64
	if err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("product_id = ?", productID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *orderRepository) FindCompleted(ctx context.Context, userID, productID, orderID uint64) (*model.Order, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND status = ?", userID, productID, model.OrderStatusCompleted)
	if orderID != 0 {
		q = q.Where("id = ?", orderID)
	}
	var o model.Order
	if err := q.Order("id DESC").First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Update(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&model.Order{}).Select("id", "status")
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var stored model.Order
		if err := q.First(&stored, o.ID).Error; err != nil {
			return err
		}
		if err := model.CheckStatusChange(stored.Status, o.Status); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(o).Error
	})
}

func (r *orderRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&model.Order{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepository) DeleteByProduct(ctx context.Context, productID uint64) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.Order{}).Error
}
