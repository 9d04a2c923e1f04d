package repository

import (
	"context"

	"github.com/shinyyama/market-backend/internal/model"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	FindByID(ctx context.Context, id uint64) (*model.Payment, error)
	FindByOrder(ctx context.Context, orderID uint64) (*model.Payment, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Payment, error)
	ListAll(ctx context.Context) ([]model.Payment, error)
	UpdateStatus(ctx context.Context, id uint64, status model.PaymentStatus) error
	Delete(ctx context.Context, id uint64) error
	DeleteByOrders(ctx context.Context, orderIDs []uint64) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *model.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint64) (*model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) FindByOrder(ctx context.Context, orderID uint64) (*model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID uint64) ([]model.Payment, error) {
	var list []model.Payment
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("payment_date DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *paymentRepository) ListAll(ctx context.Context) ([]model.Payment, error) {
	var list []model.Payment
	if err := r.db.WithContext(ctx).Order("payment_date DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id uint64, status model.PaymentStatus) error {
	return r.db.WithContext(ctx).Model(&model.Payment{}).Where("id = ?", id).Update("payment_status", status).Error
}

func (r *paymentRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&model.Payment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *paymentRepository) DeleteByOrders(ctx context.Context, orderIDs []uint64) error {
	if len(orderIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("order_id IN ?", orderIDs).Delete(&model.Payment{}).Error
}
