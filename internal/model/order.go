package model

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	DefaultServiceFee = decimal.NewFromInt(150000)
	DefaultAdminFee   = decimal.NewFromInt(3000)
)

const TransactionIDPrefix = "TRX"

// NewTransactionID derives an id from t truncated to the minute. Two orders
// created in the same minute collide and the unique index rejects the second.
func NewTransactionID(t time.Time) string {
	return TransactionIDPrefix + t.Format("200601021504")
}

type Order struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement"`
	ProductID     uint64          `gorm:"column:product_id;index;not null"`
	UserID        uint64          `gorm:"column:user_id;index:idx_orders_user_status;not null"`
	PaymentID     *uint64         `gorm:"column:payment_id;index"`
	PackageType   PackageType     `gorm:"column:package_type;size:16;not null"`
	Status        OrderStatus     `gorm:"column:status;size:16;not null;index:idx_orders_user_status"`
	Progress      int             `gorm:"column:progress;not null;default:0"`
	DeliveryDate  *time.Time      `gorm:"column:delivery_date"`
	ServiceFee    decimal.Decimal `gorm:"column:service_fee;type:decimal(14,2);not null"`
	AdminFee      decimal.Decimal `gorm:"column:admin_fee;type:decimal(14,2);not null"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:decimal(14,2);not null"`
	TransactionID string          `gorm:"column:transaction_id;size:64;not null;uniqueIndex:uk_orders_transaction_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) Summary() OrderSummary {
	return OrderSummary{
		OrderID:     o.ID,
		ProductID:   o.ProductID,
		PackageType: o.PackageType,
		Status:      o.Status,
		TotalPrice:  o.TotalAmount,
		Progress:    o.Progress,
		OrderDate:   o.CreatedAt,
	}
}
