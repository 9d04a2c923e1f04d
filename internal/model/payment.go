package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodEWallet      PaymentMethod = "E_WALLET"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodQRIS         PaymentMethod = "QRIS"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

type BankTransferDetails struct {
	BankName          string `json:"bankName" validate:"required,oneof=BRI BNI"`
	AccountNumber     string `json:"accountNumber" validate:"required"`
	AccountHolderName string `json:"accountHolderName" validate:"required"`
}

type EWalletDetails struct {
	Provider    string `json:"provider" validate:"required,oneof=DANA LinkAja ShopeePay OVO GoPay"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

type CardDetails struct {
	Type           string `json:"type" validate:"required,oneof=VISA Mastercard"`
	LastFourDigits string `json:"lastFourDigits" validate:"required,len=4"`
	ExpiryMonth    int    `json:"expiryMonth" validate:"required,min=1,max=12"`
	ExpiryYear     int    `json:"expiryYear" validate:"required"`
}

type QRISDetails struct {
	MerchantName string `json:"merchantName" validate:"required"`
}

type Payment struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID       uint64          `gorm:"column:order_id;index;not null"`
	UserID        uint64          `gorm:"column:user_id;index;not null"`
	Method        PaymentMethod   `gorm:"column:payment_method;size:32;not null"`
	Details       datatypes.JSON  `gorm:"column:payment_details;not null"`
	AmountPaid    decimal.Decimal `gorm:"column:amount_paid;type:decimal(14,2);not null"`
	ServiceFee    decimal.Decimal `gorm:"column:service_fee;type:decimal(14,2);not null"`
	AdminFee      decimal.Decimal `gorm:"column:admin_fee;type:decimal(14,2);not null"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:decimal(14,2);not null"`
	PaymentDate   time.Time       `gorm:"column:payment_date;not null"`
	Status        PaymentStatus   `gorm:"column:payment_status;size:16;not null"`
	TransactionID string          `gorm:"column:transaction_id;size:64;not null;uniqueIndex:uk_payments_transaction_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime"`
}

func (Payment) TableName() string {
	return "payments"
}

// ComputeTotal sets TotalAmount to the sum of the paid amount and both fees.
func (p *Payment) ComputeTotal() {
	p.TotalAmount = p.AmountPaid.Add(p.ServiceFee).Add(p.AdminFee)
}
