package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// Asset is a handle to an image kept by the media store.
type Asset struct {
	PublicID string `gorm:"column:public_id;size:255" json:"public_id"`
	URL      string `gorm:"column:url;size:512" json:"url"`
}

func (a Asset) Empty() bool {
	return a.PublicID == "" && a.URL == ""
}

// OrderSummary is the denormalized copy of an order kept on its buyer.
type OrderSummary struct {
	OrderID     uint64          `json:"orderId"`
	ProductID   uint64          `json:"productId"`
	PackageType PackageType     `json:"packageType"`
	Status      OrderStatus     `json:"status"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Progress    int             `json:"progress"`
	OrderDate   time.Time       `json:"orderDate"`
}

type User struct {
	ID           uint64                            `gorm:"primaryKey;autoIncrement"`
	Name         string                            `gorm:"size:120;not null"`
	Email        string                            `gorm:"size:255;not null;uniqueIndex:uk_users_email"`
	PasswordHash string                            `gorm:"column:password_hash;size:255"`
	Role         Role                              `gorm:"size:16;not null;index"`
	Avatar       Asset                             `gorm:"embedded;embeddedPrefix:avatar_"`
	IsVerified   bool                              `gorm:"column:is_verified;not null"`
	Orders       datatypes.JSONSlice[OrderSummary] `gorm:"column:orders"`
	CreatedAt    time.Time                         `gorm:"autoCreateTime"`
	UpdatedAt    time.Time                         `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// UpsertOrderSummary replaces the summary for s.OrderID or appends it.
func (u *User) UpsertOrderSummary(s OrderSummary) {
	for i := range u.Orders {
		if u.Orders[i].OrderID == s.OrderID {
			u.Orders[i] = s
			return
		}
	}
	u.Orders = append(u.Orders, s)
}
