package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PackageType string

const (
	PackageComplete  PackageType = "complete"
	PackageBasic     PackageType = "basic"
	PackagePrototype PackageType = "prototype"
)

// PriceTiers holds the three package prices of a product. Each tier is keyed
// on the wire as "<package>_fiture".
type PriceTiers struct {
	Complete  decimal.Decimal `gorm:"column:complete_fiture;type:decimal(14,2);not null" json:"complete_fiture"`
	Basic     decimal.Decimal `gorm:"column:basic_fiture;type:decimal(14,2);not null" json:"basic_fiture"`
	Prototype decimal.Decimal `gorm:"column:prototype_fiture;type:decimal(14,2);not null" json:"prototype_fiture"`
}

// For returns the price of the tier the package type maps to.
func (p PriceTiers) For(pkg PackageType) (decimal.Decimal, bool) {
	switch pkg {
	case PackageComplete:
		return p.Complete, true
	case PackageBasic:
		return p.Basic, true
	case PackagePrototype:
		return p.Prototype, true
	}
	return decimal.Zero, false
}

// Validate checks every tier is a non-negative amount with at most two fraction digits.
func (p PriceTiers) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"complete_fiture", p.Complete},
		{"basic_fiture", p.Basic},
		{"prototype_fiture", p.Prototype},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return fmt.Errorf("%s must be a positive number", f.name)
		}
		if !HasAtMostTwoDecimals(f.value) {
			return fmt.Errorf("%s must have at most 2 decimal places", f.name)
		}
	}
	return nil
}

type Product struct {
	ID          uint64                      `gorm:"primaryKey;autoIncrement"`
	Name        string                      `gorm:"size:200;not null"`
	Description string                      `gorm:"type:text;not null"`
	CategoryID  uint64                      `gorm:"column:category_id;index"`
	Price       PriceTiers                  `gorm:"embedded;embeddedPrefix:price_"`
	Image       Asset                       `gorm:"embedded;embeddedPrefix:image_"`
	Thumbnail   Asset                       `gorm:"embedded;embeddedPrefix:thumbnail_"`
	Tags        datatypes.JSONSlice[string] `gorm:"column:tags"`
	SellerID    uint64                      `gorm:"column:seller_id;index;not null"`
	Purchased   int                         `gorm:"column:purchased;not null;default:0"`
	Rating      float64                     `gorm:"column:rating;not null;default:0"`
	Available   bool                        `gorm:"column:available;not null"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
