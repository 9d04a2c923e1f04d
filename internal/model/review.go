package model

import "time"

type Review struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	ProductID  uint64    `gorm:"column:product_id;not null;uniqueIndex:uk_reviews_product_user"`
	UserID     uint64    `gorm:"column:user_id;not null;uniqueIndex:uk_reviews_product_user"`
	OrderID    uint64    `gorm:"column:order_id;index;not null"`
	Rating     int       `gorm:"column:rating;not null"`
	Comment    string    `gorm:"column:comment;type:text;not null"`
	ReviewDate time.Time `gorm:"column:review_date;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Review) TableName() string {
	return "reviews"
}
