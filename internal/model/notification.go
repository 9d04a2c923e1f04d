package model

import "time"

type NotificationType string

const (
	NotificationOrder   NotificationType = "order"
	NotificationPayment NotificationType = "payment"
	NotificationReview  NotificationType = "review"
	NotificationSystem  NotificationType = "system"
	NotificationOther   NotificationType = "other"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationOrder, NotificationPayment, NotificationReview, NotificationSystem, NotificationOther:
		return true
	}
	return false
}

// Related models a notification may point at.
const (
	RelatedProduct = "product"
	RelatedOrder   = "order"
	RelatedPayment = "payment"
)

type Notification struct {
	ID               uint64           `gorm:"primaryKey;autoIncrement"`
	UserID           uint64           `gorm:"column:user_id;index;not null"`
	Title            string           `gorm:"column:title;size:255;not null"`
	Message          string           `gorm:"column:message;type:text;not null"`
	Type             NotificationType `gorm:"column:type;size:16;not null"`
	IsRead           bool             `gorm:"column:is_read;not null"`
	RelatedModel     string           `gorm:"column:related_model;size:32;index:idx_notifications_related"`
	RelatedID        *uint64          `gorm:"column:related_id;index:idx_notifications_related"`
	NotificationDate time.Time        `gorm:"column:notification_date;not null;index"`
	CreatedAt        time.Time        `gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
