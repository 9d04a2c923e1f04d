package handler

import (
	"encoding/json"
	"time"

	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shopspring/decimal"
)

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}

type UserResponse struct {
	ID         uint64               `json:"id"`
	Name       string               `json:"name"`
	Email      string               `json:"email"`
	Role       string               `json:"role"`
	Avatar     model.Asset          `json:"avatar"`
	IsVerified bool                 `json:"isVerified"`
	Orders     []model.OrderSummary `json:"orders"`
	CreatedAt  string               `json:"createdAt"`
	UpdatedAt  string               `json:"updatedAt"`
}

func toUserResponse(u *model.User) UserResponse {
	orders := []model.OrderSummary(u.Orders)
	if orders == nil {
		orders = []model.OrderSummary{}
	}
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       string(u.Role),
		Avatar:     u.Avatar,
		IsVerified: u.IsVerified,
		Orders:     orders,
		CreatedAt:  formatTime(u.CreatedAt),
		UpdatedAt:  formatTime(u.UpdatedAt),
	}
}

type CategoryResponse struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toCategoryResponse(c *model.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}

type ProductResponse struct {
	ID          uint64           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	CategoryID  uint64           `json:"categoryId"`
	Price       model.PriceTiers `json:"price"`
	Image       model.Asset      `json:"image"`
	Thumbnail   model.Asset      `json:"thumbnail"`
	Tags        []string         `json:"tags"`
	SellerID    uint64           `json:"sellerId"`
	Purchased   int              `json:"purchased"`
	Rating      float64          `json:"rating"`
	Available   bool             `json:"isAvailable"`
	CreatedAt   string           `json:"createdAt"`
	UpdatedAt   string           `json:"updatedAt"`
}

func toProductResponse(p *model.Product) ProductResponse {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		Price:       p.Price,
		Image:       p.Image,
		Thumbnail:   p.Thumbnail,
		Tags:        tags,
		SellerID:    p.SellerID,
		Purchased:   p.Purchased,
		Rating:      p.Rating,
		Available:   p.Available,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func toProductResponses(list []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(list))
	for i := range list {
		out = append(out, toProductResponse(&list[i]))
	}
	return out
}

type OrderResponse struct {
	ID            uint64           `json:"id"`
	ProductID     uint64           `json:"productId"`
	UserID        uint64           `json:"userId"`
	PaymentID     *uint64          `json:"paymentId,omitempty"`
	PackageType   string           `json:"packageType"`
	Status        string           `json:"status"`
	Progress      int              `json:"progress"`
	DeliveryDate  *string          `json:"deliveryDate,omitempty"`
	ServiceFee    decimal.Decimal  `json:"serviceFee"`
	AdminFee      decimal.Decimal  `json:"adminFee"`
	TotalAmount   decimal.Decimal  `json:"totalAmount"`
	TransactionID string           `json:"transactionId"`
	Product       *ProductResponse `json:"product,omitempty"`
	CreatedAt     string           `json:"createdAt"`
	UpdatedAt     string           `json:"updatedAt"`
}

func toOrderResponse(o *model.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID,
		ProductID:     o.ProductID,
		UserID:        o.UserID,
		PaymentID:     o.PaymentID,
		PackageType:   string(o.PackageType),
		Status:        string(o.Status),
		Progress:      o.Progress,
		DeliveryDate:  formatTimePtr(o.DeliveryDate),
		ServiceFee:    o.ServiceFee,
		AdminFee:      o.AdminFee,
		TotalAmount:   o.TotalAmount,
		TransactionID: o.TransactionID,
		CreatedAt:     formatTime(o.CreatedAt),
		UpdatedAt:     formatTime(o.UpdatedAt),
	}
	if o.Product != nil {
		p := toProductResponse(o.Product)
		resp.Product = &p
	}
	return resp
}

func toOrderResponses(list []model.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(list))
	for i := range list {
		out = append(out, toOrderResponse(&list[i]))
	}
	return out
}

type PaymentResponse struct {
	ID             uint64          `json:"id"`
	OrderID        uint64          `json:"orderId"`
	UserID         uint64          `json:"userId"`
	PaymentMethod  string          `json:"paymentMethod"`
	PaymentDetails json.RawMessage `json:"paymentDetails"`
	AmountPaid     decimal.Decimal `json:"amountPaid"`
	ServiceFee     decimal.Decimal `json:"serviceFee"`
	AdminFee       decimal.Decimal `json:"adminFee"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaymentDate    string          `json:"paymentDate"`
	PaymentStatus  string          `json:"paymentStatus"`
	TransactionID  string          `json:"transactionId"`
}

func toPaymentResponse(p *model.Payment) PaymentResponse {
	details := json.RawMessage(p.Details)
	if len(details) == 0 {
		details = json.RawMessage("{}")
	}
	return PaymentResponse{
		ID:             p.ID,
		OrderID:        p.OrderID,
		UserID:         p.UserID,
		PaymentMethod:  string(p.Method),
		PaymentDetails: details,
		AmountPaid:     p.AmountPaid,
		ServiceFee:     p.ServiceFee,
		AdminFee:       p.AdminFee,
		TotalAmount:    p.TotalAmount,
		PaymentDate:    formatTime(p.PaymentDate),
		PaymentStatus:  string(p.Status),
		TransactionID:  p.TransactionID,
	}
}

func toPaymentResponses(list []model.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(list))
	for i := range list {
		out = append(out, toPaymentResponse(&list[i]))
	}
	return out
}

type ReviewResponse struct {
	ID         uint64 `json:"id"`
	ProductID  uint64 `json:"productId"`
	UserID     uint64 `json:"userId"`
	OrderID    uint64 `json:"orderId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	ReviewDate string `json:"reviewDate"`
}

func toReviewResponse(r *model.Review) ReviewResponse {
	return ReviewResponse{
		ID:         r.ID,
		ProductID:  r.ProductID,
		UserID:     r.UserID,
		OrderID:    r.OrderID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		ReviewDate: formatTime(r.ReviewDate),
	}
}

type NotificationResponse struct {
	ID               uint64  `json:"id"`
	UserID           uint64  `json:"userId"`
	Title            string  `json:"title"`
	Message          string  `json:"message"`
	Type             string  `json:"type"`
	IsRead           bool    `json:"isRead"`
	RelatedModel     string  `json:"relatedModel,omitempty"`
	RelatedID        *uint64 `json:"relatedId,omitempty"`
	NotificationDate string  `json:"notificationDate"`
}

func toNotificationResponse(n *model.Notification) NotificationResponse {
	return NotificationResponse{
		ID:               n.ID,
		UserID:           n.UserID,
		Title:            n.Title,
		Message:          n.Message,
		Type:             string(n.Type),
		IsRead:           n.IsRead,
		RelatedModel:     n.RelatedModel,
		RelatedID:        n.RelatedID,
		NotificationDate: formatTime(n.NotificationDate),
	}
}
