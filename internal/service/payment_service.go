package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shinyyama/market-backend/internal/apperr"
	"github.com/shinyyama/market-backend/internal/events"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/repository"
)

// CreatePaymentInput deliberately carries no amounts; they come from the order.
type CreatePaymentInput struct {
	OrderID uint64
	Method  model.PaymentMethod
	Details json.RawMessage
}

type PaymentService interface {
	Create(ctx context.Context, actor Actor, in CreatePaymentInput) (*model.Payment, error)
	GetByOrder(ctx context.Context, actor Actor, orderID uint64) (*model.Payment, error)
	ListMine(ctx context.Context, actor Actor) ([]model.Payment, error)
	ListAll(ctx context.Context) ([]model.Payment, error)
	UpdateStatus(ctx context.Context, id uint64, status model.PaymentStatus) (*model.Payment, error)
	Delete(ctx context.Context, id uint64) error
}

type PaymentDeps struct {
	Payments repository.PaymentRepository
	Orders   repository.OrderRepository
	Users    repository.UserRepository
	Notify   NotificationService
	Events   events.Publisher
	Producer string
}

type paymentService struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	users    repository.UserRepository
	notify   NotificationService
	events   events.Publisher
	producer string
	now      func() time.Time
}

func NewPaymentService(d PaymentDeps) PaymentService {
	return &paymentService{
		payments: d.Payments,
		orders:   d.Orders,
		users:    d.Users,
		notify:   d.Notify,
		events:   d.Events,
		producer: d.Producer,
		now:      time.Now,
	}
}

// Create records a completed payment for an unpaid order of the actor and
// then advances the order to Processing. The two writes are not atomic.
func (s *paymentService) Create(ctx context.Context, actor Actor, in CreatePaymentInput) (*model.Payment, error) {
	o, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, notFound(err, "Order")
	}
	if o.UserID != actor.ID {
		return nil, apperr.Forbidden("You can only pay for your own orders")
	}
	if !model.CanTransition(o.Status, model.OrderStatusProcessing) {
		return nil, &model.TransitionError{From: o.Status, To: model.OrderStatusProcessing}
	}
	now := s.now()
	details, err := ValidatePaymentDetails(in.Method, in.Details, now)
	if err != nil {
		return nil, err
	}
	p := &model.Payment{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Method:        in.Method,
		Details:       details,
		AmountPaid:    o.TotalAmount,
		ServiceFee:    o.ServiceFee,
		AdminFee:      o.AdminFee,
		PaymentDate:   now,
		Status:        model.PaymentStatusCompleted,
		TransactionID: o.TransactionID,
	}
	p.ComputeTotal()
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, duplicate(err, "A payment already exists for this order")
	}

	from := o.Status
	o.Status = model.OrderStatusProcessing
	o.PaymentID = &p.ID
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	syncOrderSummary(ctx, s.users, o)
	s.notify.Notify(ctx, o.UserID, model.NotificationPayment, "Payment Received",
		fmt.Sprintf("Payment for order %s was received. Total %s", o.TransactionID, p.TotalAmount.StringFixed(2)),
		model.RelatedPayment, uint64Ptr(p.ID))
	publishEvent(ctx, s.events, s.producer, events.PaymentCompleted, o.ID, events.PaymentCompletedPayload{
		PaymentID:     p.ID,
		OrderID:       o.ID,
		UserID:        o.UserID,
		Method:        string(p.Method),
		TotalAmount:   p.TotalAmount.StringFixed(2),
		TransactionID: p.TransactionID,
	})
	publishEvent(ctx, s.events, s.producer, events.OrderStatusChanged, o.ID, events.OrderStatusChangedPayload{
		OrderID:  o.ID,
		From:     string(from),
		To:       string(o.Status),
		ActorID:  actor.ID,
		Progress: o.Progress,
	})
	return p, nil
}

func (s *paymentService) GetByOrder(ctx context.Context, actor Actor, orderID uint64) (*model.Payment, error) {
	p, err := s.payments.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "Payment")
	}
	if p.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *paymentService) ListMine(ctx context.Context, actor Actor) ([]model.Payment, error) {
	return s.payments.ListByUser(ctx, actor.ID)
}

func (s *paymentService) ListAll(ctx context.Context) ([]model.Payment, error) {
	return s.payments.ListAll(ctx)
}

func (s *paymentService) UpdateStatus(ctx context.Context, id uint64, status model.PaymentStatus) (*model.Payment, error) {
	if !status.Valid() {
		return nil, apperr.BadRequest("invalid payment status: %s", status)
	}
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Payment")
	}
	if err := s.payments.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	p.Status = status
	return p, nil
}

func (s *paymentService) Delete(ctx context.Context, id uint64) error {
	if err := s.payments.Delete(ctx, id); err != nil {
		return notFound(err, "Payment")
	}
	return nil
}
