package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/shinyyama/market-backend/internal/apperr"
	"github.com/shinyyama/market-backend/internal/events"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/repository"
)

// AdminOrderUpdate is a partial edit; nil fields are left alone.
type AdminOrderUpdate struct {
	DeliveryDate *time.Time
	Progress     *int
	Status       *model.OrderStatus
}

type OrderService interface {
	Create(ctx context.Context, actor Actor, productID uint64, pkg model.PackageType) (*model.Order, error)
	Get(ctx context.Context, actor Actor, id uint64) (*model.Order, error)
	ListMine(ctx context.Context, actor Actor) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uint64, status model.OrderStatus, actor Actor) (*model.Order, error)
	UpdateProgress(ctx context.Context, id uint64, progress int, actor Actor) (*model.Order, error)
	AdminUpdate(ctx context.Context, id uint64, in AdminOrderUpdate, actor Actor) (*model.Order, error)
	Delete(ctx context.Context, id uint64) error
}

type OrderDeps struct {
	Orders        repository.OrderRepository
	Products      repository.ProductRepository
	Users         repository.UserRepository
	Payments      repository.PaymentRepository
	Notifications repository.NotificationRepository
	Notify        NotificationService
	Events        events.Publisher
	Producer      string
}

type orderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	users     repository.UserRepository
	payments  repository.PaymentRepository
	notifRepo repository.NotificationRepository
	notify    NotificationService
	events    events.Publisher
	producer  string
	now       func() time.Time
}

func NewOrderService(d OrderDeps) OrderService {
	return &orderService{
		orders:    d.Orders,
		products:  d.Products,
		users:     d.Users,
		payments:  d.Payments,
		notifRepo: d.Notifications,
		notify:    d.Notify,
		events:    d.Events,
		producer:  d.Producer,
		now:       time.Now,
	}
}

func (s *orderService) Create(ctx context.Context, actor Actor, productID uint64, pkg model.PackageType) (*model.Order, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "Product")
	}
	if !product.Available {
		return nil, apperr.BadRequest("Product is not available")
	}
	price, ok := product.Price.For(pkg)
	if !ok {
		return nil, apperr.BadRequest("invalid package type: %s", pkg)
	}
	if !model.ValidAmount(price) {
		return nil, apperr.BadRequest("invalid price for package %s: %s", pkg, price)
	}
	now := s.now()
	o := &model.Order{
		ProductID:     product.ID,
		UserID:        actor.ID,
		PackageType:   pkg,
		Status:        model.OrderStatusUnpaid,
		ServiceFee:    model.DefaultServiceFee,
		AdminFee:      model.DefaultAdminFee,
		TotalAmount:   price,
		TransactionID: model.NewTransactionID(now),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, duplicate(err, "Duplicate transaction id, please try again in a minute")
	}
	o.Product = product
	s.syncSummary(ctx, o)
	s.publish(ctx, events.OrderCreated, o.ID, events.OrderCreatedPayload{
		OrderID:       o.ID,
		UserID:        o.UserID,
		ProductID:     o.ProductID,
		PackageType:   string(o.PackageType),
		TotalAmount:   o.TotalAmount.StringFixed(2),
		TransactionID: o.TransactionID,
	})
	return o, nil
}

func (s *orderService) Get(ctx context.Context, actor Actor, id uint64) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order")
	}
	if o.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *orderService) ListMine(ctx context.Context, actor Actor) ([]model.Order, error) {
	return s.orders.ListByUser(ctx, actor.ID)
}

func (s *orderService) ListAll(ctx context.Context) ([]model.Order, error) {
	return s.orders.ListAll(ctx)
}

// UpdateStatus moves an order along the transition table.
func (s *orderService) UpdateStatus(ctx context.Context, id uint64, status model.OrderStatus, actor Actor) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order")
	}
	from := o.Status
	if err := s.applyStatus(o, status, actor); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	s.afterStatusChange(ctx, o, from, actor)
	return o, nil
}

// applyStatus checks that actor may move o to status and sets the fields that
// go with it. Only the buyer may complete a Processing order; every other
// change is reserved to admins.
func (s *orderService) applyStatus(o *model.Order, status model.OrderStatus, actor Actor) error {
	if !status.Valid() {
		return apperr.BadRequest("invalid order status: %s", status)
	}
	if status == model.OrderStatusCompleted && o.Status == model.OrderStatusProcessing {
		if actor.ID != o.UserID {
			return apperr.Forbidden("Only the buyer can complete this order")
		}
	} else if !actor.IsAdmin() {
		return apperr.Forbidden("Only admins can change this order status")
	}
	if !model.CanTransition(o.Status, status) {
		return &model.TransitionError{From: o.Status, To: status}
	}
	o.Status = status
	if status == model.OrderStatusCompleted {
		if o.DeliveryDate == nil {
			now := s.now()
			o.DeliveryDate = &now
		}
		o.Progress = 100
	}
	return nil
}

func (s *orderService) UpdateProgress(ctx context.Context, id uint64, progress int, actor Actor) (*model.Order, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only admins can update order progress")
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order")
	}
	if o.Status != model.OrderStatusProcessing {
		return nil, apperr.BadRequest("Progress can only be updated while the order is Processing")
	}
	if progress < 0 || progress > 100 {
		return nil, apperr.BadRequest("progress must be between 0 and 100")
	}
	o.Progress = progress
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	s.syncSummary(ctx, o)
	return o, nil
}

// AdminUpdate applies the requested fields. A status change follows the same
// rules as UpdateStatus.
func (s *orderService) AdminUpdate(ctx context.Context, id uint64, in AdminOrderUpdate, actor Actor) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order")
	}
	from := o.Status
	if in.Progress != nil {
		if *in.Progress < 0 || *in.Progress > 100 {
			return nil, apperr.BadRequest("progress must be between 0 and 100")
		}
		o.Progress = *in.Progress
	}
	if in.DeliveryDate != nil {
		d := *in.DeliveryDate
		o.DeliveryDate = &d
	}
	if in.Status != nil && *in.Status != o.Status {
		if err := s.applyStatus(o, *in.Status, actor); err != nil {
			return nil, err
		}
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	if o.Status != from {
		s.afterStatusChange(ctx, o, from, actor)
	} else {
		s.syncSummary(ctx, o)
	}
	return o, nil
}

func (s *orderService) Delete(ctx context.Context, id uint64) error {
	if _, err := s.orders.FindByID(ctx, id); err != nil {
		return notFound(err, "Order")
	}
	if err := s.payments.DeleteByOrders(ctx, []uint64{id}); err != nil {
		return err
	}
	if err := s.notifRepo.DeleteByRelated(ctx, model.RelatedOrder, id); err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return notFound(err, "Order")
	}
	return nil
}

func (s *orderService) afterStatusChange(ctx context.Context, o *model.Order, from model.OrderStatus, actor Actor) {
	s.syncSummary(ctx, o)
	s.notify.Notify(ctx, o.UserID, model.NotificationOrder, "Order Status Updated",
		fmt.Sprintf("Your order %s is now %s", o.TransactionID, o.Status), model.RelatedOrder, uint64Ptr(o.ID))
	s.publish(ctx, events.OrderStatusChanged, o.ID, events.OrderStatusChangedPayload{
		OrderID:  o.ID,
		From:     string(from),
		To:       string(o.Status),
		ActorID:  actor.ID,
		Progress: o.Progress,
	})
}

// syncSummary refreshes the buyer's copy of o. Failures are logged only.
func (s *orderService) syncSummary(ctx context.Context, o *model.Order) {
	syncOrderSummary(ctx, s.users, o)
}

func (s *orderService) publish(ctx context.Context, eventType string, orderID uint64, payload interface{}) {
	publishEvent(ctx, s.events, s.producer, eventType, orderID, payload)
}

func syncOrderSummary(ctx context.Context, users repository.UserRepository, o *model.Order) {
	u, err := users.FindByID(ctx, o.UserID)
	if err != nil {
		log.Printf("[order] summary sync skipped order_id=%d user_id=%d err=%v", o.ID, o.UserID, err)
		return
	}
	u.UpsertOrderSummary(o.Summary())
	if err := users.UpdateOrders(ctx, u); err != nil {
		log.Printf("[order] summary sync failed order_id=%d user_id=%d err=%v", o.ID, o.UserID, err)
	}
}

func publishEvent(ctx context.Context, pub events.Publisher, producer, eventType string, orderID uint64, payload interface{}) {
	key := strconv.FormatUint(orderID, 10)
	env, err := events.NewEnvelope(producer, eventType, key, payload)
	if err != nil {
		log.Printf("[events] envelope failed type=%s order_id=%d err=%v", eventType, orderID, err)
		return
	}
	pub.Publish(ctx, key, env)
}
