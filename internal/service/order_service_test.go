package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shinyyama/market-backend/internal/apperr"
	"github.com/shinyyama/market-backend/internal/events"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2024, 3, 7, 9, 5, 30, 0, time.UTC)

const (
	buyerID  uint64 = 2
	sellerID uint64 = 10
	adminID  uint64 = 99
)

var (
	buyer  = Actor{ID: buyerID, Role: model.RoleUser}
	seller = Actor{ID: sellerID, Role: model.RoleSeller}
	admin  = Actor{ID: adminID, Role: model.RoleAdmin}
)

func testProduct() model.Product {
	return model.Product{
		ID:          1,
		Name:        "Landing page",
		Description: "A responsive landing page",
		SellerID:    sellerID,
		Available:   true,
		Price: model.PriceTiers{
			Complete:  decimal.RequireFromString("500000"),
			Basic:     decimal.RequireFromString("200000.50"),
			Prototype: decimal.RequireFromString("100000"),
		},
	}
}

type orderFixture struct {
	users    *fakeUsers
	products *fakeProducts
	orders   *fakeOrders
	payments *fakePayments
	notifs   *fakeNotifications
	pub      *fakePublisher
	svc      *orderService
}

func newOrderFixture(orders ...model.Order) *orderFixture {
	f := &orderFixture{
		users: newFakeUsers(
			model.User{ID: buyerID, Name: "Buyer", Email: "buyer@example.com", Role: model.RoleUser},
			model.User{ID: sellerID, Name: "Seller", Email: "seller@example.com", Role: model.RoleSeller},
		),
		products: newFakeProducts(testProduct()),
		payments: newFakePayments(),
		notifs:   newFakeNotifications(),
		pub:      &fakePublisher{},
	}
	f.orders = newFakeOrders(f.products, orders...)
	f.svc = NewOrderService(OrderDeps{
		Orders:        f.orders,
		Products:      f.products,
		Users:         f.users,
		Payments:      f.payments,
		Notifications: f.notifs,
		Notify:        NewNotificationService(f.notifs),
		Events:        f.pub,
		Producer:      "market-api-test",
	}).(*orderService)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func orderIn(id uint64, status model.OrderStatus) model.Order {
	return model.Order{
		ID:            id,
		ProductID:     1,
		UserID:        buyerID,
		PackageType:   model.PackageBasic,
		Status:        status,
		ServiceFee:    model.DefaultServiceFee,
		AdminFee:      model.DefaultAdminFee,
		TotalAmount:   decimal.RequireFromString("200000.50"),
		TransactionID: "TRX20240301100" + string(rune('0'+id)),
	}
}

func TestOrderCreate(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	o, err := f.svc.Create(ctx, buyer, 1, model.PackageBasic)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.Status != model.OrderStatusUnpaid {
		t.Fatalf("status=%s", o.Status)
	}
	if o.TransactionID != "TRX202403070905" {
		t.Fatalf("transaction id=%s", o.TransactionID)
	}
	if !o.TotalAmount.Equal(decimal.RequireFromString("200000.50")) {
		t.Fatalf("total=%s", o.TotalAmount)
	}
	if !o.ServiceFee.Equal(decimal.NewFromInt(150000)) || !o.AdminFee.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("fees=%s/%s", o.ServiceFee, o.AdminFee)
	}
	u, _ := f.users.FindByID(ctx, buyerID)
	if len(u.Orders) != 1 || u.Orders[0].OrderID != o.ID {
		t.Fatalf("order summary not synced: %+v", u.Orders)
	}
	if got := f.pub.types(); len(got) != 1 || got[0] != events.OrderCreated {
		t.Fatalf("events=%v", got)
	}

	// Same minute, same id.
	_, err = f.svc.Create(ctx, buyer, 1, model.PackagePrototype)
	if apperr.Status(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 on transaction id collision, got %v", err)
	}
}

func TestOrderCreateRejects(t *testing.T) {
	tests := []struct {
		name      string
		productID uint64
		pkg       model.PackageType
		prepare   func(*orderFixture)
		status    int
		contains  string
	}{
		{"unknown package", 1, "deluxe", nil, http.StatusBadRequest, "invalid package type: deluxe"},
		{"missing product", 42, model.PackageBasic, nil, http.StatusNotFound, "Product not found"},
		{"unavailable product", 1, model.PackageBasic, func(f *orderFixture) {
			p := testProduct()
			p.Available = false
			_ = f.products.Update(context.Background(), &p)
		}, http.StatusBadRequest, "not available"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			if tt.prepare != nil {
				tt.prepare(f)
			}
			_, err := f.svc.Create(context.Background(), buyer, tt.productID, tt.pkg)
			if apperr.Status(err) != tt.status {
				t.Fatalf("status=%d want=%d err=%v", apperr.Status(err), tt.status, err)
			}
			if !strings.Contains(apperr.Message(err), tt.contains) {
				t.Fatalf("message=%q want to contain %q", apperr.Message(err), tt.contains)
			}
			if len(f.orders.rows) != 0 {
				t.Fatalf("no order should be stored")
			}
		})
	}
}

func TestOrderUpdateStatus(t *testing.T) {
	tests := []struct {
		name   string
		from   model.OrderStatus
		to     model.OrderStatus
		actor  Actor
		status int
	}{
		{"admin pays out of band", model.OrderStatusUnpaid, model.OrderStatusProcessing, admin, http.StatusOK},
		{"admin cancels unpaid", model.OrderStatusUnpaid, model.OrderStatusCancelled, admin, http.StatusOK},
		{"admin fails processing", model.OrderStatusProcessing, model.OrderStatusFailed, admin, http.StatusOK},
		{"buyer completes", model.OrderStatusProcessing, model.OrderStatusCompleted, buyer, http.StatusOK},
		{"processing cannot be cancelled", model.OrderStatusProcessing, model.OrderStatusCancelled, admin, http.StatusBadRequest},
		{"completed is terminal", model.OrderStatusCompleted, model.OrderStatusUnpaid, admin, http.StatusBadRequest},
		{"unpaid cannot complete", model.OrderStatusUnpaid, model.OrderStatusCompleted, admin, http.StatusBadRequest},
		{"admin cannot complete for buyer", model.OrderStatusProcessing, model.OrderStatusCompleted, admin, http.StatusForbidden},
		{"buyer cannot cancel", model.OrderStatusUnpaid, model.OrderStatusCancelled, buyer, http.StatusForbidden},
		{"stranger cannot complete", model.OrderStatusProcessing, model.OrderStatusCompleted, seller, http.StatusForbidden},
		{"unknown status", model.OrderStatusUnpaid, "Shipped", admin, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(orderIn(1, tt.from))
			o, err := f.svc.UpdateStatus(context.Background(), 1, tt.to, tt.actor)
			if got := apperr.Status(err); got != tt.status {
				t.Fatalf("status=%d want=%d err=%v", got, tt.status, err)
			}
			stored := f.orders.get(1)
			if err != nil {
				if stored.Status != tt.from {
					t.Fatalf("rejected change was stored: %s", stored.Status)
				}
				return
			}
			if stored.Status != tt.to || o.Status != tt.to {
				t.Fatalf("stored=%s returned=%s want=%s", stored.Status, o.Status, tt.to)
			}
			if len(f.notifs.byType(buyerID, model.NotificationOrder)) != 1 {
				t.Fatalf("buyer should be notified")
			}
		})
	}
}

func TestOrderUpdateStatusTransitionMessage(t *testing.T) {
	f := newOrderFixture(orderIn(1, model.OrderStatusProcessing))
	_, err := f.svc.UpdateStatus(context.Background(), 1, model.OrderStatusCancelled, admin)
	var te *model.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %T %v", err, err)
	}
	if err.Error() != "Invalid status transition from Processing to Cancelled" {
		t.Fatalf("message=%q", err.Error())
	}
}

func TestOrderCompleteSetsDelivery(t *testing.T) {
	f := newOrderFixture(orderIn(1, model.OrderStatusProcessing))
	o, err := f.svc.UpdateStatus(context.Background(), 1, model.OrderStatusCompleted, buyer)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if o.Progress != 100 {
		t.Fatalf("progress=%d", o.Progress)
	}
	if o.DeliveryDate == nil || !o.DeliveryDate.Equal(fixedNow) {
		t.Fatalf("delivery date=%v", o.DeliveryDate)
	}
	types := f.pub.types()
	if len(types) != 1 || types[0] != events.OrderStatusChanged {
		t.Fatalf("events=%v", types)
	}
}

func TestOrderUpdateProgress(t *testing.T) {
	tests := []struct {
		name     string
		status   model.OrderStatus
		actor    Actor
		progress int
		want     int
	}{
		{"admin on processing", model.OrderStatusProcessing, admin, 40, http.StatusOK},
		{"buyer forbidden", model.OrderStatusProcessing, buyer, 40, http.StatusForbidden},
		{"unpaid rejected", model.OrderStatusUnpaid, admin, 40, http.StatusBadRequest},
		{"over 100", model.OrderStatusProcessing, admin, 101, http.StatusBadRequest},
		{"negative", model.OrderStatusProcessing, admin, -1, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(orderIn(1, tt.status))
			_, err := f.svc.UpdateProgress(context.Background(), 1, tt.progress, tt.actor)
			if got := apperr.Status(err); got != tt.want {
				t.Fatalf("status=%d want=%d err=%v", got, tt.want, err)
			}
			if err == nil && f.orders.get(1).Progress != tt.progress {
				t.Fatalf("progress not stored")
			}
		})
	}
}

func TestOrderAdminUpdate(t *testing.T) {
	adminBuyer := Actor{ID: buyerID, Role: model.RoleAdmin}
	tests := []struct {
		name     string
		from     model.OrderStatus
		to       model.OrderStatus
		actor    Actor
		status   int
		progress int
	}{
		{"admin cannot complete for buyer", model.OrderStatusProcessing, model.OrderStatusCompleted, admin, http.StatusForbidden, 0},
		{"admin buyer completes", model.OrderStatusProcessing, model.OrderStatusCompleted, adminBuyer, http.StatusOK, 100},
		{"admin fails processing", model.OrderStatusProcessing, model.OrderStatusFailed, admin, http.StatusOK, 0},
		{"completed is terminal", model.OrderStatusCompleted, model.OrderStatusUnpaid, admin, http.StatusBadRequest, 0},
		{"unknown status", model.OrderStatusUnpaid, "Shipped", admin, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(orderIn(1, tt.from))
			to := tt.to
			o, err := f.svc.AdminUpdate(context.Background(), 1, AdminOrderUpdate{Status: &to}, tt.actor)
			if got := apperr.Status(err); got != tt.status {
				t.Fatalf("status=%d want=%d err=%v", got, tt.status, err)
			}
			stored := f.orders.get(1)
			if err != nil {
				if stored.Status != tt.from || stored.Progress != 0 || stored.DeliveryDate != nil {
					t.Fatalf("rejected change was stored: %+v", stored)
				}
				return
			}
			if stored.Status != tt.to || o.Progress != tt.progress || stored.Progress != tt.progress {
				t.Fatalf("stored=%+v", stored)
			}
			if tt.to == model.OrderStatusCompleted && (stored.DeliveryDate == nil || !stored.DeliveryDate.Equal(fixedNow)) {
				t.Fatalf("delivery date not set: %v", stored.DeliveryDate)
			}
		})
	}
}

func TestOrderAdminUpdateTransitionError(t *testing.T) {
	f := newOrderFixture(orderIn(1, model.OrderStatusCompleted))
	status := model.OrderStatusUnpaid
	_, err := f.svc.AdminUpdate(context.Background(), 1, AdminOrderUpdate{Status: &status}, admin)
	var te *model.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %v", err)
	}

	progress := 70
	f = newOrderFixture(orderIn(1, model.OrderStatusProcessing))
	same := model.OrderStatusProcessing
	o, err := f.svc.AdminUpdate(context.Background(), 1, AdminOrderUpdate{Progress: &progress, Status: &same}, admin)
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if o.Progress != 70 || o.Status != model.OrderStatusProcessing {
		t.Fatalf("unexpected order: %+v", o)
	}
}

func TestOrderGetPermissions(t *testing.T) {
	f := newOrderFixture(orderIn(1, model.OrderStatusUnpaid))
	ctx := context.Background()
	if _, err := f.svc.Get(ctx, buyer, 1); err != nil {
		t.Fatalf("buyer get: %v", err)
	}
	if _, err := f.svc.Get(ctx, admin, 1); err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if _, err := f.svc.Get(ctx, seller, 1); apperr.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if _, err := f.svc.Get(ctx, buyer, 5); apperr.Status(err) != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestOrderDeleteCascades(t *testing.T) {
	f := newOrderFixture(orderIn(1, model.OrderStatusProcessing))
	ctx := context.Background()
	_ = f.payments.Create(ctx, &model.Payment{OrderID: 1, UserID: buyerID, TransactionID: "TRX1"})
	f.svc.notify.Notify(ctx, buyerID, model.NotificationOrder, "t", "m", model.RelatedOrder, uint64Ptr(1))

	if err := f.svc.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(f.orders.rows) != 0 || len(f.payments.rows) != 0 || len(f.notifs.rows) != 0 {
		t.Fatalf("cascade incomplete: orders=%d payments=%d notifications=%d",
			len(f.orders.rows), len(f.payments.rows), len(f.notifs.rows))
	}
	if err := f.svc.Delete(ctx, 1); apperr.Status(err) != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}
