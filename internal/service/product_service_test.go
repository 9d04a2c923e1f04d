package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/shinyyama/market-backend/internal/apperr"
	"github.com/shinyyama/market-backend/internal/cache"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shopspring/decimal"
)

type productFixture struct {
	*orderFixture
	reviews *fakeReviews
	cats    *fakeCategories
	media   *fakeMedia
	cache   *fakeCache
	svc     ProductService
}

func newProductFixture(orders ...model.Order) *productFixture {
	of := newOrderFixture(orders...)
	f := &productFixture{
		orderFixture: of,
		reviews:      &fakeReviews{},
		cats:         newFakeCategories(),
		media:        &fakeMedia{},
		cache:        newFakeCache(),
	}
	f.svc = NewProductService(ProductDeps{
		Products:      of.products,
		Categories:    f.cats,
		Orders:        of.orders,
		Payments:      of.payments,
		Reviews:       f.reviews,
		Notifications: of.notifs,
		Media:         f.media,
		Cache:         f.cache,
		Notify:        NewNotificationService(of.notifs),
	})
	return f
}

func prices(complete, basic, prototype string) *model.PriceTiers {
	return &model.PriceTiers{
		Complete:  decimal.RequireFromString(complete),
		Basic:     decimal.RequireFromString(basic),
		Prototype: decimal.RequireFromString(prototype),
	}
}

func TestProductCreate(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		in    CreateProductInput
		want  int
	}{
		{"seller", seller, CreateProductInput{Name: "App", Description: "d", Price: prices("3", "2", "1"), Image: "data:image/png;base64,AA"}, http.StatusOK},
		{"plain user", buyer, CreateProductInput{Name: "App", Description: "d", Price: prices("3", "2", "1")}, http.StatusForbidden},
		{"admin", admin, CreateProductInput{Name: "App", Description: "d", Price: prices("3", "2", "1")}, http.StatusForbidden},
		{"no price", seller, CreateProductInput{Name: "App", Description: "d"}, http.StatusBadRequest},
		{"negative price", seller, CreateProductInput{Name: "App", Description: "d", Price: prices("3", "-2", "1")}, http.StatusBadRequest},
		{"three decimals", seller, CreateProductInput{Name: "App", Description: "d", Price: prices("3.125", "2", "1")}, http.StatusBadRequest},
		{"unknown category", seller, CreateProductInput{Name: "App", Description: "d", CategoryID: 8, Price: prices("3", "2", "1")}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProductFixture()
			p, err := f.svc.Create(context.Background(), tt.actor, tt.in)
			if got := apperr.Status(err); got != tt.want {
				t.Fatalf("status=%d want=%d err=%v", got, tt.want, err)
			}
			if err != nil {
				return
			}
			if p.SellerID != sellerID || !p.Available {
				t.Fatalf("unexpected product: %+v", p)
			}
			if p.Image.PublicID == "" || f.media.uploads[0][:len(folderProductImage)] != folderProductImage {
				t.Fatalf("image not uploaded: %+v", f.media.uploads)
			}
		})
	}
}

func TestProductOwnership(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	name := "Renamed"

	if _, err := f.svc.Update(ctx, buyer, 1, UpdateProductInput{Name: &name}); apperr.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if _, err := f.svc.ToggleAvailability(ctx, admin, 1); apperr.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	p, err := f.svc.Update(ctx, seller, 1, UpdateProductInput{Name: &name, Tags: []string{"go", " go ", ""}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.Name != "Renamed" || len(p.Tags) != 1 {
		t.Fatalf("unexpected product: %+v", p)
	}
	if !f.cache.has(cache.Key(cache.KeyProduct, 1)) {
		t.Fatalf("updated product not cached")
	}
	p, err = f.svc.ToggleAvailability(ctx, seller, 1)
	if err != nil || p.Available {
		t.Fatalf("toggle: %v %+v", err, p)
	}
}

func TestProductListCaching(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		page, err := f.svc.List(ctx, 0, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.CurrentPage != 1 || page.TotalProducts != 1 || page.TotalPages != 1 {
			t.Fatalf("unexpected page: %+v", page)
		}
	}
	if f.products.lists != 1 {
		t.Fatalf("repository listed %d times, want 1", f.products.lists)
	}
	if !f.cache.has(cache.Key(cache.KeyProductsAll, 1, 10)) {
		t.Fatalf("list not cached under default page key")
	}

	if _, err := f.svc.Create(ctx, seller, CreateProductInput{Name: "New", Description: "d", Price: prices("3", "2", "1")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	page, err := f.svc.List(ctx, 1, 10)
	if err != nil || page.TotalProducts != 2 {
		t.Fatalf("stale list after create: %v %+v", err, page)
	}
}

func TestProductSearchKeyIncludesFilters(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	hit, err := f.svc.Search(ctx, SearchProductsInput{Query: "landing"})
	if err != nil || hit.TotalProducts != 1 {
		t.Fatalf("search: %v %+v", err, hit)
	}
	miss, err := f.svc.Search(ctx, SearchProductsInput{Query: "mobile"})
	if err != nil || miss.TotalProducts != 0 || miss.Products == nil {
		t.Fatalf("search: %v %+v", err, miss)
	}
}

func TestProductDeleteCascades(t *testing.T) {
	f := newProductFixture(orderIn(1, model.OrderStatusCompleted), orderIn(2, model.OrderStatusProcessing))
	ctx := context.Background()
	p := testProduct()
	p.Image = model.Asset{PublicID: "image products/x"}
	_ = f.products.Update(ctx, &p)
	_ = f.payments.Create(ctx, &model.Payment{OrderID: 2, TransactionID: "TRX2"})
	_ = f.reviews.Create(ctx, &model.Review{ProductID: 1, UserID: buyerID})
	f.orderFixture.svc.notify.Notify(ctx, sellerID, model.NotificationReview, "t", "m", model.RelatedProduct, uint64Ptr(1))

	if err := f.svc.Delete(ctx, buyer, 1); apperr.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if err := f.svc.Delete(ctx, admin, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(f.products.rows) != 0 || len(f.orders.rows) != 0 || len(f.payments.rows) != 0 ||
		len(f.reviews.rows) != 0 || len(f.notifs.rows) != 0 {
		t.Fatalf("cascade incomplete")
	}
	if len(f.media.destroyed) != 1 {
		t.Fatalf("image not destroyed: %v", f.media.destroyed)
	}
}
