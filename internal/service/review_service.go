package service

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"github.com/shinyyama/market-backend/internal/apperr"
	"github.com/shinyyama/market-backend/internal/cache"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/repository"
	"gorm.io/gorm"
)

type CreateReviewInput struct {
	ProductID uint64
	OrderID   uint64
	Rating    int
	Comment   string
}

type ReviewService interface {
	Create(ctx context.Context, actor Actor, in CreateReviewInput) (*model.Review, error)
	ListByProduct(ctx context.Context, productID uint64) ([]model.Review, error)
}

type reviewService struct {
	reviews  repository.ReviewRepository
	orders   repository.OrderRepository
	products repository.ProductRepository
	cache    cache.Cache
	notify   NotificationService
	now      func() time.Time
}

func NewReviewService(reviews repository.ReviewRepository, orders repository.OrderRepository, products repository.ProductRepository, c cache.Cache, notify NotificationService) ReviewService {
	return &reviewService{reviews: reviews, orders: orders, products: products, cache: c, notify: notify, now: time.Now}
}

// Create accepts a review only from a buyer holding a Completed order for the
// product, then recomputes the product rating. The two writes are not atomic.
func (s *reviewService) Create(ctx context.Context, actor Actor, in CreateReviewInput) (*model.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperr.BadRequest("rating must be between 1 and 5")
	}
	if strings.TrimSpace(in.Comment) == "" {
		return nil, apperr.BadRequest("comment is required")
	}
	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, notFound(err, "Product")
	}
	order, err := s.orders.FindCompleted(ctx, actor.ID, in.ProductID, in.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.BadRequest("You can only review products from completed orders")
	}
	if err != nil {
		return nil, err
	}
	exists, err := s.reviews.Exists(ctx, in.ProductID, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.BadRequest("You have already reviewed this product")
	}
	r := &model.Review{
		ProductID:  in.ProductID,
		UserID:     actor.ID,
		OrderID:    order.ID,
		Rating:     in.Rating,
		Comment:    in.Comment,
		ReviewDate: s.now(),
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, duplicate(err, "You have already reviewed this product")
	}
	ratings, err := s.reviews.Ratings(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if err := s.products.UpdateRating(ctx, in.ProductID, averageRating(ratings)); err != nil {
		return nil, err
	}
	if err := s.cache.Del(ctx, cache.Key(cache.KeyProduct, in.ProductID)); err != nil {
		log.Printf("[cache] del failed product_id=%d err=%v", in.ProductID, err)
	}
	if _, err := s.cache.DeletePrefix(ctx, cache.PrefixProductLists); err != nil {
		log.Printf("[cache] purge failed prefix=%s err=%v", cache.PrefixProductLists, err)
	}
	s.notify.Notify(ctx, product.SellerID, model.NotificationReview, "New Review",
		"Your product "+product.Name+" received a new review", model.RelatedProduct, uint64Ptr(product.ID))
	return r, nil
}

func (s *reviewService) ListByProduct(ctx context.Context, productID uint64) ([]model.Review, error) {
	return s.reviews.ListByProduct(ctx, productID)
}

// averageRating is the mean rounded to one decimal, or 0 without ratings.
func averageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return math.Round(float64(sum)/float64(len(ratings))*10) / 10
}
