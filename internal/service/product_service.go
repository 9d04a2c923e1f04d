package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/shinyyama/market-backend/internal/apperr"
	"github.com/shinyyama/market-backend/internal/cache"
	"github.com/shinyyama/market-backend/internal/media"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	folderProductImage     = "image products"
	folderProductThumbnail = "thumbnail products"
	widthProductImage      = 500
	widthProductThumbnail  = 150
)

type CreateProductInput struct {
	Name        string
	Description string
	CategoryID  uint64
	Price       *model.PriceTiers
	Tags        []string
	// Image and Thumbnail are optional base64 data URIs.
	Image     string
	Thumbnail string
}

// UpdateProductInput carries a partial update; nil fields are left alone.
type UpdateProductInput struct {
	Name        *string
	Description *string
	CategoryID  *uint64
	Price       *model.PriceTiers
	Tags        []string
	Image       string
	Thumbnail   string
}

type SearchProductsInput struct {
	Query      string
	CategoryID uint64
	Tags       []string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Page       int
	Limit      int
}

type ProductPage struct {
	Products      []model.Product
	CurrentPage   int
	TotalPages    int
	TotalProducts int64
}

type ProductService interface {
	Create(ctx context.Context, actor Actor, in CreateProductInput) (*model.Product, error)
	Update(ctx context.Context, actor Actor, id uint64, in UpdateProductInput) (*model.Product, error)
	ToggleAvailability(ctx context.Context, actor Actor, id uint64) (*model.Product, error)
	Delete(ctx context.Context, actor Actor, id uint64) error
	Get(ctx context.Context, id uint64) (*model.Product, error)
	List(ctx context.Context, page, limit int) (*ProductPage, error)
	ListByCategory(ctx context.Context, categoryID uint64, page, limit int) (*ProductPage, error)
	ListBySeller(ctx context.Context, sellerID uint64, page, limit int) (*ProductPage, error)
	Search(ctx context.Context, in SearchProductsInput) (*ProductPage, error)
}

type productService struct {
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
	orderRepo    repository.OrderRepository
	paymentRepo  repository.PaymentRepository
	reviewRepo   repository.ReviewRepository
	notifRepo    repository.NotificationRepository
	media        media.Store
	cache        cache.Cache
	notify       NotificationService
}

type ProductDeps struct {
	Products      repository.ProductRepository
	Categories    repository.CategoryRepository
	Orders        repository.OrderRepository
	Payments      repository.PaymentRepository
	Reviews       repository.ReviewRepository
	Notifications repository.NotificationRepository
	Media         media.Store
	Cache         cache.Cache
	Notify        NotificationService
}

func NewProductService(d ProductDeps) ProductService {
	return &productService{
		repo:         d.Products,
		categoryRepo: d.Categories,
		orderRepo:    d.Orders,
		paymentRepo:  d.Payments,
		reviewRepo:   d.Reviews,
		notifRepo:    d.Notifications,
		media:        d.Media,
		cache:        d.Cache,
		notify:       d.Notify,
	}
}

func (s *productService) Create(ctx context.Context, actor Actor, in CreateProductInput) (*model.Product, error) {
	if actor.Role != model.RoleSeller {
		return nil, apperr.Forbidden("Only sellers can create products")
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Description) == "" {
		return nil, apperr.BadRequest("name and description are required")
	}
	if in.Price == nil {
		return nil, apperr.BadRequest("All price fields are required")
	}
	if err := in.Price.Validate(); err != nil {
		return nil, apperr.BadRequest("%s", err.Error())
	}
	if in.CategoryID != 0 {
		if _, err := s.categoryRepo.FindByID(ctx, in.CategoryID); err != nil {
			return nil, notFound(err, "Category")
		}
	}
	p := &model.Product{
		Name:        in.Name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Price:       *in.Price,
		Tags:        normalizeTags(in.Tags),
		SellerID:    actor.ID,
		Available:   true,
	}
	if in.Image != "" {
		asset, err := s.media.Upload(ctx, in.Image, folderProductImage, widthProductImage)
		if err != nil {
			return nil, uploadError(err)
		}
		p.Image = asset
	}
	if in.Thumbnail != "" {
		asset, err := s.media.Upload(ctx, in.Thumbnail, folderProductThumbnail, widthProductThumbnail)
		if err != nil {
			return nil, uploadError(err)
		}
		p.Thumbnail = asset
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateLists(ctx)
	s.notify.Notify(ctx, actor.ID, model.NotificationSystem, "Product Created",
		fmt.Sprintf("Your product %q has been created successfully", p.Name), model.RelatedProduct, uint64Ptr(p.ID))
	return p, nil
}

func (s *productService) owned(ctx context.Context, actor Actor, id uint64) (*model.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Product")
	}
	if p.SellerID != actor.ID {
		return nil, apperr.Forbidden("You can only update your own products")
	}
	return p, nil
}

func (s *productService) Update(ctx context.Context, actor Actor, id uint64, in UpdateProductInput) (*model.Product, error) {
	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Price != nil {
		if err := in.Price.Validate(); err != nil {
			return nil, apperr.BadRequest("%s", err.Error())
		}
		p.Price = *in.Price
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *in.CategoryID); err != nil {
			return nil, notFound(err, "Category")
		}
		p.CategoryID = *in.CategoryID
	}
	if in.Tags != nil {
		p.Tags = normalizeTags(in.Tags)
	}
	if in.Image != "" {
		asset, err := s.replaceAsset(ctx, p.Image, in.Image, folderProductImage, widthProductImage)
		if err != nil {
			return nil, err
		}
		p.Image = asset
	}
	if in.Thumbnail != "" {
		asset, err := s.replaceAsset(ctx, p.Thumbnail, in.Thumbnail, folderProductThumbnail, widthProductThumbnail)
		if err != nil {
			return nil, err
		}
		p.Thumbnail = asset
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.refreshCached(ctx, p)
	return p, nil
}

func (s *productService) replaceAsset(ctx context.Context, old model.Asset, encoded, folder string, width int) (model.Asset, error) {
	asset, err := s.media.Upload(ctx, encoded, folder, width)
	if err != nil {
		return model.Asset{}, uploadError(err)
	}
	if old.PublicID != "" {
		if err := s.media.Destroy(ctx, old.PublicID); err != nil {
			log.Printf("[media] destroy failed public_id=%s err=%v", old.PublicID, err)
		}
	}
	return asset, nil
}

func (s *productService) ToggleAvailability(ctx context.Context, actor Actor, id uint64) (*model.Product, error) {
	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	p.Available = !p.Available
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.refreshCached(ctx, p)
	return p, nil
}

// Delete removes the product with its reviews, its orders and their
// payments, notifications pointing at it and its stored images.
func (s *productService) Delete(ctx context.Context, actor Actor, id uint64) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "Product")
	}
	if p.SellerID != actor.ID && !actor.IsAdmin() {
		return apperr.Forbidden("You can only delete your own products")
	}
	orderIDs, err := s.orderRepo.ListIDsByProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reviewRepo.DeleteByProduct(ctx, id); err != nil {
		return err
	}
	if err := s.paymentRepo.DeleteByOrders(ctx, orderIDs); err != nil {
		return err
	}
	if err := s.orderRepo.DeleteByProduct(ctx, id); err != nil {
		return err
	}
	if err := s.notifRepo.DeleteByRelated(ctx, model.RelatedProduct, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, "Product")
	}
	for _, a := range []model.Asset{p.Image, p.Thumbnail} {
		if a.PublicID == "" {
			continue
		}
		if err := s.media.Destroy(ctx, a.PublicID); err != nil {
			log.Printf("[media] destroy failed public_id=%s err=%v", a.PublicID, err)
		}
	}
	if err := s.cache.Del(ctx, cache.Key(cache.KeyProduct, id)); err != nil {
		log.Printf("[cache] del failed product_id=%d err=%v", id, err)
	}
	s.invalidateLists(ctx)
	return nil
}

func (s *productService) Get(ctx context.Context, id uint64) (*model.Product, error) {
	key := cache.Key(cache.KeyProduct, id)
	var cached model.Product
	if ok, err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil && ok {
		return &cached, nil
	} else if err != nil {
		log.Printf("[cache] get failed key=%s err=%v", key, err)
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Product")
	}
	if err := cache.SetJSON(ctx, s.cache, key, p, cache.TTLProduct); err != nil {
		log.Printf("[cache] set failed key=%s err=%v", key, err)
	}
	return p, nil
}

func (s *productService) List(ctx context.Context, page, limit int) (*ProductPage, error) {
	page, limit = normalizePage(page, limit)
	return s.listCached(ctx, cache.Key(cache.KeyProductsAll, page, limit), repository.ProductFilter{}, page, limit)
}

func (s *productService) ListByCategory(ctx context.Context, categoryID uint64, page, limit int) (*ProductPage, error) {
	page, limit = normalizePage(page, limit)
	key := cache.Key(cache.KeyProductsByCategory, categoryID, page, limit)
	return s.listCached(ctx, key, repository.ProductFilter{CategoryID: categoryID}, page, limit)
}

func (s *productService) ListBySeller(ctx context.Context, sellerID uint64, page, limit int) (*ProductPage, error) {
	page, limit = normalizePage(page, limit)
	key := cache.Key(cache.KeyProductsBySeller, sellerID, page, limit)
	return s.listCached(ctx, key, repository.ProductFilter{SellerID: sellerID}, page, limit)
}

func (s *productService) Search(ctx context.Context, in SearchProductsInput) (*ProductPage, error) {
	page, limit := normalizePage(in.Page, in.Limit)
	f := repository.ProductFilter{
		Query:      strings.TrimSpace(in.Query),
		CategoryID: in.CategoryID,
		Tags:       normalizeTags(in.Tags),
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
	}
	parts := []string{
		"q=" + strings.ToLower(f.Query),
		fmt.Sprintf("category=%d", f.CategoryID),
		"tags=" + strings.Join(f.Tags, ","),
		"min=" + decimalString(f.MinPrice),
		"max=" + decimalString(f.MaxPrice),
	}
	return s.listCached(ctx, cache.SearchKey(page, limit, parts...), f, page, limit)
}

func (s *productService) listCached(ctx context.Context, key string, f repository.ProductFilter, page, limit int) (*ProductPage, error) {
	var cached ProductPage
	if ok, err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil && ok {
		return &cached, nil
	} else if err != nil {
		log.Printf("[cache] get failed key=%s err=%v", key, err)
	}
	list, total, err := s.repo.List(ctx, f, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Product{}
	}
	res := &ProductPage{
		Products:      list,
		CurrentPage:   page,
		TotalPages:    totalPages(total, limit),
		TotalProducts: total,
	}
	if err := cache.SetJSON(ctx, s.cache, key, res, cache.TTLProductList); err != nil {
		log.Printf("[cache] set failed key=%s err=%v", key, err)
	}
	return res, nil
}

func (s *productService) refreshCached(ctx context.Context, p *model.Product) {
	key := cache.Key(cache.KeyProduct, p.ID)
	if err := cache.SetJSON(ctx, s.cache, key, p, cache.TTLProduct); err != nil {
		log.Printf("[cache] set failed key=%s err=%v", key, err)
	}
	s.invalidateLists(ctx)
}

func (s *productService) invalidateLists(ctx context.Context) {
	if _, err := s.cache.DeletePrefix(ctx, cache.PrefixProductLists); err != nil {
		log.Printf("[cache] purge failed prefix=%s err=%v", cache.PrefixProductLists, err)
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func decimalString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func uploadError(err error) error {
	if errors.Is(err, media.ErrInvalidImage) {
		return apperr.Wrap(http.StatusBadRequest, err, err.Error())
	}
	if errors.Is(err, media.ErrNotConfigured) {
		return apperr.Wrap(http.StatusInternalServerError, err, err.Error())
	}
	return err
}
