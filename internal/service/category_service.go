package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/shinyyama/market-backend/internal/apperr"
	"github.com/shinyyama/market-backend/internal/cache"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/repository"
	"gorm.io/gorm"
)

type CategoryService interface {
	Create(ctx context.Context, name string) (*model.Category, error)
	Get(ctx context.Context, id uint64) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, id uint64, name string) (*model.Category, error)
	Delete(ctx context.Context, id uint64) error
}

type categoryService struct {
	repo  repository.CategoryRepository
	cache cache.Cache
}

func NewCategoryService(repo repository.CategoryRepository, c cache.Cache) CategoryService {
	return &categoryService{repo: repo, cache: c}
}

// nameTaken reports whether another category (not exceptID) already uses name.
func (s *categoryService) nameTaken(ctx context.Context, name string, exceptID uint64) (bool, error) {
	existing, err := s.repo.FindByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing.ID != exceptID, nil
}

func (s *categoryService) Create(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest("Please enter category name")
	}
	taken, err := s.nameTaken(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.BadRequest("Category already exists")
	}
	c := &model.Category{Name: name}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, duplicate(err, "Category already exists")
	}
	return c, nil
}

func (s *categoryService) Get(ctx context.Context, id uint64) (*model.Category, error) {
	key := cache.Key(cache.KeyCategory, id)
	var cached model.Category
	if ok, err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil && ok {
		return &cached, nil
	} else if err != nil {
		log.Printf("[cache] get failed key=%s err=%v", key, err)
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Category")
	}
	if err := cache.SetJSON(ctx, s.cache, key, c, cache.TTLCategory); err != nil {
		log.Printf("[cache] set failed key=%s err=%v", key, err)
	}
	return c, nil
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.repo.List(ctx)
}

func (s *categoryService) Update(ctx context.Context, id uint64, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.BadRequest("Please enter category name")
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Category")
	}
	taken, err := s.nameTaken(ctx, name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.BadRequest("Category name already exists")
	}
	c.Name = name
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, duplicate(err, "Category name already exists")
	}
	key := cache.Key(cache.KeyCategory, id)
	if err := cache.SetJSON(ctx, s.cache, key, c, cache.TTLCategory); err != nil {
		log.Printf("[cache] set failed key=%s err=%v", key, err)
	}
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, id uint64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, "Category")
	}
	if err := s.cache.Del(ctx, cache.Key(cache.KeyCategory, id)); err != nil {
		log.Printf("[cache] del failed category_id=%d err=%v", id, err)
	}
	return nil
}
