package services

import (
	"context"
	"errors"
	"strings"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
	"github.com/developia-II/feedback-analyzer-backend/internal/database"
	"github.com/developia-II/feedback-analyzer-backend/internal/models"
)

// ProductService manages the product catalog feedback is filed against.
type ProductService struct {
	store database.ProductStore
}

func NewProductService(store database.ProductStore) *ProductService {
	return &ProductService{store: store}
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, storeFailure(err, "list products")
	}
	return products, nil
}

func (s *ProductService) Create(ctx context.Context, name string) (*models.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.KindBadRequest, "name is required")
	}
	if name == models.UnspecifiedProduct {
		return nil, apperr.New(apperr.KindBadRequest, "name is reserved")
	}
	p, err := s.store.CreateProduct(ctx, name)
	if errors.Is(err, database.ErrDuplicate) {
		return nil, apperr.New(apperr.KindConflict, "Product already exists")
	}
	if err != nil {
		return nil, storeFailure(err, "create product")
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	err := s.store.DeleteProduct(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "Product not found")
	}
	if err != nil {
		return storeFailure(err, "delete product")
	}
	return nil
}
