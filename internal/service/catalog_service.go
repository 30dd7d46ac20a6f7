package service

import (
	"context"

	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"
)

// CatalogService is the read side of products, stock and tags, plus the
// product availability switch.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	SetProductDisabled(ctx context.Context, id uint, disabled bool) (*model.Product, error)
	ListStock(ctx context.Context) ([]model.StockItem, error)
	GetStock(ctx context.Context, id uint) (*model.StockItem, error)
	ListRFIDTags(ctx context.Context) ([]model.RFIDTag, error)
}

type catalogService struct {
	products repository.ProductRepository
	stocks   repository.StockRepository
	tags     repository.RFIDRepository
}

func NewCatalogService(products repository.ProductRepository, stocks repository.StockRepository, tags repository.RFIDRepository) CatalogService {
	return &catalogService{products: products, stocks: stocks, tags: tags}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.products.FindAll(ctx)
}

func (s *catalogService) SetProductDisabled(ctx context.Context, id uint, disabled bool) (*model.Product, error) {
	if err := s.products.SetDisabled(ctx, id, disabled); err != nil {
		return nil, err
	}
	return s.products.FindByID(ctx, id)
}

func (s *catalogService) ListStock(ctx context.Context) ([]model.StockItem, error) {
	return s.stocks.FindAll(ctx)
}

func (s *catalogService) GetStock(ctx context.Context, id uint) (*model.StockItem, error) {
	return s.stocks.FindByID(ctx, id)
}

func (s *catalogService) ListRFIDTags(ctx context.Context) ([]model.RFIDTag, error) {
	return s.tags.FindAll(ctx)
}
