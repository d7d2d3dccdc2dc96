package services

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

const (
	defaultOrderPage = 50
	maxOrderPage     = 200
	searchPage       = 20
)

var ErrOrderNotFound = errors.New("order not found")

// CatalogService serves display reads. Nothing here takes the reservation lock,
// so stock figures may trail in-flight orders.
type CatalogService struct {
	Prods  *repos.ProductRepo
	Orders *repos.OrderRepo
}

func NewCatalogService(prods *repos.ProductRepo, orders *repos.OrderRepo) *CatalogService {
	return &CatalogService{Prods: prods, Orders: orders}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.Prods.List(ctx)
}

func (s *CatalogService) SearchProducts(ctx context.Context, q string) ([]domain.Product, error) {
	return s.Prods.Search(ctx, q, searchPage)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if errors.Is(err, repos.ErrNotFound) {
		return domain.Product{}, ProductNotFound(id)
	}
	return p, err
}

func (s *CatalogService) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if errors.Is(err, repos.ErrNotFound) {
		return domain.Order{}, ErrOrderNotFound
	}
	return o, err
}

func (s *CatalogService) ListOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = defaultOrderPage
	}
	if limit > maxOrderPage {
		limit = maxOrderPage
	}
	return s.Orders.ListLatest(ctx, limit)
}
