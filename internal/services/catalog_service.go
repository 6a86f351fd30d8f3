package services

import (
	"shoplocal/internal/domain"
	"shoplocal/internal/repos"
)

const recommendationLimit = 4

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

func (s *CatalogService) ListProducts(category string) ([]domain.Product, error) {
	return s.Prods.ListActive(category)
}

func (s *CatalogService) Categories() ([]string, error) {
	return s.Prods.Categories()
}

// GetProduct fetches one product without any view bookkeeping (API path).
func (s *CatalogService) GetProduct(id string) (domain.Product, error) {
	return s.Prods.Get(id)
}

func (s *CatalogService) Recommendations(productID string) ([]domain.Product, error) {
	return s.Prods.Recommendations(productID, recommendationLimit)
}

// ProductDetail fetches one product with its recommendations and records
// the page view. The counters are fire-and-forget; a failed write never
// fails the page.
func (s *CatalogService) ProductDetail(id, sessionID, ip string) (domain.Product, []domain.Product, error) {
	p, err := s.Prods.Get(id)
	if err != nil {
		return domain.Product{}, nil, err
	}

	_ = s.Prods.IncrementViews(id)
	_ = s.Prods.RecordView(id, sessionID, ip)

	recs, err := s.Prods.Recommendations(id, recommendationLimit)
	if err != nil {
		recs = nil
	}
	return p, recs, nil
}
