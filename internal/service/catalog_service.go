package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/repository"
)

// CatalogService serves the single master product and its admin edits.
type CatalogService struct {
	products *repository.ProductRepo
	// Purger is optional; when set it runs after every admin write.
	Purger CachePurger
}

func NewCatalogService(products *repository.ProductRepo) *CatalogService {
	if products == nil {
		panic("nil repository passed to NewCatalogService")
	}
	return &CatalogService{products: products}
}

// List returns the public catalog.
func (s *CatalogService) List(ctx context.Context) ([]model.Product, error) {
	return s.products.List(ctx)
}

// Get returns one product.
func (s *CatalogService) Get(ctx context.Context, id uint64) (model.Product, error) {
	return s.products.Get(ctx, id)
}

// Initialize creates the master product.  Only one may exist.
func (s *CatalogService) Initialize(ctx context.Context, actor model.User, p model.Product) (model.Product, error) {
	if err := Authorize(actor, model.RoleAdmin); err != nil {
		return model.Product{}, err
	}
	if err := validateProduct(&p); err != nil {
		return model.Product{}, err
	}
	created, err := s.products.CreateMaster(ctx, p)
	if err != nil {
		return model.Product{}, err
	}
	s.purge(ctx)
	return created, nil
}

// Update replaces the editable attributes of product id.
func (s *CatalogService) Update(ctx context.Context, actor model.User, id uint64, p model.Product) (model.Product, error) {
	if err := Authorize(actor, model.RoleAdmin); err != nil {
		return model.Product{}, err
	}
	if err := validateProduct(&p); err != nil {
		return model.Product{}, err
	}
	p.ID = id
	updated, err := s.products.Update(ctx, p)
	if err != nil {
		return model.Product{}, err
	}
	s.purge(ctx)
	return updated, nil
}

func (s *CatalogService) purge(ctx context.Context) {
	if s.Purger == nil {
		return
	}
	if err := s.Purger.Purge(ctx); err != nil {
		log.Printf("catalog: purge cache: %v", err)
	}
}

func validateProduct(p *model.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name required", ErrInvalidInput)
	case p.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}
	kept := p.Images[:0]
	for _, img := range p.Images {
		if strings.TrimSpace(img.URL) != "" {
			kept = append(kept, img)
		}
	}
	p.Images = kept
	return nil
}
