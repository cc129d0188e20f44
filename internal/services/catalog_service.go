package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/caspian-bazaar/api/internal/domain"
	"github.com/caspian-bazaar/api/internal/locale"
	"github.com/caspian-bazaar/api/internal/platform/fetch"
	"github.com/caspian-bazaar/api/internal/repositories"
)

var (
	errCatalogProductsRequired   = errors.New("catalog service: product repository is required")
	errCatalogCategoriesRequired = errors.New("catalog service: category repository is required")
	errCatalogLocalesRequired    = errors.New("catalog service: locale resolver is required")
)

// ErrCatalogInvalidInput indicates the caller supplied invalid input.
var ErrCatalogInvalidInput = errors.New("catalog service: invalid input")

// ErrCatalogNotFound indicates the requested product or category does not exist.
var ErrCatalogNotFound = errors.New("catalog service: not found")

// ErrCatalogConflict indicates a conflicting concurrent update.
var ErrCatalogConflict = errors.New("catalog service: conflict")

// ErrCatalogUnavailable indicates the backend cannot fulfil the request.
var ErrCatalogUnavailable = errors.New("catalog service: unavailable")

const maxProductNameLength = 200

// CatalogServiceDeps wires the repositories and helpers for catalog operations.
type CatalogServiceDeps struct {
	Products   repositories.ProductRepository
	Categories repositories.CategoryRepository
	Locales    *locale.Resolver
	Clock      func() time.Time
	// RefreshInterval is the quiet period applied when coalescing snapshot
	// reloads after bursts of admin writes.
	RefreshInterval time.Duration
	Logger          func(context.Context, string, map[string]any)
	IDGenerator     func() string
}

type catalogService struct {
	products   repositories.ProductRepository
	categories repositories.CategoryRepository
	locales    *locale.Resolver
	now        func() time.Time
	newID      func() string
	logger     func(context.Context, string, map[string]any)

	namePolicy *bluemonday.Policy
	descPolicy *bluemonday.Policy

	snapshot atomic.Pointer[[]domain.Product]
	refresh  *fetch.Debouncer[struct{}, []domain.Product]
}

// NewCatalogService constructs a CatalogService enforcing dependency validation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errCatalogProductsRequired
	}
	if deps.Categories == nil {
		return nil, errCatalogCategoriesRequired
	}
	if deps.Locales == nil {
		return nil, errCatalogLocalesRequired
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	s := &catalogService{
		products:   deps.Products,
		categories: deps.Categories,
		locales:    deps.Locales,
		now:        func() time.Time { return clock().UTC() },
		newID:      idGen,
		logger:     logger,
		namePolicy: bluemonday.StrictPolicy(),
		descPolicy: bluemonday.UGCPolicy(),
	}

	refreshOpts := []fetch.Option{}
	if deps.RefreshInterval > 0 {
		refreshOpts = append(refreshOpts, fetch.WithInterval(deps.RefreshInterval))
	}
	s.refresh = fetch.NewDebouncer(
		func(ctx context.Context, _ struct{}) ([]domain.Product, error) {
			return s.products.List(ctx, repositories.ProductListFilter{})
		},
		func(_ struct{}, products []domain.Product, err error) {
			if err != nil {
				s.logger(context.Background(), "catalog snapshot refresh failed", map[string]any{"error": err.Error()})
				return
			}
			s.snapshot.Store(&products)
		},
		refreshOpts...,
	)

	return s, nil
}

// WarmCache loads the product snapshot without waiting for the quiet interval.
func (s *catalogService) WarmCache(ctx context.Context) {
	products, err := s.products.List(ctx, repositories.ProductListFilter{})
	if err != nil {
		s.logger(ctx, "catalog warm-up failed", map[string]any{"error": err.Error()})
		return
	}
	s.snapshot.Store(&products)
}

// Close stops the background snapshot refresh.
func (s *catalogService) Close() {
	if s != nil && s.refresh != nil {
		s.refresh.Close()
	}
}

// SearchProducts runs the filter/sort pipeline over the product set for the
// given locale. With zero criteria it is the plain product listing.
func (s *catalogService) SearchProducts(ctx context.Context, criteria domain.SearchCriteria, loc domain.Locale) ([]ProductView, error) {
	products, err := s.loadProducts(ctx, criteria)
	if err != nil {
		return nil, s.translateError(err)
	}

	filtered := domain.FilterAndSort(products, criteria, s.locales.NameResolver(loc), s.locales.LessNames(loc))

	views := make([]ProductView, 0, len(filtered))
	for _, p := range filtered {
		views = append(views, s.productView(p, loc))
	}
	return views, nil
}

// GetProduct fetches a single product rendered for the locale.
func (s *catalogService) GetProduct(ctx context.Context, productID string, loc domain.Locale) (ProductView, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ProductView{}, ErrCatalogInvalidInput
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return ProductView{}, s.translateError(err)
	}
	return s.productView(product, loc), nil
}

// ListCategories returns all categories rendered for the locale.
func (s *catalogService) ListCategories(ctx context.Context, loc domain.Locale) ([]CategoryView, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, s.translateError(err)
	}

	views := make([]CategoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, CategoryView{
			ID:       c.ID,
			Name:     c.Name.Resolve(loc),
			ParentID: c.ParentID,
		})
	}
	return views, nil
}

// CreateProduct validates, sanitises, and stores a new product.
func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	product, err := s.buildProduct(s.newID(), input)
	if err != nil {
		return domain.Product{}, err
	}
	now := s.now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.products.Insert(ctx, product); err != nil {
		return domain.Product{}, s.translateError(err)
	}
	s.invalidate(ctx, "product created", product.ID)
	return product, nil
}

// UpdateProduct validates, sanitises, and overwrites an existing product.
func (s *catalogService) UpdateProduct(ctx context.Context, productID string, input ProductInput) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, ErrCatalogInvalidInput
	}

	existing, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.Product{}, s.translateError(err)
	}

	product, err := s.buildProduct(productID, input)
	if err != nil {
		return domain.Product{}, err
	}
	product.SalesCount = existing.SalesCount
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = s.now()

	if err := s.products.Update(ctx, product); err != nil {
		return domain.Product{}, s.translateError(err)
	}
	s.invalidate(ctx, "product updated", product.ID)
	return product, nil
}

// DeleteProduct removes a product from the catalog.
func (s *catalogService) DeleteProduct(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ErrCatalogInvalidInput
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return s.translateError(err)
	}
	s.invalidate(ctx, "product deleted", productID)
	return nil
}

// CreateCategory validates and stores a new category.
func (s *catalogService) CreateCategory(ctx context.Context, input CategoryInput) (domain.Category, error) {
	category, err := s.buildCategory(s.newID(), input)
	if err != nil {
		return domain.Category{}, err
	}
	now := s.now()
	category.CreatedAt = now
	category.UpdatedAt = now

	if err := s.categories.Insert(ctx, category); err != nil {
		return domain.Category{}, s.translateError(err)
	}
	return category, nil
}

// UpdateCategory validates and overwrites an existing category.
func (s *catalogService) UpdateCategory(ctx context.Context, categoryID string, input CategoryInput) (domain.Category, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return domain.Category{}, ErrCatalogInvalidInput
	}

	existing, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return domain.Category{}, s.translateError(err)
	}

	category, err := s.buildCategory(categoryID, input)
	if err != nil {
		return domain.Category{}, err
	}
	category.CreatedAt = existing.CreatedAt
	category.UpdatedAt = s.now()

	if err := s.categories.Update(ctx, category); err != nil {
		return domain.Category{}, s.translateError(err)
	}
	return category, nil
}

// DeleteCategory removes a category.
func (s *catalogService) DeleteCategory(ctx context.Context, categoryID string) error {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return ErrCatalogInvalidInput
	}
	if err := s.categories.Delete(ctx, categoryID); err != nil {
		return s.translateError(err)
	}
	return nil
}

func (s *catalogService) loadProducts(ctx context.Context, criteria domain.SearchCriteria) ([]domain.Product, error) {
	if snap := s.snapshot.Load(); snap != nil {
		return *snap, nil
	}
	// Cold cache: let the backend narrow what it indexes. The pipeline
	// re-applies every predicate, so over-fetching is safe but narrowing
	// keeps reads small.
	return s.products.List(ctx, repositories.ProductListFilter{
		CategoryID: strings.TrimSpace(criteria.CategoryID),
		Bucket:     criteria.Bucket,
	})
}

func (s *catalogService) invalidate(ctx context.Context, reason, id string) {
	s.logger(ctx, "catalog snapshot invalidated", map[string]any{"reason": reason, "id": id})
	s.snapshot.Store(nil)
	s.refresh.Trigger(struct{}{})
}

func (s *catalogService) productView(p domain.Product, loc domain.Locale) ProductView {
	return ProductView{
		ID:          p.ID,
		Name:        p.Name.Resolve(loc),
		Description: p.Description.ResolveDescription(loc),
		Price:       domain.Round2(p.Price),
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		ImageURL:    p.ImageURL,
		SalesCount:  p.SalesCount,
	}
}

func (s *catalogService) buildProduct(id string, input ProductInput) (domain.Product, error) {
	name := s.sanitizeText(input.Name, s.namePolicy)
	if strings.TrimSpace(name.EN) == "" && strings.TrimSpace(name.Generic) == "" {
		return domain.Product{}, ErrCatalogInvalidInput
	}
	if len(name.EN) > maxProductNameLength {
		return domain.Product{}, ErrCatalogInvalidInput
	}
	if input.Price < 0 || input.Stock < 0 {
		return domain.Product{}, ErrCatalogInvalidInput
	}

	return domain.Product{
		ID:          id,
		Name:        name,
		Description: s.sanitizeText(input.Description, s.descPolicy),
		Price:       domain.Round2(input.Price),
		Stock:       input.Stock,
		CategoryID:  strings.TrimSpace(input.CategoryID),
		ImageURL:    strings.TrimSpace(input.ImageURL),
	}, nil
}

func (s *catalogService) buildCategory(id string, input CategoryInput) (domain.Category, error) {
	name := s.sanitizeText(input.Name, s.namePolicy)
	if strings.TrimSpace(name.EN) == "" && strings.TrimSpace(name.Generic) == "" {
		return domain.Category{}, ErrCatalogInvalidInput
	}

	return domain.Category{
		ID:       id,
		Name:     name,
		ParentID: strings.TrimSpace(input.ParentID),
	}, nil
}

func (s *catalogService) sanitizeText(text domain.LocalizedText, policy *bluemonday.Policy) domain.LocalizedText {
	return domain.LocalizedText{
		EN:      strings.TrimSpace(policy.Sanitize(text.EN)),
		DE:      strings.TrimSpace(policy.Sanitize(text.DE)),
		FA:      strings.TrimSpace(policy.Sanitize(text.FA)),
		Generic: strings.TrimSpace(policy.Sanitize(text.Generic)),
	}
}

func (s *catalogService) translateError(err error) error {
	return translateRepoError(err, ErrCatalogNotFound, ErrCatalogConflict, ErrCatalogUnavailable)
}
