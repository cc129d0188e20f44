package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/caspian-bazaar/api/internal/domain"
	pfirestore "github.com/caspian-bazaar/api/internal/platform/firestore"
	"github.com/caspian-bazaar/api/internal/repositories"
)

const productCollection = "products"

// productDocument mirrors the flat column layout of the products collection.
type productDocument struct {
	NameEN        string    `firestore:"name_en"`
	NameDE        string    `firestore:"name_de,omitempty"`
	NameFA        string    `firestore:"name_fa,omitempty"`
	Name          string    `firestore:"name,omitempty"`
	DescriptionEN string    `firestore:"description_en,omitempty"`
	DescriptionDE string    `firestore:"description_de,omitempty"`
	DescriptionFA string    `firestore:"description_fa,omitempty"`
	Description   string    `firestore:"description,omitempty"`
	Price         float64   `firestore:"price"`
	Stock         int       `firestore:"stock"`
	CategoryID    string    `firestore:"category_id,omitempty"`
	ImageURL      string    `firestore:"image_url,omitempty"`
	SalesCount    int       `firestore:"sales_count"`
	CreatedAt     time.Time `firestore:"created_at"`
	UpdatedAt     time.Time `firestore:"updated_at"`
}

func encodeProduct(p domain.Product) productDocument {
	return productDocument{
		NameEN:        p.Name.EN,
		NameDE:        p.Name.DE,
		NameFA:        p.Name.FA,
		Name:          p.Name.Generic,
		DescriptionEN: p.Description.EN,
		DescriptionDE: p.Description.DE,
		DescriptionFA: p.Description.FA,
		Description:   p.Description.Generic,
		Price:         p.Price,
		Stock:         p.Stock,
		CategoryID:    p.CategoryID,
		ImageURL:      p.ImageURL,
		SalesCount:    p.SalesCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func decodeProduct(id string, doc productDocument) domain.Product {
	return domain.Product{
		ID: id,
		Name: domain.LocalizedText{
			EN:      doc.NameEN,
			DE:      doc.NameDE,
			FA:      doc.NameFA,
			Generic: doc.Name,
		},
		Description: domain.LocalizedText{
			EN:      doc.DescriptionEN,
			DE:      doc.DescriptionDE,
			FA:      doc.DescriptionFA,
			Generic: doc.Description,
		},
		Price:      doc.Price,
		Stock:      doc.Stock,
		CategoryID: doc.CategoryID,
		ImageURL:   doc.ImageURL,
		SalesCount: doc.SalesCount,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

// ProductRepository persists products in Firestore.
type ProductRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	return &ProductRepository{
		provider: provider,
		base:     pfirestore.NewBaseRepository[productDocument](provider, productCollection, nil, nil),
	}, nil
}

// Insert stores a new product document under its ID.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	_, err := r.base.Set(ctx, product.ID, encodeProduct(product))
	return err
}

// Update overwrites the stored product document.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	_, err := r.base.Set(ctx, product.ID, encodeProduct(product))
	return err
}

// Delete removes the product document.
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	doc, err := r.base.DocumentRef(ctx, productID)
	if err != nil {
		return err
	}
	if _, err := doc.Delete(ctx); err != nil {
		return pfirestore.WrapError("products.delete", err)
	}
	return nil
}

// FindByID fetches a product by its document ID.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	doc, err := r.base.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return decodeProduct(doc.ID, doc.Data), nil
}

// List returns products matching the backend-indexable parts of the filter,
// ordered by creation time descending.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if categoryID := strings.TrimSpace(filter.CategoryID); categoryID != "" {
			query = query.Where("category_id", "==", categoryID)
		}
		switch filter.Bucket {
		case domain.PriceBucketLow:
			query = query.Where("price", ">=", 0.0).Where("price", "<=", 50.0).OrderBy("price", firestore.Asc)
		case domain.PriceBucketMedium:
			query = query.Where("price", ">", 50.0).Where("price", "<=", 100.0).OrderBy("price", firestore.Asc)
		case domain.PriceBucketHigh:
			query = query.Where("price", ">", 100.0).OrderBy("price", firestore.Asc)
		default:
			query = query.OrderBy("created_at", firestore.Desc)
		}
		return query
	})
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, decodeProduct(doc.ID, doc.Data))
	}
	return products, nil
}

// IncrementSales bumps the denormalised sales counter after checkout.
func (r *ProductRepository) IncrementSales(ctx context.Context, productID string, delta int) error {
	if delta == 0 {
		return nil
	}
	_, err := r.base.Update(ctx, productID, []firestore.Update{
		{Path: "sales_count", Value: firestore.Increment(delta)},
	})
	return err
}
