package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/caspian-bazaar/api/internal/domain"
	pfirestore "github.com/caspian-bazaar/api/internal/platform/firestore"
)

const categoryCollection = "categories"

type categoryDocument struct {
	NameEN    string    `firestore:"name_en"`
	NameDE    string    `firestore:"name_de,omitempty"`
	NameFA    string    `firestore:"name_fa,omitempty"`
	Name      string    `firestore:"name,omitempty"`
	ParentID  string    `firestore:"parent_id,omitempty"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func encodeCategory(c domain.Category) categoryDocument {
	return categoryDocument{
		NameEN:    c.Name.EN,
		NameDE:    c.Name.DE,
		NameFA:    c.Name.FA,
		Name:      c.Name.Generic,
		ParentID:  c.ParentID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func decodeCategory(id string, doc categoryDocument) domain.Category {
	return domain.Category{
		ID: id,
		Name: domain.LocalizedText{
			EN:      doc.NameEN,
			DE:      doc.NameDE,
			FA:      doc.NameFA,
			Generic: doc.Name,
		},
		ParentID:  doc.ParentID,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// CategoryRepository persists categories in Firestore.
type CategoryRepository struct {
	base *pfirestore.BaseRepository[categoryDocument]
}

// NewCategoryRepository constructs a Firestore-backed category repository.
func NewCategoryRepository(provider *pfirestore.Provider) (*CategoryRepository, error) {
	if provider == nil {
		return nil, errors.New("category repository requires firestore provider")
	}
	return &CategoryRepository{
		base: pfirestore.NewBaseRepository[categoryDocument](provider, categoryCollection, nil, nil),
	}, nil
}

// Insert stores a new category document under its ID.
func (r *CategoryRepository) Insert(ctx context.Context, category domain.Category) error {
	_, err := r.base.Set(ctx, category.ID, encodeCategory(category))
	return err
}

// Update overwrites the stored category document.
func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) error {
	_, err := r.base.Set(ctx, category.ID, encodeCategory(category))
	return err
}

// Delete removes the category document.
func (r *CategoryRepository) Delete(ctx context.Context, categoryID string) error {
	doc, err := r.base.DocumentRef(ctx, categoryID)
	if err != nil {
		return err
	}
	if _, err := doc.Delete(ctx); err != nil {
		return pfirestore.WrapError("categories.delete", err)
	}
	return nil
}

// FindByID fetches a category by its document ID.
func (r *CategoryRepository) FindByID(ctx context.Context, categoryID string) (domain.Category, error) {
	doc, err := r.base.Get(ctx, categoryID)
	if err != nil {
		return domain.Category{}, err
	}
	return decodeCategory(doc.ID, doc.Data), nil
}

// List returns all categories ordered by their english name.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.OrderBy("name_en", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(docs))
	for _, doc := range docs {
		categories = append(categories, decodeCategory(doc.ID, doc.Data))
	}
	return categories, nil
}
