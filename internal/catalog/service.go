package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/shopvista/storefront/pkg/errors"
)

// Service exposes the product browsing and review operations.
type Service interface {
	Browse(ctx context.Context, filters Filters) (*BrowseResult, error)
	Get(ctx context.Context, id int64) (*ProductView, error)
	SubmitReview(ctx context.Context, input SubmitReviewInput) (*Product, error)
}

type productStore interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	UpdateProduct(ctx context.Context, product *Product) (*Product, error)
}

type notifier interface {
	Add(ctx context.Context, message string) error
}

type service struct {
	store productStore
	inbox notifier
}

// NewService wires the catalog service to the remote store and the inbox.
func NewService(store productStore, inbox notifier) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("product store client required")
	}
	if inbox == nil {
		return nil, fmt.Errorf("notification inbox required")
	}
	return &service{store: store, inbox: inbox}, nil
}

// BrowseResult carries the filtered product list plus the facet values the
// filter sidebar renders.
type BrowseResult struct {
	Items       []Product `json:"items"`
	Categories  []string  `json:"categories"`
	PriceRanges []string  `json:"price_ranges"`
}

// ProductView decorates a product with its derived average rating. A nil
// rating means the product has no reviews yet.
type ProductView struct {
	Product       Product  `json:"product"`
	AverageRating *float64 `json:"average_rating"`
}

// SubmitReviewInput captures a review submission for a product.
type SubmitReviewInput struct {
	ProductID int64
	Identity  string
	Rating    int
	Comment   string
}

func (s *service) Browse(ctx context.Context, filters Filters) (*BrowseResult, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return &BrowseResult{
		Items:       filters.Apply(products),
		Categories:  Categories(products),
		PriceRanges: PriceRanges,
	}, nil
}

func (s *service) Get(ctx context.Context, id int64) (*ProductView, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &ProductView{Product: *product}
	if avg, ok := AverageRating(product.Reviews); ok {
		view.AverageRating = &avg
	}
	return view, nil
}

// SubmitReview fetches the product, replaces the caller's existing review in
// place or appends a new one, and writes the whole document back. The
// read-modify-write is not atomic; concurrent reviewers race and the last
// full-document write wins.
func (s *service) SubmitReview(ctx context.Context, input SubmitReviewInput) (*Product, error) {
	if strings.TrimSpace(input.Identity) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "login required to submit a review")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment is required")
	}

	product, err := s.store.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	review := Review{
		UserID:  input.Identity,
		Rating:  input.Rating,
		Comment: comment,
		Date:    time.Now().UTC().Format(ReviewDateLayout),
	}

	replaced := false
	for i := range product.Reviews {
		if product.Reviews[i].UserID == input.Identity {
			product.Reviews[i] = review
			replaced = true
			break
		}
	}
	if !replaced {
		product.Reviews = append(product.Reviews, review)
	}

	updated, err := s.store.UpdateProduct(ctx, product)
	if err != nil {
		return nil, err
	}

	if err := s.inbox.Add(ctx, fmt.Sprintf("Your review of %q was submitted.", updated.Name)); err != nil {
		return nil, err
	}
	return updated, nil
}
