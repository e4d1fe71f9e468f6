package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/shopvista/storefront/internal/catalog"
	pkgerrors "github.com/shopvista/storefront/pkg/errors"
)

// storageKey is the local store key holding the whole cart document.
const storageKey = "e-commerce-cart"

// Line is one cart entry. Everything except Quantity is a snapshot of the
// product at the time it was added; the remote store is not re-read on later
// edits.
type Line struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
}

// Summary is the cart plus its derived totals.
type Summary struct {
	Items     []Line          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// Service defines the cart operations. All mutations persist before returning.
type Service interface {
	Add(ctx context.Context, productID int64, quantity int) (*Summary, error)
	UpdateQuantity(ctx context.Context, productID int64, quantity int) (*Summary, error)
	Remove(ctx context.Context, productID int64) (*Summary, error)
	Summary(ctx context.Context) (*Summary, error)
	Clear(ctx context.Context) error
}

type storage interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	PutJSON(ctx context.Context, key string, v any) error
}

type productLoader interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

type notifier interface {
	Add(ctx context.Context, message string) error
}

type service struct {
	store    storage
	products productLoader
	inbox    notifier

	mu sync.Mutex
	// names remembers the last known name per product so removal messages can
	// reference items that are no longer in the cart.
	names map[int64]string
}

// NewService wires the cart to its backing store, the product store and the
// inbox.
func NewService(store storage, products productLoader, inbox notifier) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart storage required")
	}
	if products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product store client required")
	}
	if inbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification inbox required")
	}
	return &service{store: store, products: products, inbox: inbox, names: map[int64]string{}}, nil
}

// Add puts quantity units of a product in the cart, merging with any existing
// line. The product is fetched fresh so the line snapshot reflects current
// stock and price. When the merged quantity would exceed stock the cart is
// left untouched.
func (s *service) Add(ctx context.Context, productID int64, quantity int) (*Summary, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	existing := 0
	index := -1
	for i := range lines {
		if lines[i].ProductID == productID {
			existing = lines[i].Quantity
			index = i
			break
		}
	}

	if existing+quantity > product.Stock {
		return nil, pkgerrors.New(pkgerrors.CodeCapacity,
			fmt.Sprintf("only %d of %q in stock", product.Stock, product.Name)).
			WithDetails(map[string]any{
				"productId": productID,
				"stock":     product.Stock,
				"requested": existing + quantity,
			})
	}

	line := Line{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		ImageURL:  product.ImageURL,
		Stock:     product.Stock,
		Quantity:  existing + quantity,
	}
	if index >= 0 {
		lines[index] = line
	} else {
		lines = append(lines, line)
	}
	s.names[product.ID] = product.Name

	if err := s.persist(ctx, lines); err != nil {
		return nil, err
	}
	if err := s.inbox.Add(ctx, fmt.Sprintf("%s added to your cart.", product.Name)); err != nil {
		return nil, err
	}
	return summarize(lines), nil
}

// UpdateQuantity sets a line's quantity, clamping into [1, stock]. Clamping
// down to stock also drops a warning in the inbox. Updating a product that is
// not in the cart changes nothing.
func (s *service) UpdateQuantity(ctx context.Context, productID int64, quantity int) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	index := -1
	for i := range lines {
		if lines[i].ProductID == productID {
			index = i
			break
		}
	}
	if index < 0 {
		return summarize(lines), nil
	}

	line := lines[index]
	clampedToStock := false
	if quantity < 1 {
		quantity = 1
	}
	if quantity > line.Stock {
		quantity = line.Stock
		clampedToStock = true
	}
	lines[index].Quantity = quantity

	if err := s.persist(ctx, lines); err != nil {
		return nil, err
	}
	if clampedToStock {
		message := fmt.Sprintf("Only %d of %s available in stock.", line.Stock, line.Name)
		if err := s.inbox.Add(ctx, message); err != nil {
			return nil, err
		}
	}
	return summarize(lines), nil
}

// Remove drops a product's line entirely. Removing an absent product changes
// no state but still emits a removal notification, using the last known name
// when one exists.
func (s *service) Remove(ctx context.Context, productID int64) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	found := false
	kept := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == productID {
			found = true
			continue
		}
		kept = append(kept, line)
	}

	if found {
		if err := s.persist(ctx, kept); err != nil {
			return nil, err
		}
	}

	message := "Item removed from your cart."
	if name := s.names[productID]; name != "" {
		message = fmt.Sprintf("%s removed from your cart.", name)
	}
	if err := s.inbox.Add(ctx, message); err != nil {
		return nil, err
	}
	return summarize(kept), nil
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(lines), nil
}

// Clear empties the cart without touching the inbox. Checkout calls this after
// the order is accepted.
func (s *service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, []Line{})
}

func summarize(lines []Line) *Summary {
	total := decimal.Zero
	count := 0
	for _, line := range lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		count += line.Quantity
	}
	return &Summary{Items: lines, Total: total, ItemCount: count}
}

// load reads the stored cart. A missing or undecodable document is an empty
// cart, never an error.
func (s *service) load(ctx context.Context) ([]Line, error) {
	var lines []Line
	ok, err := s.store.GetJSON(ctx, storageKey, &lines)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if !ok || lines == nil {
		return []Line{}, nil
	}
	for _, line := range lines {
		s.names[line.ProductID] = line.Name
	}
	return lines, nil
}

func (s *service) persist(ctx context.Context, lines []Line) error {
	if err := s.store.PutJSON(ctx, storageKey, lines); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return nil
}
