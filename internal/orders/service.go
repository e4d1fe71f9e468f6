package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/shopvista/storefront/internal/cart"
	"github.com/shopvista/storefront/internal/catalog"
	pkgerrors "github.com/shopvista/storefront/pkg/errors"
)

// Service defines checkout and order history.
type Service interface {
	Checkout(ctx context.Context, userID string) (*catalog.Order, error)
	History(ctx context.Context, userID string) ([]catalog.Order, error)
}

type cartAccess interface {
	Summary(ctx context.Context) (*cart.Summary, error)
	Clear(ctx context.Context) error
}

type ledger interface {
	CreateOrder(ctx context.Context, order *catalog.Order) (*catalog.Order, error)
	ListOrders(ctx context.Context) ([]catalog.Order, error)
}

type notifier interface {
	Add(ctx context.Context, message string) error
}

type service struct {
	carts  cartAccess
	ledger ledger
	inbox  notifier
	now    func() time.Time
}

// NewService wires checkout to the cart, the remote ledger and the inbox.
func NewService(carts cartAccess, remote ledger, inbox notifier) (Service, error) {
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart service required")
	}
	if remote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order ledger client required")
	}
	if inbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification inbox required")
	}
	return &service{carts: carts, ledger: remote, inbox: inbox, now: time.Now}, nil
}

// Checkout snapshots the cart into an order and submits it. The cart is
// cleared only after the ledger accepts the order; a rejected submission
// leaves the cart exactly as it was.
func (s *service) Checkout(ctx context.Context, userID string) (*catalog.Order, error) {
	summary, err := s.carts.Summary(ctx)
	if err != nil {
		return nil, err
	}
	if len(summary.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "login required to check out")
	}

	now := s.now()
	order := &catalog.Order{
		ID:     fmt.Sprintf("ORD%d", now.UnixMilli()),
		UserID: userID,
		Date:   now.Format(catalog.DisplayDateLayout),
		Total:  summary.Total,
		Status: catalog.OrderStatusProcessing,
		Items:  make([]catalog.OrderItem, 0, len(summary.Items)),
	}
	for _, line := range summary.Items {
		order.Items = append(order.Items, catalog.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
	}

	created, err := s.ledger.CreateOrder(ctx, order)
	if err != nil {
		notifyErr := s.inbox.Add(ctx, "There was a problem placing your order. Please try again.")
		return nil, multierr.Combine(err, notifyErr)
	}

	finalizeErr := multierr.Combine(
		s.carts.Clear(ctx),
		s.inbox.Add(ctx, fmt.Sprintf("Order %s placed successfully! Total: $%s.",
			created.ID, created.Total.StringFixed(2))),
	)
	return created, finalizeErr
}

// History lists the caller's orders, newest first. The ledger has no
// server-side filtering so the full collection is fetched and narrowed here.
func (s *service) History(ctx context.Context, userID string) ([]catalog.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "login required to view orders")
	}

	all, err := s.ledger.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	mine := make([]catalog.Order, 0, len(all))
	for _, order := range all {
		if order.UserID == userID {
			mine = append(mine, order)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].ID > mine[j].ID
	})
	return mine, nil
}
