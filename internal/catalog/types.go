package catalog

import "github.com/shopspring/decimal"

func init() {
	// The collection service stores prices and totals as bare JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is the remote store's record. The cart only ever holds snapshots of
// it; reviews are embedded and written back with a full-document PUT.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Reviews     []Review        `json:"reviews"`
}

// Review is a single user's rating of a product. A user has at most one
// review per product; resubmitting replaces it in place.
type Review struct {
	UserID  string `json:"userId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
	Date    string `json:"date"`
}

// OrderItem is the order-shaped copy of a cart line.
type OrderItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Order is a finalized checkout snapshot held by the remote ledger. Immutable
// once created except for Status.
type Order struct {
	ID     string          `json:"id"`
	UserID string          `json:"userId"`
	Date   string          `json:"date"`
	Total  decimal.Decimal `json:"total"`
	Status string          `json:"status"`
	Items  []OrderItem     `json:"items"`
}

const (
	OrderStatusProcessing = "Processing"
	OrderStatusDelivered  = "Delivered"
)

// ReviewDateLayout is the wire format for review dates.
const ReviewDateLayout = "2006-01-02"

// DisplayDateLayout matches the storefront's en-US short date rendering.
const DisplayDateLayout = "Jan 2, 2006"
