package inventory

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Storage limits: quantities are INTEGER columns and prices NUMERIC(12, 2).
const (
	MaxQuantity = math.MaxInt32
	MinQuantity = math.MinInt32
	PriceScale  = 2
)

// MaxPrice is the exclusive upper bound for a product price.
var MaxPrice = decimal.New(1, 10)

// Product is a stocked item. QuantityInStock may go negative when sales
// outrun stock (backorders).
type Product struct {
	ID              string
	Name            string
	SKU             string
	Category        string
	QuantityInStock int
	Price           decimal.Decimal
	Description     string
}

// ProductInput carries the editable product fields.
type ProductInput struct {
	Name            string
	SKU             string
	Category        string
	QuantityInStock int
	Price           decimal.Decimal
	Description     string
}

// Sale records units sold of a product. ProductName and UnitPrice are
// copied from the product when the sale is recorded and never change.
type Sale struct {
	ID           string
	ProductID    string
	ProductName  string
	UnitPrice    decimal.Decimal
	QuantitySold int
	SaleDate     string
}

// SnapshotAmount is the sale value at the price in effect when it was recorded.
func (s Sale) SnapshotAmount() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(int64(s.QuantitySold)))
}

// Invoice freezes a set of sales. TotalAmount is computed once, from live
// product prices, when the invoice is created.
type Invoice struct {
	ID            string
	InvoiceNumber string
	SaleIDs       []string
	TotalAmount   decimal.Decimal
	CreatedAt     time.Time
}

// LineItem is one resolved invoice row for display and export.
type LineItem struct {
	Name     string
	Quantity int
}

// InvoiceDetail is an invoice with the line items that still resolve.
type InvoiceDetail struct {
	Invoice Invoice
	Lines   []LineItem
}

// ProductReader resolves products by id.
type ProductReader interface {
	GetProduct(ctx context.Context, id string) (Product, error)
}

// ProductStore persists products.
type ProductStore interface {
	ProductReader
	ListProducts(ctx context.Context) ([]Product, error)
	InsertProduct(ctx context.Context, in ProductInput) (string, error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) error
	// AdjustStock adds delta to quantity_in_stock in a single store-side
	// update and returns ErrNotFound when the product does not exist.
	AdjustStock(ctx context.Context, id string, delta int) error
	DeleteProduct(ctx context.Context, id string) error
}

// SaleReader resolves sales by id.
type SaleReader interface {
	GetSale(ctx context.Context, id string) (Sale, error)
	// FindSales returns the sales among ids that exist, in no particular order.
	FindSales(ctx context.Context, ids []string) ([]Sale, error)
}

// SaleStore persists sales.
type SaleStore interface {
	SaleReader
	ListSales(ctx context.Context) ([]Sale, error)
	InsertSale(ctx context.Context, sale Sale) (string, error)
	DeleteSale(ctx context.Context, id string) error
}

// InvoiceStore persists invoices.
type InvoiceStore interface {
	GetInvoice(ctx context.Context, id string) (Invoice, error)
	ListInvoices(ctx context.Context) ([]Invoice, error)
	InsertInvoice(ctx context.Context, inv Invoice) (string, error)
	DeleteInvoice(ctx context.Context, id string) error
}

// StockEvaluator is notified after every change to a product's stock.
type StockEvaluator interface {
	Evaluate(ctx context.Context, productID string)
}
