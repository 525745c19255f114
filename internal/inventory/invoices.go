package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockroom-ims/stockroom/internal/shared"
)

// Invoicer freezes sales into invoices and renders them back.
type Invoicer struct {
	invoices InvoiceStore
	sales    SaleReader
	products ProductReader
	logger   *slog.Logger
}

// NewInvoicer constructs Invoicer.
func NewInvoicer(invoices InvoiceStore, sales SaleReader, products ProductReader, logger *slog.Logger) *Invoicer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoicer{invoices: invoices, sales: sales, products: products, logger: logger}
}

// CreateInvoice totals saleIDs at the current price of each sale's product
// and stores the result. Every sale and product must resolve; otherwise
// nothing is written. Repeated ids are collapsed to their first occurrence.
func (s *Invoicer) CreateInvoice(ctx context.Context, invoiceNumber string, saleIDs []string) (Invoice, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return Invoice{}, fmt.Errorf("invoice number is required: %w", shared.ErrValidation)
	}
	ids := uniqueIDs(saleIDs)
	if len(ids) == 0 {
		return Invoice{}, fmt.Errorf("an invoice needs at least one sale: %w", shared.ErrValidation)
	}

	total := decimal.Zero
	for _, id := range ids {
		sale, err := s.sales.GetSale(ctx, id)
		if err != nil {
			return Invoice{}, fmt.Errorf("create invoice: %w", err)
		}
		product, err := s.products.GetProduct(ctx, sale.ProductID)
		if err != nil {
			return Invoice{}, fmt.Errorf("create invoice: sale %s: %w", sale.ID, err)
		}
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(sale.QuantitySold))))
	}

	inv := Invoice{InvoiceNumber: invoiceNumber, SaleIDs: ids, TotalAmount: total}
	id, err := s.invoices.InsertInvoice(ctx, inv)
	if err != nil {
		return Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	inv.ID = id
	s.logger.Info("invoice created",
		slog.String("invoice_id", id),
		slog.String("invoice_number", invoiceNumber),
		slog.Int("sales", len(ids)),
		slog.String("total_amount", total.StringFixed(2)))
	return inv, nil
}

// GetInvoiceDetail resolves the invoice's line items from live data. Sales or
// products deleted since the invoice was created are left out.
func (s *Invoicer) GetInvoiceDetail(ctx context.Context, invoiceID string) (InvoiceDetail, error) {
	inv, err := s.invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		return InvoiceDetail{}, err
	}

	found, err := s.sales.FindSales(ctx, inv.SaleIDs)
	if err != nil {
		return InvoiceDetail{}, fmt.Errorf("invoice detail: %w", err)
	}
	byID := make(map[string]Sale, len(found))
	for _, sale := range found {
		byID[sale.ID] = sale
	}

	lines := make([]LineItem, 0, len(inv.SaleIDs))
	for _, id := range inv.SaleIDs {
		sale, ok := byID[id]
		if !ok {
			continue
		}
		product, err := s.products.GetProduct(ctx, sale.ProductID)
		if errors.Is(err, shared.ErrNotFound) {
			continue
		}
		if err != nil {
			return InvoiceDetail{}, fmt.Errorf("invoice detail: %w", err)
		}
		lines = append(lines, LineItem{Name: product.Name, Quantity: sale.QuantitySold})
	}
	return InvoiceDetail{Invoice: inv, Lines: lines}, nil
}

type exportedInvoice struct {
	InvoiceNumber string         `json:"invoice_number"`
	TotalAmount   float64        `json:"total_amount"`
	Products      []exportedLine `json:"products"`
}

type exportedLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ExportInvoiceJSON encodes the invoice detail as a download and names the file.
func (s *Invoicer) ExportInvoiceJSON(ctx context.Context, invoiceID string) ([]byte, string, error) {
	detail, err := s.GetInvoiceDetail(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}
	doc := exportedInvoice{
		InvoiceNumber: detail.Invoice.InvoiceNumber,
		TotalAmount:   detail.Invoice.TotalAmount.InexactFloat64(),
		Products:      make([]exportedLine, 0, len(detail.Lines)),
	}
	for _, line := range detail.Lines {
		doc.Products = append(doc.Products, exportedLine{Name: line.Name, Quantity: line.Quantity})
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("export invoice: %w", err)
	}
	return body, ExportFilename(detail.Invoice.InvoiceNumber), nil
}

// ExportFilename names the JSON download for an invoice number.
func ExportFilename(invoiceNumber string) string {
	return "invoice_" + invoiceNumber + ".json"
}

// GetInvoice returns one invoice without resolving line items.
func (s *Invoicer) GetInvoice(ctx context.Context, invoiceID string) (Invoice, error) {
	return s.invoices.GetInvoice(ctx, invoiceID)
}

// ListInvoices returns every invoice.
func (s *Invoicer) ListInvoices(ctx context.Context) ([]Invoice, error) {
	return s.invoices.ListInvoices(ctx)
}

// DeleteInvoice removes an invoice. Its sales are untouched.
func (s *Invoicer) DeleteInvoice(ctx context.Context, invoiceID string) error {
	if err := s.invoices.DeleteInvoice(ctx, invoiceID); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	s.logger.Info("invoice deleted", slog.String("invoice_id", invoiceID))
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
