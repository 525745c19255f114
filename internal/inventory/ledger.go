package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stockroom-ims/stockroom/internal/shared"
)

// Ledger keeps product stock in step with recorded sales. Recording a sale
// and removing it are exact inverses on quantity_in_stock.
type Ledger struct {
	products ProductStore
	sales    SaleStore
	alerts   StockEvaluator
	logger   *slog.Logger
}

// NewLedger constructs Ledger. alerts may be nil.
func NewLedger(products ProductStore, sales SaleStore, alerts StockEvaluator, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{products: products, sales: sales, alerts: alerts, logger: logger}
}

// RecordSale snapshots the product's name and price onto a new sale, persists
// it, then decrements stock. Stock may go negative.
//
// The sale row is written first so a failed insert leaves stock untouched.
// If the decrement then fails the sale is deleted again.
func (l *Ledger) RecordSale(ctx context.Context, productID string, quantitySold int, saleDate string) (Sale, error) {
	if quantitySold <= 0 {
		return Sale{}, fmt.Errorf("quantity sold must be positive: %w", shared.ErrValidation)
	}
	if quantitySold > MaxQuantity {
		return Sale{}, fmt.Errorf("quantity sold is out of range: %w", shared.ErrValidation)
	}
	product, err := l.products.GetProduct(ctx, productID)
	if err != nil {
		return Sale{}, fmt.Errorf("record sale: %w", err)
	}
	if product.QuantityInStock-quantitySold < MinQuantity {
		return Sale{}, fmt.Errorf("record sale: stock would fall out of range: %w", shared.ErrValidation)
	}

	sale := Sale{
		ProductID:    product.ID,
		ProductName:  product.Name,
		UnitPrice:    product.Price,
		QuantitySold: quantitySold,
		SaleDate:     saleDate,
	}
	id, err := l.sales.InsertSale(ctx, sale)
	if err != nil {
		return Sale{}, fmt.Errorf("record sale: %w", err)
	}
	sale.ID = id

	if err := l.products.AdjustStock(ctx, product.ID, -quantitySold); err != nil {
		if delErr := l.sales.DeleteSale(ctx, id); delErr != nil {
			l.logger.Error("record sale: compensate insert",
				slog.String("sale_id", id),
				slog.String("product_id", product.ID),
				slog.Any("error", delErr))
		}
		return Sale{}, fmt.Errorf("record sale: adjust stock: %w", err)
	}

	l.logger.Info("sale recorded",
		slog.String("sale_id", id),
		slog.String("product_id", product.ID),
		slog.Int("quantity_sold", quantitySold))
	l.evaluate(ctx, product.ID)
	return sale, nil
}

// RemoveSale returns the sale's units to stock and deletes the sale. A sale
// whose product has since been deleted is still removed.
func (l *Ledger) RemoveSale(ctx context.Context, saleID string) error {
	sale, err := l.sales.GetSale(ctx, saleID)
	if err != nil {
		return fmt.Errorf("remove sale: %w", err)
	}

	restocked := true
	if err := l.products.AdjustStock(ctx, sale.ProductID, sale.QuantitySold); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("remove sale: adjust stock: %w", err)
		}
		restocked = false
		l.logger.Info("remove sale: product no longer exists, skipping restock",
			slog.String("sale_id", sale.ID),
			slog.String("product_id", sale.ProductID))
	}

	if err := l.sales.DeleteSale(ctx, sale.ID); err != nil {
		if restocked {
			if undoErr := l.products.AdjustStock(ctx, sale.ProductID, -sale.QuantitySold); undoErr != nil {
				l.logger.Error("remove sale: compensate restock",
					slog.String("sale_id", sale.ID),
					slog.String("product_id", sale.ProductID),
					slog.Any("error", undoErr))
			}
		}
		return fmt.Errorf("remove sale: %w", err)
	}

	l.logger.Info("sale removed", slog.String("sale_id", sale.ID), slog.Bool("restocked", restocked))
	l.evaluate(ctx, sale.ProductID)
	return nil
}

// GetSale returns one sale.
func (l *Ledger) GetSale(ctx context.Context, saleID string) (Sale, error) {
	return l.sales.GetSale(ctx, saleID)
}

// ListSales returns every recorded sale, oldest first.
func (l *Ledger) ListSales(ctx context.Context) ([]Sale, error) {
	return l.sales.ListSales(ctx)
}

func (l *Ledger) evaluate(ctx context.Context, productID string) {
	if l.alerts != nil {
		l.alerts.Evaluate(ctx, productID)
	}
}
