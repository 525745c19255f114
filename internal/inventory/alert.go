package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stockroom-ims/stockroom/internal/shared"
)

// DefaultAlertThreshold is the stock level at or below which an alert is sent.
const DefaultAlertThreshold = 2

const lowStockSubject = "Low Stock Alert"

// Notifier delivers an alert message out of band.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// AlertObserver counts alert outcomes.
type AlertObserver interface {
	ObserveStockAlert(outcome string)
}

// Alert outcomes reported to the AlertObserver.
const (
	AlertSent    = "sent"
	AlertFailed  = "failed"
	AlertSkipped = "skipped"
)

// StockAlert sends a low-stock notification when a product's stock is at
// or below the threshold. It never returns an error: alerts are advisory.
type StockAlert struct {
	products  ProductReader
	notifier  Notifier
	threshold int
	logger    *slog.Logger
	observer  AlertObserver
}

// NewStockAlert constructs StockAlert. observer may be nil.
func NewStockAlert(products ProductReader, notifier Notifier, threshold int, logger *slog.Logger, observer AlertObserver) *StockAlert {
	if logger == nil {
		logger = slog.Default()
	}
	return &StockAlert{products: products, notifier: notifier, threshold: threshold, logger: logger, observer: observer}
}

// Evaluate checks productID and notifies when its stock is low.
func (a *StockAlert) Evaluate(ctx context.Context, productID string) {
	product, err := a.products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			a.logger.Info("stock alert: product not found", slog.String("product_id", productID))
		} else {
			a.logger.Warn("stock alert: load product", slog.String("product_id", productID), slog.Any("error", err))
		}
		a.observe(AlertSkipped)
		return
	}

	if product.QuantityInStock > a.threshold {
		a.logger.Debug("stock level sufficient",
			slog.String("product_id", product.ID),
			slog.Int("quantity_in_stock", product.QuantityInStock))
		a.observe(AlertSkipped)
		return
	}

	if a.notifier == nil {
		a.logger.Warn("stock alert: no notifier configured", slog.String("product_id", product.ID))
		a.observe(AlertSkipped)
		return
	}

	body := fmt.Sprintf("The stock level for product %s is low. Current stock: %d", product.Name, product.QuantityInStock)
	if err := a.notifier.Send(ctx, lowStockSubject, body); err != nil {
		a.logger.Error("stock alert: send notification",
			slog.String("product_id", product.ID),
			slog.Any("error", err))
		a.observe(AlertFailed)
		return
	}
	a.logger.Info("stock alert sent",
		slog.String("product_id", product.ID),
		slog.Int("quantity_in_stock", product.QuantityInStock))
	a.observe(AlertSent)
}

func (a *StockAlert) observe(outcome string) {
	if a.observer != nil {
		a.observer.ObserveStockAlert(outcome)
	}
}
