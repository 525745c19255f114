package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stockroom-ims/stockroom/internal/shared"
)

// Catalog manages product records. Direct edits to quantity_in_stock run the
// stock alert just like sales do.
type Catalog struct {
	products ProductStore
	alerts   StockEvaluator
	logger   *slog.Logger
}

// NewCatalog constructs Catalog. alerts may be nil.
func NewCatalog(products ProductStore, alerts StockEvaluator, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{products: products, alerts: alerts, logger: logger}
}

// Create adds a product.
func (c *Catalog) Create(ctx context.Context, in ProductInput) (Product, error) {
	in = normalizeProduct(in)
	if err := validateProduct(in); err != nil {
		return Product{}, err
	}
	id, err := c.products.InsertProduct(ctx, in)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	c.logger.Info("product created", slog.String("product_id", id), slog.String("sku", in.SKU))
	c.evaluate(ctx, id)
	return productFromInput(id, in), nil
}

// Update replaces every editable field of product id.
func (c *Catalog) Update(ctx context.Context, id string, in ProductInput) (Product, error) {
	in = normalizeProduct(in)
	if err := validateProduct(in); err != nil {
		return Product{}, err
	}
	if err := c.products.UpdateProduct(ctx, id, in); err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	c.logger.Info("product updated", slog.String("product_id", id))
	c.evaluate(ctx, id)
	return productFromInput(id, in), nil
}

// Delete removes a product. Sales referencing it are left in place.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if err := c.products.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	c.logger.Info("product deleted", slog.String("product_id", id))
	return nil
}

// Get returns one product.
func (c *Catalog) Get(ctx context.Context, id string) (Product, error) {
	return c.products.GetProduct(ctx, id)
}

// List returns all products ordered by name.
func (c *Catalog) List(ctx context.Context) ([]Product, error) {
	return c.products.ListProducts(ctx)
}

func (c *Catalog) evaluate(ctx context.Context, id string) {
	if c.alerts != nil {
		c.alerts.Evaluate(ctx, id)
	}
}

func normalizeProduct(in ProductInput) ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	in.Price = in.Price.Round(PriceScale)
	return in
}

func validateProduct(in ProductInput) error {
	if in.Name == "" {
		return fmt.Errorf("product name is required: %w", shared.ErrValidation)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("product price must not be negative: %w", shared.ErrValidation)
	}
	if in.Price.GreaterThanOrEqual(MaxPrice) {
		return fmt.Errorf("product price must be below %s: %w", MaxPrice, shared.ErrValidation)
	}
	if in.QuantityInStock < MinQuantity || in.QuantityInStock > MaxQuantity {
		return fmt.Errorf("quantity in stock is out of range: %w", shared.ErrValidation)
	}
	return nil
}

func productFromInput(id string, in ProductInput) Product {
	return Product{
		ID:              id,
		Name:            in.Name,
		SKU:             in.SKU,
		Category:        in.Category,
		QuantityInStock: in.QuantityInStock,
		Price:           in.Price,
		Description:     in.Description,
	}
}
