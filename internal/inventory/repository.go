package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stockroom-ims/stockroom/internal/platform/db"
	"github.com/stockroom-ims/stockroom/internal/shared"
)

// Repository stores products, sales and invoices in PostgreSQL. Each method
// is a single statement; nothing spans a transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var (
	_ ProductStore = (*Repository)(nil)
	_ SaleStore    = (*Repository)(nil)
	_ InvoiceStore = (*Repository)(nil)
)

const productColumns = `id::text, name, sku, category, quantity_in_stock, price::text, description`

func (r *Repository) GetProduct(ctx context.Context, id string) (Product, error) {
	if !validID(id) {
		return Product{}, fmt.Errorf("product %q: %w", id, shared.ErrNotFound)
	}
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, db.Classify("get product "+id, err)
	}
	return p, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, id`)
	if err != nil {
		return nil, db.Classify("list products", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, db.Classify("scan product", err)
		}
		products = append(products, p)
	}
	return products, db.Classify("list products", rows.Err())
}

func (r *Repository) InsertProduct(ctx context.Context, in ProductInput) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, sku, category, quantity_in_stock, price, description)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		RETURNING id::text`,
		in.Name, in.SKU, in.Category, in.QuantityInStock, in.Price.String(), in.Description,
	).Scan(&id)
	if err != nil {
		return "", db.Classify("insert product", err)
	}
	return id, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, id string, in ProductInput) error {
	if !validID(id) {
		return fmt.Errorf("product %q: %w", id, shared.ErrNotFound)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET name = $2, sku = $3, category = $4, quantity_in_stock = $5, price = $6::numeric, description = $7, updated_at = NOW()
		WHERE id = $1`,
		id, in.Name, in.SKU, in.Category, in.QuantityInStock, in.Price.String(), in.Description,
	)
	if err != nil {
		return db.Classify("update product "+id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) AdjustStock(ctx context.Context, id string, delta int) error {
	if !validID(id) {
		return fmt.Errorf("product %q: %w", id, shared.ErrNotFound)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET quantity_in_stock = quantity_in_stock + $2, updated_at = NOW()
		WHERE id = $1`, id, delta)
	if err != nil {
		return db.Classify("adjust stock "+id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "products", id)
}

const saleColumns = `id::text, product_id::text, product_name, unit_price::text, quantity_sold, sale_date`

func (r *Repository) GetSale(ctx context.Context, id string) (Sale, error) {
	if !validID(id) {
		return Sale{}, fmt.Errorf("sale %q: %w", id, shared.ErrNotFound)
	}
	row := r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	s, err := scanSale(row)
	if err != nil {
		return Sale{}, db.Classify("get sale "+id, err)
	}
	return s, nil
}

func (r *Repository) FindSales(ctx context.Context, ids []string) ([]Sale, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}
	return r.querySales(ctx, "find sales", `SELECT `+saleColumns+` FROM sales WHERE id = ANY($1::uuid[])`, valid)
}

func (r *Repository) ListSales(ctx context.Context) ([]Sale, error) {
	return r.querySales(ctx, "list sales", `SELECT `+saleColumns+` FROM sales ORDER BY created_at, id`)
}

func (r *Repository) InsertSale(ctx context.Context, sale Sale) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sales (product_id, product_name, unit_price, quantity_sold, sale_date)
		VALUES ($1::uuid, $2, $3::numeric, $4, $5)
		RETURNING id::text`,
		sale.ProductID, sale.ProductName, sale.UnitPrice.String(), sale.QuantitySold, sale.SaleDate,
	).Scan(&id)
	if err != nil {
		return "", db.Classify("insert sale", err)
	}
	return id, nil
}

func (r *Repository) DeleteSale(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "sales", id)
}

const invoiceColumns = `id::text, invoice_number, sale_ids::text[], total_amount::text, created_at`

func (r *Repository) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	if !validID(id) {
		return Invoice{}, fmt.Errorf("invoice %q: %w", id, shared.ErrNotFound)
	}
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return Invoice{}, db.Classify("get invoice "+id, err)
	}
	return inv, nil
}

func (r *Repository) ListInvoices(ctx context.Context) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, db.Classify("list invoices", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, db.Classify("scan invoice", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, db.Classify("list invoices", rows.Err())
}

func (r *Repository) InsertInvoice(ctx context.Context, inv Invoice) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (invoice_number, sale_ids, total_amount)
		VALUES ($1, $2::uuid[], $3::numeric)
		RETURNING id::text`,
		inv.InvoiceNumber, inv.SaleIDs, inv.TotalAmount.String(),
	).Scan(&id)
	if err != nil {
		return "", db.Classify("insert invoice", err)
	}
	return id, nil
}

func (r *Repository) DeleteInvoice(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "invoices", id)
}

// Ping reports whether the database answers.
func (r *Repository) Ping(ctx context.Context) error {
	return db.Classify("ping", r.pool.Ping(ctx))
}

func (r *Repository) querySales(ctx context.Context, op, query string, args ...any) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Classify(op, err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, db.Classify(op, err)
		}
		sales = append(sales, s)
	}
	return sales, db.Classify(op, rows.Err())
}

// deleteByID removes one row; table is always a package constant.
func (r *Repository) deleteByID(ctx context.Context, table, id string) error {
	if !validID(id) {
		return fmt.Errorf("%s %q: %w", table, id, shared.ErrNotFound)
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return db.Classify("delete from "+table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", table, id, shared.ErrNotFound)
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p     Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.QuantityInStock, &price, &p.Description); err != nil {
		return Product{}, err
	}
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("product %s price: %w", p.ID, err)
	}
	p.Price = amount
	return p, nil
}

func scanSale(row pgx.Row) (Sale, error) {
	var (
		s     Sale
		price string
	)
	if err := row.Scan(&s.ID, &s.ProductID, &s.ProductName, &price, &s.QuantitySold, &s.SaleDate); err != nil {
		return Sale{}, err
	}
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return Sale{}, fmt.Errorf("sale %s price: %w", s.ID, err)
	}
	s.UnitPrice = amount
	return s, nil
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var (
		inv       Invoice
		total     string
		createdAt time.Time
	)
	if err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.SaleIDs, &total, &createdAt); err != nil {
		return Invoice{}, err
	}
	amount, err := decimal.NewFromString(total)
	if err != nil {
		return Invoice{}, fmt.Errorf("invoice %s total: %w", inv.ID, err)
	}
	inv.TotalAmount = amount
	inv.CreatedAt = createdAt
	return inv, nil
}

// validID reports whether id can name a row. Malformed ids cannot resolve,
// so callers short-circuit to ErrNotFound without a round trip.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
