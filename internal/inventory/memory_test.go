package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockroom-ims/stockroom/internal/shared"
)

// memoryStore implements every store port in memory. The mutex stands in for
// the row-level atomicity of the SQL adjustment.
type memoryStore struct {
	mu       sync.Mutex
	products map[string]Product
	sales    map[string]Sale
	invoices map[string]Invoice
	order    []string

	// error injection
	insertSaleErr error
	adjustErr     error
	deleteSaleErr error
	insertInvErr  error
	writes        int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		products: make(map[string]Product),
		sales:    make(map[string]Sale),
		invoices: make(map[string]Invoice),
	}
}

func (m *memoryStore) seedProduct(name string, qty int, price string) Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := Product{ID: uuid.NewString(), Name: name, QuantityInStock: qty, Price: decimal.RequireFromString(price)}
	m.products[p.ID] = p
	return p
}

func (m *memoryStore) stock(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].QuantityInStock
}

func (m *memoryStore) setPrice(id, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.products[id]
	p.Price = decimal.RequireFromString(price)
	m.products[id] = p
}

func (m *memoryStore) removeProduct(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
}

func (m *memoryStore) saleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sales)
}

func (m *memoryStore) GetProduct(_ context.Context, id string) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, fmt.Errorf("product %s: %w", id, shared.ErrNotFound)
	}
	return p, nil
}

func (m *memoryStore) ListProducts(context.Context) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) InsertProduct(_ context.Context, in ProductInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	id := uuid.NewString()
	m.products[id] = productFromInput(id, in)
	return id, nil
}

func (m *memoryStore) UpdateProduct(_ context.Context, id string, in ProductInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, shared.ErrNotFound)
	}
	m.writes++
	m.products[id] = productFromInput(id, in)
	return nil
}

func (m *memoryStore) AdjustStock(_ context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.adjustErr != nil {
		return m.adjustErr
	}
	p, ok := m.products[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, shared.ErrNotFound)
	}
	m.writes++
	p.QuantityInStock += delta
	m.products[id] = p
	return nil
}

func (m *memoryStore) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, shared.ErrNotFound)
	}
	m.writes++
	delete(m.products, id)
	return nil
}

func (m *memoryStore) GetSale(_ context.Context, id string) (Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[id]
	if !ok {
		return Sale{}, fmt.Errorf("sale %s: %w", id, shared.ErrNotFound)
	}
	return s, nil
}

func (m *memoryStore) FindSales(_ context.Context, ids []string) ([]Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Sale
	for _, id := range ids {
		if s, ok := m.sales[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryStore) ListSales(context.Context) ([]Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sale, 0, len(m.order))
	for _, id := range m.order {
		if s, ok := m.sales[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryStore) InsertSale(_ context.Context, sale Sale) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertSaleErr != nil {
		return "", m.insertSaleErr
	}
	m.writes++
	sale.ID = uuid.NewString()
	m.sales[sale.ID] = sale
	m.order = append(m.order, sale.ID)
	return sale.ID, nil
}

func (m *memoryStore) DeleteSale(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteSaleErr != nil {
		return m.deleteSaleErr
	}
	if _, ok := m.sales[id]; !ok {
		return fmt.Errorf("sale %s: %w", id, shared.ErrNotFound)
	}
	m.writes++
	delete(m.sales, id)
	return nil
}

func (m *memoryStore) GetInvoice(_ context.Context, id string) (Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return Invoice{}, fmt.Errorf("invoice %s: %w", id, shared.ErrNotFound)
	}
	return inv, nil
}

func (m *memoryStore) ListInvoices(context.Context) ([]Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceNumber < out[j].InvoiceNumber })
	return out, nil
}

func (m *memoryStore) InsertInvoice(_ context.Context, inv Invoice) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertInvErr != nil {
		return "", m.insertInvErr
	}
	m.writes++
	inv.ID = uuid.NewString()
	m.invoices[inv.ID] = inv
	return inv.ID, nil
}

func (m *memoryStore) DeleteInvoice(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[id]; !ok {
		return fmt.Errorf("invoice %s: %w", id, shared.ErrNotFound)
	}
	m.writes++
	delete(m.invoices, id)
	return nil
}

func (m *memoryStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// recordingEvaluator collects product ids passed to Evaluate.
type recordingEvaluator struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingEvaluator) Evaluate(_ context.Context, productID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, productID)
}

func (r *recordingEvaluator) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}
