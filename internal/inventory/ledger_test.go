package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-ims/stockroom/internal/shared"
)

func newTestLedger(store *memoryStore, alerts StockEvaluator) *Ledger {
	return NewLedger(store, store, alerts, nil)
}

func TestRecordSaleSnapshotsProductAndDecrementsStock(t *testing.T) {
	store := newMemoryStore()
	widget := store.seedProduct("Widget", 5, "10.00")
	alerts := &recordingEvaluator{}
	ledger := newTestLedger(store, alerts)

	sale, err := ledger.RecordSale(context.Background(), widget.ID, 3, "2024-05-01")
	require.NoError(t, err)
	require.NotEmpty(t, sale.ID)
	require.Equal(t, "Widget", sale.ProductName)
	require.Equal(t, "10", sale.UnitPrice.String())
	require.Equal(t, "2024-05-01", sale.SaleDate)
	require.Equal(t, 2, store.stock(widget.ID))
	require.Equal(t, []string{widget.ID}, alerts.calls())

	// The snapshot does not follow later price edits.
	store.setPrice(widget.ID, "12.50")
	stored, err := ledger.GetSale(context.Background(), sale.ID)
	require.NoError(t, err)
	require.Equal(t, "30", stored.SnapshotAmount().String())
}

func TestRecordThenRemoveRestoresStock(t *testing.T) {
	for _, qty := range []int{1, 4, 7, 100} {
		store := newMemoryStore()
		p := store.seedProduct("Bolt", 7, "0.25")
		ledger := newTestLedger(store, nil)
		ctx := context.Background()

		sale, err := ledger.RecordSale(ctx, p.ID, qty, "")
		require.NoError(t, err)
		require.Equal(t, 7-qty, store.stock(p.ID))

		require.NoError(t, ledger.RemoveSale(ctx, sale.ID))
		require.Equal(t, 7, store.stock(p.ID), "qty=%d", qty)
		require.Zero(t, store.saleCount())
	}
}

func TestRecordSaleAllowsNegativeStock(t *testing.T) {
	store := newMemoryStore()
	p := store.seedProduct("Gadget", 1, "4.00")
	ledger := newTestLedger(store, nil)

	_, err := ledger.RecordSale(context.Background(), p.ID, 3, "")
	require.NoError(t, err)
	require.Equal(t, -2, store.stock(p.ID))
}

func TestConcurrentSalesCommute(t *testing.T) {
	store := newMemoryStore()
	p := store.seedProduct("Nut", 100, "0.10")
	ledger := newTestLedger(store, nil)
	quantities := []int{5, 1, 9, 3, 12, 7, 2, 8}

	var wg sync.WaitGroup
	for _, q := range quantities {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			_, err := ledger.RecordSale(context.Background(), p.ID, q, "")
			assert.NoError(t, err)
		}(q)
	}
	wg.Wait()

	sum := 0
	for _, q := range quantities {
		sum += q
	}
	require.Equal(t, 100-sum, store.stock(p.ID))
	require.Equal(t, len(quantities), store.saleCount())
}

func TestRecordSaleUnknownProductWritesNothing(t *testing.T) {
	store := newMemoryStore()
	ledger := newTestLedger(store, &recordingEvaluator{})

	_, err := ledger.RecordSale(context.Background(), "missing", 1, "")
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Zero(t, store.writeCount())
}

func TestRecordSaleRejectsNonPositiveQuantity(t *testing.T) {
	store := newMemoryStore()
	p := store.seedProduct("Widget", 5, "10")
	ledger := newTestLedger(store, nil)

	for _, qty := range []int{0, -1} {
		_, err := ledger.RecordSale(context.Background(), p.ID, qty, "")
		require.ErrorIs(t, err, shared.ErrValidation)
	}
	require.Equal(t, 5, store.stock(p.ID))
	require.Zero(t, store.writeCount())
}

func TestRecordSaleRejectsOutOfRangeQuantities(t *testing.T) {
	store := newMemoryStore()
	p := store.seedProduct("Widget", 5, "10")
	low := store.seedProduct("Backorder", MinQuantity+1, "10")
	ledger := newTestLedger(store, nil)
	ctx := context.Background()

	_, err := ledger.RecordSale(ctx, p.ID, MaxQuantity+1, "")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = ledger.RecordSale(ctx, low.ID, 2, "")
	require.ErrorIs(t, err, shared.ErrValidation)

	require.Equal(t, 5, store.stock(p.ID))
	require.Equal(t, MinQuantity+1, store.stock(low.ID))
	require.Zero(t, store.saleCount())
}

func TestRecordSaleInsertFailureLeavesStock(t *testing.T) {
	store := newMemoryStore()
	p := store.seedProduct("Widget", 5, "10")
	store.insertSaleErr = errors.Join(shared.ErrDependency, errors.New("connection reset"))
	ledger := newTestLedger(store, nil)

	_, err := ledger.RecordSale(context.Background(), p.ID, 2, "")
	require.ErrorIs(t, err, shared.ErrDependency)
	require.Equal(t, 5, store.stock(p.ID))
}

func TestRecordSaleAdjustFailureRemovesSale(t *testing.T) {
	store := newMemoryStore()
	p := store.seedProduct("Widget", 5, "10")
	store.adjustErr = errors.Join(shared.ErrDependency, errors.New("timeout"))
	alerts := &recordingEvaluator{}
	ledger := newTestLedger(store, alerts)

	_, err := ledger.RecordSale(context.Background(), p.ID, 2, "")
	require.ErrorIs(t, err, shared.ErrDependency)
	require.Zero(t, store.saleCount())
	require.Empty(t, alerts.calls())
}

func TestRemoveSaleUnknownID(t *testing.T) {
	store := newMemoryStore()
	ledger := newTestLedger(store, nil)

	err := ledger.RemoveSale(context.Background(), "nope")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRemoveSaleOfDeletedProductStillDeletes(t *testing.T) {
	store := newMemoryStore()
	p := store.seedProduct("Widget", 5, "10")
	alerts := &recordingEvaluator{}
	ledger := newTestLedger(store, alerts)
	ctx := context.Background()

	sale, err := ledger.RecordSale(ctx, p.ID, 1, "")
	require.NoError(t, err)
	store.removeProduct(p.ID)

	require.NoError(t, ledger.RemoveSale(ctx, sale.ID))
	require.Zero(t, store.saleCount())
	require.Equal(t, []string{p.ID, p.ID}, alerts.calls())
}

func TestRemoveSaleKeepsSaleWhenRestockFails(t *testing.T) {
	store := newMemoryStore()
	p := store.seedProduct("Widget", 5, "10")
	ledger := newTestLedger(store, nil)
	ctx := context.Background()

	sale, err := ledger.RecordSale(ctx, p.ID, 2, "")
	require.NoError(t, err)

	store.adjustErr = errors.Join(shared.ErrDependency, errors.New("down"))
	require.ErrorIs(t, ledger.RemoveSale(ctx, sale.ID), shared.ErrDependency)
	require.Equal(t, 1, store.saleCount())
}

func TestRemoveSaleDeleteFailureUndoesRestock(t *testing.T) {
	store := newMemoryStore()
	p := store.seedProduct("Widget", 5, "10")
	ledger := newTestLedger(store, nil)
	ctx := context.Background()

	sale, err := ledger.RecordSale(ctx, p.ID, 2, "")
	require.NoError(t, err)
	require.Equal(t, 3, store.stock(p.ID))

	store.deleteSaleErr = errors.Join(shared.ErrDependency, errors.New("down"))
	require.ErrorIs(t, ledger.RemoveSale(ctx, sale.ID), shared.ErrDependency)
	require.Equal(t, 3, store.stock(p.ID))
}
