package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/stockroom-ims/stockroom/internal/platform/httpx"
	"github.com/stockroom-ims/stockroom/internal/shared"
)

type salesPageData struct {
	Sales    []Sale
	Products []Product
	Form     saleForm
	Errors   formErrors
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	h.renderSales(w, r, saleForm{}, formErrors{}, http.StatusOK)
}

func (h *Handler) renderSales(w http.ResponseWriter, r *http.Request, form saleForm, errs formErrors, status int) {
	data := salesPageData{Form: form, Errors: errs}
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		data.Sales, err = h.ledger.ListSales(ctx)
		return err
	})
	g.Go(func() (err error) {
		data.Products, err = h.catalog.List(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, "list sales", err)
		return
	}
	h.render(w, r, "pages/sales.html", "Sales", data, status)
}

func (h *Handler) recordSale(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := parseSaleForm(r.PostForm)
	qty, errs := form.quantity(h.validate)
	if len(errs) > 0 {
		h.renderSales(w, r, form, errs, http.StatusBadRequest)
		return
	}
	sale, err := h.ledger.RecordSale(r.Context(), form.ProductID, qty, form.SaleDate)
	if err != nil {
		h.logger.Warn("record sale", slog.Any("error", err), slog.String("product_id", form.ProductID))
		h.renderSales(w, r, form, formErrors{"general": shared.UserSafeMessage(err)}, httpx.StatusFor(err))
		return
	}
	h.redirectWithFlash(w, r, "/sales", "success", "Sold "+strconv.Itoa(sale.QuantitySold)+" x "+sale.ProductName)
}

func (h *Handler) confirmDeleteSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.ledger.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "load sale", err)
		return
	}
	h.render(w, r, "pages/confirm_delete.html", "Delete sale", confirmData{
		Kind:   "sale",
		Label:  strconv.Itoa(sale.QuantitySold) + " x " + sale.ProductName,
		Action: "/sales/" + sale.ID + "/delete",
		Cancel: "/sales",
		Note:   "The sold units are returned to stock.",
	}, http.StatusOK)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.RemoveSale(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete sale", err)
		return
	}
	h.redirectWithFlash(w, r, "/sales", "success", "Sale deleted and stock restored")
}
