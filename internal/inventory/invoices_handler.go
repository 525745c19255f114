package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom-ims/stockroom/internal/platform/httpx"
	"github.com/stockroom-ims/stockroom/internal/shared"
)

type invoiceFormData struct {
	Sales    []Sale
	Form     invoiceForm
	Selected map[string]bool
	Errors   formErrors
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.invoicer.ListInvoices(r.Context())
	if err != nil {
		h.fail(w, r, "list invoices", err)
		return
	}
	h.render(w, r, "pages/invoices.html", "Invoices", invoices, http.StatusOK)
}

func (h *Handler) showInvoiceForm(w http.ResponseWriter, r *http.Request) {
	h.renderInvoiceForm(w, r, invoiceForm{}, formErrors{}, http.StatusOK)
}

func (h *Handler) renderInvoiceForm(w http.ResponseWriter, r *http.Request, form invoiceForm, errs formErrors, status int) {
	sales, err := h.ledger.ListSales(r.Context())
	if err != nil {
		h.fail(w, r, "list sales", err)
		return
	}
	selected := make(map[string]bool, len(form.SaleIDs))
	for _, id := range form.SaleIDs {
		selected[id] = true
	}
	h.render(w, r, "pages/invoice_form.html", "New invoice", invoiceFormData{
		Sales:    sales,
		Form:     form,
		Selected: selected,
		Errors:   errs,
	}, status)
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := parseInvoiceForm(r.PostForm)
	if errs := form.validate(h.validate); len(errs) > 0 {
		h.renderInvoiceForm(w, r, form, errs, http.StatusBadRequest)
		return
	}
	inv, err := h.invoicer.CreateInvoice(r.Context(), form.InvoiceNumber, form.SaleIDs)
	if err != nil {
		h.logger.Warn("create invoice", slog.Any("error", err), slog.String("invoice_number", form.InvoiceNumber))
		h.renderInvoiceForm(w, r, form, formErrors{"general": shared.UserSafeMessage(err)}, httpx.StatusFor(err))
		return
	}
	h.redirectWithFlash(w, r, "/invoices/"+inv.ID, "success", "Invoice "+inv.InvoiceNumber+" created")
}

func (h *Handler) showInvoice(w http.ResponseWriter, r *http.Request) {
	detail, err := h.invoicer.GetInvoiceDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "load invoice", err)
		return
	}
	h.render(w, r, "pages/invoice_detail.html", "Invoice "+detail.Invoice.InvoiceNumber, detail, http.StatusOK)
}

// exportInvoice answers with a JSON document, so failures are reported as
// problem documents rather than HTML pages.
func (h *Handler) exportInvoice(w http.ResponseWriter, r *http.Request) {
	body, filename, err := h.invoicer.ExportInvoiceJSON(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Warn("export invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Attachment(w, "application/json", filename, body)
}

func (h *Handler) confirmDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoicer.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "load invoice", err)
		return
	}
	h.render(w, r, "pages/confirm_delete.html", "Delete invoice", confirmData{
		Kind:   "invoice",
		Label:  inv.InvoiceNumber,
		Action: "/invoices/" + inv.ID + "/delete",
		Cancel: "/invoices/" + inv.ID,
		Note:   "The sales on this invoice are kept.",
	}, http.StatusOK)
}

func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.invoicer.DeleteInvoice(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete invoice", err)
		return
	}
	h.redirectWithFlash(w, r, "/invoices", "success", "Invoice deleted")
}
