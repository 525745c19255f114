package inventory

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom-ims/stockroom/internal/platform/httpx"
	"github.com/stockroom-ims/stockroom/internal/shared"
)

type productListData struct {
	Products  []Product
	Threshold int
}

type productFormData struct {
	ProductID string
	Action    string
	Form      productForm
	Errors    formErrors
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		h.fail(w, r, "list products", err)
		return
	}
	h.render(w, r, "pages/products.html", "Products", productListData{Products: products, Threshold: h.threshold}, http.StatusOK)
}

func (h *Handler) showProductForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/product_form.html", "New product", productFormData{
		Action: "/products",
		Form:   productForm{QuantityInStock: "0", Price: "0.00"},
		Errors: formErrors{},
	}, http.StatusOK)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := parseProductForm(r.PostForm)
	data := productFormData{Action: "/products", Form: form}
	in, errs := form.input(h.validate)
	if len(errs) > 0 {
		data.Errors = errs
		h.render(w, r, "pages/product_form.html", "New product", data, http.StatusBadRequest)
		return
	}
	product, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		h.logger.Error("create product", slog.Any("error", err))
		data.Errors = formErrors{"general": shared.UserSafeMessage(err)}
		h.render(w, r, "pages/product_form.html", "New product", data, httpx.StatusFor(err))
		return
	}
	h.redirectWithFlash(w, r, "/products", "success", "Product "+product.Name+" created")
}

func (h *Handler) showEditProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "load product", err)
		return
	}
	h.render(w, r, "pages/product_form.html", "Edit "+product.Name, productFormData{
		ProductID: product.ID,
		Action:    "/products/" + product.ID,
		Form:      productFormFrom(product),
		Errors:    formErrors{},
	}, http.StatusOK)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	form := parseProductForm(r.PostForm)
	data := productFormData{ProductID: id, Action: "/products/" + id, Form: form}
	in, errs := form.input(h.validate)
	if len(errs) > 0 {
		data.Errors = errs
		h.render(w, r, "pages/product_form.html", "Edit product", data, http.StatusBadRequest)
		return
	}
	product, err := h.catalog.Update(r.Context(), id, in)
	if errors.Is(err, shared.ErrNotFound) {
		h.fail(w, r, "update product", err)
		return
	}
	if err != nil {
		h.logger.Error("update product", slog.Any("error", err), slog.String("id", id))
		data.Errors = formErrors{"general": shared.UserSafeMessage(err)}
		h.render(w, r, "pages/product_form.html", "Edit product", data, httpx.StatusFor(err))
		return
	}
	h.redirectWithFlash(w, r, "/products", "success", "Product "+product.Name+" updated")
}

func (h *Handler) confirmDeleteProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "load product", err)
		return
	}
	h.render(w, r, "pages/confirm_delete.html", "Delete product", confirmData{
		Kind:   "product",
		Label:  product.Name,
		Action: "/products/" + product.ID + "/delete",
		Cancel: "/products",
		Note:   "Sales already recorded for this product are kept.",
	}, http.StatusOK)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete product", err)
		return
	}
	h.redirectWithFlash(w, r, "/products", "success", "Product deleted")
}
