package inventory

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/stockroom-ims/stockroom/internal/platform/httpx"
	"github.com/stockroom-ims/stockroom/internal/shared"
	"github.com/stockroom-ims/stockroom/internal/view"
)

const recentSalesOnDashboard = 5

// Handler serves the inventory pages.
type Handler struct {
	logger    *slog.Logger
	catalog   *Catalog
	ledger    *Ledger
	invoicer  *Invoicer
	templates *view.Engine
	csrf      *shared.CSRFManager
	validate  *validator.Validate
	threshold int
}

// NewHandler builds Handler instance. threshold only drives low-stock
// highlighting; alerts are sent by the services.
func NewHandler(logger *slog.Logger, catalog *Catalog, ledger *Ledger, invoicer *Invoicer, templates *view.Engine, csrf *shared.CSRFManager, threshold int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		catalog:   catalog,
		ledger:    ledger,
		invoicer:  invoicer,
		templates: templates,
		csrf:      csrf,
		validate:  newFormValidator(),
		threshold: threshold,
	}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showDashboard)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/new", h.showProductForm)
		r.Get("/{id}", h.showEditProduct)
		r.Post("/{id}", h.updateProduct)
		r.Get("/{id}/delete", h.confirmDeleteProduct)
		r.Post("/{id}/delete", h.deleteProduct)
	})

	r.Route("/sales", func(r chi.Router) {
		r.Get("/", h.listSales)
		r.Post("/", h.recordSale)
		r.Get("/{id}/delete", h.confirmDeleteSale)
		r.Post("/{id}/delete", h.deleteSale)
	})

	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.listInvoices)
		r.Post("/", h.createInvoice)
		r.Get("/new", h.showInvoiceForm)
		r.Get("/{id}", h.showInvoice)
		r.Get("/{id}/export", h.exportInvoice)
		r.Get("/{id}/delete", h.confirmDeleteInvoice)
		r.Post("/{id}/delete", h.deleteInvoice)
	})
}

type dashboardData struct {
	ProductCount int
	SaleCount    int
	InvoiceCount int
	StockValue   decimal.Decimal
	LowStock     []Product
	RecentSales  []Sale
	Threshold    int
}

func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	var (
		products []Product
		sales    []Sale
		invoices []Invoice
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		products, err = h.catalog.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		sales, err = h.ledger.ListSales(ctx)
		return err
	})
	g.Go(func() (err error) {
		invoices, err = h.invoicer.ListInvoices(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, "load dashboard", err)
		return
	}

	data := dashboardData{
		ProductCount: len(products),
		SaleCount:    len(sales),
		InvoiceCount: len(invoices),
		StockValue:   decimal.Zero,
		Threshold:    h.threshold,
	}
	for _, p := range products {
		if p.QuantityInStock > 0 {
			data.StockValue = data.StockValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.QuantityInStock))))
		}
		if p.QuantityInStock <= h.threshold {
			data.LowStock = append(data.LowStock, p)
		}
	}
	if n := len(sales); n > recentSalesOnDashboard {
		sales = sales[n-recentSalesOnDashboard:]
	}
	for i := len(sales) - 1; i >= 0; i-- {
		data.RecentSales = append(data.RecentSales, sales[i])
	}
	h.render(w, r, "pages/home.html", "Dashboard", data, http.StatusOK)
}

type confirmData struct {
	Kind   string
	Label  string
	Action string
	Cancel string
	Note   string
}

type errorData struct {
	Status  int
	Heading string
	Message string
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	var (
		csrfToken string
		flashes   []shared.FlashMessage
	)
	if sess != nil {
		csrfToken, _ = h.csrf.EnsureToken(sess)
		flashes = sess.PopFlashes()
	}
	viewData := view.TemplateData{Title: title, CSRFToken: csrfToken, Flashes: flashes, CurrentPath: r.URL.Path, Data: data}
	if err := h.templates.Render(w, status, template, viewData); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// fail logs err and renders the error page with the status it maps to.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := httpx.StatusFor(err)
	attrs := []any{slog.String("op", op), slog.String("path", r.URL.Path), slog.Any("error", err)}
	if status >= http.StatusInternalServerError {
		h.logger.Error(op, attrs...)
	} else {
		h.logger.Info(op, attrs...)
	}
	heading := http.StatusText(status)
	if errors.Is(err, shared.ErrNotFound) {
		heading = "Not found"
	}
	h.render(w, r, "pages/error.html", heading, errorData{
		Status:  status,
		Heading: heading,
		Message: shared.UserSafeMessage(err),
	}, status)
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
