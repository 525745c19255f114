package inventory

import (
	"errors"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type formErrors map[string]string

type productForm struct {
	Name            string `form:"name" validate:"required,max=200"`
	SKU             string `form:"sku" validate:"max=64"`
	Category        string `form:"category" validate:"max=100"`
	QuantityInStock string `form:"quantity_in_stock" validate:"required"`
	Price           string `form:"price" validate:"required"`
	Description     string `form:"description" validate:"max=2000"`
}

type saleForm struct {
	ProductID    string `form:"product_id" validate:"required,uuid"`
	QuantitySold string `form:"quantity_sold" validate:"required"`
	SaleDate     string `form:"sale_date" validate:"max=64"`
}

type invoiceForm struct {
	InvoiceNumber string   `form:"invoice_number" validate:"required,max=64"`
	SaleIDs       []string `form:"sale_ids" validate:"required,min=1,dive,uuid"`
}

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationErrors flattens validator output into field messages keyed by
// form field name.
func validationErrors(err error) formErrors {
	out := formErrors{}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		if err != nil {
			out["general"] = err.Error()
		}
		return out
	}
	for _, fe := range fieldErrs {
		field := fe.Field()
		if i := strings.IndexByte(field, '['); i >= 0 {
			field = field[:i]
		}
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		return "This field is required."
	case "max":
		return "Must be at most " + fe.Param() + " characters."
	case "uuid":
		return "Unknown selection."
	default:
		return "Invalid value."
	}
}

func parseProductForm(values url.Values) productForm {
	return productForm{
		Name:            strings.TrimSpace(values.Get("name")),
		SKU:             strings.TrimSpace(values.Get("sku")),
		Category:        strings.TrimSpace(values.Get("category")),
		QuantityInStock: strings.TrimSpace(values.Get("quantity_in_stock")),
		Price:           strings.TrimSpace(values.Get("price")),
		Description:     strings.TrimSpace(values.Get("description")),
	}
}

func productFormFrom(p Product) productForm {
	return productForm{
		Name:            p.Name,
		SKU:             p.SKU,
		Category:        p.Category,
		QuantityInStock: strconv.Itoa(p.QuantityInStock),
		Price:           p.Price.StringFixed(2),
		Description:     p.Description,
	}
}

// input validates the form and converts it. Errors are keyed by field.
func (f productForm) input(v *validator.Validate) (ProductInput, formErrors) {
	errs := validationErrors(v.Struct(f))
	in := ProductInput{Name: f.Name, SKU: f.SKU, Category: f.Category, Description: f.Description}
	if _, bad := errs["quantity_in_stock"]; !bad {
		qty, err := strconv.ParseInt(f.QuantityInStock, 10, 32)
		switch {
		case errors.Is(err, strconv.ErrRange):
			errs["quantity_in_stock"] = "Enter a smaller number."
		case err != nil:
			errs["quantity_in_stock"] = "Enter a whole number."
		}
		in.QuantityInStock = int(qty)
	}
	if _, bad := errs["price"]; !bad {
		price, err := decimal.NewFromString(f.Price)
		switch {
		case err != nil:
			errs["price"] = "Enter a number."
		case price.IsNegative():
			errs["price"] = "Price must not be negative."
		case price.GreaterThanOrEqual(MaxPrice):
			errs["price"] = "Price must be below " + MaxPrice.StringFixed(0) + "."
		}
		in.Price = price
	}
	return in, errs
}

func parseSaleForm(values url.Values) saleForm {
	return saleForm{
		ProductID:    strings.TrimSpace(values.Get("product_id")),
		QuantitySold: strings.TrimSpace(values.Get("quantity_sold")),
		SaleDate:     strings.TrimSpace(values.Get("sale_date")),
	}
}

func (f saleForm) quantity(v *validator.Validate) (int, formErrors) {
	errs := validationErrors(v.Struct(f))
	if _, bad := errs["quantity_sold"]; bad {
		return 0, errs
	}
	qty, err := strconv.ParseInt(f.QuantitySold, 10, 32)
	switch {
	case errors.Is(err, strconv.ErrRange) && qty > 0:
		errs["quantity_sold"] = "Enter a smaller number."
	case err != nil || qty <= 0:
		errs["quantity_sold"] = "Enter a positive whole number."
	}
	return int(qty), errs
}

func parseInvoiceForm(values url.Values) invoiceForm {
	return invoiceForm{
		InvoiceNumber: strings.TrimSpace(values.Get("invoice_number")),
		SaleIDs:       uniqueIDs(values["sale_ids"]),
	}
}

func (f invoiceForm) validate(v *validator.Validate) formErrors {
	return validationErrors(v.Struct(f))
}
