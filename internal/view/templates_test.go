package view

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-ims/stockroom/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
	for _, page := range []string{
		"pages/home.html",
		"pages/products.html",
		"pages/product_form.html",
		"pages/sales.html",
		"pages/invoices.html",
		"pages/invoice_form.html",
		"pages/invoice_detail.html",
		"pages/confirm_delete.html",
		"pages/error.html",
	} {
		assert.Contains(t, engine.pages, page)
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "30.00", FormatMoney(decimal.NewFromInt(30)))
	assert.Equal(t, "1,234.57", FormatMoney(decimal.RequireFromString("1234.567")))
	assert.Equal(t, "-0.50", FormatMoney(decimal.RequireFromString("-0.5")))
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"templates/layouts/base.html":   {Data: []byte(`{{define "base"}}<title>{{.Title}}</title>{{template "flash" .}}{{template "content" .}}{{end}}`)},
		"templates/partials/flash.html": {Data: []byte(`{{define "flash"}}{{range .Flashes}}<p class="{{.Kind}}">{{.Message}}</p>{{end}}{{end}}`)},
		"templates/pages/a.html":        {Data: []byte(`{{define "content"}}A {{.Data}}{{end}}`)},
		"templates/pages/b.html":        {Data: []byte(`{{define "content"}}B {{.Data.Missing.Field}}{{end}}`)},
	}
}

func TestRenderKeepsPagesSeparate(t *testing.T) {
	engine, err := NewEngineFS(testFS())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, http.StatusCreated, "pages/a.html", TemplateData{
		Title: "T",
		Flashes: []shared.FlashMessage{
			{Kind: "success", Message: "saved"},
			{Kind: "info", Message: "again"},
		},
		Data: "<x>",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `<title>T</title><p class="success">saved</p><p class="info">again</p>A &lt;x&gt;`, rec.Body.String())
}

func TestRenderFailureWritesNothing(t *testing.T) {
	engine, err := NewEngineFS(testFS())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, http.StatusOK, "pages/b.html", TemplateData{Data: 42})
	require.Error(t, err)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Type"))

	require.Error(t, engine.Render(httptest.NewRecorder(), http.StatusOK, "pages/nope.html", TemplateData{}))
}
