package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukegedo/fruver-orderflow/internal/aws/awstest"
	"github.com/ukegedo/fruver-orderflow/internal/catalog"
	"github.com/ukegedo/fruver-orderflow/internal/customers"
	"github.com/ukegedo/fruver-orderflow/internal/idempotency"
	"github.com/ukegedo/fruver-orderflow/internal/lifecycle"
	"github.com/ukegedo/fruver-orderflow/internal/metrics"
	"github.com/ukegedo/fruver-orderflow/internal/money"
	"github.com/ukegedo/fruver-orderflow/internal/orders"
	"github.com/ukegedo/fruver-orderflow/internal/reports"
)

type testAPI struct {
	router *gin.Engine
	fake   *awstest.FakeDynamo
	cfg    HandlerConfig
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fake := awstest.NewFakeDynamo().
		CreateTable("products", "product_id").
		CreateTable("categories", "category_id").
		CreateTable("customers", "customer_id").
		CreateTable("orders", "order_id").
		CreateTable("idempotency", "idempotency_key")
	cat := catalog.NewStore(fake, "products", "categories")
	cus := customers.NewStore(fake, "customers")
	ord := orders.NewStore(fake, "orders")
	cfg := HandlerConfig{
		Catalog:           cat,
		Customers:         cus,
		Orders:            ord,
		Idempotency:       idempotency.NewStore(fake, "idempotency", time.Hour),
		Lifecycle:         lifecycle.NewManager(ord, cat, cus, nil),
		Reports:           reports.NewBuilder(cat, ord, cus),
		Metrics:           metrics.NewServerMetrics("api_test"),
		LowStockThreshold: 10,
	}
	return &testAPI{router: NewRouter(cfg), fake: fake, cfg: cfg}
}

func (a *testAPI) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) product(t *testing.T, name string, price int64, stock int) *catalog.Product {
	t.Helper()
	p, err := a.cfg.Catalog.Create(context.Background(), catalog.Product{Name: name, UnitPrice: money.New(price), Stock: stock, Unit: catalog.UnitKg})
	require.NoError(t, err)
	return p
}

func (a *testAPI) customer(t *testing.T) *customers.Customer {
	t.Helper()
	c, err := a.cfg.Customers.Create(context.Background(), customers.Customer{Name: "Restaurante Verde", Contact: "Marta"})
	require.NoError(t, err)
	return c
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

type createdOrder struct {
	Order    orders.Order           `json:"order"`
	Warnings []lifecycle.Warning    `json:"warnings"`
	Stock    []lifecycle.StockLevel `json:"stock"`
}

func orderBody(customerID string, items ...string) string {
	return `{"customer_id":"` + customerID + `","items":[` + strings.Join(items, ",") + `]}`
}

func item(productID string, qty string) string {
	return `{"product_id":"` + productID + `","quantity":` + qty + `}`
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCreateOrder_IdempotentReplay(t *testing.T) {
	a := newTestAPI(t)
	mango := a.product(t, "Mango", 3374, 100)
	c := a.customer(t)
	body := orderBody(c.CustomerID, item(mango.ProductID, "10"))

	first := a.do(http.MethodPost, "/orders", body, "Idempotency-Key", "key-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	var created createdOrder
	decode(t, first, &created)
	assert.True(t, created.Order.Total.Equal(money.New(33740)))
	assert.Equal(t, orders.StatusPending, created.Order.Status)
	assert.Equal(t, "/orders/"+created.Order.OrderID, first.Header().Get("Location"))

	second := a.do(http.MethodPost, "/orders", body, "Idempotency-Key", "key-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, a.fake.Len("orders"))

	other := a.do(http.MethodPost, "/orders", orderBody(c.CustomerID, item(mango.ProductID, "11")), "Idempotency-Key", "key-1")
	assert.Equal(t, http.StatusUnprocessableEntity, other.Code)
}

func TestCreateOrder_FulfilledReportsStock(t *testing.T) {
	a := newTestAPI(t)
	mango := a.product(t, "Mango", 3374, 100)
	c := a.customer(t)
	body := `{"customer_id":"` + c.CustomerID + `","status":"FULFILLED","items":[` + item(mango.ProductID, "10") + `]}`

	w := a.do(http.MethodPost, "/orders", body, "Idempotency-Key", "key-fulfilled")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created createdOrder
	decode(t, w, &created)
	assert.Equal(t, orders.StatusFulfilled, created.Order.Status)
	require.Len(t, created.Stock, 1)
	assert.Equal(t, mango.ProductID, created.Stock[0].ProductID)
	assert.Equal(t, 10, created.Stock[0].Sold)
	assert.Equal(t, 90, created.Stock[0].Stock)

	pending := a.do(http.MethodPost, "/orders", orderBody(c.CustomerID, item(mango.ProductID, "1")), "Idempotency-Key", "key-pending")
	require.Equal(t, http.StatusCreated, pending.Code, pending.Body.String())
	assert.NotContains(t, pending.Body.String(), `"stock"`)
}

func TestCreateOrder_RequestErrors(t *testing.T) {
	a := newTestAPI(t)
	mango := a.product(t, "Mango", 3374, 100)
	c := a.customer(t)

	w := a.do(http.MethodPost, "/orders", orderBody(c.CustomerID, item(mango.ProductID, "1")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing_idempotency_key")

	w = a.do(http.MethodPost, "/orders", orderBody(c.CustomerID), "Idempotency-Key", "k-empty")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/orders", orderBody(c.CustomerID, item(mango.ProductID, "0")), "Idempotency-Key", "k-zero")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/orders", orderBody("ghost", item(mango.ProductID, "1")), "Idempotency-Key", "k-ghost")
	assert.Equal(t, http.StatusNotFound, w.Code)
	replay := a.do(http.MethodPost, "/orders", orderBody("ghost", item(mango.ProductID, "1")), "Idempotency-Key", "k-ghost")
	assert.Equal(t, http.StatusNotFound, replay.Code)
	assert.Equal(t, w.Body.String(), replay.Body.String())

	assert.Equal(t, 0, a.fake.Len("orders"))
}

func TestCreateOrder_InProgressAndFailedKeys(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	c := a.customer(t)
	body := orderBody(c.CustomerID, item("p-1", "1"))
	fp := idempotency.Fingerprint([]byte(body))

	_, err := a.cfg.Idempotency.CreateIfNotExists(ctx, "busy", "o-1", fp)
	require.NoError(t, err)
	w := a.do(http.MethodPost, "/orders", body, "Idempotency-Key", "busy")
	assert.Equal(t, http.StatusAccepted, w.Code)

	require.NoError(t, a.cfg.Idempotency.MarkFailed(ctx, "busy", "boom"))
	w = a.do(http.MethodPost, "/orders", body, "Idempotency-Key", "busy")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "previous_attempt_failed")
}

func TestSetStatus_FulfillAndWarnings(t *testing.T) {
	a := newTestAPI(t)
	fresa := a.product(t, "Fresa", 9500, 5)
	c := a.customer(t)

	w := a.do(http.MethodPost, "/orders", orderBody(c.CustomerID, item(fresa.ProductID, "10")), "Idempotency-Key", "k-fresa")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created createdOrder
	decode(t, w, &created)
	require.Len(t, created.Warnings, 1)
	assert.Equal(t, lifecycle.WarningInsufficientStock, created.Warnings[0].Kind)

	path := "/orders/" + created.Order.OrderID + "/status"
	w = a.do(http.MethodPut, path, `{"status":"Completado"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res lifecycle.Result
	decode(t, w, &res)
	assert.Equal(t, orders.StatusFulfilled, res.Current)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, lifecycle.WarningStockClamped, res.Warnings[0].Kind)

	w = a.do(http.MethodGet, "/products/"+fresa.ProductID, "")
	var p catalog.Product
	decode(t, w, &p)
	assert.Equal(t, 0, p.Stock)

	w = a.do(http.MethodPut, path, `{"status":"SHIPPED"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPut, "/orders/ghost/status", `{"status":"PENDING"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetStatus_MissingProductConflict(t *testing.T) {
	a := newTestAPI(t)
	mango := a.product(t, "Mango", 3374, 100)
	c := a.customer(t)

	w := a.do(http.MethodPost, "/orders", orderBody(c.CustomerID, item(mango.ProductID, "3")), "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, w.Code)
	var created createdOrder
	decode(t, w, &created)

	w = a.do(http.MethodDelete, "/products/"+mango.ProductID, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(http.MethodPut, "/orders/"+created.Order.OrderID+"/status", `{"status":"FULFILLED"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "data_integrity")

	w = a.do(http.MethodGet, "/orders/"+created.Order.OrderID, "")
	var o orders.Order
	decode(t, w, &o)
	assert.Equal(t, orders.StatusPending, o.Status)
}

func TestProducts(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodPost, "/categories", `{"name":"Fruta"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var cat catalog.Category
	decode(t, w, &cat)

	w = a.do(http.MethodPost, "/products", `{"name":"Mango","unit_price":3374,"stock":20,"unit":"Kg","category_id":"`+cat.CategoryID+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p catalog.Product
	decode(t, w, &p)

	w = a.do(http.MethodPost, "/products", `{"name":"mango","unit_price":1,"stock":1,"unit":"Kg"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/products", `{"name":"Pera","unit_price":0,"stock":1,"unit":"Kg"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/products/"+p.ProductID+"/stock", `{"delta":-5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &p)
	assert.Equal(t, 15, p.Stock)

	w = a.do(http.MethodPost, "/products/"+p.ProductID+"/stock", `{"delta":-16}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = a.do(http.MethodPost, "/products/"+p.ProductID+"/stock", `{"delta":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/products", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Mango"`)

	w = a.do(http.MethodGet, "/products/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomers(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(http.MethodPost, "/customers", `{"name":"Hotel Andino","contact":"Pedro","email":"compras@andino.co"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var c customers.Customer
	decode(t, w, &c)

	w = a.do(http.MethodPost, "/customers", `{"name":"Sin contacto"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPut, "/customers/"+c.CustomerID, `{"name":"Hotel Andino","contact":"Sofia"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/customers/"+c.CustomerID, "")
	decode(t, w, &c)
	assert.Equal(t, "Sofia", c.Contact)

	w = a.do(http.MethodDelete, "/customers/"+c.CustomerID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = a.do(http.MethodGet, "/customers/"+c.CustomerID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardAndMetrics(t *testing.T) {
	a := newTestAPI(t)
	mango := a.product(t, "Mango", 3374, 100)
	a.product(t, "Guayaba", 2100, 4)
	c := a.customer(t)

	w := a.do(http.MethodPost, "/orders", orderBody(c.CustomerID, item(mango.ProductID, "10")), "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(http.MethodGet, "/reports/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var d reports.Dashboard
	decode(t, w, &d)
	assert.Equal(t, 1, d.Orders)
	assert.True(t, d.Revenue.Equal(money.New(33740)))
	require.Len(t, d.LowStock, 1)
	assert.Equal(t, "Guayaba", d.LowStock[0].Name)

	w = a.do(http.MethodGet, "/reports/dashboard?low_stock_threshold=100", "")
	decode(t, w, &d)
	assert.Len(t, d.LowStock, 2)

	w = a.do(http.MethodGet, "/reports/dashboard?low_stock_threshold=lots", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("fruver_api_test_http_requests_total")))
}
