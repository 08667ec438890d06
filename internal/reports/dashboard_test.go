package reports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukegedo/fruver-orderflow/internal/apperrors"
	"github.com/ukegedo/fruver-orderflow/internal/aws/awstest"
	"github.com/ukegedo/fruver-orderflow/internal/catalog"
	"github.com/ukegedo/fruver-orderflow/internal/customers"
	"github.com/ukegedo/fruver-orderflow/internal/lifecycle"
	"github.com/ukegedo/fruver-orderflow/internal/money"
	"github.com/ukegedo/fruver-orderflow/internal/orders"
)

func TestBuild(t *testing.T) {
	ctx := context.Background()
	fake := awstest.NewFakeDynamo().
		CreateTable("products", "product_id").
		CreateTable("categories", "category_id").
		CreateTable("customers", "customer_id").
		CreateTable("orders", "order_id")
	cat := catalog.NewStore(fake, "products", "categories")
	ord := orders.NewStore(fake, "orders")
	cus := customers.NewStore(fake, "customers")
	mgr := lifecycle.NewManager(ord, cat, cus, nil)

	fruta, err := cat.CreateCategory(ctx, "Fruta")
	require.NoError(t, err)
	mango, err := cat.Create(ctx, catalog.Product{Name: "Mango", UnitPrice: money.New(3374), Stock: 100, Unit: catalog.UnitKg, CategoryID: fruta.CategoryID})
	require.NoError(t, err)
	banano, err := cat.Create(ctx, catalog.Product{Name: "Banano", UnitPrice: money.New(1500), Stock: 12, Unit: catalog.UnitHand, CategoryID: fruta.CategoryID})
	require.NoError(t, err)
	c, err := cus.Create(ctx, customers.Customer{Name: "Tienda Don Jose", Contact: "Jose"})
	require.NoError(t, err)

	o1, err := mgr.CreateOrder(ctx, lifecycle.Draft{CustomerID: c.CustomerID, Items: []lifecycle.DraftItem{
		{ProductID: mango.ProductID, Quantity: 10},
		{ProductID: banano.ProductID, Quantity: 4},
	}})
	require.NoError(t, err)
	_, err = mgr.CreateOrder(ctx, lifecycle.Draft{CustomerID: c.CustomerID, Items: []lifecycle.DraftItem{
		{ProductID: banano.ProductID, Quantity: 6},
	}})
	require.NoError(t, err)
	_, err = mgr.SetStatus(ctx, o1.Order.OrderID, orders.StatusFulfilled)
	require.NoError(t, err)

	d, err := NewBuilder(cat, ord, cus).Build(ctx, DefaultLowStockThreshold)
	require.NoError(t, err)

	assert.Equal(t, 1, d.Customers)
	assert.Equal(t, 2, d.Products)
	assert.Equal(t, 2, d.Orders)
	// 33740 + 6000 + 9000
	assert.True(t, d.Revenue.Equal(money.New(48740)), "revenue=%s", d.Revenue)
	assert.ElementsMatch(t, []StatusCount{
		{Status: orders.StatusPending, Label: "Pendiente", Count: 1},
		{Status: orders.StatusFulfilled, Label: "Completado", Count: 1},
	}, d.OrdersByStatus)

	require.Len(t, d.TopProducts, 2)
	assert.Equal(t, ProductSales{Name: "Banano", Unit: catalog.UnitHand, Quantity: 10}, d.TopProducts[0])
	assert.Equal(t, ProductSales{Name: "Mango", Unit: catalog.UnitKg, Quantity: 10}, d.TopProducts[1])

	require.Len(t, d.LowStock, 1)
	assert.Equal(t, "Banano", d.LowStock[0].Name)
	assert.Equal(t, 8, d.LowStock[0].Stock)
	assert.Equal(t, "Fruta", d.LowStock[0].Category)
	assert.Len(t, d.Stock, 2)
}

func TestBuild_NegativeThreshold(t *testing.T) {
	fake := awstest.NewFakeDynamo()
	b := NewBuilder(catalog.NewStore(fake, "p", "c"), orders.NewStore(fake, "o"), customers.NewStore(fake, "cu"))
	_, err := b.Build(context.Background(), -1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
