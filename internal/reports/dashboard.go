// Package reports builds the management dashboard from the stores.
package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ukegedo/fruver-orderflow/internal/apperrors"
	"github.com/ukegedo/fruver-orderflow/internal/catalog"
	"github.com/ukegedo/fruver-orderflow/internal/customers"
	"github.com/ukegedo/fruver-orderflow/internal/money"
	"github.com/ukegedo/fruver-orderflow/internal/orders"
)

// DefaultLowStockThreshold applies when no threshold is configured.
const DefaultLowStockThreshold = 10

// CatalogReader lists products and categories.
type CatalogReader interface {
	List(ctx context.Context) ([]catalog.Product, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
}

// OrderReader lists every order.
type OrderReader interface {
	List(ctx context.Context) ([]orders.Order, error)
}

// CustomerReader lists every customer.
type CustomerReader interface {
	List(ctx context.Context) ([]customers.Customer, error)
}

// StatusCount is the number of orders in one status.
type StatusCount struct {
	Status orders.Status `json:"status"`
	Label  string        `json:"label"`
	Count  int           `json:"count"`
}

// ProductSales is the quantity ordered of one product across all orders,
// grouped by the name captured on the line items.
type ProductSales struct {
	Name     string `json:"name"`
	Unit     string `json:"unit,omitempty"`
	Quantity int    `json:"quantity"`
}

// StockRow is a product's current stock with its category name resolved.
type StockRow struct {
	ProductID string       `json:"product_id"`
	Name      string       `json:"name"`
	Category  string       `json:"category,omitempty"`
	Unit      string       `json:"unit"`
	Stock     int          `json:"stock"`
	UnitPrice money.Amount `json:"unit_price"`
}

// Dashboard is the summary served by GET /reports/dashboard.
type Dashboard struct {
	Customers      int            `json:"customers"`
	Products       int            `json:"products"`
	Orders         int            `json:"orders"`
	OrdersByStatus []StatusCount  `json:"orders_by_status"`
	Revenue        money.Amount   `json:"revenue"`
	TopProducts    []ProductSales `json:"top_products"`
	Stock          []StockRow     `json:"stock"`
	LowStock       []StockRow     `json:"low_stock"`
	Threshold      int            `json:"low_stock_threshold"`
}

// Builder assembles a Dashboard from the stores.
type Builder struct {
	catalog   CatalogReader
	orders    OrderReader
	customers CustomerReader
}

// NewBuilder returns a Builder reading from the given stores.
func NewBuilder(c CatalogReader, o OrderReader, cu CustomerReader) *Builder {
	return &Builder{catalog: c, orders: o, customers: cu}
}

// Build reads every table once. Revenue sums the totals of all orders,
// whatever their status. Products at or below threshold are low on stock.
func (b *Builder) Build(ctx context.Context, threshold int) (*Dashboard, error) {
	if threshold < 0 {
		return nil, apperrors.Invalid("low_stock_threshold", "must not be negative")
	}
	products, err := b.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	categories, err := b.catalog.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	allOrders, err := b.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	allCustomers, err := b.customers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	d := &Dashboard{
		Customers: len(allCustomers),
		Products:  len(products),
		Orders:    len(allOrders),
		Revenue:   money.Zero,
		Threshold: threshold,
	}

	counts := map[orders.Status]int{}
	sold := map[string]*ProductSales{}
	for _, o := range allOrders {
		counts[o.Status]++
		d.Revenue = d.Revenue.Add(o.Total)
		for _, it := range o.Items {
			ps, ok := sold[it.ProductName]
			if !ok {
				ps = &ProductSales{Name: it.ProductName}
				sold[it.ProductName] = ps
			}
			ps.Quantity += it.Quantity
		}
	}
	for _, s := range orders.Statuses {
		if counts[s] > 0 {
			d.OrdersByStatus = append(d.OrdersByStatus, StatusCount{Status: s, Label: s.Label(), Count: counts[s]})
		}
	}

	units := make(map[string]string, len(products))
	for _, p := range products {
		units[strings.ToLower(p.Name)] = p.Unit
	}
	for _, ps := range sold {
		ps.Unit = units[strings.ToLower(ps.Name)]
		d.TopProducts = append(d.TopProducts, *ps)
	}
	sort.Slice(d.TopProducts, func(i, j int) bool {
		a, b := d.TopProducts[i], d.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.Name < b.Name
	})

	categoryNames := make(map[string]string, len(categories))
	for _, c := range categories {
		categoryNames[c.CategoryID] = c.Name
	}
	for _, p := range products {
		row := StockRow{
			ProductID: p.ProductID,
			Name:      p.Name,
			Category:  categoryNames[p.CategoryID],
			Unit:      p.Unit,
			Stock:     p.Stock,
			UnitPrice: p.UnitPrice,
		}
		d.Stock = append(d.Stock, row)
		if p.Stock <= threshold {
			d.LowStock = append(d.LowStock, row)
		}
	}
	return d, nil
}
