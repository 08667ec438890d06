package lifecycle

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ukegedo/fruver-orderflow/internal/apperrors"
	"github.com/ukegedo/fruver-orderflow/internal/catalog"
	"github.com/ukegedo/fruver-orderflow/internal/orders"
)

// decrementPlan holds the stock writes of one fulfillment, one per product.
type decrementPlan struct {
	writes   []types.TransactWriteItem
	warnings []Warning
	levels   []StockLevel
}

// plan reads the current stock of every product on the order. A product that
// no longer exists aborts the fulfillment with a DataIntegrityError.
func (m *Manager) plan(ctx context.Context, order orders.Order) (*decrementPlan, error) {
	ids, _ := order.QuantitiesByProduct()
	products := make(map[string]*catalog.Product, len(ids))
	for _, id := range ids {
		p, err := m.products.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if p == nil {
			return nil, &apperrors.DataIntegrityError{OrderID: order.OrderID, ProductID: id}
		}
		products[id] = p
	}
	return m.planFromProducts(order, products), nil
}

// planFromProducts computes the decrement against already loaded products.
// Line items of the same product are summed first so each product is written
// once; the clamp applies to the sum.
func (m *Manager) planFromProducts(order orders.Order, products map[string]*catalog.Product) *decrementPlan {
	ids, qty := order.QuantitiesByProduct()
	plan := &decrementPlan{}
	for _, id := range ids {
		p := products[id]
		next := p.Stock - qty[id]
		if next < 0 {
			plan.warnings = append(plan.warnings, Warning{
				Kind:        WarningStockClamped,
				ProductID:   id,
				ProductName: p.Name,
				Requested:   qty[id],
				Available:   p.Stock,
			})
			next = 0
		}
		plan.writes = append(plan.writes, m.products.StockWrite(id, p.Stock, next))
		plan.levels = append(plan.levels, StockLevel{
			ProductID:   id,
			ProductName: p.Name,
			Sold:        qty[id],
			Stock:       next,
		})
	}
	return plan
}
