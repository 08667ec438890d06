// Package lifecycle owns order creation and the order status state machine,
// including the stock decrement applied when an order is fulfilled.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/ukegedo/fruver-orderflow/internal/apperrors"
	"github.com/ukegedo/fruver-orderflow/internal/catalog"
	"github.com/ukegedo/fruver-orderflow/internal/customers"
	"github.com/ukegedo/fruver-orderflow/internal/orders"
)

// OrderStore persists orders. Stock writes passed along are committed in the
// same transaction as the order write.
type OrderStore interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	Create(ctx context.Context, order orders.Order, stockWrites ...types.TransactWriteItem) error
	ApplyTransition(ctx context.Context, orderID string, expected, next orders.Status, stockWrites ...types.TransactWriteItem) error
}

// ProductStore reads products and builds conditional stock writes.
type ProductStore interface {
	Get(ctx context.Context, productID string) (*catalog.Product, error)
	StockWrite(productID string, expected, next int) types.TransactWriteItem
}

// CustomerStore reads customers.
type CustomerStore interface {
	Get(ctx context.Context, customerID string) (*customers.Customer, error)
}

// Notifier is told about every committed status change.
type Notifier interface {
	Notify(ctx context.Context, ev StatusChanged) error
}

// Manager implements order creation and status transitions.
type Manager struct {
	orders    OrderStore
	products  ProductStore
	customers CustomerStore
	notifier  Notifier // optional
	nowFunc   func() time.Time
}

// NewManager wires a Manager. notifier may be nil.
func NewManager(orderStore OrderStore, productStore ProductStore, customerStore CustomerStore, notifier Notifier) *Manager {
	return &Manager{
		orders:    orderStore,
		products:  productStore,
		customers: customerStore,
		notifier:  notifier,
		nowFunc:   time.Now,
	}
}

// CreateOrder validates a draft, snapshots product names and prices into the
// line items and persists the order. Asking for more than is in stock is
// reported as a warning, not rejected. An order created directly as
// FULFILLED takes its stock in the same transaction.
func (m *Manager) CreateOrder(ctx context.Context, d Draft) (*Created, error) {
	if err := validateDraft(&d); err != nil {
		return nil, err
	}
	effect, err := orders.CreationEffect(d.Status)
	if err != nil {
		return nil, err
	}

	customer, err := m.customers.Get(ctx, d.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if customer == nil {
		return nil, apperrors.NotFound("customer", d.CustomerID)
	}

	products := map[string]*catalog.Product{}
	items := make([]orders.LineItem, 0, len(d.Items))
	for i, it := range d.Items {
		p, ok := products[it.ProductID]
		if !ok {
			p, err = m.products.Get(ctx, it.ProductID)
			if err != nil {
				return nil, fmt.Errorf("get product: %w", err)
			}
			if p == nil {
				return nil, apperrors.NotFound("product", it.ProductID)
			}
			products[it.ProductID] = p
		}
		if !p.UnitPrice.IsPositive() {
			return nil, apperrors.Invalid(fmt.Sprintf("items[%d].unit_price", i), fmt.Sprintf("product %s has no positive price", p.Name))
		}
		items = append(items, orders.NewLineItem(p.ProductID, p.Name, it.Quantity, p.UnitPrice))
	}

	now := m.nowFunc().UTC()
	order := orders.Order{
		OrderID:      d.OrderID,
		CustomerID:   customer.CustomerID,
		CustomerName: customer.Name,
		Status:       d.Status,
		Items:        items,
		Total:        orders.Total(items),
		DeliveryDate: d.DeliveryDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if order.OrderID == "" {
		order.OrderID = uuid.NewString()
	}
	if order.DeliveryDate.IsZero() {
		order.DeliveryDate = now.Truncate(24 * time.Hour)
	}

	var (
		warnings []Warning
		plan     *decrementPlan
	)
	if effect == orders.EffectDecrementStock {
		plan = m.planFromProducts(order, products)
		warnings = plan.warnings
	} else {
		warnings = availabilityWarnings(order, products)
	}

	var writes []types.TransactWriteItem
	if plan != nil {
		writes = plan.writes
	}
	if err := m.orders.Create(ctx, order, writes...); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	log.Printf("[lifecycle] created order=%s customer=%s status=%s items=%d total=%s",
		order.OrderID, order.CustomerID, order.Status, len(order.Items), order.Total)
	logWarnings(order.OrderID, warnings)

	ev := StatusChanged{
		OrderID:      order.OrderID,
		CustomerName: order.CustomerName,
		To:           order.Status,
		Total:        order.Total,
		ChangedAt:    now,
		Warnings:     warnings,
	}
	if plan != nil {
		ev.Stock = plan.levels
	}
	m.notify(ctx, ev)

	return &Created{Order: order, Warnings: warnings, Stock: ev.Stock}, nil
}

// SetStatus moves an order to newStatus. Entering FULFILLED from any other
// status decrements every line item's product stock, clamped at zero, in the
// same transaction as the status write. Re-entering FULFILLED does nothing to
// stock and leaving FULFILLED never restores it.
func (m *Manager) SetStatus(ctx context.Context, orderID string, newStatus orders.Status) (*Result, error) {
	if !newStatus.Valid() {
		return nil, apperrors.Invalid("status", fmt.Sprintf("unknown status %q", newStatus))
	}
	order, err := m.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, apperrors.NotFound("order", orderID)
	}

	previous := order.Status
	effect, err := orders.Transition(previous, newStatus)
	if err != nil {
		return nil, err
	}

	res := &Result{OrderID: orderID, Previous: previous, Current: newStatus}
	var writes []types.TransactWriteItem
	if effect == orders.EffectDecrementStock {
		plan, err := m.plan(ctx, *order)
		if err != nil {
			return nil, err
		}
		writes = plan.writes
		res.Warnings = plan.warnings
		res.Stock = plan.levels
	}

	if err := m.orders.ApplyTransition(ctx, orderID, previous, newStatus, writes...); err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}

	log.Printf("[lifecycle] order=%s status %s -> %s stock_writes=%d", orderID, previous, newStatus, len(writes))
	logWarnings(orderID, res.Warnings)

	m.notify(ctx, StatusChanged{
		OrderID:      orderID,
		CustomerName: order.CustomerName,
		From:         previous,
		To:           newStatus,
		Total:        order.Total,
		ChangedAt:    m.nowFunc().UTC(),
		Warnings:     res.Warnings,
		Stock:        res.Stock,
	})
	return res, nil
}

// Get returns an order or a NotFoundError.
func (m *Manager) Get(ctx context.Context, orderID string) (*orders.Order, error) {
	order, err := m.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, apperrors.NotFound("order", orderID)
	}
	return order, nil
}

func validateDraft(d *Draft) error {
	d.CustomerID = strings.TrimSpace(d.CustomerID)
	if d.CustomerID == "" {
		return apperrors.Invalid("customer_id", "is required")
	}
	if len(d.Items) == 0 {
		return apperrors.Invalid("items", "an order needs at least one line item")
	}
	for i, it := range d.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return apperrors.Invalid(fmt.Sprintf("items[%d].product_id", i), "is required")
		}
		if it.Quantity <= 0 {
			return apperrors.Invalid(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		if it.Quantity > orders.MaxLineQuantity {
			return apperrors.Invalid(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("must be at most %d", orders.MaxLineQuantity))
		}
	}
	perProduct := map[string]int{}
	for _, it := range d.Items {
		perProduct[it.ProductID] += it.Quantity
		if perProduct[it.ProductID] > orders.MaxLineQuantity {
			return apperrors.Invalid("items", fmt.Sprintf("product %s is ordered more than %d times in total", it.ProductID, orders.MaxLineQuantity))
		}
	}
	if len(perProduct) > orders.MaxOrderProducts {
		return apperrors.Invalid("items", fmt.Sprintf("an order holds at most %d distinct products", orders.MaxOrderProducts))
	}
	if d.Status == "" {
		d.Status = orders.StatusPending
	}
	if !d.Status.Valid() {
		return apperrors.Invalid("status", fmt.Sprintf("unknown status %q", d.Status))
	}
	return nil
}

// availabilityWarnings flags products whose total requested quantity exceeds
// the stock on hand when the order is created.
func availabilityWarnings(order orders.Order, products map[string]*catalog.Product) []Warning {
	ids, qty := order.QuantitiesByProduct()
	var out []Warning
	for _, id := range ids {
		p := products[id]
		if qty[id] > p.Stock {
			out = append(out, Warning{
				Kind:        WarningInsufficientStock,
				ProductID:   id,
				ProductName: p.Name,
				Requested:   qty[id],
				Available:   p.Stock,
			})
		}
	}
	return out
}

func (m *Manager) notify(ctx context.Context, ev StatusChanged) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, ev); err != nil {
		log.Printf("[lifecycle] notify failed order=%s %s -> %s: %v", ev.OrderID, ev.From, ev.To, err)
	}
}

func logWarnings(orderID string, warnings []Warning) {
	for _, w := range warnings {
		log.Printf("[lifecycle] warning order=%s kind=%s product=%s requested=%d available=%d",
			orderID, w.Kind, w.ProductID, w.Requested, w.Available)
	}
}
