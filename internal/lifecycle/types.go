package lifecycle

import (
	"time"

	"github.com/ukegedo/fruver-orderflow/internal/money"
	"github.com/ukegedo/fruver-orderflow/internal/orders"
)

// Draft is an order being assembled by a client, handed over only when it is
// committed. Nothing in this package keeps drafts between calls.
type Draft struct {
	OrderID      string // generated when empty
	CustomerID   string
	DeliveryDate time.Time     // defaults to the creation day
	Status       orders.Status // defaults to PENDING
	Items        []DraftItem
}

// DraftItem requests quantity units of a product.
type DraftItem struct {
	ProductID string
	Quantity  int
}

// WarningKind classifies non-fatal stock warnings.
type WarningKind string

const (
	// WarningInsufficientStock: an order asks for more than is in stock at creation.
	WarningInsufficientStock WarningKind = "insufficient_stock"
	// WarningStockClamped: fulfillment would have driven stock negative; it was set to 0.
	WarningStockClamped WarningKind = "stock_clamped"
)

// Warning is a non-fatal condition reported alongside a successful operation.
type Warning struct {
	Kind        WarningKind `json:"kind"`
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	Requested   int         `json:"requested"`
	Available   int         `json:"available"`
}

// StockLevel is a product stock value after a fulfillment.
type StockLevel struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Sold        int    `json:"sold"`
	Stock       int    `json:"stock"`
}

// Created is the result of CreateOrder. Stock is set only for an order
// created directly as FULFILLED, whose creation takes its stock.
type Created struct {
	Order    orders.Order `json:"order"`
	Warnings []Warning    `json:"warnings,omitempty"`
	Stock    []StockLevel `json:"stock,omitempty"`
}

// Result is the result of SetStatus.
type Result struct {
	OrderID  string        `json:"order_id"`
	Previous orders.Status `json:"previous"`
	Current  orders.Status `json:"current"`
	Warnings []Warning     `json:"warnings,omitempty"`
	Stock    []StockLevel  `json:"stock,omitempty"`
}

// StatusChanged is published after a status change or an order creation is
// committed. From is empty for a newly created order.
type StatusChanged struct {
	OrderID      string        `json:"order_id"`
	CustomerName string        `json:"customer_name"`
	From         orders.Status `json:"from"`
	To           orders.Status `json:"to"`
	Total        money.Amount  `json:"total"`
	ChangedAt    time.Time     `json:"changed_at"`
	Warnings     []Warning     `json:"warnings,omitempty"`
	Stock        []StockLevel  `json:"stock,omitempty"`
}

// Fulfilled reports whether the change entered FULFILLED and decremented stock.
func (e StatusChanged) Fulfilled() bool {
	return e.To == orders.StatusFulfilled && e.From != orders.StatusFulfilled
}
