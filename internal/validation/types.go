package validation

import (
	"time"

	"github.com/ukegedo/fruver-orderflow/internal/money"
)

// Item represents a single order line item.
type Item struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=100000"` // orders.MaxLineQuantity
}

// CreateOrderRequest is the payload for POST /orders
type CreateOrderRequest struct {
	CustomerID   string     `json:"customer_id" validate:"required"`
	Items        []Item     `json:"items" validate:"required,min=1,max=500,dive"` // at least one item
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	Status       string     `json:"status,omitempty"` // canonical value or label; defaults to PENDING
}

// StatusRequest is the payload for PUT /orders/:id/status
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ProductRequest is the payload for POST and PUT /products
type ProductRequest struct {
	Name        string       `json:"name" validate:"required,max=120"`
	Description string       `json:"description,omitempty" validate:"max=500"`
	UnitPrice   money.Amount `json:"unit_price" validate:"required,gt=0"`
	Stock       int          `json:"stock" validate:"min=0"`
	CategoryID  string       `json:"category_id,omitempty"`
	Unit        string       `json:"unit" validate:"required,oneof=Kg Unidad Atado Mano Bolsa Libra"`
}

// StockAdjustRequest is the payload for POST /products/:id/stock.
// Positive deltas add stock, negative ones subtract it.
type StockAdjustRequest struct {
	Delta int `json:"delta"`
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=60"`
}

// CustomerRequest is the payload for POST and PUT /customers
type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Contact string `json:"contact" validate:"required,max=120"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty" validate:"max=30"`
	Address string `json:"address,omitempty" validate:"max=250"`
}
