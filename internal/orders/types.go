package orders

import (
	"math"
	"time"

	"github.com/ukegedo/fruver-orderflow/internal/money"
)

// Order represents the item stored in the Orders DynamoDB table.
// Line items are embedded and never modified after creation.
type Order struct {
	OrderID      string       `dynamodbav:"order_id" json:"order_id"` // PK
	CustomerID   string       `dynamodbav:"customer_id" json:"customer_id"`
	CustomerName string       `dynamodbav:"customer_name" json:"customer_name"` // snapshot at creation
	Status       Status       `dynamodbav:"status" json:"status"`
	Items        []LineItem   `dynamodbav:"items" json:"items"`
	Total        money.Amount `dynamodbav:"total" json:"total"` // sum of item subtotals
	DeliveryDate time.Time    `dynamodbav:"delivery_date" json:"delivery_date"`
	CreatedAt    time.Time    `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `dynamodbav:"updated_at" json:"updated_at"`
}

// LineItem snapshots the product name and price at order creation.
type LineItem struct {
	ProductID   string       `dynamodbav:"product_id" json:"product_id"`
	ProductName string       `dynamodbav:"product_name" json:"product_name"`
	Quantity    int          `dynamodbav:"quantity" json:"quantity"`
	UnitPrice   money.Amount `dynamodbav:"unit_price" json:"unit_price"`
	Subtotal    money.Amount `dynamodbav:"subtotal" json:"subtotal"`
}

// NewLineItem computes the subtotal from the snapshot price.
func NewLineItem(productID, productName string, quantity int, unitPrice money.Amount) LineItem {
	return LineItem{
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Subtotal:    unitPrice.Mul(quantity),
	}
}

// Total sums the subtotals of items.
func Total(items []LineItem) money.Amount {
	total := money.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// Limits on a single order.
const (
	// MaxLineQuantity bounds the quantity of one product in an order, summed
	// over its line items.
	MaxLineQuantity = 100000
	// MaxOrderProducts bounds the distinct products in an order: fulfillment
	// writes the order and every product in one transaction of at most 100 actions.
	MaxOrderProducts = 99
)

// QuantitiesByProduct sums the ordered quantity per product id, keeping the
// order in which products first appear. Sums saturate at math.MaxInt.
func (o Order) QuantitiesByProduct() ([]string, map[string]int) {
	var ids []string
	qty := map[string]int{}
	for _, it := range o.Items {
		cur, ok := qty[it.ProductID]
		if !ok {
			ids = append(ids, it.ProductID)
		}
		qty[it.ProductID] = addQuantity(cur, it.Quantity)
	}
	return ids, qty
}

func addQuantity(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}
