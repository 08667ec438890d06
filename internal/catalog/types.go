package catalog

import (
	"time"

	"github.com/ukegedo/fruver-orderflow/internal/money"
)

// Units of measure products are sold and stocked in.
const (
	UnitKg    = "Kg"
	UnitPiece = "Unidad"
	UnitBunch = "Atado"
	UnitHand  = "Mano"
	UnitBag   = "Bolsa"
	UnitPound = "Libra"
)

// Units lists every accepted unit of measure.
var Units = []string{UnitKg, UnitPiece, UnitBunch, UnitHand, UnitBag, UnitPound}

// ValidUnit reports whether u is an accepted unit of measure.
func ValidUnit(u string) bool {
	for _, known := range Units {
		if u == known {
			return true
		}
	}
	return false
}

// Product is the item stored in the products table.
type Product struct {
	ProductID   string       `dynamodbav:"product_id" json:"product_id"` // PK
	Name        string       `dynamodbav:"name" json:"name"`             // unique, case-insensitive
	Description string       `dynamodbav:"description,omitempty" json:"description,omitempty"`
	UnitPrice   money.Amount `dynamodbav:"unit_price" json:"unit_price"`
	Stock       int          `dynamodbav:"stock" json:"stock"` // never negative
	CategoryID  string       `dynamodbav:"category_id,omitempty" json:"category_id,omitempty"`
	Unit        string       `dynamodbav:"unit" json:"unit"`
	CreatedAt   time.Time    `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `dynamodbav:"updated_at" json:"updated_at"`
}

// Category groups products (Fruta, Verdura, ...).
type Category struct {
	CategoryID string `dynamodbav:"category_id" json:"category_id"` // PK
	Name       string `dynamodbav:"name" json:"name"`
}
