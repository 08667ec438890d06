package customers

import "time"

// Customer is the item stored in the customers table.
type Customer struct {
	CustomerID string    `dynamodbav:"customer_id" json:"customer_id"` // PK
	Name       string    `dynamodbav:"name" json:"name"`
	Contact    string    `dynamodbav:"contact" json:"contact"` // contact person
	Email      string    `dynamodbav:"email,omitempty" json:"email,omitempty"`
	Phone      string    `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
	Address    string    `dynamodbav:"address,omitempty" json:"address,omitempty"`
	CreatedAt  time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt  time.Time `dynamodbav:"updated_at" json:"updated_at"`
}
