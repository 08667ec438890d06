package customers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/ukegedo/fruver-orderflow/internal/apperrors"
	"github.com/ukegedo/fruver-orderflow/internal/aws"
)

// Store encapsulates operations on the customers table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new customers Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

func validate(c Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperrors.Invalid("name", "is required")
	}
	if strings.TrimSpace(c.Contact) == "" {
		return apperrors.Invalid("contact", "is required")
	}
	return nil
}

// Create persists a new customer. The id is generated when empty.
func (s *Store) Create(ctx context.Context, c Customer) (*Customer, error) {
	if err := validate(c); err != nil {
		return nil, err
	}
	if c.CustomerID == "" {
		c.CustomerID = uuid.NewString()
	}
	now := s.nowFunc().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.put(ctx, c, "attribute_not_exists(customer_id)"); err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return nil, fmt.Errorf("customer %s: %w", c.CustomerID, apperrors.ErrConflict)
		}
		return nil, err
	}
	return &c, nil
}

// Get fetches a customer by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, customerID string) (*Customer, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       customerKey(customerID),
	})
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var c Customer
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("unmarshal customer: %w", err)
	}
	return &c, nil
}

// List returns every customer ordered by name.
func (s *Store) List(ctx context.Context) ([]Customer, error) {
	var out []Customer
	if err := aws.ScanAll(ctx, s.client, s.tableName, &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Update replaces the contact details of an existing customer.
// Orders keep the customer name they were created with.
func (s *Store) Update(ctx context.Context, c Customer) (*Customer, error) {
	if err := validate(c); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, c.CustomerID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperrors.NotFound("customer", c.CustomerID)
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.nowFunc().UTC()
	if err := s.put(ctx, c, "attribute_exists(customer_id)"); err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return nil, apperrors.NotFound("customer", c.CustomerID)
		}
		return nil, err
	}
	return &c, nil
}

// Delete removes a customer.
func (s *Store) Delete(ctx context.Context, customerID string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName:           &s.tableName,
		Key:                 customerKey(customerID),
		ConditionExpression: aws.String("attribute_exists(customer_id)"),
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return apperrors.NotFound("customer", customerID)
		}
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, c Customer, condition string) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal customer: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: &condition,
	})
	if err != nil {
		return fmt.Errorf("put customer: %w", err)
	}
	return nil
}

func customerKey(customerID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"customer_id": &types.AttributeValueMemberS{Value: customerID},
	}
}
